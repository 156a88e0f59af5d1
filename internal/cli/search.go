package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/ui"
)

var (
	searchLimit   int
	searchContent bool
	docsContent   bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the knowledge base documents most similar to a query",
	Long: `Rank the knowledge base against a query by cosine similarity. These are
the documents a debate on the same topic would be given.

Examples:
  ldebate search "european expansion"
  ldebate search "pricing risk" -k 5 -c`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

// docsCmd lists the knowledge base.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the documents in the knowledge base",
	Args:  cobra.NoArgs,
	RunE:  runDocsCmd,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVarP(&searchContent, "content", "c", false, "show document content")

	docsCmd.Flags().BoolVarP(&docsContent, "content", "c", false, "show document content")
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	log.Debug("Starting search", "query", query, "limit", searchLimit)

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	resp := svc.Search(ctx, query, searchLimit)

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := printJSON(out, resp); err != nil {
			return err
		}
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	if jsonOut {
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(out, ui.Dim.Render("No documents in the knowledge base."))
		return nil
	}

	for i, r := range resp.Results {
		fmt.Fprintf(out, "%d. %s %s\n", i+1, ui.FilePath.Render(r.Filename), ui.FormatScore(r.Score))
		if searchContent {
			fmt.Fprintln(out, ui.ResultContent.Render(r.Content.String()))
		}
	}
	return nil
}

func runDocsCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	docs := svc.ListDocuments()

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, docs)
	}

	if len(docs) == 0 {
		fmt.Fprintf(out, "%s\n", ui.Dim.Render("No documents in "+svc.Knowledge().Store().Dir()))
		return nil
	}

	fmt.Fprintln(out, ui.Header.Render(fmt.Sprintf("%d documents", len(docs))))
	for _, d := range docs {
		fmt.Fprintf(out, "  %s %s\n", ui.FilePath.Render(d.Filename), ui.Dim.Render("("+string(d.Kind)+")"))
		if docsContent {
			fmt.Fprintln(out, ui.ResultContent.Render(d.Content.String()))
		}
	}
	return nil
}
