package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/api"
	"github.com/nickcecere/ldebate/internal/ui"
)

var addName string

// addCmd uploads files into the knowledge directory.
var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add files to the knowledge base",
	Long: `Copy files into the knowledge directory and re-index the knowledge base.
Files ending in .json are parsed as records; anything that is not a JSON
object is kept as raw text.

Examples:
  ldebate add q3-report.txt
  ldebate add export.json --name market.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAddCmd,
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "store the file under this name (single file only)")
}

func runAddCmd(cmd *cobra.Command, args []string) error {
	if addName != "" && len(args) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	results := make([]api.UploadResult, 0, len(args))

	// every upload re-embeds the whole corpus, so show progress for batches
	var progress *ui.Progress
	if !jsonOut && ui.IsTerminal(cmd.ErrOrStderr()) {
		progress = ui.NewProgress(cmd.ErrOrStderr(), len(args), "adding")
	}

	for _, path := range args {
		name := filepath.Base(path)
		if addName != "" {
			name = addName
		}

		var res api.UploadResult
		raw, err := os.ReadFile(path)
		if err != nil {
			res = api.UploadResult{Error: err.Error()}
		} else {
			res = svc.UploadDocument(ctx, name, raw)
		}
		if res.Filename == "" {
			res.Filename = name
		}
		results = append(results, res)
		progress.Increment()
	}
	progress.Finish()

	failed := 0
	for i, res := range results {
		if res.Error != "" {
			failed++
		}
		if jsonOut {
			continue
		}
		if res.Error != "" {
			fmt.Fprintf(out, "%s %s: %s\n", ui.Error.Render("✗"), args[i], res.Error)
		} else {
			fmt.Fprintf(out, "%s %s (%d bytes)\n", ui.Success.Render("✓"), ui.FilePath.Render(res.Filename), res.Size)
		}
	}

	if jsonOut {
		if err := printJSON(out, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
