package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/api"
	"github.com/nickcecere/ldebate/internal/synthesis"
	"github.com/nickcecere/ldebate/internal/ui"
)

var (
	debateShowContext bool
	stageOptimist     string
	stagePessimist    string
)

// debateCmd runs the full three-stage debate.
var debateCmd = &cobra.Command{
	Use:   "debate <topic>",
	Short: "Run a full optimist, pessimist and synthesizer debate",
	Long: `Retrieve the most relevant documents for a topic and run the three
debate stages in order. The pessimist sees the optimist's argument and the
synthesizer sees both. A stage that fails is replaced by a failure notice and
the debate continues.

Examples:
  ldebate debate "Should we expand to Europe next year?"
  ldebate debate --context "Raise prices by 10%?"
  ldebate debate --json "Hire a sales team?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDebateCmd,
}

// optimistCmd runs only the optimist stage.
var optimistCmd = &cobra.Command{
	Use:   "optimist <topic>",
	Short: "Generate only the optimist argument",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, svc *api.Service, topic string) api.StageResponse {
			return svc.Optimist(ctx, topic)
		}, args)
	},
}

// pessimistCmd runs only the pessimist stage.
var pessimistCmd = &cobra.Command{
	Use:   "pessimist <topic>",
	Short: "Generate only the pessimist argument",
	Long: `Generate the pessimist argument for a topic. Pass --optimist to have the
pessimist respond to an existing optimist argument.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, svc *api.Service, topic string) api.StageResponse {
			return svc.Pessimist(ctx, topic, stageOptimist)
		}, args)
	},
}

// synthesizeCmd resumes a debate at the synthesis stage.
var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <topic>",
	Short: "Synthesize existing optimist and pessimist arguments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, svc *api.Service, topic string) api.StageResponse {
			return svc.Synthesis(ctx, topic, stageOptimist, stagePessimist)
		}, args)
	},
}

func init() {
	debateCmd.Flags().BoolVar(&debateShowContext, "context", false, "show the retrieved context")

	pessimistCmd.Flags().StringVar(&stageOptimist, "optimist", "", "optimist argument to respond to")

	synthesizeCmd.Flags().StringVar(&stageOptimist, "optimist", "", "optimist argument")
	synthesizeCmd.Flags().StringVar(&stagePessimist, "pessimist", "", "pessimist argument")
	_ = synthesizeCmd.MarkFlagRequired("optimist")
	_ = synthesizeCmd.MarkFlagRequired("pessimist")
}

func runDebateCmd(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	var spinner *ui.Spinner
	if !jsonOut {
		spinner = ui.StartSpinner(os.Stderr, "Debating")
	}
	resp := svc.RunDebate(ctx, topic)
	if spinner != nil {
		spinner.Stop()
	}

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

	printDebate(out, resp, debateShowContext)
	return nil
}

func printDebate(out io.Writer, resp api.DebateResponse, showContext bool) {
	res := resp.Result

	fmt.Fprintln(out, ui.Header.Render(res.Topic))
	fmt.Fprintln(out, ui.HorizontalRule(60))

	if showContext {
		if res.Context == "" {
			fmt.Fprintln(out, ui.Dim.Render("No relevant documents."))
		} else {
			fmt.Fprintln(out, ui.Dim.Render(strings.TrimRight(res.Context, "\n")))
		}
	}

	fmt.Fprintln(out, ui.RoleTitle("optimist"))
	fmt.Fprintln(out, res.Optimist)
	fmt.Fprintln(out, ui.RoleTitle("pessimist"))
	fmt.Fprintln(out, res.Pessimist)
	fmt.Fprintln(out, ui.RoleTitle("synthesizer"))

	body := res.Synthesis
	if !res.Sections.Empty() {
		body = sectionsMarkdown(res.Sections)
	}
	if rendered, err := ui.RenderMarkdown(body); err == nil {
		fmt.Fprint(out, rendered)
	} else {
		fmt.Fprintln(out, body)
	}

	for _, role := range res.Failed {
		fmt.Fprintln(out, ui.Warning.Render(fmt.Sprintf("%s stage failed", role.Title())))
	}
	fmt.Fprintln(out, ui.Dim.Render(fmt.Sprintf("Debate %s finished in %s", res.ID, res.Duration.Round(time.Millisecond))))
}

// sectionsMarkdown lays parsed synthesis sections out as markdown.
func sectionsMarkdown(s synthesis.Sections) string {
	var sb strings.Builder

	writeText := func(title, text string) {
		if text == "" {
			return
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", title, text)
	}
	writeList := func(title string, items []string, numbered bool) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s\n\n", title)
		for i, item := range items {
			if numbered {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
			} else {
				fmt.Fprintf(&sb, "- %s\n", item)
			}
		}
		sb.WriteString("\n")
	}

	writeText("Summary", s.Summary)
	writeList("Key Agreements", s.Opportunities, false)
	writeList("Remaining Disputes", s.Risks, false)
	writeList("Action Plan", s.Actions, true)
	writeText("Recommendation", s.Recommendation)
	writeText("Confidence", s.Confidence)

	return sb.String()
}

func runStage(cmd *cobra.Command, run func(context.Context, *api.Service, string) api.StageResponse, args []string) error {
	topic := strings.Join(args, " ")

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	resp := run(ctx, svc, topic)

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

	fmt.Fprintln(out, ui.RoleTitle(string(resp.Role)))
	fmt.Fprintln(out, resp.Text)
	return nil
}
