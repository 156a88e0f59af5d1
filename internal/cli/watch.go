package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/knowledge"
	"github.com/nickcecere/ldebate/internal/ui"
	"github.com/nickcecere/ldebate/internal/watcher"
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the knowledge directory and re-index on changes",
	Long: `Load the knowledge base, then watch the knowledge directory and rebuild
the index whenever a file is created, modified or removed. Writes that leave
a file's content unchanged do not trigger a rebuild.

Examples:
  ldebate watch
  LDEBATE_KNOWLEDGE_DIR=./docs ldebate watch`,
	Args: cobra.NoArgs,
	RunE: runWatchCmd,
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	kb := svc.Knowledge()

	out := cmd.OutOrStdout()
	stats := kb.Stats()
	fmt.Fprintln(out, ui.Header.Render("Watching for Changes"))
	fmt.Fprintf(out, "Directory: %s\n", kb.Store().Dir())
	fmt.Fprintf(out, "Provider: %s (%s)\n", cfg.Embeddings.Provider, stats.Model)
	fmt.Fprintf(out, "Documents: %d\n", stats.Documents)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")
	fmt.Fprintln(out)

	w := watcher.New(kb,
		watcher.WithDebounceTime(500*time.Millisecond),
		watcher.WithReloadCallback(func(changed []string) {
			fmt.Fprintf(out, "%s reindexed after changes to %s (%d documents)\n",
				ui.Success.Render("✓"), strings.Join(changed, ", "), kb.Len())
		}),
	)

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startBackgroundWatcher keeps the knowledge base of a long-running server in
// sync with its directory.
func startBackgroundWatcher(ctx context.Context, kb *knowledge.Base) {
	w := watcher.New(kb,
		watcher.WithDebounceTime(1*time.Second),
		watcher.WithReloadCallback(func(changed []string) {
			log.Debug("Background watcher reloaded", "changed", changed)
		}),
	)

	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error("Watcher error", "error", err)
	}
}
