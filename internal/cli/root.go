// Package cli implements the command-line interface for ldebate.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nickcecere/ldebate/internal/api"
	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/ui"
)

var (
	// Version information set at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile string
	debug   bool
	jsonOut bool
)

// SetVersionInfo sets the version information from build flags.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ldebate",
	Short: "Retrieval-grounded strategy debates between LLM agents",
	Long: `ldebate answers strategic questions by staging a debate between an
optimist, a pessimist and a synthesizer. Every agent is grounded in the
documents of a local knowledge directory, retrieved by embedding similarity.

Embeddings and generation run locally with Ollama by default, or through
OpenAI and Anthropic.

Examples:
  # Add documents to the knowledge base
  ldebate add q3-report.txt market.json

  # Run a full debate
  ldebate debate "Should we expand to Europe next year?"

  # See which documents the agents will be given
  ldebate search "european expansion"

  # Serve the debate tools to an MCP client
  ldebate serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetDebug(debug)
		if debug {
			log.Debug("Debug logging enabled")
		}

		if err := config.Load(cfgFile); err != nil {
			log.Warn("Failed to load config", "error", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	ui.InitLogger()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ldebate/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output results as JSON")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(debateCmd)
	rootCmd.AddCommand(optimistCmd)
	rootCmd.AddCommand(pessimistCmd)
	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ldebate %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openService loads the knowledge base and providers from configuration.
func openService(ctx context.Context) (*api.Service, error) {
	return api.Open(ctx, config.Get())
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
