package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/ui"
)

var (
	configShowPath  bool
	configInitForce bool
	configInitLocal bool
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Display current configuration settings and config file locations.

Examples:
  # Show current configuration
  ldebate config

  # Show config file paths
  ldebate config --path

  # Write the defaults to the global config file
  ldebate config init`,
	RunE: runConfig,
}

// configInitCmd writes a default configuration file.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.Flags().BoolVar(&configShowPath, "path", false, "show config file paths")

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "write "+config.RCFileName+" in the current directory")
	configCmd.AddCommand(configInitCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := config.Get()

	if jsonOut {
		return printJSON(out, cfg.Redacted())
	}

	if configShowPath {
		fmt.Fprintln(out, ui.Header.Render("Configuration Paths"))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Global config: %s\n", config.GlobalConfigPath())
		fmt.Fprintf(out, "Local config:  %s (searched from cwd upward)\n", config.RCFileName)
		fmt.Fprintf(out, "Active config: %s\n", config.ConfigFilePath())
		fmt.Fprintf(out, "Knowledge dir: %s\n", cfg.Knowledge.Dir)
		return nil
	}

	fmt.Fprintln(out, ui.Header.Render("Current Configuration"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Bold.Render("Knowledge:"))
	fmt.Fprintf(out, "  Directory: %s\n", cfg.Knowledge.Dir)
	fmt.Fprintf(out, "  Max File Size: %d bytes\n", cfg.Knowledge.MaxFileSize)
	fmt.Fprintf(out, "  Ignore Patterns: %d configured\n", len(cfg.Knowledge.Ignore))
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Bold.Render("Embeddings:"))
	fmt.Fprintf(out, "  Provider: %s\n", cfg.Embeddings.Provider)
	fmt.Fprintf(out, "  Batch Size: %d\n", cfg.Embeddings.BatchSize)
	fmt.Fprintf(out, "  Ollama URL: %s\n", cfg.Embeddings.Ollama.URL)
	fmt.Fprintf(out, "  Ollama Model: %s\n", cfg.Embeddings.Ollama.Model)
	fmt.Fprintf(out, "  OpenAI Model: %s\n", cfg.Embeddings.OpenAI.Model)
	if cfg.Embeddings.OpenAI.BaseURL != "" {
		fmt.Fprintf(out, "  OpenAI Base URL: %s\n", cfg.Embeddings.OpenAI.BaseURL)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Bold.Render("LLM:"))
	fmt.Fprintf(out, "  Provider: %s\n", cfg.LLM.Provider)
	fmt.Fprintf(out, "  Ollama URL: %s\n", cfg.LLM.Ollama.URL)
	fmt.Fprintf(out, "  Ollama Model: %s\n", cfg.LLM.Ollama.Model)
	fmt.Fprintf(out, "  OpenAI Model: %s\n", cfg.LLM.OpenAI.Model)
	fmt.Fprintf(out, "  Anthropic Model: %s\n", cfg.LLM.Anthropic.Model)
	if cfg.LLM.RequestsPerSecond > 0 {
		fmt.Fprintf(out, "  Rate Limit: %.2f req/s (burst %d)\n", cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Bold.Render("Debate:"))
	fmt.Fprintf(out, "  Top K: %d\n", cfg.Debate.TopK)
	fmt.Fprintf(out, "  Temperature: %.2f\n", cfg.Debate.Temperature)
	fmt.Fprintf(out, "  Max Tokens: %d\n", cfg.Debate.MaxTokens)
	fmt.Fprintf(out, "  Stage Timeout: %s\n", cfg.Debate.StageTimeout)
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.Bold.Render("Server:"))
	fmt.Fprintf(out, "  Transport: %s\n", cfg.Server.Transport)
	fmt.Fprintf(out, "  Address: %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "  Watch: %t\n", cfg.Server.Watch)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.GlobalConfigPath()
	if configInitLocal {
		path = config.RCFileName
	}

	if err := config.WriteDefault(path, configInitForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", ui.Success.Render("✓"), path)
	return nil
}
