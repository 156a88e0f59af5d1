package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/install"
)

// agent pairs an install target with its install and uninstall actions.
type agent struct {
	name      string
	title     string
	detail    string
	install   func(w io.Writer) error
	uninstall func(w io.Writer) error
}

var agents = []agent{
	{
		name:   "claude-code",
		title:  "Claude Code",
		detail: "Adds an ldebate entry to the mcpServers section of ~/.claude.json.",
		install: func(w io.Writer) error {
			return install.ClaudeCodeInstall(w, install.ClaudeCodeConfigPath())
		},
		uninstall: func(w io.Writer) error {
			return install.ClaudeCodeUninstall(w, install.ClaudeCodeConfigPath())
		},
	},
	{
		name:   "opencode",
		title:  "OpenCode",
		detail: "Adds an ldebate entry to the mcp section of ~/.config/opencode/opencode.json.",
		install: func(w io.Writer) error {
			return install.OpenCodeInstall(w, install.OpenCodeConfigPath())
		},
		uninstall: func(w io.Writer) error {
			return install.OpenCodeUninstall(w, install.OpenCodeConfigPath())
		},
	},
	{
		name:  "codex",
		title: "Codex",
		detail: `Runs 'codex mcp add ldebate ldebate serve' and appends the ldebate skill
to ~/.codex/AGENTS.md.`,
		install: func(w io.Writer) error {
			return install.CodexInstall(w, install.CodexAgentsPath())
		},
		uninstall: func(w io.Writer) error {
			return install.CodexUninstall(w, install.CodexAgentsPath())
		},
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register ldebate with AI coding agents",
	Long: `Register ldebate as an MCP server with AI coding agents.

Supported agents:
  - claude-code: Claude Code (Anthropic)
  - opencode: OpenCode
  - codex: Codex (OpenAI)
  - all: every agent above

The agent starts 'ldebate serve' when a session begins and can then run
debates, search the knowledge base and upload documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove ldebate from AI coding agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func agentCommand(a agent, remove bool) *cobra.Command {
	verb, run := "Install ldebate into ", a.install
	if remove {
		verb, run = "Uninstall ldebate from ", a.uninstall
	}
	return &cobra.Command{
		Use:   a.name,
		Short: verb + a.title,
		Long:  verb + a.title + ".\n\n" + a.detail,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout())
		},
	}
}

func allCommand(remove bool) *cobra.Command {
	short := "Install ldebate into all supported agents"
	if remove {
		short = "Uninstall ldebate from all supported agents"
	}
	return &cobra.Command{
		Use:   "all",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed []string
			for _, a := range agents {
				fmt.Fprintf(out, "=== %s ===\n", a.title)
				run := a.install
				if remove {
					run = a.uninstall
				}
				if err := run(out); err != nil {
					fmt.Fprintf(out, "Error: %v\n\n", err)
					failed = append(failed, a.name)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed for: %v", failed)
			}
			return nil
		},
	}
}

func init() {
	for _, a := range agents {
		installCmd.AddCommand(agentCommand(a, false))
		uninstallCmd.AddCommand(agentCommand(a, true))
	}
	installCmd.AddCommand(allCommand(false))
	uninstallCmd.AddCommand(allCommand(true))
}
