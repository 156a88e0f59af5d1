package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ClaudeCodeConfigPath returns the path to the Claude Code config file.
func ClaudeCodeConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude.json")
}

// ClaudeCodeInstall adds the server to the mcpServers section of path.
func ClaudeCodeInstall(w io.Writer, path string) error {
	err := updateJSONConfig(path, func(config map[string]any) {
		section(config, "mcpServers")[ServerName] = map[string]any{
			"command": ServeArgs[0],
			"args":    ServeArgs[1:],
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Successfully installed ldebate into Claude Code")
	fmt.Fprintf(w, "Config updated: %s\n", path)
	printNotice(w, "Claude Code", "claude-code")
	return nil
}

// ClaudeCodeUninstall removes the server from path.
func ClaudeCodeUninstall(w io.Writer, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "Claude Code config not found, nothing to uninstall")
		return nil
	}

	err := updateJSONConfig(path, func(config map[string]any) {
		if servers, ok := config["mcpServers"].(map[string]any); ok {
			delete(servers, ServerName)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Successfully uninstalled ldebate from Claude Code")
	return nil
}
