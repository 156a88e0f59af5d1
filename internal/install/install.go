// Package install registers the ldebate MCP server with AI coding agents.
package install

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ServerName is the key the MCP server is registered under.
const ServerName = "ldebate"

// ServeArgs is the command line an agent uses to start the server.
var ServeArgs = []string{"ldebate", "serve"}

// updateJSONConfig reads a JSON config file (missing is empty), applies fn
// and writes it back indented.
func updateJSONConfig(path string, fn func(config map[string]any)) error {
	config := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	fn(config)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// section returns config[key] as an object, creating it when absent.
func section(config map[string]any, key string) map[string]any {
	m, ok := config[key].(map[string]any)
	if !ok {
		m = make(map[string]any)
		config[key] = m
	}
	return m
}

// printNotice reminds the user what the installed server does.
func printNotice(w io.Writer, agentName, target string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s will start `ldebate serve` at the beginning of each session.\n", agentName)
	fmt.Fprintln(w, "  The server watches your knowledge directory and re-indexes it on change.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  To uninstall: ldebate uninstall %s\n", target)
	fmt.Fprintln(w)
}
