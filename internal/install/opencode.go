package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OpenCodeConfigPath returns the path to the OpenCode config file.
func OpenCodeConfigPath() string {
	home, _ := os.UserHomeDir()

	// Check for both .json and .jsonc
	jsonPath := filepath.Join(home, ".config", "opencode", "opencode.json")
	jsoncPath := filepath.Join(home, ".config", "opencode", "opencode.jsonc")

	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath
	}
	if _, err := os.Stat(jsoncPath); err == nil {
		return jsoncPath
	}
	return jsonPath
}

// OpenCodeInstall adds the server to the mcp section of path.
func OpenCodeInstall(w io.Writer, path string) error {
	err := updateJSONConfig(path, func(config map[string]any) {
		if _, ok := config["$schema"]; !ok {
			config["$schema"] = "https://opencode.ai/config.json"
		}
		section(config, "mcp")[ServerName] = map[string]any{
			"type":    "local",
			"command": ServeArgs,
			"enabled": true,
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Successfully installed ldebate into OpenCode")
	fmt.Fprintf(w, "Config updated: %s\n", path)
	printNotice(w, "OpenCode", "opencode")
	return nil
}

// OpenCodeUninstall removes the server from path.
func OpenCodeUninstall(w io.Writer, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "OpenCode config not found, nothing to uninstall")
		return nil
	}

	err := updateJSONConfig(path, func(config map[string]any) {
		if servers, ok := config["mcp"].(map[string]any); ok {
			delete(servers, ServerName)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Successfully uninstalled ldebate from OpenCode")
	return nil
}
