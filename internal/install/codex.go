package install

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// SkillMarkdown tells an agent when to reach for the debate tools.
const SkillMarkdown = `
---
name: ldebate
description: Stress-test a strategic decision with an optimist, a pessimist and a synthesizer grounded in local documents.
---

## When to use this skill

Use the ldebate MCP tools when the user asks whether to pursue a plan, an
investment or an expansion and wants both sides argued from their own data.

## How to use

- ldebate_search: check which documents support the topic
- ldebate_debate: run the full debate and read the parsed sections
- ldebate_upload: add a document before debating
`

// CodexAgentsPath returns the path to the Codex AGENTS.md file.
func CodexAgentsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codex", "AGENTS.md")
}

// CodexInstall registers the server with the codex CLI and appends the
// skill to agentsPath.
func CodexInstall(w io.Writer, agentsPath string) error {
	args := append([]string{"mcp", "add", ServerName}, ServeArgs...)
	cmd := exec.Command("codex", args...)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to add MCP server (is codex installed?): %w", err)
	}
	fmt.Fprintln(w, "Added ldebate MCP server to Codex")

	added, err := appendSkill(agentsPath)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(w, "Added ldebate skill to: %s\n", agentsPath)
	} else {
		fmt.Fprintln(w, "ldebate skill already present in AGENTS.md")
	}

	fmt.Fprintln(w, "Successfully installed ldebate into Codex")
	printNotice(w, "Codex", "codex")
	return nil
}

// CodexUninstall removes the server and the skill.
func CodexUninstall(w io.Writer, agentsPath string) error {
	cmd := exec.Command("codex", "mcp", "remove", ServerName)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(w, "Note: failed to remove MCP server: %v\n", err)
	} else {
		fmt.Fprintln(w, "Removed ldebate MCP server from Codex")
	}

	if err := removeSkill(agentsPath); err != nil {
		return err
	}

	fmt.Fprintln(w, "Successfully uninstalled ldebate from Codex")
	return nil
}

// appendSkill adds the skill to path unless it is already there.
func appendSkill(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create .codex directory: %w", err)
	}

	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	}
	if strings.Contains(existing, "name: "+ServerName) {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open AGENTS.md: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(SkillMarkdown); err != nil {
		return false, fmt.Errorf("failed to write skill to AGENTS.md: %w", err)
	}
	return true, nil
}

// removeSkill strips the skill from path, deleting the file if nothing else
// remains.
func removeSkill(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read AGENTS.md: %w", err)
	}

	content := strings.ReplaceAll(string(data), SkillMarkdown, "")
	content = strings.ReplaceAll(content, strings.TrimSpace(SkillMarkdown), "")
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	content = strings.TrimSpace(content)

	if content == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove empty AGENTS.md: %w", err)
		}
		return nil
	}
	return os.WriteFile(path, []byte(content+"\n"), 0644)
}
