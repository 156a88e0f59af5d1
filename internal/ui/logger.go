// Package ui provides terminal styling, markdown rendering and logger setup
// for the ldebate CLI.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// InitLogger initializes the charm logger with default settings. Logs go to
// stderr so stdout stays clean for results and the MCP stdio transport.
func InitLogger() {
	SetLogOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	log.SetReportCaller(false)
	log.SetReportTimestamp(false)
}

// SetLogOutput redirects the logger.
func SetLogOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetDebug enables debug logging.
func SetDebug(enabled bool) {
	if enabled {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
