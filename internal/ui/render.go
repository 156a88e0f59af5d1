package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders markdown content for the terminal.
func RenderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}

// Spinner shows an animated message until Stop is called.
type Spinner struct {
	out    io.Writer
	stopCh chan struct{}
	doneCh chan struct{}
}

// StartSpinner starts a spinner writing to out.
func StartSpinner(out io.Writer, message string) *Spinner {
	s := &Spinner{
		out:    out,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.run(message)
	return s
}

func (s *Spinner) run(message string) {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	defer close(s.doneCh)

	i := 0
	for {
		select {
		case <-s.stopCh:
			// clear the spinner line
			fmt.Fprint(s.out, "\r\033[2K")
			return
		case <-ticker.C:
			fmt.Fprintf(s.out, "\r%s %s", Highlight.Render(frames[i]), message)
			i = (i + 1) % len(frames)
		}
	}
}

// Stop clears the spinner and waits for it to exit.
func (s *Spinner) Stop() {
	close(s.stopCh)
	<-s.doneCh
}
