package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHorizontalRule(t *testing.T) {
	assert.Contains(t, HorizontalRule(3), "───")
	assert.NotContains(t, HorizontalRule(-1), "─")
}

func TestFormatScore(t *testing.T) {
	assert.Contains(t, FormatScore(0.8765), "(relevance: 0.88)")
}

func TestRoleTitle(t *testing.T) {
	assert.Contains(t, RoleTitle("optimist"), "Optimist")
	assert.Contains(t, RoleTitle("synthesizer"), "Synthesizer")
	assert.Contains(t, RoleTitle("other"), "Other")
	assert.Equal(t, "", strings.TrimSpace(RoleTitle("")))
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Summary\n\n- one\n- two\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "one")
}

func TestSpinnerStopClearsLine(t *testing.T) {
	var buf bytes.Buffer
	s := StartSpinner(&buf, "working")
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	assert.True(t, strings.HasSuffix(buf.String(), "\r\033[2K"))
}

func TestSetDebug(t *testing.T) {
	defer SetDebug(false)

	SetDebug(true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	SetDebug(false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer

	assert.Nil(t, NewProgress(&buf, 1, "adding"))

	var none *Progress
	none.Increment()
	none.Finish()
	assert.Zero(t, buf.Len())

	p := NewProgress(&buf, 3, "adding")
	require.NotNil(t, p)
	p.Increment()
	assert.Contains(t, buf.String(), "adding")
	p.Finish()

	assert.False(t, IsTerminal(&buf))
}
