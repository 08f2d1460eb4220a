package bubbletea_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/blueprint"
	bt "github.com/fwojciec/blueprint/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "timber cabin", "timber cabin"},
		{"strips color codes", "\x1b[31mroof\x1b[0m", "roof"},
		{"strips OSC sequences", "\x1b]0;title\x07walls", "walls"},
		{"keeps tabs and newlines", "a\tb\nc", "a\tb\nc"},
		{"drops control characters", "a\x01b\x02c\x07\x7f", "abc"},
		{"normalizes CRLF", "a\r\nb\r\n", "a\nb\n"},
		{"carriage return overwrites", "50%\rdone", "done"},
		{"shorter overwrite keeps tail", "abcdef\rxy", "xycdef"},
		{"only escapes", "\x1b[31m\x1b[0m", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bt.Sanitize(tt.in))
		})
	}
}

func TestStageBlock_SanitizesOutput(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(blueprint.DefaultTheme())

	b := bt.NewStageBlock(blueprint.StageStyle, styles)
	b.Finish(blueprint.Step{Stage: blueprint.StageStyle}, "\x1b[2Jclean\x1b[0m text")
	b.Update(bt.ToggleMsg{})
	assert.NotContains(t, b.View(80), "\x1b")
	assert.Contains(t, b.View(80), "clean text")

	f := bt.NewStageBlock(blueprint.StageStyle, styles)
	f.Fail(errors.New("bad gateway\x1b]0;pwned\x07\nretry later"))
	view := f.View(200)
	assert.NotContains(t, view, "\x1b")
	assert.False(t, strings.Contains(view, "\n"))
}
