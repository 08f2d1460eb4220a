// Package fs persists a run to the local filesystem and loads the input
// files a run starts from.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/blueprint"
)

// Interface compliance checks.
var (
	_ blueprint.Sink       = (*Log)(nil)
	_ blueprint.CodeWriter = (*CodeFile)(nil)
)

// Log is an append-only text log. Each block is written as the label, a
// blank line, then the content, in call order.
type Log struct {
	Path string
}

// Append writes one block to the end of the log, creating the file and its
// parent directories when missing.
func (l *Log) Append(content, label string) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("fs: create log directory: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("fs: open log: %w", err)
	}
	if _, err := f.WriteString(label + "\n\n" + content); err != nil {
		f.Close()
		return fmt.Errorf("fs: append to log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("fs: close log: %w", err)
	}
	return nil
}

// CodeFile is the destination of the generated program. Every write replaces
// the previous content.
type CodeFile struct {
	Path string
}

// WriteCode writes code to the file, creating parent directories when
// missing. Code that is empty after trimming is rejected and nothing is
// written.
func (c *CodeFile) WriteCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("fs: %s: %w", c.Path, blueprint.ErrEmptyCode)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("fs: create code directory: %w", err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(c.Path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(c.Path, []byte(code), perm); err != nil {
		return fmt.Errorf("fs: write code: %w", err)
	}
	return nil
}
