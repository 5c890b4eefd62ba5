// Package journal creates dated daily-note files from a fixed template.
package journal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

// entryTemplate is the rendered shape of a fresh journal file.
const entryTemplate = `# {{.Date}}

## Plan

-

## Log

- {{.Time}} -

## Notes

`

var tmpl = template.Must(template.New("journal").Parse(entryTemplate))

// Create renders a journal file for the given day into dir, named
// YYYY-MM-DD.md, and returns its path. An existing file for that day is
// never clobbered; the existing path is returned with ErrExists.
func Create(dir string, day time.Time) (string, error) {
	path := filepath.Join(dir, day.Format("2006-01-02")+".md")

	if _, err := os.Stat(path); err == nil {
		return path, ErrExists
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create journal directory: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Date string
		Time string
	}{
		Date: day.Format("Monday, January 2, 2006"),
		Time: day.Format("15:04"),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render journal template: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write journal file: %w", err)
	}
	return path, nil
}

// ErrExists is returned by Create when the day's file already exists.
var ErrExists = fmt.Errorf("journal entry already exists")
