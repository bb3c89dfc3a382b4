package output

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// DefaultTemplate renders a one-line summary.
const DefaultTemplate = `{{.Directory}}: {{.TotalFilesScanned}} scanned, {{.DuplicatesRemoved}} duplicates removed, ` +
	`{{.FilesMoved}} moved, {{.FilesRenamed}} renamed, {{len .Errors}} errors{{if .DryRun}} (dry run){{end}}
`

// TemplateFormatter renders a result with a text/template. The template
// sees the OrganizationResult fields and these functions:
//
//	comma    1234 -> "1,234"
//	duration time.Duration -> "1.5s"
//	date     time.Time, layout -> formatted time ("" for the zero time)
type TemplateFormatter struct {
	mu       sync.Mutex
	text     string
	compiled *template.Template
}

// NewTemplateFormatter creates a formatter for text. An empty text uses
// DefaultTemplate.
func NewTemplateFormatter(text string) *TemplateFormatter {
	if text == "" {
		text = DefaultTemplate
	}
	return &TemplateFormatter{text: text}
}

// Compile parses the template so syntax errors surface before a run.
func (f *TemplateFormatter) Compile() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compile()
}

func (f *TemplateFormatter) compile() error {
	if f.compiled != nil {
		return nil
	}
	tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.text)
	if err != nil {
		return fmt.Errorf("invalid output template: %w", err)
	}
	f.compiled = tmpl
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"duration": FormatDuration,
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
	}
}

// Format writes the rendered template to w.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *types.OrganizationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.compile(); err != nil {
		return err
	}
	return f.compiled.Execute(w, r)
}

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter("")
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
