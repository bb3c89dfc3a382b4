package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// PrettyFormatter renders a styled report for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *types.OrganizationResult) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatCounters(r))

	if len(r.Errors) > 0 {
		w.WriteString(f.formatErrors(r.Errors))
		w.WriteString("\n")
	}

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *types.OrganizationResult) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s",
		LabelStyle.Render("Directory:"), ValueStyle.Render(r.Directory)))

	scanned := fmt.Sprintf("%s files in %s",
		humanize.Comma(int64(r.TotalFilesScanned)), FormatDuration(r.Duration))
	lines = append(lines, fmt.Sprintf("%s %s",
		LabelStyle.Render("Scanned:"), ValueStyle.Render(scanned)))

	if r.DryRun {
		lines = append(lines, WarningStyle.Bold(true).Render("Dry run: no files were changed"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatCounters(r *types.OrganizationResult) string {
	cs := counters(r)

	width := 0
	for _, c := range cs {
		width = max(width, len(c.Label))
	}

	var sb strings.Builder
	for _, c := range cs {
		label := LabelStyle.Render(fmt.Sprintf("%-*s", width, c.Label))
		style := MutedStyle
		if c.Value > 0 {
			style = CountStyle
		}
		fmt.Fprintf(&sb, "  %s  %s\n", label, style.Render(humanize.Comma(int64(c.Value))))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatErrors(errs []string) string {
	lines := []string{ErrorStyle.Bold(true).Render(fmt.Sprintf("Errors (%d):", len(errs)))}
	for _, e := range errs {
		lines = append(lines, ErrorStyle.Render("  "+e))
	}
	return ErrorBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatFooter(r *types.OrganizationResult) string {
	var status string
	switch {
	case len(r.Errors) > 0:
		status = WarningStyle.Render("Completed with errors")
	case r.DryRun:
		status = MutedStyle.Render("Nothing changed")
	default:
		status = SuccessStyle.Render("Done")
	}
	hint := MutedStyle.Render("Use -o plain for unformatted output")
	return FooterBox.Render(status + "  " + hint)
}

// FormatDuration formats a duration in a human-friendly way.
func FormatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
