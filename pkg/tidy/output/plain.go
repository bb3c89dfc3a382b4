package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// PlainFormatter writes the run summary without colors or styling. It is
// used when stdout is not a terminal.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *types.OrganizationResult) error {
	if r.DryRun {
		w.WriteString("Dry run: no files were changed.\n")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Directory:\t%s\n", r.Directory)
	for _, c := range counters(r) {
		fmt.Fprintf(tw, "%s:\t%d\n", c.Label, c.Value)
	}
	fmt.Fprintf(tw, "Errors:\t%d\n", len(r.Errors))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
