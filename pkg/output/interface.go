package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders parse reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose includes every entry row, events and all.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// New returns the formatter registered under name.
func New(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	}
	return nil, fmt.Errorf("unknown output format %q (must be text or json)", name)
}
