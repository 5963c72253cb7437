package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/wordbias/internal/report"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(r *report.Report) ([]byte, error)
}

// Formats lists the accepted --output values
var Formats = []string{"text", "json", "markdown", "csv"}

// New returns the formatter for a format name
func New(format string, color bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text", "terminal":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
