// Package report renders a reconciliation result as a standalone HTML page:
// record counts and identity overlap, the anomaly box, and per-field
// side-by-side distribution tables.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"

	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/reconcile"
)

// Generator renders comparison reports.
type Generator struct {
	title   string
	segment string
}

// Option is a functional option for configuring the Generator.
type Option func(*Generator)

// WithTitle overrides the page title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithSegment labels the report with the segment both sides were filtered
// on.
func WithSegment(segment string) Option {
	return func(g *Generator) {
		g.segment = segment
	}
}

// New creates a new report generator.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render writes the HTML report for a reconciliation result.
func (g *Generator) Render(w io.Writer, result *reconcile.Result) error {
	if result == nil {
		return errors.NewValidationError("result", nil, "result is required")
	}

	title := g.title
	if title == "" {
		title = fmt.Sprintf("Vendor Comparison: %s vs %s", result.LeftName, result.RightName)
	}

	data := page{
		Title:   title,
		Segment: g.segment,
		Result:  result,
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// WriteFile renders the report to a file.
func (g *Generator) WriteFile(path string, result *reconcile.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := g.Render(f, result); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}

type page struct {
	Title   string
	Segment string
	Result  *reconcile.Result
}

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":     formatPct,
	"num":     formatCount,
	"numeric": formatNumeric,
	"buckets": formatBuckets,
}).Parse(pageHTML))

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func formatNumeric(n *reconcile.NumericSummary) string {
	if n == nil {
		return "—"
	}
	return fmt.Sprintf("Mean %.0f | Median %.0f | N=%s", n.Mean, n.Median, formatCount(n.Count))
}

// formatBuckets renders a truncated bucket distribution on one line.
func formatBuckets(summary reconcile.SideSummary) string {
	if len(summary.Top) == 0 {
		return "—"
	}
	limit := 5
	if len(summary.Top) < limit {
		limit = len(summary.Top)
	}
	out := ""
	for i := 0; i < limit; i++ {
		if i > 0 {
			out += " | "
		}
		out += fmt.Sprintf("%s: %s", summary.Top[i].Value, formatCount(summary.Top[i].Count))
	}
	return out
}
