// Package report renders merge diagnostics for people and for machines.
//
// The text form prints one block per period that has something to say:
//
//	2000/6:
//	  Renamed headers: Rmax to RMax
//	  New headers: Power (kW)
//	  Dropped headers: Foo
//
// Long lines wrap at a configurable width, continuation lines indented
// four spaces. Periods whose grids could not be read print a single
// "Error processing" line instead.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/roach88/gridmerge/internal/ir"
)

// DefaultWidth is the wrap column used when none is configured.
const DefaultWidth = 70

const (
	firstIndent        = "  "
	continuationIndent = "    "
)

// Report is the serializable summary of a reconciliation.
type Report struct {
	Headers     []string          `json:"headers"`
	Diagnostics []ir.Diagnostic   `json:"diagnostics"`
	Periods     []ir.PeriodStatus `json:"periods"`
}

// New builds a report from pass 1 output. Empty diagnostics are dropped,
// blank periods included; their status still shows in Periods.
func New(headers *ir.HeaderSet, diagnostics []ir.Diagnostic, periods []ir.PeriodStatus) *Report {
	r := &Report{
		Headers:     []string{},
		Diagnostics: []ir.Diagnostic{},
		Periods:     periods,
	}
	if headers != nil {
		r.Headers = headers.Names()
	}
	for _, d := range diagnostics {
		if !d.IsEmpty() {
			r.Diagnostics = append(r.Diagnostics, d)
		}
	}
	if r.Periods == nil {
		r.Periods = []ir.PeriodStatus{}
	}
	return r
}

// Skipped counts periods that could not be read.
func (r *Report) Skipped() int {
	n := 0
	for _, p := range r.Periods {
		if p.Status == ir.StatusSkipped {
			n++
		}
	}
	return n
}

// WriteText prints the diagnostic blocks in period order.
func (r *Report) WriteText(w io.Writer, width int) error {
	if width <= len(continuationIndent) {
		width = DefaultWidth
	}

	byPeriod := make(map[ir.Period]ir.Diagnostic, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		byPeriod[d.Period] = d
	}

	var b strings.Builder
	seen := make(map[ir.Period]bool, len(r.Periods))
	for _, p := range r.Periods {
		seen[p.Period] = true
		if p.Status == ir.StatusSkipped {
			fmt.Fprintf(&b, "Error processing %s: %s\n", p.Source, p.Error)
			continue
		}
		if d, ok := byPeriod[p.Period]; ok {
			writeBlock(&b, d, width)
		}
	}
	// Diagnostics without a status entry (callers that only track headers).
	for _, d := range r.Diagnostics {
		if !seen[d.Period] {
			writeBlock(&b, d, width)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHeaders prints the final canonical header order as a wrapped list.
func (r *Report) WriteHeaders(w io.Writer, width int) error {
	if width <= len(continuationIndent) {
		width = DefaultWidth
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Headers (%d):\n", len(r.Headers))
	b.WriteString(fill(strings.Join(r.Headers, ", "), width))
	_, err := io.WriteString(w, b.String())
	return err
}

func writeBlock(b *strings.Builder, d ir.Diagnostic, width int) {
	fmt.Fprintf(b, "%s:\n", d.Period)

	if len(d.Renamed) > 0 {
		parts := make([]string, len(d.Renamed))
		for i, rn := range d.Renamed {
			parts[i] = rn.String()
		}
		b.WriteString(fill("Renamed headers: "+strings.Join(parts, ", "), width))
	}
	if len(d.New) > 0 {
		b.WriteString(fill("New headers: "+strings.Join(d.New, ", "), width))
	}
	if len(d.Dropped) > 0 {
		b.WriteString(fill("Dropped headers: "+strings.Join(d.Dropped, ", "), width))
	}
}

// fill wraps text so that no indented line exceeds width (single words
// longer than the limit are kept whole) and returns it newline-terminated.
func fill(text string, width int) string {
	wrapped := wordwrap.WrapString(text, uint(width-len(continuationIndent)))

	var b strings.Builder
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			b.WriteString(firstIndent)
		} else {
			b.WriteString(continuationIndent)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
