package report

import (
	"strconv"
	"strings"
)

// Diagnostic describes a single engine-level failure: a syntax error, an
// uncaught exception or an interrupted execution. Position fields are
// 1-based; a zero Line means the engine supplied no positional metadata.
type Diagnostic struct {
	Resource    string // script name the failure is attributed to
	Line        int
	Column      int    // start column of the offending range
	EndColumn   int    // exclusive end column; 0 means unknown
	SourceLine  string // text of the offending source line, if recovered
	Stack       string // engine-captured stack trace text, if any
	Message     string // bare exception text
	Interrupted bool   // execution was aborted rather than failing on its own
}

// HasPosition reports whether the engine supplied positional metadata.
func (d *Diagnostic) HasPosition() bool {
	return d != nil && d.Line > 0
}

// Format renders a diagnostic into human-readable text.
//
// Without position metadata the result is the bare message and a trailing
// newline. With it, the result is:
//
//	<resource>:<line>
//	<offending source line>
//	    ^^^^
//	<stack trace, or the bare message when the engine captured none>
//
// The caret underline covers the reported column range and is padded with
// leading spaces up to the start column.
func Format(d *Diagnostic) string {
	if d == nil {
		return ""
	}
	if !d.HasPosition() {
		return d.Message + "\n"
	}

	var b strings.Builder

	b.WriteString(d.Resource)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(d.Line))
	b.WriteByte('\n')

	b.WriteString(d.SourceLine)
	b.WriteByte('\n')

	start := d.Column
	if start < 1 {
		start = 1
	}
	end := d.EndColumn
	if end <= start {
		end = start + 1
	}
	for i := 1; i < start; i++ {
		b.WriteByte(' ')
	}
	for i := start; i < end; i++ {
		b.WriteByte('^')
	}
	b.WriteByte('\n')

	if d.Stack != "" {
		b.WriteString(d.Stack)
	} else {
		b.WriteString(d.Message)
	}
	b.WriteByte('\n')

	return b.String()
}
