package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/wippyai/worker-runtime/report"
)

// goja reports compile failures as "SyntaxError: <name>: Line L:C <msg>".
var compilePosRe = regexp.MustCompile(`Line (\d+):(\d+)`)

// Stack frames render as "\tat func (name:line:col(pc))" or
// "\tat name:line:col(pc)".
var framePosRe = regexp.MustCompile(`at (?:[^(\n]*\()?([^():\n]+):(\d+):(\d+)`)

// compileDiagnostic builds a diagnostic for a syntax failure. The parser
// only reports a start position, so the caret range is a single column.
func compileDiagnostic(err error, name, source string) *report.Diagnostic {
	d := &report.Diagnostic{
		Resource: name,
		Message:  err.Error(),
	}
	if _, ok := err.(*goja.CompilerSyntaxError); !ok {
		return d
	}
	if m := compilePosRe.FindStringSubmatch(err.Error()); m != nil {
		d.Line, _ = strconv.Atoi(m[1])
		d.Column, _ = strconv.Atoi(m[2])
		d.SourceLine = sourceLine(source, d.Line)
	}
	return d
}

// runtimeDiagnostic builds a diagnostic for a failure during Run or Call.
// The second return reports whether the failure was a fired interrupt.
func runtimeDiagnostic(err error, sources map[string]string) (*report.Diagnostic, bool) {
	switch e := err.(type) {
	case *goja.Exception:
		msg := e.Error()
		if v := e.Value(); v != nil {
			msg = v.String()
		}
		d := &report.Diagnostic{
			Message: msg,
			Stack:   strings.TrimRight(e.String(), "\n"),
		}
		fillPosition(d, sources)
		return d, false
	case *goja.InterruptedError:
		return &report.Diagnostic{
			Message:     fmt.Sprintf("execution interrupted: %v", e.Value()),
			Interrupted: true,
		}, true
	default:
		return &report.Diagnostic{Message: err.Error()}, false
	}
}

// fillPosition recovers resource, line and column from the innermost stack
// frame, and the offending source line when the scope still holds that
// script's source.
func fillPosition(d *report.Diagnostic, sources map[string]string) {
	m := framePosRe.FindStringSubmatch(d.Stack)
	if m == nil {
		return
	}
	d.Resource = m[1]
	d.Line, _ = strconv.Atoi(m[2])
	d.Column, _ = strconv.Atoi(m[3])
	if src, ok := sources[d.Resource]; ok {
		d.SourceLine = sourceLine(src, d.Line)
	}
}

func sourceLine(source string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}
