// Package report formats engine-level diagnostics into human-readable text.
//
// It is a leaf package: a Diagnostic is a plain value filled in by whoever
// caught the failure, and Format is a pure function over it. The output
// mirrors classic engine error reports: resource and line, the offending
// source line, a caret underline of the error range, then the stack trace
// (or the bare exception text when no stack was captured).
package report
