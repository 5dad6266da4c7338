// Package errors provides structured error types for the worker runtime.
//
// Every error carries a Phase (where processing failed) and a Kind (what
// went wrong), plus optional resource name, context id and detail text.
// For compile and run failures the detail is the formatted engine
// diagnostic, so a wrapped error is self-contained:
//
//	err := w.Load(ctx, c, "boot.js", src)
//	var werr *errors.Error
//	if stderrors.As(err, &werr) && werr.Kind == errors.KindSyntax {
//	    fmt.Println(werr.Detail) // boot.js:3, source line, caret underline
//	}
//
// Errors match with errors.Is when Phase and Kind are equal, which lets
// callers test for a category without constructing the exact value.
package errors
