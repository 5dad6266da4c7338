package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile   Phase = "compile"   // guest source compilation
	PhaseRun       Phase = "run"       // initial script execution
	PhaseDispatch  Phase = "dispatch"  // host<->guest message delivery
	PhaseContext   Phase = "context"   // context creation/disposal
	PhaseLifecycle Phase = "lifecycle" // worker creation/disposal
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax          Kind = "syntax"            // guest source failed to parse
	KindException       Kind = "exception"         // uncaught guest exception
	KindInterrupted     Kind = "interrupted"       // execution aborted by Terminate
	KindHandlerMissing  Kind = "handler_missing"   // guest never registered a handler
	KindNonStringResult Kind = "non_string_result" // sync handler returned a non-string
	KindReentrant       Kind = "reentrant"         // callback re-entered the worker
	KindDisposed        Kind = "disposed"          // context already disposed
	KindClosed          Kind = "closed"            // worker already closed
	KindInvalidInput    Kind = "invalid_input"
)

// Error is the structured error type used throughout the library.
// Detail carries the formatted engine diagnostic for compile and run
// failures, so callers get the full report without touching the worker's
// last-exception slot.
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Resource  string
	ContextID int32
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Resource != "" {
		b.WriteString(" in ")
		b.WriteString(e.Resource)
	}
	if e.ContextID > 0 {
		fmt.Fprintf(&b, " (context %d)", e.ContextID)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(strings.TrimRight(e.Detail, "\n"))
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Resource sets the guest resource (script) name
func (b *Builder) Resource(name string) *Builder {
	b.err.Resource = name
	return b
}

// Context sets the execution context id
func (b *Builder) Context(id int32) *Builder {
	b.err.ContextID = id
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Syntax creates a compile failure error carrying the formatted diagnostic.
func Syntax(resource, diagnostic string) *Error {
	return &Error{
		Phase:    PhaseCompile,
		Kind:     KindSyntax,
		Resource: resource,
		Detail:   diagnostic,
	}
}

// Exception creates an uncaught-guest-exception error for the given phase.
func Exception(phase Phase, resource string, contextID int32, diagnostic string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindException,
		Resource:  resource,
		ContextID: contextID,
		Detail:    diagnostic,
	}
}

// Interrupted creates an execution-aborted error.
func Interrupted(phase Phase, contextID int32, diagnostic string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindInterrupted,
		ContextID: contextID,
		Detail:    diagnostic,
	}
}

// HandlerMissing creates an unregistered-handler error. The detail is the
// exact text recorded in the worker's last-exception slot.
func HandlerMissing(contextID int32, detail string) *Error {
	return &Error{
		Phase:     PhaseDispatch,
		Kind:      KindHandlerMissing,
		ContextID: contextID,
		Detail:    detail,
	}
}

// Reentrant creates an error for a host callback calling back into the
// worker that invoked it.
func Reentrant(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReentrant,
		Detail: "host callback re-entered the worker that invoked it",
	}
}

// Disposed creates an error for operations on a disposed context.
func Disposed(phase Phase, contextID int32) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindDisposed,
		ContextID: contextID,
		Detail:    "context disposed",
	}
}

// Closed creates an error for operations on a closed worker.
func Closed(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: "worker closed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}
