// Package engine provides the low-level goja integration.
//
// The scripting engine is consumed as an opaque capability: Compile turns
// source into an Executable, Scope.Run executes it, and Scope.Call invokes
// guest-registered handler functions. Everything goja-specific stays inside
// this package: value conversion, native function binding, exception and
// interrupt handling. Callers see Executables, Handlers, Results and
// report.Diagnostic values.
//
// # Scopes
//
// A Scope wraps one goja runtime, which is one isolated global scope.
// Scopes are cheap; the worker package creates one per execution context.
// The Bind* methods install the intrinsics a context's guest code calls to
// reach the host; they take plain Go functions so the bridge layer never
// touches goja types.
//
// # Diagnostics
//
// Failures are captured as report.Diagnostic values rather than raw errors:
// syntax errors carry the resource name, position and offending source line
// (the scope remembers the source of every script it ran); uncaught
// exceptions carry the bare message plus the engine's stack trace text;
// fired interrupts are flagged so callers can tell an abort from a crash.
//
// # Interrupts
//
// Scope.Interrupt is the only cross-goroutine-safe call, mirroring the
// one-thread-of-control model of embedded script engines. A fired interrupt
// is cleared before Run or Call returns, so the scope remains usable.
package engine
