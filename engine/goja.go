package engine

import (
	"io"

	"github.com/dop251/goja"

	"github.com/wippyai/worker-runtime/report"
)

// Executable is a compiled guest script bound to its resource name and
// source text. Programs are immutable and may run in any scope.
type Executable struct {
	prog   *goja.Program
	name   string
	source string
}

// Name returns the resource name the script was compiled under.
func (e *Executable) Name() string { return e.name }

// Compile parses and compiles guest source attributed to name. On a syntax
// failure it returns a diagnostic carrying the resource name, position and
// offending source line.
func Compile(name, source string) (*Executable, *report.Diagnostic) {
	prog, err := goja.Compile(name, source, false)
	if err != nil {
		debugf("compile %s failed: %v", name, err)
		return nil, compileDiagnostic(err, name, source)
	}
	return &Executable{prog: prog, name: name, source: source}, nil
}

// Handler is an opaque reference to a guest-registered function. It is only
// valid within the scope that produced it.
type Handler struct {
	fn goja.Callable
}

// Result is a guest return value.
type Result struct {
	v goja.Value
}

// StringValue returns the result as a Go string and reports whether the
// guest value actually was a string.
func (r Result) StringValue() (string, bool) {
	if r.v == nil {
		return "", false
	}
	s, ok := r.v.Export().(string)
	return s, ok
}

// Scope is one isolated global scope. Scopes sharing a worker never share
// any guest-visible state.
//
// A Scope is not safe for concurrent use; the caller must serialize every
// method except Interrupt, which is safe to call from any goroutine.
type Scope struct {
	vm      *goja.Runtime
	sources map[string]string
}

// NewScope creates a fresh global scope.
func NewScope() *Scope {
	return &Scope{
		vm:      goja.New(),
		sources: make(map[string]string),
	}
}

// DefineConst defines a read-only, non-configurable global.
func (s *Scope) DefineConst(name string, value any) error {
	return s.vm.GlobalObject().DefineDataProperty(
		name, s.vm.ToValue(value), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// BindPrint installs a variadic global that stringifies its arguments,
// joins them with single spaces and writes them to w with one trailing
// newline per call. Writes are unbuffered.
func (s *Scope) BindPrint(name string, w io.Writer) error {
	return s.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		var b []byte
		for i, arg := range call.Arguments {
			if i > 0 {
				b = append(b, ' ')
			}
			b = append(b, arg.String()...)
		}
		b = append(b, '\n')
		if _, err := w.Write(b); err != nil {
			debugf("%s: write failed: %v", name, err)
		}
		return goja.Undefined()
	})
}

// BindRegister installs a global that captures its single function argument
// through store. Passing a non-function throws a TypeError in the guest.
func (s *Scope) BindRegister(name string, store func(*Handler)) error {
	return s.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(s.vm.NewTypeError("%s: argument must be a function", name))
		}
		store(&Handler{fn: fn})
		return goja.Undefined()
	})
}

// BindSend installs a global that delivers its string argument to fn and
// returns nothing. Passing a non-string throws a TypeError in the guest.
func (s *Scope) BindSend(name string, fn func(msg string)) error {
	return s.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		msg, ok := call.Argument(0).Export().(string)
		if !ok {
			panic(s.vm.NewTypeError("%s: message must be a string", name))
		}
		fn(msg)
		return goja.Undefined()
	})
}

// BindSendSync installs a global that delivers its string argument to fn
// and returns fn's reply as the intrinsic's own return value.
func (s *Scope) BindSendSync(name string, fn func(msg string) string) error {
	return s.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		msg, ok := call.Argument(0).Export().(string)
		if !ok {
			panic(s.vm.NewTypeError("%s: message must be a string", name))
		}
		return s.vm.ToValue(fn(msg))
	})
}

// Run executes a compiled script in this scope. The scope remembers the
// script source so later diagnostics can quote the offending line.
func (s *Scope) Run(exe *Executable) *report.Diagnostic {
	s.sources[exe.name] = exe.source
	if _, err := s.vm.RunProgram(exe.prog); err != nil {
		return s.diagnose(err)
	}
	return nil
}

// Call invokes a guest handler with a single string argument.
func (s *Scope) Call(h *Handler, arg string) (Result, *report.Diagnostic) {
	v, err := h.fn(goja.Undefined(), s.vm.ToValue(arg))
	if err != nil {
		return Result{}, s.diagnose(err)
	}
	return Result{v: v}, nil
}

// Interrupt aborts guest code currently executing in this scope. It is the
// one method that is safe to call from another goroutine. Interrupting an
// idle scope makes the next Run or Call abort immediately instead; callers
// that want V8-style "abort only what is in flight" semantics must track
// which scope is executing and interrupt only that one.
func (s *Scope) Interrupt(reason string) {
	s.vm.Interrupt(reason)
}

// diagnose converts a goja error into a report diagnostic, clearing a fired
// interrupt so the scope stays usable.
func (s *Scope) diagnose(err error) *report.Diagnostic {
	d, interrupted := runtimeDiagnostic(err, s.sources)
	if interrupted {
		s.vm.ClearInterrupt()
	}
	return d
}
