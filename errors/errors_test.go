package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseCompile,
				Kind:      KindSyntax,
				Resource:  "boot.js",
				ContextID: 3,
				Detail:    "boot.js: Line 1:7 Unexpected token",
			},
			contains: []string{"[compile]", "syntax", "boot.js", "(context 3)", "Unexpected token"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDispatch,
				Kind:  KindHandlerMissing,
			},
			contains: []string{"[dispatch]", "handler_missing"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLifecycle,
				Kind:   KindClosed,
				Detail: "worker closed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[lifecycle]", "closed", "worker closed", "caused by", "underlying error"},
		},
		{
			name: "trailing newline trimmed from detail",
			err: &Error{
				Phase:  PhaseRun,
				Kind:   KindException,
				Detail: "Error: boom\n",
			},
			contains: []string{"[run] exception: Error: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error %q missing %q", msg, s)
				}
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := Syntax("a.js", "bad")

	if !errors.Is(err, &Error{Phase: PhaseCompile, Kind: KindSyntax}) {
		t.Error("expected match on phase+kind")
	}
	if errors.Is(err, &Error{Phase: PhaseRun, Kind: KindSyntax}) {
		t.Error("unexpected match on different phase")
	}
	if errors.Is(err, errors.New("other")) {
		t.Error("unexpected match on foreign error")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(PhaseDispatch, KindException).
		Context(1).
		Detail("handler threw").
		Cause(cause).
		Build()

	if !errors.Is(err, cause) {
		t.Error("expected unwrap to reach cause")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseDispatch, KindException).
		Resource("app.js").
		Context(7).
		Detail("value %d out of range", 42).
		Build()

	if err.Resource != "app.js" || err.ContextID != 7 {
		t.Errorf("builder fields not applied: %+v", err)
	}
	if err.Detail != "value 42 out of range" {
		t.Errorf("detail formatting: %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"syntax", Syntax("x.js", "bad"), KindSyntax},
		{"exception", Exception(PhaseRun, "x.js", 1, "boom"), KindException},
		{"interrupted", Interrupted(PhaseRun, 1, "terminated"), KindInterrupted},
		{"handler missing", HandlerMissing(1, "$recv not called"), KindHandlerMissing},
		{"reentrant", Reentrant(PhaseDispatch), KindReentrant},
		{"disposed", Disposed(PhaseDispatch, 2), KindDisposed},
		{"closed", Closed(PhaseLifecycle), KindClosed},
		{"invalid input", InvalidInput(PhaseContext, "nil callback"), KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty error text")
			}
		})
	}
}
