package worker

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	workerruntime "github.com/wippyai/worker-runtime"
	"github.com/wippyai/worker-runtime/engine"
	"github.com/wippyai/worker-runtime/errors"
)

// RecvFunc is a host callback for guest $send calls. The return value of
// the guest side is discarded, but the guest stays blocked until the
// callback returns.
type RecvFunc func(ctx context.Context, msg string, data any)

// RecvSyncFunc is a host callback for guest $sendSync calls. Its result
// becomes the intrinsic's return value in the guest.
type RecvSyncFunc func(ctx context.Context, msg string, data any) string

// Status is the coarse result code of a bridge operation, for callers that
// want the classic numeric statuses instead of inspecting typed errors.
type Status int

const (
	StatusOK        Status = 0 // operation succeeded
	StatusFailed    Status = 1 // compile failure or missing handler
	StatusException Status = 2 // uncaught guest exception or interrupt
)

// StatusOf maps an error returned by Load or Send to its Status.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var werr *errors.Error
	if !stderrors.As(err, &werr) {
		return StatusException
	}
	switch werr.Kind {
	case errors.KindException, errors.KindInterrupted, errors.KindReentrant:
		return StatusException
	default:
		return StatusFailed
	}
}

// Worker owns the engine resource: a registry of isolated execution
// contexts, the instance-wide exclusive hold that serializes every engine
// touch, and the last-exception slot.
//
// All methods except Terminate must be treated as engine touches: they
// block each other and nest strictly (a host Send does not return until the
// guest handler returns, including any host callbacks the handler invoked).
type Worker struct {
	mu       sync.Mutex // the exclusive hold; held across nested callbacks
	contexts map[int32]*Context
	regMu    sync.RWMutex // registry only; lets ContextByID read cross-thread
	errMu    sync.Mutex   // last-exception slot only; readable mid-dispatch
	nextID   int32
	lastErr  string
	data     any
	diag     io.Writer
	active   atomic.Pointer[engine.Scope]
	current  atomic.Pointer[dispatchToken]
	callCtx  context.Context // caller context of the dispatch in flight
	closed   bool
}

// Option configures a Worker at creation time.
type Option func(*Worker)

// WithDiagnosticWriter redirects guest $print output. The default is
// os.Stdout. Writes are unbuffered and happen under the worker's exclusive
// hold, so the writer needs no extra synchronization.
func WithDiagnosticWriter(w io.Writer) Option {
	return func(wk *Worker) { wk.diag = w }
}

// New creates a Worker. data is an opaque host pointer retrievable with
// Data; it is never touched by the library.
func New(data any, opts ...Option) *Worker {
	w := &Worker{
		contexts: make(map[int32]*Context),
		data:     data,
		diag:     os.Stdout,
	}
	for _, opt := range opts {
		opt(w)
	}
	Logger().Debug("worker created")
	return w
}

// Version returns the library version string.
func Version() string {
	return workerruntime.Version
}

// Data returns the host data pointer supplied to New.
func (w *Worker) Data() any { return w.data }

// ContextByID returns the live context with the given id, or nil if the id
// was never issued or the context was disposed. Unlike the dispatch
// operations it does not take the worker's exclusive hold, so it works from
// any goroutine, even while guest code is running.
func (w *Worker) ContextByID(id int32) *Context {
	w.regMu.RLock()
	defer w.regMu.RUnlock()
	return w.contexts[id]
}

// Close disposes every context and releases the worker. It must be called
// at most once; a second call returns a lifecycle error.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.Closed(errors.PhaseLifecycle)
	}
	w.closed = true

	w.regMu.Lock()
	for id, c := range w.contexts {
		c.release()
		delete(w.contexts, id)
	}
	w.regMu.Unlock()

	Logger().Debug("worker closed")
	return nil
}

// LastException returns the formatted diagnostic of the most recent failing
// operation on this worker. The slot is instance-scoped and overwritten by
// every failure; read it before issuing another call. The slot has its own
// lock, so it stays readable from inside a host callback while a dispatch
// holds the worker.
func (w *Worker) LastException() string {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

// Terminate aborts guest execution currently in flight on this worker. It
// is the one method that is safe to call from another goroutine, even while
// that goroutine's Load or Send is blocked inside guest code. The aborted
// operation returns a StatusException error. With nothing in flight,
// Terminate is a no-op.
func (w *Worker) Terminate() {
	if s := w.active.Load(); s != nil {
		Logger().Debug("terminating in-flight execution")
		s.Interrupt("worker terminated")
	}
}

// setLastErr records a formatted diagnostic in the last-exception slot.
func (w *Worker) setLastErr(text string) {
	w.errMu.Lock()
	w.lastErr = text
	w.errMu.Unlock()
	Logger().Debug("operation failed", zap.String("exception", text))
}

// usable validates the worker/context pair for an operation. Callers hold
// w.mu.
func (w *Worker) usable(c *Context, phase errors.Phase) *errors.Error {
	if w.closed {
		return errors.Closed(phase)
	}
	if c == nil {
		return errors.InvalidInput(phase, "nil context")
	}
	if c.worker != w {
		return errors.InvalidInput(phase, "context belongs to a different worker")
	}
	if c.disposed {
		return errors.Disposed(phase, c.id)
	}
	return nil
}

// dispatchKey tags the context passed to host callbacks so a callback that
// calls back into its own worker is detected instead of deadlocking.
type dispatchKey struct{}

// dispatchToken identifies one in-flight dispatch. Tokens chain through
// their parents so a callback that hops across workers still sees every
// dispatch it is nested inside. A token outlives its dispatch (contexts are
// routinely propagated and stored), so liveness is decided by comparing it
// against the owning worker's current token, never by its mere presence.
type dispatchToken struct {
	worker *Worker
	parent *dispatchToken
}

// reentrant reports whether ctx originates from a host callback this worker
// is running right now. A tag left over from an already-finished dispatch
// does not match and the call proceeds normally.
func (w *Worker) reentrant(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	tok, _ := ctx.Value(dispatchKey{}).(*dispatchToken)
	for ; tok != nil; tok = tok.parent {
		if tok.worker == w && w.current.Load() == tok {
			return true
		}
	}
	return false
}

// beginDispatch publishes the caller context (tagged for reentrancy
// detection) and the scope about to execute guest code, so Terminate can
// target exactly the in-flight execution. Callers hold w.mu.
func (w *Worker) beginDispatch(ctx context.Context, s *engine.Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, _ := ctx.Value(dispatchKey{}).(*dispatchToken)
	tok := &dispatchToken{worker: w, parent: parent}
	w.callCtx = context.WithValue(ctx, dispatchKey{}, tok)
	w.current.Store(tok)
	w.active.Store(s)
}

func (w *Worker) endDispatch() {
	w.active.Store(nil)
	w.current.Store(nil)
	w.callCtx = nil
}
