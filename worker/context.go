package worker

import (
	"go.uber.org/zap"

	"github.com/wippyai/worker-runtime/engine"
	"github.com/wippyai/worker-runtime/errors"
)

// Context is one isolated execution environment inside a Worker: its own
// global scope, its own pair of immutable host callbacks, and its own
// guest-registered handler slots. Guest code in one context can never
// observe another context's globals.
//
// The handler slots are last-write-wins: each guest call to $recv or
// $recvSync replaces the previous registration.
type Context struct {
	id       int32
	worker   *Worker
	scope    *engine.Scope
	data     any
	recv     RecvFunc
	recvSync RecvSyncFunc

	onRecv     *engine.Handler
	onRecvSync *engine.Handler
	disposed   bool
}

// ID returns the context's numeric id. Ids are dense, start at 1 and are
// never reused within a worker, even after Dispose.
func (c *Context) ID() int32 { return c.id }

// Data returns the host data supplied to CreateContext.
func (c *Context) Data() any { return c.data }

// CreateContext creates a fresh execution context with the five bridge
// intrinsics installed and the read-only $context global set to its id.
// The callbacks are immutable for the context's lifetime; data is the host
// pointer every callback receives.
func (w *Worker) CreateContext(recv RecvFunc, recvSync RecvSyncFunc, data any) (*Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.Closed(errors.PhaseContext)
	}
	if recv == nil || recvSync == nil {
		return nil, errors.InvalidInput(errors.PhaseContext, "nil host callback")
	}

	c := &Context{
		id:       w.nextID + 1,
		worker:   w,
		scope:    engine.NewScope(),
		data:     data,
		recv:     recv,
		recvSync: recvSync,
	}
	if err := w.installBridge(c); err != nil {
		return nil, errors.New(errors.PhaseContext, errors.KindInvalidInput).
			Context(c.id).
			Cause(err).
			Detail("installing bridge intrinsics").
			Build()
	}
	w.nextID++

	w.regMu.Lock()
	w.contexts[c.id] = c
	w.regMu.Unlock()

	Logger().Debug("context created", zap.Int32("context", c.id))
	return c, nil
}

// Dispose releases the context: guest handler refs and the scope are
// dropped, and every further operation on the context fails. The id is
// retired, never reassigned.
func (c *Context) Dispose() error {
	w := c.worker
	w.mu.Lock()
	defer w.mu.Unlock()

	if c.disposed {
		return errors.Disposed(errors.PhaseContext, c.id)
	}
	if w.closed {
		return errors.Closed(errors.PhaseContext)
	}

	w.regMu.Lock()
	delete(w.contexts, c.id)
	w.regMu.Unlock()
	c.release()

	Logger().Debug("context disposed", zap.Int32("context", c.id))
	return nil
}

// release drops everything the context holds. Callers hold the worker's
// exclusive mutex.
func (c *Context) release() {
	c.onRecv = nil
	c.onRecvSync = nil
	c.recv = nil
	c.recvSync = nil
	c.scope = nil
	c.disposed = true
}
