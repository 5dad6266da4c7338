package worker

import (
	"context"

	"github.com/wippyai/worker-runtime/engine"
	"github.com/wippyai/worker-runtime/errors"
	"github.com/wippyai/worker-runtime/report"
)

// Sentinel texts shared with guest code. The async and sync paths report
// missing handlers differently on purpose: Send records the bare text in
// the last-exception slot, SendSync returns the prefixed text in-band and
// leaves the slot alone.
const (
	syncErrPrefix     = "err: "
	recvNotCalled     = "$recv not called"
	recvSyncNotCalled = syncErrPrefix + "$recvSync not called"
	nonStringResult   = syncErrPrefix + "non-string return value"
	reentrantCall     = syncErrPrefix + "reentrant call"
)

// installBridge wires the five intrinsics and the $context global into a
// fresh scope. Every closure is bound to c directly, so dispatch never
// depends on which context happens to be "current". Callers hold w.mu.
func (w *Worker) installBridge(c *Context) error {
	if err := c.scope.DefineConst("$context", c.id); err != nil {
		return err
	}
	if err := c.scope.BindPrint("$print", w.diag); err != nil {
		return err
	}
	if err := c.scope.BindRegister("$recv", func(h *engine.Handler) {
		c.onRecv = h
	}); err != nil {
		return err
	}
	if err := c.scope.BindRegister("$recvSync", func(h *engine.Handler) {
		c.onRecvSync = h
	}); err != nil {
		return err
	}
	if err := c.scope.BindSend("$send", func(msg string) {
		c.recv(w.callCtx, msg, c.data)
	}); err != nil {
		return err
	}
	return c.scope.BindSendSync("$sendSync", func(msg string) string {
		return c.recvSync(w.callCtx, msg, c.data)
	})
}

// Load compiles source attributed to name and runs it once in c's scope.
// A compile failure returns a syntax error (status 1); an uncaught
// exception or a Terminate during the run returns a status-2 error. Either
// way the formatted diagnostic lands in the last-exception slot.
func (w *Worker) Load(ctx context.Context, c *Context, name, source string) error {
	if w.reentrant(ctx) {
		return errors.Reentrant(errors.PhaseRun)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usable(c, errors.PhaseRun); err != nil {
		return err
	}

	exe, diag := engine.Compile(name, source)
	if diag != nil {
		text := report.Format(diag)
		w.setLastErr(text)
		return errors.Syntax(name, text)
	}

	w.beginDispatch(ctx, c.scope)
	defer w.endDispatch()

	if diag := c.scope.Run(exe); diag != nil {
		text := report.Format(diag)
		w.setLastErr(text)
		if diag.Interrupted {
			return errors.Interrupted(errors.PhaseRun, c.id, text)
		}
		return errors.Exception(errors.PhaseRun, name, c.id, text)
	}
	return nil
}

// Send delivers msg to the guest's $recv handler. The handler's return
// value is discarded. With no handler registered the call fails with
// status 1 and the last-exception slot reads exactly "$recv not called".
func (w *Worker) Send(ctx context.Context, c *Context, msg string) error {
	if w.reentrant(ctx) {
		return errors.Reentrant(errors.PhaseDispatch)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usable(c, errors.PhaseDispatch); err != nil {
		return err
	}
	if c.onRecv == nil {
		w.setLastErr(recvNotCalled)
		return errors.HandlerMissing(c.id, recvNotCalled)
	}

	w.beginDispatch(ctx, c.scope)
	defer w.endDispatch()

	if _, diag := c.scope.Call(c.onRecv, msg); diag != nil {
		text := report.Format(diag)
		w.setLastErr(text)
		if diag.Interrupted {
			return errors.Interrupted(errors.PhaseDispatch, c.id, text)
		}
		return errors.Exception(errors.PhaseDispatch, "", c.id, text)
	}
	return nil
}

// SendSync delivers msg to the guest's $recvSync handler and returns the
// handler's string result. Failures never surface as error values here:
// every failure mode maps to an in-band string prefixed "err: ". Only a
// throwing handler additionally records the formatted diagnostic in the
// last-exception slot.
func (w *Worker) SendSync(ctx context.Context, c *Context, msg string) string {
	if w.reentrant(ctx) {
		return reentrantCall
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return syncErrPrefix + "worker closed"
	}
	if c == nil || c.worker != w {
		return syncErrPrefix + "invalid context"
	}
	if c.disposed {
		return syncErrPrefix + "context disposed"
	}
	if c.onRecvSync == nil {
		return recvSyncNotCalled
	}

	w.beginDispatch(ctx, c.scope)
	defer w.endDispatch()

	res, diag := c.scope.Call(c.onRecvSync, msg)
	if diag != nil {
		w.setLastErr(report.Format(diag))
		return syncErrPrefix + diag.Message
	}
	s, ok := res.StringValue()
	if !ok {
		return nonStringResult
	}
	return s
}
