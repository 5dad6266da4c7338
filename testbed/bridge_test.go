package testbed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/worker-runtime/worker"
)

// TestBridge_FullLifecycle walks the complete host embedding flow: create,
// load, exchange messages both directions, fail, read the exception slot,
// dispose, close.
func TestBridge_FullLifecycle(t *testing.T) {
	ctx := context.Background()

	var fromGuest []string
	recv := func(_ context.Context, msg string, _ any) {
		fromGuest = append(fromGuest, msg)
	}
	recvSync := func(_ context.Context, msg string, _ any) string {
		return "host:" + msg
	}

	var out bytes.Buffer
	w := worker.New(nil, worker.WithDiagnosticWriter(&out))
	c, err := w.CreateContext(recv, recvSync, nil)
	if err != nil {
		t.Fatalf("create context: %v", err)
	}

	if err := w.Load(ctx, c, "life.js", `
		$print("booting", $context);
		$recvSync(function(m) { return m + "/" + $sendSync(m); });
		$recv(function(m) { $send("ack " + m); });
	`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := out.String(), "booting 1\n"; got != want {
		t.Errorf("print output = %q, want %q", got, want)
	}

	if got := w.SendSync(ctx, c, "x"); got != "x/host:x" {
		t.Errorf("sync round trip = %q, want x/host:x", got)
	}
	if err := w.Send(ctx, c, "y"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fromGuest) != 1 || fromGuest[0] != "ack y" {
		t.Errorf("forwarded = %v", fromGuest)
	}

	if err := w.Load(ctx, c, "fail.js", "nope();"); err == nil {
		t.Fatal("expected load failure")
	}
	if !strings.Contains(w.LastException(), "nope") {
		t.Errorf("last exception = %q", w.LastException())
	}

	if err := c.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

// TestBridge_MultiContextRouter runs one worker as a router: several
// contexts with distinct guest programs, dispatched by id.
func TestBridge_MultiContextRouter(t *testing.T) {
	ctx := context.Background()
	noop := func(context.Context, string, any) {}
	echo := func(_ context.Context, msg string, _ any) string { return msg }

	w := worker.New(nil)
	defer w.Close()

	ops := []string{"upper", "lower", "len"}
	scripts := map[string]string{
		"upper": `$recvSync(function(m) { return m.toUpperCase(); });`,
		"lower": `$recvSync(function(m) { return m.toLowerCase(); });`,
		"len":   `$recvSync(function(m) { return String(m.length); });`,
	}
	contexts := make(map[string]*worker.Context)
	for _, op := range ops {
		c, err := w.CreateContext(noop, echo, op)
		if err != nil {
			t.Fatalf("create %s: %v", op, err)
		}
		if err := w.Load(ctx, c, op+".js", scripts[op]); err != nil {
			t.Fatalf("load %s: %v", op, err)
		}
		contexts[op] = c
	}

	tests := []struct {
		op   string
		in   string
		want string
	}{
		{"upper", "MixedCase", "MIXEDCASE"},
		{"lower", "MixedCase", "mixedcase"},
		{"len", "MixedCase", "9"},
	}
	for _, tt := range tests {
		if got := w.SendSync(ctx, contexts[tt.op], tt.in); got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.op, tt.in, got, tt.want)
		}
	}
}

// TestBridge_GuestConversation drives a multi-turn exchange where the
// guest keeps state across deliveries.
func TestBridge_GuestConversation(t *testing.T) {
	ctx := context.Background()
	w, c := newBridge(t)
	defer w.Close()

	if err := w.Load(ctx, c, "count.js", `
		var n = 0;
		$recvSync(function(m) {
			n = n + 1;
			return m + " #" + n;
		});
	`); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 1; i <= 3; i++ {
		want := fmt.Sprintf("turn #%d", i)
		if got := w.SendSync(ctx, c, "turn"); got != want {
			t.Errorf("turn %d = %q, want %q", i, got, want)
		}
	}
}

// TestBridge_HostDataThreaded verifies the per-context host data pointer
// reaches the callbacks on every dispatch.
func TestBridge_HostDataThreaded(t *testing.T) {
	ctx := context.Background()
	type session struct{ user string }

	recvSync := func(_ context.Context, msg string, data any) string {
		return data.(*session).user + " says " + msg
	}
	w := worker.New(nil)
	defer w.Close()
	c, err := w.CreateContext(func(context.Context, string, any) {}, recvSync, &session{user: "ada"})
	if err != nil {
		t.Fatalf("create context: %v", err)
	}

	if err := w.Load(ctx, c, "relay.js",
		`$recvSync(function(m) { return $sendSync(m); });`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := w.SendSync(ctx, c, "hi"); got != "ada says hi" {
		t.Errorf("result = %q", got)
	}
}

// TestBridge_WatchdogTerminate runs a runaway guest under a watchdog
// timer, the way an embedding host would bound guest execution.
func TestBridge_WatchdogTerminate(t *testing.T) {
	ctx := context.Background()
	w, c := newBridge(t)
	defer w.Close()

	if err := w.Load(ctx, c, "spin.js",
		`$recv(function(m) { for (;;) {} });`); err != nil {
		t.Fatalf("load: %v", err)
	}

	watchdog := time.AfterFunc(50*time.Millisecond, w.Terminate)
	defer watchdog.Stop()

	start := time.Now()
	err := w.Send(ctx, c, "go")
	if worker.StatusOf(err) != worker.StatusException {
		t.Fatalf("status = %d, want %d (err=%v)", worker.StatusOf(err), worker.StatusException, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("terminate took %v", elapsed)
	}

	// The context remains usable for the next delivery.
	if err := w.Load(ctx, c, "calm.js",
		`$recv(function(m) {});`); err != nil {
		t.Fatalf("reload after terminate: %v", err)
	}
	if err := w.Send(ctx, c, "again"); err != nil {
		t.Fatalf("send after terminate: %v", err)
	}
}

// TestBridge_ConcurrentSenders hammers one worker from several goroutines;
// the worker's lock serializes them and every reply stays consistent.
func TestBridge_ConcurrentSenders(t *testing.T) {
	ctx := context.Background()
	w, c := newBridge(t)
	defer w.Close()

	if err := w.Load(ctx, c, "echo.js",
		`$recvSync(function(m) { return "<" + m + ">"; });`); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				msg := fmt.Sprintf("g%d-%d", g, i)
				if got := w.SendSync(ctx, c, msg); got != "<"+msg+">" {
					errs <- fmt.Sprintf("reply for %q was %q", msg, got)
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

// TestBridge_ErrorRecovery checks that a context keeps working after each
// failure mode in sequence.
func TestBridge_ErrorRecovery(t *testing.T) {
	ctx := context.Background()
	w, c := newBridge(t)
	defer w.Close()

	// Syntax failure first.
	if err := w.Load(ctx, c, "bad.js", "var = ;"); worker.StatusOf(err) != worker.StatusFailed {
		t.Fatalf("syntax load status = %d (err=%v)", worker.StatusOf(err), err)
	}
	// Missing handler next.
	if got := w.SendSync(ctx, c, "m"); got != "err: $recvSync not called" {
		t.Fatalf("missing handler = %q", got)
	}
	// Throwing handler.
	if err := w.Load(ctx, c, "throw.js",
		`$recvSync(function(m) { throw new Error("bad turn"); });`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := w.SendSync(ctx, c, "m"); !strings.Contains(got, "bad turn") {
		t.Fatalf("throwing handler = %q", got)
	}
	// And finally a healthy handler on the same context.
	if err := w.Load(ctx, c, "ok.js",
		`$recvSync(function(m) { return "recovered"; });`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := w.SendSync(ctx, c, "m"); got != "recovered" {
		t.Errorf("final result = %q", got)
	}
}

func newBridge(t *testing.T) (*worker.Worker, *worker.Context) {
	t.Helper()
	w := worker.New(nil)
	c, err := w.CreateContext(
		func(context.Context, string, any) {},
		func(_ context.Context, msg string, _ any) string { return msg },
		nil,
	)
	if err != nil {
		t.Fatalf("create context: %v", err)
	}
	return w, c
}
