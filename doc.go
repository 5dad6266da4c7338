// Package workerruntime embeds a sandboxed JavaScript engine in a host
// process and provides a bidirectional, string-based message bridge between
// host code and many isolated script contexts sharing one worker instance.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	worker-runtime/      Root package with the library version
//	├── worker/          High-level API: Worker instances, Contexts and the
//	│                    message bridge (Load, Send, SendSync, Terminate)
//	├── engine/          Low-level goja integration: scopes, compilation,
//	│                    guest handler invocation, interrupt support
//	├── report/          Formats engine diagnostics into readable text
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Create a worker, give it a context, load guest code and exchange messages:
//
//	w := worker.New(nil)
//	defer w.Close()
//
//	c, err := w.CreateContext(
//	    func(ctx context.Context, msg string, data any) {
//	        fmt.Println("guest says:", msg)
//	    },
//	    func(ctx context.Context, msg string, data any) string {
//	        return "pong"
//	    },
//	    nil,
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = w.Load(ctx, c, "hello.js", `
//	    $recvSync(function(msg) { return msg.toUpperCase(); });
//	`)
//	if err != nil {
//	    log.Fatal(w.LastException())
//	}
//
//	reply := w.SendSync(ctx, c, "abc") // "ABC"
//
// # Contexts
//
// A Worker owns any number of Contexts. Each Context is a fully isolated
// global scope with its own guest-registered handlers; guest code in one
// context can never observe or modify another. Context ids are small dense
// integers that are never reused within a worker.
//
// # The Message Bridge
//
// Every context's global scope carries six injected names:
//
//	$context      read-only numeric id of the context
//	$print(...)   write arguments to the worker's diagnostic stream
//	$recv(fn)     register the handler for host Send calls
//	$recvSync(fn) register the handler for host SendSync calls
//	$send(msg)    deliver a string to the host's async callback
//	$sendSync(msg) deliver a string to the host's sync callback, return reply
//
// All payloads are plain UTF-8 strings. There is no envelope, no framing and
// no structured data across the boundary.
//
// # Thread Safety
//
// A Worker serializes every engine-touching operation behind one exclusive
// hold; calls are strictly nested and synchronous in both directions, so a
// guest $send blocks the guest until the host callback returns and a host
// Send blocks the host until the guest handler returns. The one operation
// that is safe to call from another goroutine is Terminate, which aborts
// in-flight guest execution.
//
// # Error Reporting
//
// Load and Send return typed errors carrying a formatted diagnostic
// (resource:line, offending source line, caret underline, stack trace when
// the engine supplies one). The most recent failure is also available via
// Worker.LastException for callers that only look at status codes.
package workerruntime
