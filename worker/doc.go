// Package worker implements the host side of the message bridge: Workers,
// execution Contexts and the dispatch operations Load, Send and SendSync.
//
// # Ownership model
//
// A Worker serializes every engine touch behind one mutex, held across
// nested host callbacks, so host and guest never run concurrently on the
// same worker. Multiple goroutines may share a Worker; their calls simply
// queue. The only cross-thread escape hatch is Terminate, which aborts
// whatever guest code is in flight.
//
// # Failure reporting
//
// Load and Send return typed *errors.Error values; StatusOf collapses them
// to the classic 0/1/2 status codes. SendSync never fails out-of-band: all
// of its failure modes come back as strings prefixed "err: ". Independent
// of the return path, every failing operation overwrites the worker's
// last-exception slot with the formatted diagnostic. The slot is guarded
// separately from the dispatch lock, so it can be read at any time, host
// callbacks included.
//
// # Reentrancy
//
// Host callbacks receive a context.Context tagged with the worker that
// invoked them. Calling Load, Send or SendSync on that same worker from
// inside the callback is rejected instead of deadlocking on the worker
// mutex: Load and Send return a reentrancy error, SendSync returns the
// "err: reentrant call" sentinel. Dispatching to a different worker from a
// callback is fine. The guard only applies while the dispatch is in flight;
// once it returns, a context propagated out of the callback behaves like
// any other caller context.
package worker
