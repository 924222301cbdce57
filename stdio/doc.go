// Package stdio implements a single-connection server runtime over
// stdin/stdout. It is how the knowledge-bae router is embedded as a
// subprocess of an AI agent: the agent spawns the binary and exchanges
// newline-delimited JSON-RPC messages over the pipes.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Auth             : none; the OS user only labels logs
//	Sessions         : one, in memory, identified by a random uuid
//	Transport        : line oriented JSON-RPC 2.0
//	Concurrency      : one goroutine per request, out-of-order responses
//
// The handler owns the session lifecycle (initialize, initialized, request
// cancellation through notifications/cancelled) and delegates every request
// to a dispatch.Adapter.
//
// Example:
//
//	adapter := dispatch.New(knowledgebae.New(), dispatch.WithVersion("0.1.0"))
//	h := stdio.NewHandler(adapter, stdio.WithLogger(logger))
//	if err := h.Serve(ctx); err != nil { log.Fatal(err) }
//
// stdout carries protocol frames only; log to stderr.
package stdio
