// Package dispatch adapts a router.Router to the request/response protocol
// spoken with a remote agent.
//
// An Adapter owns exactly one router, passed in at construction. It exposes
// three entry points:
//
//   - Negotiate answers the initialize request with the router's identity,
//     instructions and capability descriptor.
//   - Dispatch is the typed per-request path: it validates an Invocation,
//     rejects categories the descriptor disables before any registry lookup,
//     and routes to CallTool, ReadResource or GetPrompt while honouring
//     context cancellation.
//   - HandleRequest decodes a JSON-RPC request, drives Dispatch (or a
//     listing) and re-encodes the outcome as a JSON-RPC response.
//
// Domain errors never escape as transport failures: every router error is
// translated into a JSON-RPC error object (or, for tool execution failures, a
// CallToolResult flagged isError) and the session continues.
//
// Adapter is safe for concurrent use. Requests are independent and may be
// handled in parallel by the transport.
package dispatch
