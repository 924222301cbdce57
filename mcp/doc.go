// Package mcp contains the protocol data types and constants exchanged between
// the knowledge-bae router and a remote agent. It mirrors the wire
// representation of the Model Context Protocol while keeping the surface
// Go-friendly: exported structs with json tags and string constants for method
// names.
//
// The package is intentionally free of transport and dispatch logic. The
// router package builds registries out of these types, the dispatch package
// wraps them in result envelopes and the stdio package frames them.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod).
//
// # Capabilities
//
// ServerCapabilities is the shape advertised in the initialize result. Only
// the tools, resources, prompts and logging entries are produced by this
// server.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
package mcp
