// Package router defines the capability-dispatch core that a concrete MCP
// server personality implements.
//
// A Router is polymorphic over five concerns: identity (Name, Instructions),
// capability advertisement (Capabilities), and one dispatch surface per
// capability category (tools, resources and prompts). The dispatch package
// adapts any Router into the uniform per-request entry point the server
// runtime drives, so Router implementations never see transport state.
//
// Conventions used throughout this package:
//   - Listing methods are synchronous, side-effect free and return a fresh
//     copy of the full registry snapshot. Order is significant for display
//     only.
//   - Invocation methods accept a context.Context which MUST be honored for
//     cancellation. Callers may abandon a call at any time.
//   - Identifiers are matched exactly and case-sensitively. An unknown
//     identifier yields a *NotFoundError naming exactly that identifier.
//   - Routers hold no mutable shared state. Tools that need shared state
//     synchronize it themselves.
//
// Quick start (static):
//
//	type EchoArgs struct {
//	    Message string `json:"message" jsonschema:"description=Text to echo"`
//	}
//	reg := router.MustNewRegistry(
//	    router.WithTools(router.NewTool("echo",
//	        func(ctx context.Context, a EchoArgs) ([]mcp.ContentBlock, error) {
//	            return []mcp.ContentBlock{router.Text(a.Message)}, nil
//	        },
//	        router.WithToolDescription("Echo a message back"),
//	    )),
//	)
//	r := router.NewStatic("echo-server", "Echoes things.",
//	    router.NewCapabilities(router.WithToolsEnabled(true)), reg)
package router
