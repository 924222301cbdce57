package dispatch

import (
	"context"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// Negotiate builds the initialize result. The client's protocol version is
// echoed when supported, otherwise the latest supported version is offered
// and the client decides whether to proceed.
func (a *Adapter) Negotiate(ctx context.Context, req *mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	version := mcp.LatestProtocolVersion
	if req != nil && mcp.IsSupportedProtocolVersion(req.ProtocolVersion) {
		version = req.ProtocolVersion
	}

	res := &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    a.ServerCapabilities(),
		ServerInfo: mcp.ImplementationInfo{
			Name:    a.router.Name(),
			Version: a.version,
		},
		Instructions: a.router.Instructions(),
	}

	attrs := []any{"protocol_version", version}
	if req != nil {
		attrs = append(attrs, "client", req.ClientInfo.Name, "client_protocol_version", req.ProtocolVersion)
	}
	a.log.InfoContext(ctx, "dispatch.negotiate.ok", attrs...)

	return res, nil
}

// ServerCapabilities is the capability set advertised during negotiation:
// the router's descriptor plus logging when a level var is configured.
func (a *Adapter) ServerCapabilities() mcp.ServerCapabilities {
	caps := a.router.Capabilities().ServerCapabilities()
	if a.levelVar != nil {
		caps.Logging = &struct{}{}
	}
	return caps
}
