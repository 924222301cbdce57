// Package knowledgebae is the knowledge-bae router: the server personality
// exposed to AI agents that ingest documentation from local git
// repositories.
//
// The router currently offers a single tool, a single prompt and an empty
// resource registry. It holds no mutable state.
package knowledgebae

import (
	"context"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/knowledgebae/knowledge-bae-mcp/router"
)

const (
	// Name is the server name advertised during negotiation.
	Name = "knowledge-bae"
	// Instructions is the usage text advertised during negotiation.
	Instructions = "Knowledge Bae MCP Server - A tool for AI agents to ingest documentation from local git repositories"

	HelloWorldTool     = "hello_world"
	HelloWorldResponse = "Hello World from the tool!"

	HelloUsernamePrompt   = "hello_username"
	HelloUsernameTemplate = "Hello {username}"
)

// Capabilities is the knowledge-bae capability descriptor: tools and prompts
// on, resources on without subscription or list-change notifications.
func Capabilities() router.Capabilities {
	return router.NewCapabilities(
		router.WithToolsEnabled(true),
		router.WithResourcesEnabled(false, false),
		router.WithPromptsEnabled(true),
	)
}

type helloWorldArgs struct{}

func helloWorld(ctx context.Context, _ helloWorldArgs) ([]mcp.ContentBlock, error) {
	return []mcp.ContentBlock{router.Text(HelloWorldResponse)}, nil
}

// Registry returns the knowledge-bae registries.
func Registry() *router.Registry {
	return router.MustNewRegistry(
		router.WithTools(
			router.NewTool(HelloWorldTool, helloWorld,
				router.WithToolDescription("A simple hello world tool"),
				router.WithToolAllowAdditionalProperties(true),
			),
		),
		router.WithPrompts(
			router.TemplatePrompt(mcp.Prompt{
				Name:        HelloUsernamePrompt,
				Description: "A prompt that greets the user by name",
				Arguments: []mcp.PromptArgument{{
					Name:        "username",
					Description: "The name of the user to greet",
					Required:    true,
				}},
			}, HelloUsernameTemplate),
		),
	)
}

// New returns the knowledge-bae router.
func New() router.Router {
	return router.NewStatic(Name, Instructions, Capabilities(), Registry())
}
