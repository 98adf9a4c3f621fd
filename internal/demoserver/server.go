package demoserver

import (
	"context"
	"fmt"
	"strings"

	"mcpconnect/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DemoServer exposes the demo tools over streamable HTTP.
type DemoServer struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	addr       string
}

// New creates the demo server listening on the given address.
func New(addr string) *DemoServer {
	mcpServer := server.NewMCPServer(
		"mcpconnect-demo",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	ds := &DemoServer{
		mcpServer: mcpServer,
		addr:      addr,
	}
	ds.registerTools()
	ds.httpServer = server.NewStreamableHTTPServer(mcpServer)
	return ds
}

// Start serves until the listener fails. It blocks.
func (d *DemoServer) Start() error {
	logging.Info("DemoServer", "Demo MCP server listening on %s", d.addr)
	return d.httpServer.Start(d.addr)
}

// Shutdown stops the demo server.
func (d *DemoServer) Shutdown(ctx context.Context) error {
	return d.httpServer.Shutdown(ctx)
}

func (d *DemoServer) registerTools() {
	sayHelloTool := mcp.NewTool("say_hello",
		mcp.WithDescription("Greet someone by name"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name to greet"),
		),
	)
	d.mcpServer.AddTool(sayHelloTool, handleSayHello)

	countTool := mcp.NewTool("count_characters",
		mcp.WithDescription("Count occurrences of a specific character in text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to search through"),
		),
		mcp.WithString("character",
			mcp.Required(),
			mcp.Description("The character to count"),
		),
	)
	d.mcpServer.AddTool(countTool, handleCountCharacters)
}

func handleSayHello(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := req.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name must be a non-empty string"), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Hello, %s!", name)), nil
}

func handleCountCharacters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := req.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}

	text, ok := args["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text must be a string"), nil
	}
	character, ok := args["character"].(string)
	if !ok || character == "" {
		return mcp.NewToolResultError("character must be a non-empty string"), nil
	}

	// Case insensitive count of the single character.
	count := strings.Count(strings.ToLower(text), strings.ToLower(character))

	return mcp.NewToolResultText(
		fmt.Sprintf("The character %q appears %d times in the text.", character, count),
	), nil
}
