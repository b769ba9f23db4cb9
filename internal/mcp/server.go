package mcp

import (
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "ontograph"
	serverVersion = "1.0.0"
)

// NewServer creates the SDK server. Tools are registered by the caller
// (see package tools) to keep this package free of pipeline imports.
func NewServer() *sdkmcp.Server {
	return sdkmcp.NewServer(&sdkmcp.Implementation{Name: ServerName, Version: serverVersion}, nil)
}

// NewHTTPHandler serves s over Streamable HTTP. Stateless mode ignores stale
// session IDs after a restart; each request gets a pre-initialized session.
func NewHTTPHandler(s *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return s },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)
}
