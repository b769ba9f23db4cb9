package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/pkg/apierr"
)

// ToolHandler is the interface that all tool handlers implement.
type ToolHandler[P any] interface {
	Handle(ctx context.Context, params P) (string, error)
}

// WrapHandler adapts a ToolHandler into the SDK's AddTool callback.
// It handles nil params by using a zero value and maps errors to CallToolResult.
// A Principal verified by the bearer middleware is moved onto ctx.
func WrapHandler[P any](h ToolHandler[P]) func(context.Context, *sdkmcp.CallToolRequest, *P) (*sdkmcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, params *P) (*sdkmcp.CallToolResult, any, error) {
		if params == nil {
			params = new(P)
		}
		if req != nil && req.Extra != nil {
			if p, ok := auth.PrincipalFromTokenInfo(req.Extra.TokenInfo); ok {
				ctx = auth.WithPrincipal(ctx, p)
			}
		}
		result, err := h.Handle(ctx, *params)
		if err != nil {
			return &sdkmcp.CallToolResult{
				IsError: true,
				Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: err.Error()}},
			}, nil, nil
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: result}},
		}, nil, nil
	}
}

var errForbidden = errors.New("insufficient scope")

// requireScope checks the caller's scopes. Calls without a Principal only
// reach the tools when auth is disabled, so they pass.
func requireScope(ctx context.Context, scopes ...string) error {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok || p.Allows(scopes...) {
		return nil
	}
	return fmt.Errorf("%w: requires %v", errForbidden, scopes)
}

// wrapRunError translates database errors from GetRun into user-friendly messages.
func wrapRunError(err error) error {
	if apierr.IsNotFound(err) {
		return fmt.Errorf("run not found")
	}
	return fmt.Errorf("get run: %w", err)
}
