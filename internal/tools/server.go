// Package tools exposes App Store Connect operations as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/logging"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/pagination"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "app-store-connect-mcp"

// API is the App Store Connect surface the tools need.
type API interface {
	pagination.PageFetcher
	Post(ctx context.Context, endpoint string, body any) (jsonapi.Document, error)
	Delete(ctx context.Context, endpoint string) error
	DefaultAppID() string
	EnsureAppID(appID string) (string, error)
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock used for relative date filters.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is the MCP server for App Store Connect.
type Server struct {
	mcp    *server.MCPServer
	api    API
	now    func() time.Time
	logger zerolog.Logger
}

// toolFunc is a tool body; its result is rendered as JSON text.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// New creates a server with every tool registered.
func New(api API, version string, opts ...Option) *Server {
	s := &Server{
		api:    api,
		now:    time.Now,
		logger: logging.NewLogger("tools"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.registerReviewTools()
	s.registerCrashTools()
	s.registerBuildTools()
	s.registerBuildActionTools()
	s.registerProductTools()
	s.registerSCMTools()
	s.registerAnalyticsTools()

	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("Starting stdio server")
	return server.ServeStdio(s.mcp)
}

// addTool registers tool with a handler that logs the call and renders
// failures as structured error results.
func (s *Server) addTool(tool mcp.Tool, fn toolFunc) {
	s.mcp.AddTool(tool, s.wrap(tool.Name, fn))
}

func (s *Server) wrap(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		out, err := fn(ctx, req)
		if err != nil {
			e := apperr.Wrap(err, fmt.Sprintf("Unexpected error in %s", name), map[string]any{"tool": name})
			s.logger.Warn().
				Err(err).
				Str("tool", name).
				Str("kind", string(e.Kind)).
				Dur("duration", time.Since(start)).
				Msg("Tool failed")
			return errorResult(e)
		}

		s.logger.Info().
			Str("tool", name).
			Dur("duration", time.Since(start)).
			Msg("Tool completed")
		return jsonResult(out)
	}
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult renders e as a tool error result.
func errorResult(e *apperr.Error) (*mcp.CallToolResult, error) {
	res, err := jsonResult(e.ToMap())
	if err != nil {
		return nil, err
	}
	res.IsError = true
	return res, nil
}

// decoded returns the typed value of res when it validated, otherwise the raw document.
func (s *Server) decoded(tool string, value any, decodeErr error) any {
	if decodeErr != nil {
		s.logger.Debug().
			Err(decodeErr).
			Str("tool", tool).
			Msg("Response did not match typed model, returning raw document")
	}
	return value
}

// executeAs runs b once and renders the response as T, or raw when it does not match.
func executeAs[T any](ctx context.Context, s *Server, tool string, b *apiquery.Builder) (any, error) {
	res, err := apiquery.ExecuteAs[T](ctx, b, s.api)
	if err != nil {
		return nil, err
	}
	return s.decoded(tool, res.Value(), res.DecodeErr), nil
}
