// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server  *server.MCPServer
	tracker ports.Tracker
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(tracker ports.Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		tracker: tracker,
		logger:  logger.With("component", "mcp"),
	}

	s.server = server.NewMCPServer(
		"tally",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s.registerTaskTools()
	s.registerLedgerTools()
	s.registerReportTools()

	return s
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("serving on stdio")
	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns a failed operation into a tool error the client can
// show. Domain errors keep their code; anything else is reported as a
// storage failure without internal detail.
func (s *Server) errorResult(action string, err error) *mcp.CallToolResult {
	code := "STORAGE"
	var de *domain.Error
	if errors.As(err, &de) && de.Code != "" {
		code = de.Code
	}
	if domain.KindOf(err) == domain.KindStorage {
		s.logger.Error("tool failed", "action", action, "error", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %s [%s]", action, domain.UserMessage(err), code))
}

// requireID reads a positive integer argument sent as a number or a string.
func requireID(request mcp.CallToolRequest, key string) (int64, error) {
	id, ok, err := optionalInt(request, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.Invalid(key, "is required")
	}
	if err := domain.ValidateID(id); err != nil {
		return 0, domain.Invalid(key, "must be a positive integer")
	}
	return id, nil
}

func optionalID(request mcp.CallToolRequest, key string) (*int64, error) {
	id, ok, err := optionalInt(request, key)
	if err != nil || !ok {
		return nil, err
	}
	if id <= 0 {
		return nil, domain.Invalid(key, "must be a positive integer")
	}
	return &id, nil
}

func optionalInt(request mcp.CallToolRequest, key string) (int64, bool, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false, domain.Invalid(key, "must be an integer")
		}
		return int64(v), true, nil
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false, domain.Invalid(key, "must be an integer, got %q", v)
		}
		return n, true, nil
	default:
		return 0, false, domain.Invalid(key, "must be an integer")
	}
}

// optionalString returns nil when key was not sent, so updates can tell an
// absent field from an empty one.
func optionalString(request mcp.CallToolRequest, key string) *string {
	raw, ok := request.GetArguments()[key]
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}

// stringList accepts a JSON array of strings or a comma-separated string.
func stringList(request mcp.CallToolRequest, key string) ([]string, bool) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, false
	}
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	case []string:
		return v, true
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	}
	return nil, false
}

func optionalDate(request mcp.CallToolRequest, key string, loc *time.Location) (*time.Time, error) {
	return domain.ParseDate(key, request.GetString(key, ""), loc)
}
