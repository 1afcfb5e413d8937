// Package mcpserver exposes the conversation history as MCP tools so an
// assistant can list, read, save and delete notes over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwulff/steno/notes/internal/db"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "steno-notes"

// Store is the subset of the conversation store the tools call.
type Store interface {
	Create(ctx context.Context, name string, phrases []string) (db.Conversation, error)
	List(ctx context.Context) ([]db.Conversation, error)
	Get(ctx context.Context, id int64) (*db.Conversation, error)
	Delete(ctx context.Context, id int64) error
}

// Server holds the tool handlers bound to one store.
type Server struct {
	store  Store
	logger *slog.Logger
}

// New binds the tool handlers to store. A nil logger discards.
func New(store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{store: store, logger: logger}
}

// summary is one line of list_conversations output. Phrases are counted,
// not returned; get_conversation has them.
type summary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Phrases int    `json:"phrases"`
}

// Tools returns the tool definitions paired with their handlers.
func (s *Server) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_conversations",
				mcp.WithDescription("List recently saved conversations (within the configured history window), newest first."),
			),
			Handler: s.handleList,
		},
		{
			Tool: mcp.NewTool("get_conversation",
				mcp.WithDescription("Get one saved conversation with all of its phrases."),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("Conversation ID")),
			),
			Handler: s.handleGet,
		},
		{
			Tool: mcp.NewTool("save_conversation",
				mcp.WithDescription("Save a named list of transcript phrases as a new conversation."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Conversation name")),
				mcp.WithArray("phrases",
					mcp.Required(),
					mcp.Description("Phrases in utterance order"),
					mcp.Items(map[string]any{"type": "string"}),
				),
			),
			Handler: s.handleSave,
		},
		{
			Tool: mcp.NewTool("delete_conversation",
				mcp.WithDescription("Delete a conversation. Deleting an unknown ID succeeds."),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("Conversation ID")),
			),
			Handler: s.handleDelete,
		},
	}
}

// MCPServer builds an MCP server with every tool registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	srv.AddTools(s.Tools()...)
	return srv
}

// ServeStdio blocks serving the tools on stdin/stdout.
func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.MCPServer(version))
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	convs, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		return storeError("list conversations", err), nil
	}

	out := make([]summary, 0, len(convs))
	for _, c := range convs {
		out = append(out, summary{
			ID:      c.ID,
			Name:    c.Name,
			Date:    c.Date.UTC().Format("2006-01-02T15:04:05.000Z"),
			Phrases: len(c.Phrases),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conv, err := s.store.Get(ctx, int64(id))
	if err != nil {
		s.logger.Error("get conversation failed", "id", id, "error", err)
		return storeError("get conversation", err), nil
	}
	if conv == nil {
		return mcp.NewToolResultText(fmt.Sprintf("conversation %d not found", id)), nil
	}
	return jsonResult(conv)
}

func (s *Server) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	phrases := req.GetStringSlice("phrases", nil)

	conv, err := s.store.Create(ctx, name, phrases)
	if err != nil {
		if errors.Is(err, db.ErrEmptyName) {
			return mcp.NewToolResultError("name must not be empty"), nil
		}
		s.logger.Error("save conversation failed", "error", err)
		return storeError("save conversation", err), nil
	}

	s.logger.Info("conversation saved over mcp", "id", conv.ID, "phrases", len(conv.Phrases))
	return jsonResult(conv)
}

func (s *Server) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.store.Delete(ctx, int64(id)); err != nil {
		s.logger.Error("delete conversation failed", "id", id, "error", err)
		return storeError("delete conversation", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted conversation %d", id)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// storeError reports a failed store call as a tool error. Corrupted rows
// get their own wording so the caller does not retry.
func storeError(op string, err error) *mcp.CallToolResult {
	if errors.Is(err, db.ErrDecode) {
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: stored data is corrupted: %v", op, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", op, err))
}
