// Package mcpserver exposes the session store as MCP tools over stdio, so
// coding agents can browse and curate their own transcript history.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/session"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/versioninfo"
)

// New assembles the MCP server with the full tool set registered.
func New() *server.MCPServer {
	s := server.NewMCPServer("sessionctl", versioninfo.Version,
		server.WithToolCapabilities(false),
	)
	registerTools(s)
	return s
}

// Serve runs the server on stdio until the client disconnects.
func Serve() error {
	if err := server.ServeStdio(New()); err != nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	return nil
}

// jsonResult marshals v as an indented text result. Tool output is consumed
// by a model, so readability beats compactness.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func registerTools(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("list_projects",
			mcp.WithDescription("List all projects that have recorded sessions."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projects, err := session.ListProjects(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(projects)
		},
	)

	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List the sessions of a project, newest first."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessions, err := session.ListSessions(ctx, project)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(sessions)
		},
	)

	s.AddTool(
		mcp.NewTool("read_session",
			mcp.WithDescription("Read the full record list of a session."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			records, err := session.ReadSession(project, sessionID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(records)
		},
	)

	s.AddTool(
		mcp.NewTool("rename_session",
			mcp.WithDescription("Set the display title of a session by rewriting its first user message."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New session title.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := session.RenameSession(project, sessionID, title); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText("session renamed"), nil
		},
	)

	s.AddTool(
		mcp.NewTool("delete_session",
			mcp.WithDescription("Delete a session, backing it up and retiring its agent logs and todos."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := session.DeleteSession(project, sessionID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(result)
		},
	)

	s.AddTool(
		mcp.NewTool("delete_message",
			mcp.WithDescription("Delete one record from a session, splicing the parent chain around it."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
			mcp.WithString("uuid", mcp.Required(), mcp.Description("Record uuid or messageId.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			id, err := req.RequireString("uuid")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := session.DeleteMessage(project, sessionID, id); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText("message deleted"), nil
		},
	)

	s.AddTool(
		mcp.NewTool("split_session",
			mcp.WithDescription("Split a session into two at a record uuid; the record and everything after it move to a new session."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
			mcp.WithString("uuid", mcp.Required(), mcp.Description("Uuid of the first record of the new session.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			uuid, err := req.RequireString("uuid")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := session.SplitSession(project, sessionID, uuid)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(result)
		},
	)

	s.AddTool(
		mcp.NewTool("preview_cleanup",
			mcp.WithDescription("Preview which sessions, agent logs and todos a cleanup would remove. Read only."),
			mcp.WithString("project", mcp.Description("Restrict the preview to one project.")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			preview, err := session.PreviewCleanup(ctx, req.GetString("project", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(preview)
		},
	)

	s.AddTool(
		mcp.NewTool("clear_sessions",
			mcp.WithDescription("Run cleanup passes: prune empty sessions, scrub invalid-credential records, retire orphan agent logs and todos."),
			mcp.WithString("project", mcp.Description("Restrict cleanup to one project.")),
			mcp.WithBoolean("empty", mcp.Description("Prune sessions with no conversation."), mcp.DefaultBool(false)),
			mcp.WithBoolean("invalid", mcp.Description("Scrub invalid-credential records."), mcp.DefaultBool(false)),
			mcp.WithBoolean("orphanAgents", mcp.Description("Retire agent logs whose session is gone."), mcp.DefaultBool(false)),
			mcp.WithBoolean("orphanTodos", mcp.Description("Retire todo files whose session is gone."), mcp.DefaultBool(false)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			opts := session.CleanupOptions{
				Project:           req.GetString("project", ""),
				ClearEmpty:        req.GetBool("empty", false),
				ClearInvalid:      req.GetBool("invalid", false),
				ClearOrphanAgents: req.GetBool("orphanAgents", false),
				ClearOrphanTodos:  req.GetBool("orphanTodos", false),
			}
			result, err := session.ClearSessions(ctx, opts)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(result)
		},
	)

	s.AddTool(
		mcp.NewTool("get_session_files",
			mcp.WithDescription("List the files a session created or modified."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			summary, err := session.ChangedFiles(project, sessionID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(summary)
		},
	)

	s.AddTool(
		mcp.NewTool("scan_secrets",
			mcp.WithDescription("Scan a session transcript for leaked credentials. Findings are redacted."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Encoded project directory name.")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id.")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sessionID, err := req.RequireString("session")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			findings, err := session.ScanSecrets(project, sessionID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(findings)
		},
	)
}
