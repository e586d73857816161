// Package server exposes the session store over a local HTTP API with a
// minimal embedded web page. It is meant to be bound to localhost only.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/logging"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/session"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/versioninfo"
)

const shutdownGrace = 5 * time.Second

// Server is the HTTP front end over the session store.
type Server struct {
	echo *echo.Echo
	http *http.Server

	// shutdown is closed by the /api/shutdown handler to stop Run.
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New builds a server listening on addr when Run is called.
func New(addr string) *Server {
	s := &Server{
		echo:     echo.New(),
		shutdown: make(chan struct{}),
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.GET("/", s.handleIndex)
	e.GET("/api/version", s.handleVersion)
	e.GET("/api/projects", s.handleListProjects)
	e.GET("/api/sessions", s.handleListSessions)
	e.GET("/api/session", s.handleReadSession)
	e.DELETE("/api/session", s.handleDeleteSession)
	e.POST("/api/session/rename", s.handleRenameSession)
	e.POST("/api/session/split", s.handleSplitSession)
	e.GET("/api/session/files", s.handleSessionFiles)
	e.GET("/api/session/secrets", s.handleScanSecrets)
	e.DELETE("/api/message", s.handleDeleteMessage)
	e.GET("/api/cleanup", s.handlePreviewCleanup)
	e.POST("/api/cleanup", s.handleClearSessions)
	e.POST("/api/shutdown", s.handleShutdown)
}

// Run serves until ctx is cancelled or /api/shutdown is hit.
func (s *Server) Run(ctx context.Context) error {
	ctx = logging.WithComponent(ctx, "server")

	errc := make(chan error, 1)
	go func() {
		logging.Info(ctx, "http server listening", "addr", s.http.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	case <-s.shutdown:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	logging.Info(ctx, "http server stopped")
	return nil
}

// httpError maps store errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrEmptySession),
		errors.Is(err, session.ErrNoUserMessage),
		errors.Is(err, session.ErrInvalidSplitPoint):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func requireQuery(c *echo.Context, name string) (string, error) {
	v := c.QueryParam(name)
	if v == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, name+" query parameter required")
	}
	return v, nil
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"version": versioninfo.Version,
		"commit":  versioninfo.Commit,
	})
}

func (s *Server) handleListProjects(c *echo.Context) error {
	projects, err := session.ListProjects(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleListSessions(c *echo.Context) error {
	project, err := requireQuery(c, "project")
	if err != nil {
		return err
	}
	sessions, err := session.ListSessions(c.Request().Context(), project)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleReadSession(c *echo.Context) error {
	project, err := requireQuery(c, "project")
	if err != nil {
		return err
	}
	sessionID, err := requireQuery(c, "session")
	if err != nil {
		return err
	}
	records, err := session.ReadSession(project, sessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleDeleteSession(c *echo.Context) error {
	project, err := requireQuery(c, "project")
	if err != nil {
		return err
	}
	sessionID, err := requireQuery(c, "session")
	if err != nil {
		return err
	}
	result, err := session.DeleteSession(project, sessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "result": result})
}

type renameRequest struct {
	Project string `json:"project"`
	Session string `json:"session"`
	Title   string `json:"title"`
	// UUID, when set, targets a custom-title record instead of the first
	// user message.
	UUID string `json:"uuid,omitempty"`
}

func (s *Server) handleRenameSession(c *echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Project == "" || req.Session == "" || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project, session and title required")
	}
	var err error
	if req.UUID != "" {
		err = session.UpdateCustomTitle(req.Project, req.Session, req.UUID, req.Title)
	} else {
		err = session.RenameSession(req.Project, req.Session, req.Title)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

type splitRequest struct {
	Project string `json:"project"`
	Session string `json:"session"`
	UUID    string `json:"uuid"`
}

func (s *Server) handleSplitSession(c *echo.Context) error {
	var req splitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Project == "" || req.Session == "" || req.UUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project, session and uuid required")
	}
	result, err := session.SplitSession(req.Project, req.Session, req.UUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "result": result})
}

func (s *Server) handleSessionFiles(c *echo.Context) error {
	project, err := requireQuery(c, "project")
	if err != nil {
		return err
	}
	sessionID, err := requireQuery(c, "session")
	if err != nil {
		return err
	}
	summary, err := session.ChangedFiles(project, sessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) handleScanSecrets(c *echo.Context) error {
	project, err := requireQuery(c, "project")
	if err != nil {
		return err
	}
	sessionID, err := requireQuery(c, "session")
	if err != nil {
		return err
	}
	findings, err := session.ScanSecrets(project, sessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"findings": findings})
}

func (s *Server) handleDeleteMessage(c *echo.Context) error {
	project, err := requireQuery(c, "project")
	if err != nil {
		return err
	}
	sessionID, err := requireQuery(c, "session")
	if err != nil {
		return err
	}
	id, err := requireQuery(c, "uuid")
	if err != nil {
		return err
	}
	if err := session.DeleteMessage(project, sessionID, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePreviewCleanup(c *echo.Context) error {
	preview, err := session.PreviewCleanup(c.Request().Context(), c.QueryParam("project"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, preview)
}

func (s *Server) handleClearSessions(c *echo.Context) error {
	var opts session.CleanupOptions
	if err := c.Bind(&opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := session.ClearSessions(c.Request().Context(), opts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "result": result})
}

func (s *Server) handleShutdown(c *echo.Context) error {
	// Signal after replying so the client gets an acknowledgement.
	defer s.shutdownOnce.Do(func() { close(s.shutdown) })
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
