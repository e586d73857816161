package session

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// listConcurrency bounds parallel file reads during listing fan-out.
// Listing is read-only, so concurrent reads are safe; the bound keeps file
// descriptor usage predictable on large project trees.
const listConcurrency = 10

// Project describes one project directory and its session count.
type Project struct {
	// Name is the filesystem-encoded directory name.
	Name string `json:"name"`
	// DisplayName is the decoded working directory path.
	DisplayName string `json:"display_name"`
	// Path is the absolute project directory path.
	Path string `json:"path"`
	// SessionCount counts session logs, excluding agent logs.
	SessionCount int `json:"sessionCount"`
}

// Meta is the derived metadata for one session.
type Meta struct {
	ID           string `json:"id"`
	ProjectName  string `json:"projectName"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// ListProjects enumerates project directories under the Claude root,
// skipping dotfiles. A missing projects directory yields an empty list.
func ListProjects(ctx context.Context) ([]Project, error) {
	entries, err := os.ReadDir(paths.ProjectsDir())
	if os.IsNotExist(err) {
		return []Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	var mu sync.Mutex
	projects := []Project{}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)

	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		name := e.Name()
		g.Go(func() error {
			files, err := os.ReadDir(paths.ProjectDir(name))
			if err != nil {
				return fmt.Errorf("failed to read project %s: %w", name, err)
			}
			count := 0
			for _, f := range files {
				if paths.IsSessionLog(f.Name()) {
					count++
				}
			}
			mu.Lock()
			projects = append(projects, Project{
				Name:         name,
				DisplayName:  paths.DisplayPath(name),
				Path:         paths.ProjectDir(name),
				SessionCount: count,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per project
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// ListSessions derives metadata for every session log in a project, sorted
// by updatedAt descending with undated sessions last.
func ListSessions(ctx context.Context, project string) ([]Meta, error) {
	entries, err := os.ReadDir(paths.ProjectDir(project))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("project %s: %w", project, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	var mu sync.Mutex
	sessions := []Meta{}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)

	for _, e := range entries {
		if !paths.IsSessionLog(e.Name()) {
			continue
		}
		sessionID := paths.LogStem(e.Name())
		g.Go(func() error {
			meta, err := sessionMeta(project, sessionID)
			if err != nil {
				return err
			}
			mu.Lock()
			sessions = append(sessions, *meta)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per session
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return metaTime(sessions[i]).After(metaTime(sessions[j]))
	})
	return sessions, nil
}

// sessionMeta computes one session's listing entry.
func sessionMeta(project, sessionID string) (*Meta, error) {
	records, err := transcript.Load(paths.SessionFile(project, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	meta := &Meta{ID: sessionID, ProjectName: project}

	var first, last transcript.Record
	for _, rec := range records {
		if !rec.IsConversational() {
			continue
		}
		if first == nil {
			first = rec
		}
		last = rec
		meta.MessageCount++
	}
	if first != nil {
		meta.CreatedAt = first.Timestamp()
		meta.UpdatedAt = last.Timestamp()
	}

	meta.Title = deriveTitle(records, sessionID)
	return meta, nil
}

// deriveTitle extracts the title from the first user record, defaulting to a
// short-id placeholder when the session has no user message.
func deriveTitle(records []transcript.Record, sessionID string) string {
	for _, rec := range records {
		if rec.Type() == transcript.TypeUser {
			return transcript.ExtractTitle(rec.TextContent())
		}
	}
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "Session " + short
}

func metaTime(m Meta) time.Time {
	if m.UpdatedAt == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, m.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ReadSession returns every record of a session log.
func ReadSession(project, sessionID string) ([]transcript.Record, error) {
	records, err := transcript.Load(paths.SessionFile(project, sessionID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return records, nil
}
