package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/linkage"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/logging"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// invalidCredentialMarker identifies records produced by failed API
// authentication. Sessions consisting solely of these carry no conversation
// worth keeping.
const invalidCredentialMarker = "Invalid API key"

// CleanupOptions selects which independent cleanup passes run. Each flag
// toggles exactly one pass without affecting the others.
type CleanupOptions struct {
	// Project restricts cleanup to one project; empty means all projects.
	Project string `json:"project,omitempty"`

	// ClearEmpty prunes sessions with no conversational records.
	ClearEmpty bool `json:"clearEmpty"`

	// ClearInvalid scrubs invalid-credential records and prunes sessions
	// left empty by the scrub.
	ClearInvalid bool `json:"clearInvalid"`

	// ClearOrphanAgents retires agent logs whose parent session is gone.
	ClearOrphanAgents bool `json:"clearOrphanAgents"`

	// ClearOrphanTodos retires todo files whose session no longer exists
	// in any project.
	ClearOrphanTodos bool `json:"clearOrphanTodos"`
}

// ProjectPreview is one project's cleanup candidates.
type ProjectPreview struct {
	Project         string                `json:"project"`
	EmptySessions   []Meta                `json:"emptySessions"`
	InvalidSessions []Meta                `json:"invalidSessions"`
	OrphanAgents    []linkage.OrphanAgent `json:"orphanAgents"`
}

// CleanupPreview is the dry-run result: the candidate sets an execution with
// all flags enabled would act on.
type CleanupPreview struct {
	Projects    []ProjectPreview `json:"projects"`
	OrphanTodos []string         `json:"orphanTodos"`
}

// CleanupResult tallies what an executed cleanup touched.
type CleanupResult struct {
	DeletedSessions     int `json:"deletedSessions"`
	RemovedRecords      int `json:"removedRecords"`
	RetiredAgents       int `json:"retiredAgents"`
	RetiredTodos        int `json:"retiredTodos"`
	RetiredOrphanAgents int `json:"retiredOrphanAgents"`
	RetiredOrphanTodos  int `json:"retiredOrphanTodos"`
}

// targetProjects resolves the project scope of a cleanup.
func targetProjects(ctx context.Context, project string) ([]Project, error) {
	projects, err := ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if project == "" {
		return projects, nil
	}
	for _, p := range projects {
		if p.Name == project {
			return []Project{p}, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", project, ErrNotFound)
}

// PreviewCleanup computes cleanup candidates without touching any file.
func PreviewCleanup(ctx context.Context, project string) (*CleanupPreview, error) {
	projects, err := targetProjects(ctx, project)
	if err != nil {
		return nil, err
	}

	preview := &CleanupPreview{Projects: []ProjectPreview{}}
	for _, p := range projects {
		sessions, err := ListSessions(ctx, p.Name)
		if err != nil {
			return nil, err
		}

		pp := ProjectPreview{
			Project:         p.Name,
			EmptySessions:   []Meta{},
			InvalidSessions: []Meta{},
		}
		for _, s := range sessions {
			if s.MessageCount == 0 {
				pp.EmptySessions = append(pp.EmptySessions, s)
			}
			invalid, err := hasInvalidRecords(p.Name, s.ID)
			if err != nil {
				return nil, err
			}
			if invalid {
				pp.InvalidSessions = append(pp.InvalidSessions, s)
			}
		}

		orphans, err := linkage.OrphanAgents(p.Name)
		if err != nil {
			return nil, err //nolint:wrapcheck // linkage errors carry context
		}
		pp.OrphanAgents = orphans
		preview.Projects = append(preview.Projects, pp)
	}

	// Orphan todos are cross-referenced against every project, so the set is
	// global and independent of the project filter.
	orphanTodos, err := linkage.OrphanTodos()
	if err != nil {
		return nil, err //nolint:wrapcheck // linkage errors carry context
	}
	if orphanTodos == nil {
		orphanTodos = []string{}
	}
	preview.OrphanTodos = orphanTodos

	return preview, nil
}

func hasInvalidRecords(project, sessionID string) (bool, error) {
	records, err := transcript.Load(paths.SessionFile(project, sessionID))
	if err != nil {
		return false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	for _, rec := range records {
		if strings.Contains(rec.TextContent(), invalidCredentialMarker) {
			return true, nil
		}
	}
	return false, nil
}

// scrubInvalidRecords removes invalid-credential records from one session,
// splicing the parent chain around them. Returns the number of removed
// records and the conversational records remaining afterwards.
func scrubInvalidRecords(project, sessionID string) (removed, remaining int, err error) {
	path := paths.SessionFile(project, sessionID)
	records, err := transcript.Load(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	removeIdx := make(map[int]bool)
	for i, rec := range records {
		if strings.Contains(rec.TextContent(), invalidCredentialMarker) {
			removeIdx[i] = true
		}
	}

	countConversational := func(recs []transcript.Record) int {
		n := 0
		for _, r := range recs {
			if r.IsConversational() {
				n++
			}
		}
		return n
	}

	if len(removeIdx) == 0 {
		return 0, countConversational(records), nil
	}

	kept := spliceByIndex(records, removeIdx)
	if err := transcript.Rewrite(path, kept); err != nil {
		return 0, 0, err //nolint:wrapcheck // store errors carry context
	}
	return len(removeIdx), countConversational(kept), nil
}

// ClearSessions runs the selected cleanup passes and deletes every session
// they marked, cascading through DeleteSession.
func ClearSessions(ctx context.Context, opts CleanupOptions) (*CleanupResult, error) {
	ctx = logging.WithComponent(ctx, "cleanup")
	start := time.Now()

	projects, err := targetProjects(ctx, opts.Project)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{}
	type sessionKey struct{ project, id string }
	marked := make(map[sessionKey]bool)
	var order []sessionKey

	mark := func(project, id string) {
		k := sessionKey{project, id}
		if !marked[k] {
			marked[k] = true
			order = append(order, k)
		}
	}

	// Pass 1: scrub invalid-credential records; sessions left with no
	// conversation get marked for deletion.
	if opts.ClearInvalid {
		for _, p := range projects {
			entries, err := os.ReadDir(paths.ProjectDir(p.Name))
			if err != nil {
				return nil, fmt.Errorf("failed to read project %s: %w", p.Name, err)
			}
			for _, e := range entries {
				if !paths.IsSessionLog(e.Name()) {
					continue
				}
				sessionID := paths.LogStem(e.Name())
				removed, remaining, err := scrubInvalidRecords(p.Name, sessionID)
				if err != nil {
					return nil, err
				}
				result.RemovedRecords += removed
				if removed > 0 && remaining == 0 {
					mark(p.Name, sessionID)
				}
			}
		}
	}

	// Pass 2: independently mark sessions that have no conversational records.
	if opts.ClearEmpty {
		for _, p := range projects {
			sessions, err := ListSessions(ctx, p.Name)
			if err != nil {
				return nil, err
			}
			for _, s := range sessions {
				if s.MessageCount == 0 {
					mark(p.Name, s.ID)
				}
			}
		}
	}

	for _, k := range order {
		dr, err := DeleteSession(k.project, k.id)
		if err != nil {
			return result, err
		}
		result.DeletedSessions++
		result.RetiredAgents += dr.RetiredAgents
		result.RetiredTodos += dr.RetiredTodos
		logging.Info(ctx, "deleted session",
			"project", k.project, "session", k.id,
			"agents", dr.RetiredAgents, "todos", dr.RetiredTodos)
	}

	// Pass 3: orphan-agent pruning, per project.
	if opts.ClearOrphanAgents {
		for _, p := range projects {
			retired, err := linkage.RetireOrphanAgents(p.Name)
			if err != nil {
				return result, err //nolint:wrapcheck // linkage errors carry context
			}
			result.RetiredOrphanAgents += len(retired)
		}
	}

	// Pass 4: orphan-todo pruning, cross-project by nature.
	if opts.ClearOrphanTodos {
		retired, err := linkage.RetireOrphanTodos()
		if err != nil {
			return result, err //nolint:wrapcheck // linkage errors carry context
		}
		result.RetiredOrphanTodos = retired
	}

	logging.LogDuration(ctx, slog.LevelInfo, "cleanup finished", start,
		"deletedSessions", result.DeletedSessions,
		"removedRecords", result.RemovedRecords)
	return result, nil
}
