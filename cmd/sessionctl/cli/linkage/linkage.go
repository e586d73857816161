// Package linkage resolves filename-convention relationships between
// sessions, agent logs, and todo snapshots.
//
// None of these relationships are stored as durable references: an agent log
// names its parent session in its first record, and todo files encode their
// owner in the filename. The Claude process mutates these directories between
// invocations, so everything here is recomputed on demand rather than cached.
package linkage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// TodoItem is one entry of a todo snapshot file.
type TodoItem struct {
	Content    string `json:"content"`
	Status     string `json:"status"`
	ActiveForm string `json:"activeForm,omitempty"`
}

// AgentTodos pairs an agent id with its todo list.
type AgentTodos struct {
	AgentID string     `json:"agentId"`
	Todos   []TodoItem `json:"todos"`
}

// SessionTodos bundles the todo snapshots owned by a session and its agents.
type SessionTodos struct {
	SessionID    string       `json:"sessionId"`
	SessionTodos []TodoItem   `json:"sessionTodos"`
	AgentTodos   []AgentTodos `json:"agentTodos"`
	HasTodos     bool         `json:"hasTodos"`
}

// OrphanAgent is an agent log whose claimed parent session no longer exists.
type OrphanAgent struct {
	AgentID   string `json:"agentId"`
	SessionID string `json:"sessionId"`
}

// LinkedAgents returns the agent ids (with "agent-" prefix) whose first
// record claims the given session. Unreadable or malformed agent logs are
// skipped; this is a best-effort lookup.
func LinkedAgents(project, sessionID string) ([]string, error) {
	entries, err := os.ReadDir(paths.ProjectDir(project))
	if err != nil {
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	var agents []string
	for _, e := range entries {
		if !paths.IsAgentLog(e.Name()) {
			continue
		}
		first, ok := transcript.LoadFirst(paths.AgentFile(project, paths.LogStem(e.Name())))
		if ok && first.SessionID() == sessionID {
			agents = append(agents, paths.LogStem(e.Name()))
		}
	}
	return agents, nil
}

// OrphanAgents returns agent logs in the project whose claimed session id
// matches no session file present at scan time.
func OrphanAgents(project string) ([]OrphanAgent, error) {
	entries, err := os.ReadDir(paths.ProjectDir(project))
	if err != nil {
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	sessionIDs := make(map[string]bool)
	for _, e := range entries {
		if paths.IsSessionLog(e.Name()) {
			sessionIDs[paths.LogStem(e.Name())] = true
		}
	}

	var orphans []OrphanAgent
	for _, e := range entries {
		if !paths.IsAgentLog(e.Name()) {
			continue
		}
		first, ok := transcript.LoadFirst(paths.AgentFile(project, paths.LogStem(e.Name())))
		if !ok {
			continue
		}
		if sid := first.SessionID(); sid != "" && !sessionIDs[sid] {
			orphans = append(orphans, OrphanAgent{AgentID: paths.LogStem(e.Name()), SessionID: sid})
		}
	}
	return orphans, nil
}

// readTodoFile parses a todo snapshot. Missing files and malformed JSON both
// read as "no todos": todo lookups are auxiliary and never fail a mutation.
func readTodoFile(path string) []TodoItem {
	data, err := os.ReadFile(path) //nolint:gosec // paths are derived from the Claude todos dir
	if err != nil {
		return nil
	}
	var todos []TodoItem
	if json.Unmarshal(data, &todos) != nil {
		return nil
	}
	return todos
}

// LinkedTodos returns the todo snapshots belonging to a session and its agents.
func LinkedTodos(sessionID string, agentIDs []string) *SessionTodos {
	bundle := &SessionTodos{
		SessionID:    sessionID,
		SessionTodos: readTodoFile(paths.TodoFile(sessionID)),
		AgentTodos:   []AgentTodos{},
	}

	for _, agentID := range agentIDs {
		todos := readTodoFile(paths.AgentTodoFile(sessionID, agentID))
		if todos != nil {
			bundle.AgentTodos = append(bundle.AgentTodos, AgentTodos{AgentID: agentID, Todos: todos})
		}
	}

	if bundle.SessionTodos == nil {
		bundle.SessionTodos = []TodoItem{}
	}
	for _, at := range bundle.AgentTodos {
		if len(at.Todos) > 0 {
			bundle.HasTodos = true
		}
	}
	bundle.HasTodos = bundle.HasTodos || len(bundle.SessionTodos) > 0
	return bundle
}

// RetireLinkedTodos moves a session's todo files (its own plus one per agent)
// into the todos backup directory. Returns the number of files retired.
func RetireLinkedTodos(sessionID string, agentIDs []string) (int, error) {
	backupDir := filepath.Join(paths.TodosDir(), paths.BackupDirName)

	retired := 0
	candidates := []string{paths.TodoFile(sessionID)}
	for _, agentID := range agentIDs {
		candidates = append(candidates, paths.AgentTodoFile(sessionID, agentID))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		name := filepath.Base(path)
		if _, _, err := transcript.Retire(path, backupDir, name); err != nil {
			return retired, fmt.Errorf("failed to retire todo file: %w", err)
		}
		retired++
	}
	return retired, nil
}

// OrphanTodos cross-references every todo file against the session ids
// present across all projects and returns the filenames with no owner.
func OrphanTodos() ([]string, error) {
	todoEntries, err := os.ReadDir(paths.TodosDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read todos directory: %w", err)
	}

	valid, err := allSessionIDs()
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, e := range todoEntries {
		sid, ok := paths.TodoFileSessionID(e.Name())
		if ok && !valid[sid] {
			orphans = append(orphans, e.Name())
		}
	}
	return orphans, nil
}

// RetireOrphanTodos moves every orphaned todo file into the todos backup
// directory and returns the count.
func RetireOrphanTodos() (int, error) {
	orphans, err := OrphanTodos()
	if err != nil {
		return 0, err
	}

	backupDir := filepath.Join(paths.TodosDir(), paths.BackupDirName)
	retired := 0
	for _, name := range orphans {
		path := filepath.Join(paths.TodosDir(), name)
		if _, _, err := transcript.Retire(path, backupDir, name); err != nil {
			return retired, fmt.Errorf("failed to retire orphan todo: %w", err)
		}
		retired++
	}
	return retired, nil
}

// RetireOrphanAgents moves every orphaned agent log in the project into the
// project's backup directory. Returns the retired agent ids.
func RetireOrphanAgents(project string) ([]string, error) {
	orphans, err := OrphanAgents(project)
	if err != nil {
		return nil, err
	}

	backupDir := filepath.Join(paths.ProjectDir(project), paths.BackupDirName)
	var retired []string
	for _, o := range orphans {
		path := paths.AgentFile(project, o.AgentID)
		if _, _, err := transcript.Retire(path, backupDir, o.AgentID+paths.SessionExt); err != nil {
			return retired, fmt.Errorf("failed to retire orphan agent: %w", err)
		}
		retired = append(retired, o.AgentID)
	}
	return retired, nil
}

// allSessionIDs collects session ids across every project directory.
func allSessionIDs() (map[string]bool, error) {
	projects, err := os.ReadDir(paths.ProjectsDir())
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	valid := make(map[string]bool)
	for _, p := range projects {
		if !p.IsDir() || p.Name()[0] == '.' {
			continue
		}
		files, err := os.ReadDir(paths.ProjectDir(p.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if paths.IsSessionLog(f.Name()) {
				valid[paths.LogStem(f.Name())] = true
			}
		}
	}
	return valid, nil
}
