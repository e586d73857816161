package linkage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
)

// setupClaudeDir points the Claude root at a fresh temp dir for the test.
func setupClaudeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.EnvClaudeDir, dir)
	return dir
}

func writeProjectFile(t *testing.T, project, name, content string) {
	t.Helper()
	projectDir := paths.ProjectDir(project)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func writeTodoFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.MkdirAll(paths.TodosDir(), 0o755); err != nil {
		t.Fatalf("failed to create todos dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(paths.TodosDir(), name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLinkedAgents(t *testing.T) {
	setupClaudeDir(t)

	writeProjectFile(t, "proj", "sess-1.jsonl", `{"uuid":"a","type":"user","sessionId":"sess-1"}`+"\n")
	writeProjectFile(t, "proj", "agent-aa.jsonl", `{"sessionId":"sess-1","type":"user"}`+"\n")
	writeProjectFile(t, "proj", "agent-bb.jsonl", `{"sessionId":"sess-other","type":"user"}`+"\n")
	writeProjectFile(t, "proj", "agent-cc.jsonl", "not json\n")

	agents, err := LinkedAgents("proj", "sess-1")
	if err != nil {
		t.Fatalf("LinkedAgents() error = %v", err)
	}
	if len(agents) != 1 || agents[0] != "agent-aa" {
		t.Errorf("LinkedAgents() = %v, want [agent-aa]", agents)
	}
}

func TestOrphanAgentsSymmetry(t *testing.T) {
	setupClaudeDir(t)

	writeProjectFile(t, "proj", "sess-1.jsonl", `{"uuid":"a","type":"user"}`+"\n")
	writeProjectFile(t, "proj", "agent-linked.jsonl", `{"sessionId":"sess-1"}`+"\n")
	writeProjectFile(t, "proj", "agent-orphan.jsonl", `{"sessionId":"sess-gone"}`+"\n")

	orphans, err := OrphanAgents("proj")
	if err != nil {
		t.Fatalf("OrphanAgents() error = %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("OrphanAgents() = %v, want exactly one", orphans)
	}
	if orphans[0].AgentID != "agent-orphan" || orphans[0].SessionID != "sess-gone" {
		t.Errorf("orphan = %+v, want agent-orphan/sess-gone", orphans[0])
	}

	// The moment the session file appears, the agent is no longer orphaned.
	writeProjectFile(t, "proj", "sess-gone.jsonl", `{"uuid":"b","type":"user"}`+"\n")
	orphans, err = OrphanAgents("proj")
	if err != nil {
		t.Fatalf("OrphanAgents() error = %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("OrphanAgents() after restore = %v, want none", orphans)
	}
}

func TestLinkedTodosToleratesMissingAndMalformed(t *testing.T) {
	setupClaudeDir(t)

	writeTodoFile(t, "sess-1.json", `[{"content":"write tests","status":"pending"}]`)
	writeTodoFile(t, "sess-1-agent-aa.json", `{broken`)

	bundle := LinkedTodos("sess-1", []string{"agent-aa", "agent-bb"})
	if !bundle.HasTodos {
		t.Error("expected HasTodos = true")
	}
	if len(bundle.SessionTodos) != 1 || bundle.SessionTodos[0].Content != "write tests" {
		t.Errorf("SessionTodos = %v", bundle.SessionTodos)
	}
	if len(bundle.AgentTodos) != 0 {
		t.Errorf("AgentTodos = %v, want none (malformed and missing)", bundle.AgentTodos)
	}
}

func TestRetireLinkedTodos(t *testing.T) {
	setupClaudeDir(t)

	writeTodoFile(t, "sess-1.json", `[{"content":"a","status":"completed"}]`)
	writeTodoFile(t, "sess-1-agent-aa.json", `[{"content":"b","status":"pending"}]`)
	writeTodoFile(t, "sess-2.json", `[]`)

	n, err := RetireLinkedTodos("sess-1", []string{"agent-aa"})
	if err != nil {
		t.Fatalf("RetireLinkedTodos() error = %v", err)
	}
	if n != 2 {
		t.Errorf("retired = %d, want 2", n)
	}
	if _, err := os.Stat(paths.TodoFile("sess-1")); !os.IsNotExist(err) {
		t.Error("sess-1 todo should be gone")
	}
	if _, err := os.Stat(filepath.Join(paths.TodosDir(), paths.BackupDirName, "sess-1.json")); err != nil {
		t.Error("sess-1 todo should be in backup")
	}
	if _, err := os.Stat(paths.TodoFile("sess-2")); err != nil {
		t.Error("unrelated todo should be untouched")
	}
}

func TestOrphanTodosAcrossProjects(t *testing.T) {
	setupClaudeDir(t)

	writeProjectFile(t, "proj-a", "0abc-1.jsonl", `{"uuid":"a"}`+"\n")
	writeProjectFile(t, "proj-b", "0abc-2.jsonl", `{"uuid":"b"}`+"\n")
	writeTodoFile(t, "0abc-1.json", `[]`)
	writeTodoFile(t, "0abc-2-agent-00ff.json", `[]`)
	writeTodoFile(t, "0abc-dead.json", `[]`)

	orphans, err := OrphanTodos()
	if err != nil {
		t.Fatalf("OrphanTodos() error = %v", err)
	}
	if len(orphans) != 1 || orphans[0] != "0abc-dead.json" {
		t.Errorf("OrphanTodos() = %v, want [0abc-dead.json]", orphans)
	}

	n, err := RetireOrphanTodos()
	if err != nil {
		t.Fatalf("RetireOrphanTodos() error = %v", err)
	}
	if n != 1 {
		t.Errorf("retired = %d, want 1", n)
	}
}

func TestRetireOrphanAgents(t *testing.T) {
	setupClaudeDir(t)

	writeProjectFile(t, "proj", "sess-1.jsonl", `{"uuid":"a"}`+"\n")
	writeProjectFile(t, "proj", "agent-keep.jsonl", `{"sessionId":"sess-1"}`+"\n")
	writeProjectFile(t, "proj", "agent-drop.jsonl", `{"sessionId":"sess-gone"}`+"\n")

	retired, err := RetireOrphanAgents("proj")
	if err != nil {
		t.Fatalf("RetireOrphanAgents() error = %v", err)
	}
	if len(retired) != 1 || retired[0] != "agent-drop" {
		t.Errorf("retired = %v, want [agent-drop]", retired)
	}
	if _, err := os.Stat(paths.AgentFile("proj", "agent-keep")); err != nil {
		t.Error("linked agent should remain")
	}
	backup := filepath.Join(paths.ProjectDir("proj"), paths.BackupDirName, "agent-drop.jsonl")
	if _, err := os.Stat(backup); err != nil {
		t.Error("orphan agent should be in project backup dir")
	}
}
