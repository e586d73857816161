// Package paths centralizes filesystem locations and naming conventions for
// Claude Code session artifacts.
//
// Session logs live in {claudeDir}/projects/{project}/{sessionID}.jsonl, agent
// logs alongside them as agent-{id}.jsonl, and todo snapshots in
// {claudeDir}/todos named {sessionID}.json or {sessionID}-agent-{agentID}.json.
// Project directory names encode the working directory path with dashes
// substituting path separators; a doubled dash marks a dot-prefixed segment.
package paths

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// SessionExt is the extension of session and agent log files.
	SessionExt = ".jsonl"

	// TodoExt is the extension of todo snapshot files.
	TodoExt = ".json"

	// AgentPrefix marks agent log files within a project directory.
	AgentPrefix = "agent-"

	// BackupDirName is the directory sessions and artifacts are retired into.
	BackupDirName = ".bak"
)

// EnvClaudeDir overrides the Claude root directory, primarily for tests.
const EnvClaudeDir = "SESSIONCTL_CLAUDE_DIR"

// claudeDirOverride is set from settings at startup. Env takes precedence.
var claudeDirOverride string

// SetClaudeDir overrides the Claude root directory from configuration.
func SetClaudeDir(dir string) {
	claudeDirOverride = dir
}

// ClaudeDir returns the Claude root directory (~/.claude by default).
func ClaudeDir() string {
	if dir := os.Getenv(EnvClaudeDir); dir != "" {
		return dir
	}
	if claudeDirOverride != "" {
		return claudeDirOverride
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// ProjectsDir returns the directory containing per-project session folders.
func ProjectsDir() string {
	return filepath.Join(ClaudeDir(), "projects")
}

// TodosDir returns the directory containing todo snapshot files.
func TodosDir() string {
	return filepath.Join(ClaudeDir(), "todos")
}

// ProjectDir returns the directory holding one project's session logs.
func ProjectDir(project string) string {
	return filepath.Join(ProjectsDir(), project)
}

// SessionFile returns the path of a session log.
func SessionFile(project, sessionID string) string {
	return filepath.Join(ProjectDir(project), sessionID+SessionExt)
}

// AgentFile returns the path of an agent log. agentID carries the "agent-"
// prefix, matching the on-disk filename stem.
func AgentFile(project, agentID string) string {
	return filepath.Join(ProjectDir(project), agentID+SessionExt)
}

// TodoFile returns the path of a session's own todo snapshot.
func TodoFile(sessionID string) string {
	return filepath.Join(TodosDir(), sessionID+TodoExt)
}

// AgentTodoFile returns the path of an agent's todo snapshot. The composite
// filename uses the agent id without its "agent-" prefix.
func AgentTodoFile(sessionID, agentID string) string {
	short := strings.TrimPrefix(agentID, AgentPrefix)
	return filepath.Join(TodosDir(), sessionID+"-agent-"+short+TodoExt)
}

// IsAgentLog reports whether a project directory entry is an agent log.
func IsAgentLog(name string) bool {
	return strings.HasPrefix(name, AgentPrefix) && strings.HasSuffix(name, SessionExt)
}

// IsSessionLog reports whether a project directory entry is an ordinary
// session log (excludes agent logs).
func IsSessionLog(name string) bool {
	return strings.HasSuffix(name, SessionExt) && !strings.HasPrefix(name, AgentPrefix)
}

// LogStem strips the .jsonl extension from a session or agent filename.
func LogStem(name string) string {
	return strings.TrimSuffix(name, SessionExt)
}

// todoFilePattern matches {sessionID}.json and {sessionID}-agent-{agentID}.json.
var todoFilePattern = regexp.MustCompile(`^([a-f0-9-]+?)(?:-agent-[a-f0-9]+)?\.json$`)

// TodoFileSessionID extracts the owning session id from a todo filename.
// Returns false for filenames that do not follow the todo naming convention.
func TodoFileSessionID(name string) (string, bool) {
	m := todoFilePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DisplayPath decodes a project directory name into the working directory
// path it represents: a leading dash is the root separator, a double dash
// marks a dot-prefixed segment, and remaining dashes become separators.
// Example: "-Users-dev-works--config" -> "/Users/dev/works/.config".
func DisplayPath(project string) string {
	display := project
	if strings.HasPrefix(display, "-") {
		display = "/" + display[1:]
	}
	display = strings.ReplaceAll(display, "--", "/.")
	return strings.ReplaceAll(display, "-", "/")
}
