package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/linkage"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// spliceByIndex removes the records at the given indices and re-points every
// surviving record that named a removed record as its parent to that record's
// nearest surviving ancestor (or null, once the chain runs out).
//
// The parent graph is untrusted input: several records may share a parent,
// and removed records may chain onto each other, so the splice walks ancestry
// rather than assuming a single linear thread.
func spliceByIndex(records []transcript.Record, remove map[int]bool) []transcript.Record {
	removedParent := make(map[string]any, len(remove))
	for i := range records {
		if remove[i] {
			if id := records[i].Identity(); id != "" {
				removedParent[id] = records[i].RawParent()
			}
		}
	}

	isRemoved := func(id string) bool {
		_, ok := removedParent[id]
		return ok
	}
	resolve := func(id string) any {
		v := removedParent[id]
		seen := map[string]bool{id: true}
		for {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if !isRemoved(s) {
				return v
			}
			if seen[s] {
				// Cyclic parent links among the removed records mean no
				// surviving ancestor exists; the child becomes a root.
				return nil
			}
			seen[s] = true
			v = removedParent[s]
		}
	}

	kept := make([]transcript.Record, 0, len(records)-len(remove))
	for i, rec := range records {
		if remove[i] {
			continue
		}
		if p := rec.ParentUUID(); p != "" && isRemoved(p) {
			rec.SetRawParent(resolve(p))
		}
		kept = append(kept, rec)
	}
	return kept
}

// DeleteMessage removes one record from a session, splicing it out of the
// parent chain. The target is located by uuid, falling back to messageId for
// file-history-snapshot records.
func DeleteMessage(project, sessionID, targetID string) error {
	path := paths.SessionFile(project, sessionID)
	records, err := transcript.Load(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	targetIdx := -1
	for i, rec := range records {
		if rec.UUID() == targetID || rec.MessageID() == targetID {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		return fmt.Errorf("message %s: %w", targetID, ErrNotFound)
	}

	records = spliceByIndex(records, map[int]bool{targetIdx: true})
	return transcript.Rewrite(path, records) //nolint:wrapcheck // store errors carry context
}

// titlePrefixPattern matches a previously applied title prefix: a leading
// line followed by a blank line.
var titlePrefixPattern = regexp.MustCompile(`^[^\n]+\n\n`)

// applyTitle replaces or prepends the title prefix on body text.
func applyTitle(body, title string) string {
	return title + "\n\n" + titlePrefixPattern.ReplaceAllString(body, "")
}

// RenameSession rewrites the first user message of a session so its first
// non-editor-context text segment starts with the given title. The storage
// format has no dedicated title slot, so the title rides in conversational
// content as a "{title}\n\n{body}" prefix.
func RenameSession(project, sessionID, newTitle string) error {
	path := paths.SessionFile(project, sessionID)
	records, err := transcript.Load(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if len(records) == 0 {
		return ErrEmptySession
	}

	var target transcript.Record
	for _, rec := range records {
		if rec.Type() == transcript.TypeUser {
			target = rec
			break
		}
	}
	if target == nil {
		return ErrNoUserMessage
	}

	msg := target.Message()
	if msg == nil {
		return ErrNoUserMessage
	}
	switch content := msg["content"].(type) {
	case string:
		msg["content"] = applyTitle(content, newTitle)
	case []any:
		for _, b := range content {
			block, ok := b.(map[string]any)
			if !ok || block["type"] != "text" {
				continue
			}
			text, _ := block["text"].(string)
			if strings.HasPrefix(strings.TrimSpace(text), "<ide_") {
				continue
			}
			block["text"] = applyTitle(text, newTitle)
			break
		}
	}

	return transcript.Rewrite(path, records) //nolint:wrapcheck // store errors carry context
}

// UpdateCustomTitle edits the customTitle field of a custom-title record.
func UpdateCustomTitle(project, sessionID, targetUUID, newTitle string) error {
	path := paths.SessionFile(project, sessionID)
	records, err := transcript.Load(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	for _, rec := range records {
		if rec.UUID() != targetUUID {
			continue
		}
		if rec.Type() != transcript.TypeCustomTitle {
			return fmt.Errorf("record %s is not a custom-title record", targetUUID)
		}
		rec.SetCustomTitle(newTitle)
		return transcript.Rewrite(path, records) //nolint:wrapcheck // store errors carry context
	}
	return fmt.Errorf("message %s: %w", targetUUID, ErrNotFound)
}

// DeleteResult reports what a session deletion touched.
type DeleteResult struct {
	// BackupPath is where the session file was moved, empty when the
	// session was empty and deleted outright.
	BackupPath string `json:"backupPath,omitempty"`
	// RetiredAgents counts linked agent logs moved to backup.
	RetiredAgents int `json:"retiredAgents"`
	// RetiredTodos counts linked todo files moved to backup.
	RetiredTodos int `json:"retiredTodos"`
}

// DeleteSession retires a session file and cascades to its linked agent logs
// and todo snapshots. Linked agents are resolved before any file moves, since
// the scan depends on directory state the retirement changes.
//
// Non-empty sessions are backed up to {projectsDir}/.bak/{project}_{id}.jsonl;
// agent logs go to the project's own .bak. Empty sessions are deleted without
// backup but their linked artifacts are still retired.
func DeleteSession(project, sessionID string) (*DeleteResult, error) {
	path := paths.SessionFile(project, sessionID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	agents, err := linkage.LinkedAgents(project, sessionID)
	if err != nil {
		return nil, err //nolint:wrapcheck // linkage errors carry context
	}

	backupDir := filepath.Join(paths.ProjectsDir(), paths.BackupDirName)
	backupPath, _, err := transcript.Retire(path, backupDir, project+"_"+sessionID+paths.SessionExt)
	if err != nil {
		return nil, fmt.Errorf("failed to retire session: %w", err)
	}

	result := &DeleteResult{BackupPath: backupPath}

	agentBackupDir := filepath.Join(paths.ProjectDir(project), paths.BackupDirName)
	for _, agentID := range agents {
		agentPath := paths.AgentFile(project, agentID)
		if _, _, err := transcript.Retire(agentPath, agentBackupDir, agentID+paths.SessionExt); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return result, fmt.Errorf("failed to retire agent %s: %w", agentID, err)
		}
		result.RetiredAgents++
	}

	todos, err := linkage.RetireLinkedTodos(sessionID, agents)
	if err != nil {
		return result, err //nolint:wrapcheck // linkage errors carry context
	}
	result.RetiredTodos = todos

	return result, nil
}
