package session

import (
	"fmt"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// File-change actions as reported by ChangedFiles.
const (
	ActionCreated  = "created"
	ActionModified = "modified"
)

// FileChange is one file a session touched, attributed to the record that
// first touched it.
type FileChange struct {
	Path       string `json:"path"`
	Action     string `json:"action"`
	Timestamp  string `json:"timestamp,omitempty"`
	RecordUUID string `json:"recordUuid,omitempty"`
}

// FilesSummary lists the files a session created or modified, in order of
// first appearance.
type FilesSummary struct {
	SessionID string       `json:"sessionId"`
	Files     []FileChange `json:"files"`
}

// ChangedFiles derives the file-change summary for a session from its
// file-history snapshots and its Write/Edit tool invocations. A file is
// reported once, under the action of its first appearance.
func ChangedFiles(project, sessionID string) (*FilesSummary, error) {
	records, err := transcript.Load(paths.SessionFile(project, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	summary := &FilesSummary{SessionID: sessionID, Files: []FileChange{}}
	seen := make(map[string]bool)

	add := func(path, action, timestamp, uuid string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		summary.Files = append(summary.Files, FileChange{
			Path:       path,
			Action:     action,
			Timestamp:  timestamp,
			RecordUUID: uuid,
		})
	}

	for _, rec := range records {
		switch rec.Type() {
		case transcript.TypeFileHistorySnapshot:
			files, timestamp := rec.SnapshotFiles()
			uuid := rec.Identity()
			for _, f := range files {
				add(f, ActionModified, timestamp, uuid)
			}
		case transcript.TypeAssistant:
			for _, use := range rec.ToolUses() {
				switch use.Name {
				case transcript.ToolWrite:
					add(use.FilePath(), ActionCreated, rec.Timestamp(), rec.UUID())
				case transcript.ToolEdit:
					add(use.FilePath(), ActionModified, rec.Timestamp(), rec.UUID())
				}
			}
		}
	}

	return summary, nil
}
