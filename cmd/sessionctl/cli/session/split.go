package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/transcript"
)

// SplitResult describes where the tail of a split went.
type SplitResult struct {
	NewSessionID   string `json:"newSessionId"`
	NewSessionPath string `json:"newSessionPath"`
	MovedRecords   int    `json:"movedMessageCount"`
}

// SplitSession partitions a session at the record with the given uuid: records
// before it stay, the record and everything after move to a freshly generated
// session. Moved records are restamped with the new session id and the first
// moved record becomes a root (the head/tail boundary is not reconstructible
// as a parent chain across files).
//
// Agent logs whose records moved follow their triggering messages: any agent
// linked to the original session and referenced by a moved record is rewritten
// to carry the new session id on every line.
//
// Precondition failures (unknown uuid, split at the first record) are
// detected before any write, leaving disk untouched.
func SplitSession(project, sessionID, splitAtUUID string) (*SplitResult, error) {
	path := paths.SessionFile(project, sessionID)
	records, err := transcript.Load(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	splitIdx := -1
	for i, rec := range records {
		if rec.UUID() == splitAtUUID {
			splitIdx = i
			break
		}
	}
	if splitIdx == -1 {
		return nil, fmt.Errorf("message %s: %w", splitAtUUID, ErrNotFound)
	}
	if splitIdx == 0 {
		return nil, ErrInvalidSplitPoint
	}

	newSessionID := uuid.NewString()
	head := records[:splitIdx]
	tail := records[splitIdx:]

	for i, rec := range tail {
		rec.SetSessionID(newSessionID)
		if i == 0 {
			rec.SetRawParent(nil)
		}
	}

	// The tail is written before the head is truncated so a failure between
	// the two writes duplicates records instead of losing them.
	newPath := paths.SessionFile(project, newSessionID)
	if err := transcript.Rewrite(newPath, tail); err != nil {
		return nil, fmt.Errorf("failed to write new session: %w", err)
	}
	if err := transcript.Rewrite(path, head); err != nil {
		return nil, fmt.Errorf("failed to rewrite original session: %w", err)
	}

	if err := relinkAgents(project, sessionID, newSessionID, tail); err != nil {
		return nil, err
	}

	return &SplitResult{
		NewSessionID:   newSessionID,
		NewSessionPath: newPath,
		MovedRecords:   len(tail),
	}, nil
}

// relinkAgents restamps agent logs that belong to the original session and
// are referenced by at least one moved record.
func relinkAgents(project, oldSessionID, newSessionID string, moved []transcript.Record) error {
	entries, err := os.ReadDir(paths.ProjectDir(project))
	if err != nil {
		return fmt.Errorf("failed to read project directory: %w", err)
	}

	movedAgentIDs := make(map[string]bool)
	for _, rec := range moved {
		if id := rec.AgentID(); id != "" {
			movedAgentIDs[id] = true
		}
	}
	if len(movedAgentIDs) == 0 {
		return nil
	}

	for _, e := range entries {
		if !paths.IsAgentLog(e.Name()) {
			continue
		}
		agentPath := paths.AgentFile(project, paths.LogStem(e.Name()))

		first, ok := transcript.LoadFirst(agentPath)
		if !ok || first.SessionID() != oldSessionID {
			continue
		}

		// Record agentId fields carry the id without the filename prefix.
		shortID := strings.TrimPrefix(paths.LogStem(e.Name()), paths.AgentPrefix)
		if !movedAgentIDs[shortID] {
			continue
		}

		agentRecords, err := transcript.Load(agentPath)
		if err != nil {
			return fmt.Errorf("failed to load agent log %s: %w", e.Name(), err)
		}
		for _, rec := range agentRecords {
			rec.SetSessionID(newSessionID)
		}
		if err := transcript.Rewrite(agentPath, agentRecords); err != nil {
			return fmt.Errorf("failed to rewrite agent log %s: %w", e.Name(), err)
		}
	}
	return nil
}
