// Package transcript provides the record model and on-disk store for Claude
// Code session logs.
//
// A session log is newline-delimited JSON, one record per line. Records carry
// many fields this tool does not model; Record is therefore an open map with
// typed accessors so unknown fields survive a read-modify-write cycle
// untouched.
package transcript

import (
	"sort"
	"time"
)

// Record types this tool inspects. Logs contain further types (summaries,
// queue markers) which pass through unmodified.
const (
	TypeUser                = "user"
	TypeAssistant           = "assistant"
	TypeFileHistorySnapshot = "file-history-snapshot"
	TypeCustomTitle         = "custom-title"
)

// Tool names whose invocations indicate file changes.
const (
	ToolWrite = "Write"
	ToolEdit  = "Edit"
)

// Record is one parsed line of a session log.
type Record map[string]any

func (r Record) str(key string) string {
	s, _ := r[key].(string)
	return s
}

// UUID returns the record's uuid field.
func (r Record) UUID() string { return r.str("uuid") }

// MessageID returns the messageId field carried by file-history-snapshot records.
func (r Record) MessageID() string { return r.str("messageId") }

// Identity returns the value other records use to reference this one:
// uuid, falling back to messageId for snapshot records.
func (r Record) Identity() string {
	if id := r.UUID(); id != "" {
		return id
	}
	return r.MessageID()
}

// Type returns the record type tag.
func (r Record) Type() string { return r.str("type") }

// IsConversational reports whether the record is a user or assistant turn.
func (r Record) IsConversational() bool {
	t := r.Type()
	return t == TypeUser || t == TypeAssistant
}

// ParentUUID returns the parentUuid field, empty when null or absent.
func (r Record) ParentUUID() string { return r.str("parentUuid") }

// RawParent returns the stored parentUuid value, which may be nil.
// Splice operations propagate this verbatim to preserve explicit nulls.
func (r Record) RawParent() any { return r["parentUuid"] }

// SetRawParent overwrites the parentUuid field with a raw value (string or nil).
func (r Record) SetRawParent(v any) { r["parentUuid"] = v }

// SessionID returns the sessionId field stamped on each record.
func (r Record) SessionID() string { return r.str("sessionId") }

// SetSessionID restamps the record's sessionId.
func (r Record) SetSessionID(id string) { r["sessionId"] = id }

// AgentID returns the agentId field linking a record to a subagent run.
func (r Record) AgentID() string { return r.str("agentId") }

// CustomTitle returns the customTitle field of custom-title records.
func (r Record) CustomTitle() string { return r.str("customTitle") }

// SetCustomTitle overwrites the customTitle field.
func (r Record) SetCustomTitle(title string) { r["customTitle"] = title }

// Timestamp returns the raw ISO-8601 timestamp string, if any.
func (r Record) Timestamp() string { return r.str("timestamp") }

// Time parses the record timestamp. ok is false when absent or unparseable.
func (r Record) Time() (time.Time, bool) {
	ts := r.Timestamp()
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Message returns the message payload object, nil when absent.
func (r Record) Message() map[string]any {
	m, _ := r["message"].(map[string]any)
	return m
}

// ContentBlocks returns the message content as a block list. String content
// returns nil; use TextContent for role-agnostic text extraction.
func (r Record) ContentBlocks() []any {
	m := r.Message()
	if m == nil {
		return nil
	}
	blocks, _ := m["content"].([]any)
	return blocks
}

// TextContent extracts the record's text: string content directly, block
// content by concatenating text blocks.
func (r Record) TextContent() string {
	m := r.Message()
	if m == nil {
		return ""
	}
	switch content := m["content"].(type) {
	case string:
		return content
	case []any:
		var text string
		for _, b := range content {
			block, ok := b.(map[string]any)
			if !ok || block["type"] != "text" {
				continue
			}
			if t, ok := block["text"].(string); ok {
				text += t
			}
		}
		return text
	default:
		return ""
	}
}

// ToolUse is one tool invocation block within an assistant record.
type ToolUse struct {
	// Name is the tool name (e.g. "Write", "Edit", "Bash").
	Name string
	// Input is the tool's argument object.
	Input map[string]any
}

// FilePath returns the tool's file_path argument, if present.
func (t ToolUse) FilePath() string {
	p, _ := t.Input["file_path"].(string)
	return p
}

// ToolUses returns the tool invocation blocks of an assistant record.
func (r Record) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range r.ContentBlocks() {
		block, ok := b.(map[string]any)
		if !ok || block["type"] != "tool_use" {
			continue
		}
		name, _ := block["name"].(string)
		input, _ := block["input"].(map[string]any)
		uses = append(uses, ToolUse{Name: name, Input: input})
	}
	return uses
}

// SnapshotFiles returns the tracked file paths of a file-history-snapshot
// record plus the snapshot timestamp. Paths are sorted for determinism since
// JSON object key order is not preserved.
func (r Record) SnapshotFiles() (files []string, timestamp string) {
	snap, _ := r["snapshot"].(map[string]any)
	if snap == nil {
		return nil, ""
	}
	timestamp, _ = snap["timestamp"].(string)
	backups, _ := snap["trackedFileBackups"].(map[string]any)
	for p := range backups {
		files = append(files, p)
	}
	sort.Strings(files)
	return files, timestamp
}
