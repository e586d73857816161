package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrMalformedRecord marks a session log line that is not valid JSON.
// The whole load fails rather than skipping the line: record positions
// matter for parent-chain repair, so a silently dropped line would corrupt
// later mutations.
var ErrMalformedRecord = errors.New("malformed transcript record")

// Load reads a session log and parses every non-blank line as one Record.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // paths are derived from the Claude projects dir
	if err != nil {
		return nil, err //nolint:wrapcheck // callers need to test os.IsNotExist
	}
	return Parse(data)
}

// Parse parses raw JSONL transcript bytes.
func Parse(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var records []Record
	reader := bufio.NewReader(bytes.NewReader(data))
	lineNo := 0

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read transcript: %w", err)
		}
		lineNo++

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var rec Record
			if jsonErr := json.Unmarshal(trimmed, &rec); jsonErr != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, lineNo, jsonErr)
			}
			records = append(records, rec)
		}

		if err == io.EOF {
			break
		}
	}

	return records, nil
}

// Rewrite serializes records back to JSONL and replaces the file atomically
// (write to a temp file in the same directory, then rename). An empty record
// slice produces an empty file.
func Rewrite(path string, records []Record) error {
	var buf bytes.Buffer
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	// A unique temp name keeps concurrent rewrites of the same file from
	// clobbering each other's staging file before the rename.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp transcript: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to flush transcript: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace transcript: %w", err)
	}
	return nil
}

// Retire moves a file into backupDir under backupName, creating the directory
// as needed. Empty files carry no recoverable content and are deleted
// outright; backedUp reports whether a backup was actually created.
func Retire(path, backupDir, backupName string) (backupPath string, backedUp bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err //nolint:wrapcheck // callers need to test os.IsNotExist
	}

	if info.Size() == 0 {
		if err := os.Remove(path); err != nil {
			return "", false, fmt.Errorf("failed to remove empty file: %w", err)
		}
		return "", false, nil
	}

	if err := os.MkdirAll(backupDir, 0o750); err != nil {
		return "", false, fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath = filepath.Join(backupDir, backupName)
	if err := os.Rename(path, backupPath); err != nil {
		return "", false, fmt.Errorf("failed to move file to backup: %w", err)
	}
	return backupPath, true, nil
}

// LoadFirst parses only the first non-blank line of a log. This is the
// best-effort primitive behind linkage scans: a missing file or malformed
// first line reads as absent, never as an error.
func LoadFirst(path string) (Record, bool) {
	f, err := os.Open(path) //nolint:gosec // paths are derived from the Claude projects dir
	if err != nil {
		return nil, false
	}
	defer f.Close() //nolint:errcheck // read-only file

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var rec Record
			if json.Unmarshal(trimmed, &rec) == nil {
				return rec, true
			}
			return nil, false
		}
		if err != nil {
			return nil, false
		}
	}
}
