package tools

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sammcj/mcp-mq/internal/mq"
	"github.com/sammcj/mcp-mq/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []ErrorLogEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []ErrorLogEntry
	for line := range strings.SplitSeq(strings.TrimSpace(string(data)), "\n") {
		var e ErrorLogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestNewErrorLogEntry(t *testing.T) {
	err := &mq.StageError{Stage: mq.StageEvaluate, Err: errors.New("undefined: x")}
	args := map[string]any{"code": "x", "content": "# heading", "input_format": "mdx"}

	entry := NewErrorLogEntry("mq_query", args, err, "stdio")
	assert.Equal(t, "mq_query", entry.Tool)
	assert.Equal(t, "evaluate", entry.Stage)
	assert.Equal(t, "mdx", entry.InputFormat)
	assert.Equal(t, "x", entry.Query)
	assert.Equal(t, 9, entry.ContentBytes)
	assert.Equal(t, "Error evaluating query: undefined: x", entry.Error)
	assert.Equal(t, "stdio", entry.Transport)
}

func TestNewErrorLogEntry_TruncatesQuery(t *testing.T) {
	entry := NewErrorLogEntry("mq_query", map[string]any{"code": strings.Repeat("a", 2000)}, errors.New("x"), "")
	assert.Len(t, entry.Query, maxLoggedQuery)
	assert.Empty(t, entry.Stage)
}

func TestErrorLog_RecordAndRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-errors.log")
	log := NewErrorLog(path, 24*time.Hour, testutils.CreateTestLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	log.Record(ErrorLogEntry{Timestamp: now.Add(-48 * time.Hour), Tool: "old", Error: "e"})
	log.Record(ErrorLogEntry{Timestamp: now.Add(-time.Hour), Tool: "recent", Error: "e"})
	assert.Len(t, readEntries(t, path), 2)

	removed, err := log.Rotate(now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].Tool)
}

func TestErrorLog_RotateKeepsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-errors.log")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"timestamp\":\"2000-01-01T00:00:00Z\",\"tool\":\"t\",\"error\":\"e\",\"content_bytes\":0}\n"), 0600))

	log := NewErrorLog(path, time.Hour, testutils.CreateTestLogger())
	removed, err := log.Rotate(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not json\n", string(data))
}

func TestErrorLog_RotateMissingFile(t *testing.T) {
	log := NewErrorLog(filepath.Join(t.TempDir(), "none.log"), time.Hour, nil)
	removed, err := log.Rotate(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestErrorLog_NilIsDisabled(t *testing.T) {
	var log *ErrorLog
	log.Record(ErrorLogEntry{Tool: "x"})
	assert.Empty(t, log.Path())

	removed, err := log.Rotate(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
