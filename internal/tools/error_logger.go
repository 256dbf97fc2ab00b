package tools

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sammcj/mcp-mq/internal/mq"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogRetention is how long tool error entries are kept
	DefaultLogRetention = 60 * 24 * time.Hour

	maxLoggedQuery = 512
)

// ErrorLogEntry is one failed tool call. Content is never logged, only its size.
type ErrorLogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Tool         string    `json:"tool"`
	Stage        string    `json:"stage,omitempty"`
	InputFormat  string    `json:"input_format,omitempty"`
	Query        string    `json:"query,omitempty"`
	ContentBytes int       `json:"content_bytes"`
	Error        string    `json:"error"`
	Transport    string    `json:"transport,omitempty"`
}

// NewErrorLogEntry describes a failed call of tool with args.
func NewErrorLogEntry(tool string, args map[string]any, err error, transport string) ErrorLogEntry {
	entry := ErrorLogEntry{
		Timestamp: time.Now().UTC(),
		Tool:      tool,
		Error:     err.Error(),
		Transport: transport,
	}

	var stageErr *mq.StageError
	if errors.As(err, &stageErr) {
		entry.Stage = stageErr.Stage.String()
	}
	if code, ok := args["code"].(string); ok {
		if len(code) > maxLoggedQuery {
			code = code[:maxLoggedQuery]
		}
		entry.Query = code
	}
	if content, ok := args["content"].(string); ok {
		entry.ContentBytes = len(content)
	}
	if tool == "mq_query" {
		entry.InputFormat = mq.DecodeOptions(args).InputFormat.String()
	}
	return entry
}

// ErrorLog appends failed tool calls to a JSON lines file. The file is guarded by
// a lock file so several server processes can share it. A nil *ErrorLog is disabled.
type ErrorLog struct {
	path      string
	retention time.Duration
	logger    *logrus.Logger
	mu        sync.Mutex
}

var (
	globalErrorLog *ErrorLog
	errorLogOnce   sync.Once
)

// NewErrorLog creates an error log writing to path.
func NewErrorLog(path string, retention time.Duration, logger *logrus.Logger) *ErrorLog {
	return &ErrorLog{path: path, retention: retention, logger: logger}
}

// InitGlobalErrorLog enables the global error log under ~/.mcp-mq/logs when
// LOG_TOOL_ERRORS is "true", and rotates old entries out in the background.
func InitGlobalErrorLog(logger *logrus.Logger) error {
	var initErr error
	errorLogOnce.Do(func() {
		if os.Getenv("LOG_TOOL_ERRORS") != "true" {
			return
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir := filepath.Join(homeDir, ".mcp-mq", "logs")
		if err := os.MkdirAll(logDir, 0700); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}

		errorLog := NewErrorLog(filepath.Join(logDir, "tool-errors.log"), DefaultLogRetention, logger)
		globalErrorLog = errorLog

		go func() {
			removed, err := errorLog.Rotate(time.Now())
			if err != nil {
				logger.WithError(err).Warn("Failed to rotate old tool error logs")
				return
			}
			if removed > 0 {
				logger.WithField("removed", removed).Debug("Rotated old tool error log entries")
			}
		}()

		logger.Infof("Tool error logging enabled: %s", errorLog.Path())
	})
	return initErr
}

// GetGlobalErrorLog returns the global error log, nil when disabled.
func GetGlobalErrorLog() *ErrorLog {
	return globalErrorLog
}

// Path returns the log file path.
func (l *ErrorLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends entry to the log.
func (l *ErrorLog) Record(entry ErrorLogEntry) {
	if l == nil {
		return
	}

	if err := l.record(entry); err != nil && l.logger != nil {
		l.logger.WithError(err).Error("Failed to write tool error log entry")
	}
}

func (l *ErrorLog) record(entry ErrorLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fileLock := flock.New(l.path + ".lock")
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("failed to lock error log: %w", err)
	}
	defer func() { _ = fileLock.Unlock() }()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to append to error log: %w", err)
	}
	return file.Close()
}

// Rotate drops entries recorded more than the retention period before now and
// returns how many were removed. Lines that cannot be decoded are kept.
func (l *ErrorLog) Rotate(now time.Time) (int, error) {
	if l == nil {
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fileLock := flock.New(l.path + ".lock")
	if err := fileLock.Lock(); err != nil {
		return 0, fmt.Errorf("failed to lock error log: %w", err)
	}
	defer func() { _ = fileLock.Unlock() }()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read error log: %w", err)
	}

	cutoff := now.Add(-l.retention)
	var kept bytes.Buffer
	removed := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry ErrorLogEntry
		if err := json.Unmarshal(line, &entry); err == nil && entry.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept.Write(line)
		kept.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading log file during rotation: %w", err)
	}

	if removed == 0 {
		return 0, nil
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, kept.Bytes(), 0600); err != nil {
		return 0, fmt.Errorf("failed to write temporary rotated log file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to rename temporary log file during rotation: %w", err)
	}
	return removed, nil
}
