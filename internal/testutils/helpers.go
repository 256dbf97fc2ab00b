package testutils

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// CreateTestLogger creates a logger suitable for testing
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// CreateTestCache creates a cache suitable for testing
func CreateTestCache() *sync.Map {
	return &sync.Map{}
}

// CreateTestContext creates a context suitable for testing
func CreateTestContext() context.Context {
	return context.Background()
}

// ExtractText returns the text of the first content item of a tool result
func ExtractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil {
		t.Fatal("Expected tool result, got nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in tool result")
	}

	textContent, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}
	return textContent.Text
}

// ExtractJSON decodes the text of a tool result into out
func ExtractJSON(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()

	if err := json.Unmarshal([]byte(ExtractText(t, result)), out); err != nil {
		t.Fatalf("Failed to parse tool result JSON: %v", err)
	}
}
