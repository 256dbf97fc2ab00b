package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-mq/internal/registry"
	"github.com/sammcj/mcp-mq/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sm := NewSessionManager(time.Minute, testutils.CreateTestLogger())
	sm.now = func() time.Time { return clock }

	id := sm.Generate()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	terminated, err := sm.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated)

	clock = clock.Add(50 * time.Second)
	terminated, err = sm.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated, "activity extends the session")

	clock = clock.Add(50 * time.Second)
	terminated, err = sm.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated)

	clock = clock.Add(2 * time.Minute)
	terminated, err = sm.Validate(id)
	require.NoError(t, err)
	assert.True(t, terminated, "idle sessions expire")

	_, err = sm.Validate(id)
	assert.Error(t, err, "expired sessions are forgotten")
}

func TestSessionManager_InvalidAndTerminated(t *testing.T) {
	sm := NewSessionManager(time.Minute, testutils.CreateTestLogger())

	_, err := sm.Validate("session-123")
	assert.ErrorContains(t, err, "invalid session ID")

	_, err = sm.Validate(uuid.NewString())
	assert.ErrorContains(t, err, "unknown session ID")

	id := sm.Generate()
	notAllowed, err := sm.Terminate(id)
	require.NoError(t, err)
	assert.False(t, notAllowed)

	_, err = sm.Validate(id)
	assert.Error(t, err)
}

func TestRequireBearerToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := requireBearerToken("secret", testutils.CreateTestLogger(), ok)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer secret", want: http.StatusTeapot},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/http", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("empty token disables the check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		requireBearerToken("", testutils.CreateTestLogger(), ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/http", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func callRequest(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func TestToolHandler(t *testing.T) {
	registry.Init(testutils.CreateTestLogger())
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		result, err := toolHandler("mq_query", "stdio")(ctx, callRequest("mq_query", map[string]any{
			"code":         "1 + 2",
			"input_format": "null",
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, testutils.ExtractText(t, result), `"text": "3"`)
	})

	t.Run("stage errors become error results", func(t *testing.T) {
		result, err := toolHandler("mq_query", "stdio")(ctx, callRequest("mq_query", map[string]any{
			"code":    "undefined_name",
			"content": "# A",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, testutils.ExtractText(t, result), "Error evaluating query: ")
	})

	t.Run("arguments must be an object", func(t *testing.T) {
		_, err := toolHandler("mq_query", "stdio")(ctx, callRequest("mq_query", []any{"x"}))
		assert.ErrorContains(t, err, "invalid arguments type")
	})

	t.Run("disabled tool", func(t *testing.T) {
		registry.Init(testutils.CreateTestLogger(), "html_to_markdown")
		t.Cleanup(func() { registry.Init(testutils.CreateTestLogger()) })

		_, err := toolHandler("html_to_markdown", "stdio")(ctx, callRequest("html_to_markdown", map[string]any{"content": "x"}))
		assert.ErrorContains(t, err, "tool not found")
	})
}

func TestNewMCPServer_RegistersEnabledTools(t *testing.T) {
	registry.Init(testutils.CreateTestLogger(), "mq_query")
	t.Cleanup(func() { registry.Init(testutils.CreateTestLogger()) })

	srv := newMCPServer("stdio", testutils.CreateTestLogger())
	require.NotNil(t, srv)
	assert.Equal(t, []string{"html_to_markdown"}, registry.GetToolNames())
}

func TestExtractJSONFlag(t *testing.T) {
	args, found := extractJSONFlag([]string{"--json", "mq_query", "--code=1"})
	assert.True(t, found)
	assert.Equal(t, []string{"mq_query", "--code=1"}, args)

	args, found = extractJSONFlag([]string{"mq_query"})
	assert.False(t, found)
	assert.Equal(t, []string{"mq_query"}, args)
}
