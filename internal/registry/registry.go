package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/sammcj/mcp-mq/internal/tools"
	"github.com/sirupsen/logrus"
)

var (
	// toolRegistry is a map of tool names to tool implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is a set of normalised tool names to disable
	disabledTools = make(map[string]bool)

	// logger is the shared logger instance
	logger *logrus.Logger

	// cache is the shared cache instance
	cache *sync.Map

	mu sync.RWMutex
)

// Init initialises the registry and shared resources. Tools named in disabled
// are hidden from GetTool, GetTools and GetToolNames.
func Init(l *logrus.Logger, disabled ...string) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	cache = &sync.Map{}

	disabledTools = make(map[string]bool)
	for _, name := range disabled {
		name = normalise(name)
		if name == "" {
			continue
		}
		disabledTools[name] = true
		if logger != nil {
			logger.WithField("tool", name).Debug("Tool disabled")
		}
	}
}

// normalise lowercases name and treats hyphens and underscores alike.
func normalise(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

// Register adds a tool implementation to the registry. It is called from the
// init functions of tool packages, before Init.
func Register(tool tools.Tool) {
	mu.Lock()
	defer mu.Unlock()

	toolName := tool.Definition().Name
	toolRegistry[toolName] = tool
	if logger != nil {
		logger.WithField("tool", toolName).Debug("Tool registered")
	}
}

// GetTool retrieves a tool by name, returns false if disabled
func GetTool(name string) (tools.Tool, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if disabledTools[normalise(name)] {
		return nil, false
	}
	tool, ok := toolRegistry[name]
	return tool, ok
}

// GetTools returns all registered tools, excluding disabled ones
func GetTools() map[string]tools.Tool {
	mu.RLock()
	defer mu.RUnlock()

	filteredTools := make(map[string]tools.Tool)
	for name, tool := range toolRegistry {
		if disabledTools[normalise(name)] {
			continue
		}
		filteredTools[name] = tool
	}
	return filteredTools
}

// GetToolNames returns a sorted list of enabled tool names
func GetToolNames() []string {
	var names []string
	for name := range GetTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// GetCache returns the shared cache instance
func GetCache() *sync.Map {
	mu.RLock()
	defer mu.RUnlock()
	return cache
}
