// Package cli runs the mq tools directly from the command line, bypassing the
// MCP server. Tools are invoked in-process via the registry.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
	"github.com/sammcj/mcp-mq/internal/registry"
	"github.com/sammcj/mcp-mq/internal/tools"
	"github.com/sirupsen/logrus"
)

// OutputFormat controls how tool results are rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Runner executes CLI commands against the tool registry.
type Runner struct {
	logger *logrus.Logger
	cache  *sync.Map
	output OutputFormat
	out    io.Writer
	stdin  io.Reader
}

// NewRunner creates a Runner that writes to stdout and reads "-" values from stdin.
func NewRunner(logger *logrus.Logger, cache *sync.Map, output OutputFormat) *Runner {
	return &Runner{logger: logger, cache: cache, output: output, out: os.Stdout, stdin: os.Stdin}
}

// WithIO replaces the runner's output and input streams.
func (r *Runner) WithIO(out io.Writer, stdin io.Reader) *Runner {
	r.out = out
	r.stdin = stdin
	return r
}

var heading = color.New(color.Bold, color.FgCyan).SprintFunc()

// ListTools prints all enabled tools with the first line of their descriptions.
func (r *Runner) ListTools() error {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var entries []entry
	for _, name := range registry.GetToolNames() {
		tool, _ := registry.GetTool(name)
		entries = append(entries, entry{Name: name, Description: firstLine(tool.Definition().Description)})
	}

	if r.output == OutputJSON {
		if entries == nil {
			entries = []entry{}
		}
		return writeJSON(r.out, entries)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", heading(e.Name), e.Description)
	}
	return w.Flush()
}

// HelpTool prints the schema, usage and extended help for a single tool.
func (r *Runner) HelpTool(name string) error {
	tool, err := lookupTool(name)
	if err != nil {
		return err
	}
	def := tool.Definition()

	var extended *tools.ExtendedHelp
	if provider, ok := tool.(tools.ExtendedHelpProvider); ok {
		extended = provider.ProvideExtendedInfo()
	}

	if r.output == OutputJSON {
		return writeJSON(r.out, map[string]any{
			"tool":          def,
			"extended_help": extended,
		})
	}

	fmt.Fprintf(r.out, "%s %s\n\n", heading("Tool:"), def.Name)
	if def.Description != "" {
		fmt.Fprintf(r.out, "%s\n\n", def.Description)
	}

	props := def.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(r.out, "No parameters.")
	} else {
		fmt.Fprintln(r.out, heading("Parameters:"))
		required := make(map[string]bool, len(def.InputSchema.Required))
		for _, name := range def.InputSchema.Required {
			required[name] = true
		}

		names := make([]string, 0, len(props))
		for k := range props {
			names = append(names, k)
		}
		slices.Sort(names)

		w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
		for _, pName := range names {
			pMap, ok := props[pName].(map[string]any)
			if !ok {
				continue
			}
			pType, _ := pMap["type"].(string)
			pDesc, _ := pMap["description"].(string)

			reqMark := ""
			if required[pName] {
				reqMark = " (required)"
			}
			fmt.Fprintf(w, "  --%s\t%s\t%s%s%s\n", toFlagName(pName), pType, firstLine(pDesc), reqMark, formatEnum(pMap))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if extended != nil && len(extended.Examples) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", heading("Examples:"))
		for _, ex := range extended.Examples {
			args, _ := json.Marshal(ex.Arguments)
			fmt.Fprintf(r.out, "  %s\n    mcp-mq cli run %s '%s'\n", ex.Description, def.Name, args)
		}
	}
	return nil
}

// RunTool executes a tool by name. args may be a JSON object, --key=value or
// --key value flags, or --flag for booleans; flags win over JSON. A string
// value of "@path" is read from the file at path and "-" is read from stdin.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, err := lookupTool(name)
	if err != nil {
		return err
	}
	def := tool.Definition()

	params, err := parseArgs(args, def)
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}
	if err := r.expandValues(params, def); err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, r.cache, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}
	return r.renderResult(result)
}

// lookupTool resolves name, accepting kebab-case, and suggests close matches.
func lookupTool(name string) (tools.Tool, error) {
	if tool, ok := registry.GetTool(name); ok {
		return tool, nil
	}
	if tool, ok := registry.GetTool(strings.ReplaceAll(name, "-", "_")); ok {
		return tool, nil
	}

	msg := fmt.Sprintf("unknown tool: %s", name)
	if suggestions := Suggest(name, registry.GetToolNames()); len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(suggestions, ", "))
	} else {
		msg += " (run 'mcp-mq cli list' to see available tools)"
	}
	return nil, fmt.Errorf("%s", msg)
}

// Suggest returns up to three names that fuzzily match name, best first.
func Suggest(name string, names []string) []string {
	matches := fuzzy.Find(strings.ReplaceAll(name, "-", "_"), names)
	var out []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// expandValues replaces "@path" and "-" string parameters with file or stdin content.
func (r *Runner) expandValues(params map[string]any, def mcp.Tool) error {
	schema := buildSchemaInfo(def)
	stdinUsed := false

	for key, val := range params {
		s, ok := val.(string)
		if !ok || schema.typeMap[key] != "string" {
			continue
		}

		switch {
		case s == "-":
			if stdinUsed {
				return fmt.Errorf("only one parameter can be read from stdin")
			}
			data, err := io.ReadAll(r.stdin)
			if err != nil {
				return fmt.Errorf("failed to read --%s from stdin: %w", toFlagName(key), err)
			}
			params[key] = string(data)
			stdinUsed = true
		case strings.HasPrefix(s, "@") && len(s) > 1:
			data, err := os.ReadFile(s[1:])
			if err != nil {
				return fmt.Errorf("failed to read --%s: %w", toFlagName(key), err)
			}
			params[key] = string(data)
		}
	}
	return nil
}

// parseArgs converts CLI arguments into a map[string]any suitable for tool.Execute().
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	schema := buildSchemaInfo(def)
	fromJSON := make(map[string]bool)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			for k, v := range obj {
				if _, exists := params[k]; !exists || fromJSON[k] {
					params[k] = v
					fromJSON[k] = true
				}
			}
			continue
		}

		if strings.HasPrefix(arg, "--") {
			key, val, err := parseFlag(arg, args, &i, schema)
			if err != nil {
				return nil, err
			}
			params[key] = val
			delete(fromJSON, key)
			continue
		}

		return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
	}

	return params, nil
}

// schemaInfo holds resolved schema information for argument parsing.
type schemaInfo struct {
	// typeMap maps parameter names to their JSON Schema types
	typeMap map[string]string
	// flagToParam maps kebab-case flag names to parameter names
	flagToParam map[string]string
}

// parseFlag parses a single --key=value, --key value or --flag (bool true).
func parseFlag(arg string, args []string, idx *int, schema schemaInfo) (string, any, error) {
	stripped := strings.TrimPrefix(arg, "--")

	if flagName, rawVal, found := strings.Cut(stripped, "="); found {
		paramName := schema.resolveParam(flagName)
		return paramName, coerceValue(rawVal, schema.typeMap[paramName]), nil
	}

	paramName := schema.resolveParam(stripped)
	if schema.typeMap[paramName] == "boolean" {
		return paramName, true, nil
	}

	*idx++
	if *idx >= len(args) {
		return "", nil, fmt.Errorf("flag --%s requires a value", stripped)
	}
	return paramName, coerceValue(args[*idx], schema.typeMap[paramName]), nil
}

func (s schemaInfo) resolveParam(flagName string) string {
	if actual, ok := s.flagToParam[flagName]; ok {
		return actual
	}
	return strings.ReplaceAll(flagName, "-", "_")
}

func buildSchemaInfo(def mcp.Tool) schemaInfo {
	info := schemaInfo{
		typeMap:     make(map[string]string, len(def.InputSchema.Properties)),
		flagToParam: make(map[string]string, len(def.InputSchema.Properties)),
	}
	for name, prop := range def.InputSchema.Properties {
		if pm, ok := prop.(map[string]any); ok {
			if t, ok := pm["type"].(string); ok {
				info.typeMap[name] = t
			}
		}
		info.flagToParam[toFlagName(name)] = name
	}
	return info
}

// coerceValue converts a string value to the Go type matching schemaType.
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "number", "integer":
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case "boolean":
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		return raw
	default:
		return raw
	}
}

// renderResult writes a CallToolResult to the runner's output.
func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}

	if r.output == OutputJSON {
		return writeJSON(r.out, result)
	}

	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			fmt.Fprintln(r.out, c.Text)
		default:
			data, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				fmt.Fprintf(r.out, "%+v\n", c)
			} else {
				fmt.Fprintln(r.out, string(data))
			}
		}
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	before, _, _ := strings.Cut(s, "\n")
	return before
}

// toFlagName converts snake_case to kebab-case for CLI flags.
func toFlagName(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

func formatEnum(pMap map[string]any) string {
	var vals []string
	switch enum := pMap["enum"].(type) {
	case []string:
		vals = enum
	case []any:
		for _, v := range enum {
			vals = append(vals, fmt.Sprint(v))
		}
	}
	if len(vals) == 0 {
		return ""
	}
	return " [" + strings.Join(vals, "|") + "]"
}
