// Package cli provides a direct command-line interface to the registered
// tools, bypassing the HTTP server entirely. Tools are invoked in-process via
// the registry, so no server or network round-trip is needed.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dptools869/dp-tools-server/internal/registry"
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
	output OutputFormat
	out    io.Writer
}

// NewRunner creates a Runner writing to out in the given format.
func NewRunner(logger *logrus.Logger, output OutputFormat, out io.Writer) *Runner {
	return &Runner{logger: logger, output: output, out: out}
}

// ListTools prints all registered tools with their descriptions.
func (r *Runner) ListTools() error {
	type entry struct {
		Name        string `json:"name"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}

	registered := registry.GetTools()
	entries := make([]entry, 0, len(registered))
	for _, t := range registered {
		def := t.Definition()
		entries = append(entries, entry{
			Name:        def.Name,
			Category:    string(def.Category),
			Description: firstLine(def.Description),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if r.output == OutputJSON {
		return writeJSON(r.out, entries)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Category, e.Description)
	}
	return w.Flush()
}

// HelpTool prints the parameters and usage information for a single tool.
func (r *Runner) HelpTool(name string) error {
	tool, ok := registry.GetTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	def := tool.Definition()

	if r.output == OutputJSON {
		return writeJSON(r.out, def)
	}

	fmt.Fprintf(r.out, "Tool: %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(r.out, "%s\n\n", def.Description)
	}

	if len(def.Parameters) == 0 {
		fmt.Fprintln(r.out, "No parameters.")
		return nil
	}

	fmt.Fprintln(r.out, "Parameters:")
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, p := range def.Parameters {
		reqMark := ""
		if p.Required {
			reqMark = " (required)"
		}
		fmt.Fprintf(w, "  --%s\t%s%s\n", p.Name, firstLine(p.Description), reqMark)
	}
	return w.Flush()
}

// RunTool executes a tool by name with the given arguments.
// args can be:
//   - A single JSON string: '{"key": "value"}'
//   - Flag-style arguments: --key=value
//   - Mixed: --key=value '{"other": "json"}'  (flags take precedence)
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := registry.GetTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'tools' to see available tools)", name)
	}

	params, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, registry.GetCache(), params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}

	return writeJSON(r.out, result.Content)
}

// parseArgs converts CLI arguments into a map suitable for tool.Execute().
// Supports a JSON object argument and --key=value flags.
func parseArgs(args []string) (map[string]interface{}, error) {
	params := make(map[string]interface{})

	for _, arg := range args {
		if strings.HasPrefix(arg, "{") {
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			// JSON values merge in (earlier flags take precedence)
			for k, v := range obj {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
			continue
		}

		if strings.HasPrefix(arg, "--") {
			body := strings.TrimPrefix(arg, "--")
			key, val, found := strings.Cut(body, "=")
			if !found {
				return nil, fmt.Errorf("flag --%s requires a value (use --%s=value)", body, body)
			}
			if key == "" {
				return nil, fmt.Errorf("empty flag name in %q", arg)
			}
			params[key] = val
			continue
		}

		return nil, fmt.Errorf("unexpected argument: %q", arg)
	}

	return params, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
