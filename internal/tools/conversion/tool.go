// Package conversion turns catalog entries into registered tools backed by
// the shared conversion pipeline. The original flows for each format pair
// collapse into the entries in catalog.yaml.
package conversion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dptools869/dp-tools-server/internal/convertapi"
	"github.com/dptools869/dp-tools-server/internal/pipeline"
	"github.com/dptools869/dp-tools-server/internal/registry"
	"github.com/dptools869/dp-tools-server/internal/tools"
	"github.com/sirupsen/logrus"
)

// deps holds the pipeline and credentials shared by every conversion tool,
// injected once at startup via Configure.
var deps struct {
	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
	creds    pipeline.Credentials
	timeout  time.Duration
}

// Configure wires the conversion tools to an upstream client and the
// credentials resolved at startup. Must be called before any tool executes;
// executing unconfigured tools fails without a network call.
func Configure(client *convertapi.Client, logger *logrus.Logger, creds pipeline.Credentials, timeout time.Duration) {
	deps.mu.Lock()
	defer deps.mu.Unlock()
	deps.pipeline = pipeline.New(client, logger)
	deps.creds = creds
	deps.timeout = timeout
}

// init registers every catalog entry with the registry
func init() {
	entries, err := LoadCatalog()
	if err != nil {
		// The catalog is embedded; failing to parse it is a build defect.
		panic(fmt.Sprintf("conversion catalog: %v", err))
	}
	for _, entry := range entries {
		registry.Register(&Tool{entry: entry})
	}
}

// Tool executes one catalog entry through the shared pipeline.
type Tool struct {
	entry Entry
}

// NewTool creates a tool for a single catalog entry. Used by tests; normal
// registration happens in init.
func NewTool(entry Entry) *Tool {
	return &Tool{entry: entry}
}

// Definition returns the tool's definition for catalog registration
func (t *Tool) Definition() tools.Definition {
	def := tools.Definition{
		Name:        t.entry.Name,
		Description: t.entry.Description,
		Category:    tools.CategoryConversion,
	}

	if t.entry.Source == SourceFile {
		def.Parameters = append(def.Parameters,
			tools.Parameter{Name: "file", Description: "Input file as a base64 data URI.", Required: true},
			tools.Parameter{Name: "filename", Description: "Original filename, used to derive the output name.", Required: true},
		)
	}
	for _, p := range t.entry.Parameters {
		def.Parameters = append(def.Parameters, tools.Parameter{
			Name:        p.Name,
			Description: p.Description,
			Required:    p.Required,
		})
	}

	return def
}

// Execute runs the conversion described by the catalog entry
func (t *Tool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]interface{}) (*tools.Result, error) {
	deps.mu.RLock()
	pl, creds, timeout := deps.pipeline, deps.creds, deps.timeout
	deps.mu.RUnlock()

	if pl == nil {
		return nil, fmt.Errorf("conversion tools are not configured")
	}

	job, err := t.buildJob(args, timeout)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"tool": t.entry.Name,
		"file": job.SourceFileName,
	}).Info("Executing conversion")

	result, err := pl.Run(ctx, job, creds)
	if err != nil {
		return nil, err
	}

	content := map[string]interface{}{
		"file":           result.Payload,
		"filename":       result.OutputFileName,
		t.entry.CountKey: result.OutputCount,
	}
	if t.entry.ReportSizes {
		content["originalSize"] = result.OriginalSize
		content["convertedSize"] = result.ConvertedSize
	}

	return tools.NewResult(content), nil
}

// buildJob maps the request arguments onto a pipeline job per the entry's
// parameter schema. Unrecognised arguments are ignored; missing required
// ones fail before any network call.
func (t *Tool) buildJob(args map[string]interface{}, timeout time.Duration) (*pipeline.Job, error) {
	job := &pipeline.Job{
		Route:           convertapi.Route{From: t.entry.From, To: t.entry.To},
		Parameters:      make(map[string]string, len(t.entry.Parameters)),
		ResultMime:      t.entry.ResultMime,
		NameOutput:      t.entry.Output.Rule(),
		PartialFailures: t.entry.PartialFailures,
		Timeout:         timeout,
	}

	if t.entry.Source == SourceFile {
		file, ok := args["file"].(string)
		if !ok || file == "" {
			return nil, tools.NewArgumentError("%s: 'file' parameter is required", t.entry.Name)
		}
		job.SourceData = file
	}

	name, _ := args["filename"].(string)
	if name == "" {
		name = "document" + t.entry.Output.Extension
	}
	job.SourceFileName = name

	for _, p := range t.entry.Parameters {
		raw, present := args[p.Name]
		if !present {
			if p.Required {
				return nil, tools.NewArgumentError("%s: '%s' parameter is required", t.entry.Name, p.Name)
			}
			continue
		}
		value := fmt.Sprintf("%v", raw)
		if value == "" && p.Required {
			return nil, tools.NewArgumentError("%s: '%s' parameter is required", t.entry.Name, p.Name)
		}
		job.Parameters[p.Field] = value
	}

	return job, nil
}
