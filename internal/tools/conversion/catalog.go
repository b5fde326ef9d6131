package conversion

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dptools869/dp-tools-server/internal/pipeline"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// SourceKind says where a tool's input comes from.
type SourceKind string

const (
	SourceFile SourceKind = "file" // base64 data URI uploaded by the client
	SourceURL  SourceKind = "url"  // remote address fetched by the upstream service
)

// OutputNaming is the deterministic transform from source filename to result
// filename: strip the source extension, append Suffix, append Extension.
type OutputNaming struct {
	Suffix    string `yaml:"suffix"`
	Extension string `yaml:"extension"`
}

// Rule returns the naming rule for this transform.
func (n OutputNaming) Rule() pipeline.NamingRule {
	return func(source string) string {
		base := strings.TrimSuffix(source, filepath.Ext(source))
		if base == "" {
			base = "output"
		}
		return base + n.Suffix + n.Extension
	}
}

// ParameterSpec maps one API argument onto an upstream form field.
type ParameterSpec struct {
	Name        string `yaml:"name"`
	Field       string `yaml:"field"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// Entry is one conversion tool in the catalog. The entries differ only in
// configuration; the pipeline behind them is shared.
type Entry struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	From        string          `yaml:"from"`
	To          string          `yaml:"to"`
	ResultMime  string          `yaml:"result_mime"`
	Source      SourceKind      `yaml:"source"`
	Output      OutputNaming    `yaml:"output"`
	Parameters  []ParameterSpec `yaml:"parameters"`

	// ReportSizes adds original/converted byte counts to the result
	// (compression tools).
	ReportSizes bool `yaml:"report_sizes"`

	// CountKey names the output-count field in the result; defaults to
	// "fileCount".
	CountKey string `yaml:"count_key"`

	// PartialFailures controls multi-output download failures; defaults
	// to the tolerant policy.
	PartialFailures pipeline.PartialPolicy `yaml:"partial_failures"`
}

type catalogFile struct {
	Tools []Entry `yaml:"tools"`
}

// LoadCatalog parses the embedded catalog and validates every entry.
func LoadCatalog() ([]Entry, error) {
	var parsed catalogFile
	if err := yaml.Unmarshal(catalogYAML, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse conversion catalog: %w", err)
	}
	if len(parsed.Tools) == 0 {
		return nil, fmt.Errorf("conversion catalog is empty")
	}

	seen := make(map[string]bool, len(parsed.Tools))
	for i := range parsed.Tools {
		entry := &parsed.Tools[i]
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", entry.Name, err)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("catalog entry %q: duplicate name", entry.Name)
		}
		seen[entry.Name] = true

		if entry.Source == "" {
			entry.Source = SourceFile
		}
		if entry.CountKey == "" {
			entry.CountKey = "fileCount"
		}
		if entry.PartialFailures == "" {
			entry.PartialFailures = pipeline.PartialAllowed
		}
	}

	return parsed.Tools, nil
}

func validateEntry(entry *Entry) error {
	switch {
	case entry.Name == "":
		return fmt.Errorf("missing name")
	case entry.From == "" || entry.To == "":
		return fmt.Errorf("missing format route")
	case entry.ResultMime == "":
		return fmt.Errorf("missing result MIME type")
	case entry.Output.Extension == "":
		return fmt.Errorf("missing output extension")
	}

	if entry.Source == SourceURL {
		found := false
		for _, p := range entry.Parameters {
			if p.Field == "Url" {
				found = p.Required
			}
		}
		if !found {
			return fmt.Errorf("URL-sourced tool needs a required Url parameter")
		}
	}

	for _, p := range entry.Parameters {
		if p.Name == "" || p.Field == "" {
			return fmt.Errorf("parameter with empty name or field")
		}
	}

	return nil
}
