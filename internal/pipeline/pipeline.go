// Package pipeline orchestrates one conversion job end to end: decode the
// client payload, upload it to the external converter, download the produced
// files, and package the result for the browser. Every conversion tool in the
// catalog runs through this one pipeline; the per-tool differences are pure
// configuration.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dptools869/dp-tools-server/internal/archive"
	"github.com/dptools869/dp-tools-server/internal/convertapi"
	"github.com/dptools869/dp-tools-server/internal/datauri"
	"github.com/sirupsen/logrus"
)

// DefaultJobTimeout bounds a whole job (upload plus all downloads) when the
// job does not set its own.
const DefaultJobTimeout = 3 * time.Minute

// Credentials authenticates against the upstream converter. Resolved once at
// startup and passed down; the pipeline never reads the environment.
type Credentials struct {
	Secret string
}

// NamingRule derives the output filename from the source filename. Rules are
// deterministic suffix/extension transforms defined by the catalog.
type NamingRule func(sourceFileName string) string

// PartialPolicy decides what happens when one of several output downloads
// fails. The single-output case is always fatal since there is no partial
// result to fall back to.
type PartialPolicy string

const (
	// PartialAllowed skips the failed file with a warning and reduces the
	// final count.
	PartialAllowed PartialPolicy = "allowed"

	// PartialForbidden fails the whole job on any download failure.
	PartialForbidden PartialPolicy = "forbidden"
)

// Job is one requested conversion. Constructed per request from the decoded
// client input; lives only for the duration of one Run and is never
// persisted.
type Job struct {
	// SourceData is the client-submitted base64 data URI. Empty for
	// URL-sourced jobs, which carry their source in Parameters["Url"].
	SourceData     string
	SourceFileName string

	Route      convertapi.Route
	Parameters map[string]string

	// ResultMime is the MIME type of a single-file result. Archives are
	// always application/zip.
	ResultMime string
	NameOutput NamingRule

	PartialFailures PartialPolicy
	Timeout         time.Duration
}

// Result is the pipeline's output payload for the caller.
type Result struct {
	// Payload is the converted file (or ZIP archive) as a data URI.
	Payload        string
	OutputFileName string
	OutputCount    int

	// OriginalSize and ConvertedSize report input/output byte counts for
	// tools that surface them (compression, optimisation).
	OriginalSize  int
	ConvertedSize int
}

// Pipeline executes conversion jobs against an upstream converter. It holds
// no per-job state; a single Pipeline is shared by all jobs in the process.
type Pipeline struct {
	client *convertapi.Client
	logger *logrus.Logger
}

// New creates a Pipeline using the given upstream client.
func New(client *convertapi.Client, logger *logrus.Logger) *Pipeline {
	return &Pipeline{client: client, logger: logger}
}

// Run executes exactly one job and returns its result or a classified error.
// Each invocation is idempotent from scratch; nothing is retried and no
// partial job state is retained.
func (p *Pipeline) Run(ctx context.Context, job *Job, creds Credentials) (*Result, error) {
	// Fail fast on misconfiguration so it never produces a partial
	// network side effect.
	if creds.Secret == "" {
		return nil, newError(ErrMissingCredentials, "conversion service credentials are not configured", nil)
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		input    []byte
		inputErr error
	)
	if job.SourceData != "" {
		_, input, inputErr = datauri.Parse(job.SourceData)
		if inputErr != nil {
			return nil, newError(ErrInvalidInputEncoding, "could not decode input payload", inputErr)
		}
	} else if job.Parameters["Url"] == "" {
		return nil, newError(ErrInvalidInputEncoding, "job has neither a file payload nor a source URL", nil)
	}

	outputs, err := p.client.Convert(ctx, job.Route, creds.Secret, job.SourceFileName, input, job.Parameters)
	if err != nil {
		var httpErr *convertapi.HTTPError
		if errors.As(err, &httpErr) {
			return nil, newError(ErrUpstreamConversionFailed,
				fmt.Sprintf("conversion of %s was rejected upstream", job.SourceFileName), httpErr)
		}
		return nil, newError(ErrUpstreamConversionFailed,
			fmt.Sprintf("conversion of %s could not be submitted", job.SourceFileName), err)
	}

	if len(outputs) == 0 {
		return nil, newError(ErrEmptyConversionResult,
			fmt.Sprintf("conversion of %s produced no output files", job.SourceFileName), nil)
	}

	entries, err := p.collect(ctx, job, outputs)
	if err != nil {
		return nil, err
	}

	// Jobs built outside the catalog may carry no naming rule; keep the
	// source name rather than panicking after the work is done.
	nameOutput := job.NameOutput
	if nameOutput == nil {
		nameOutput = func(source string) string { return source }
	}

	result := &Result{
		OutputCount:  len(entries),
		OriginalSize: len(input),
	}

	if len(outputs) == 1 {
		// Single descriptor, single file: return it directly under the
		// catalog's naming rule.
		data := entries[0].Data
		result.Payload = datauri.Format(job.ResultMime, data)
		result.OutputFileName = nameOutput(job.SourceFileName)
		result.ConvertedSize = len(data)
		return result, nil
	}

	archived, err := archive.Build(entries)
	if err != nil {
		return nil, newError(ErrArchiveBuildFailed, "could not package output files", err)
	}

	result.Payload = datauri.Format("application/zip", archived)
	result.OutputFileName = zipName(nameOutput(job.SourceFileName))
	result.ConvertedSize = len(archived)
	return result, nil
}

// collect downloads every output sequentially, preserving descriptor order.
// With several outputs and PartialAllowed, a failed download is skipped with
// a warning; a sole output failing is always fatal.
func (p *Pipeline) collect(ctx context.Context, job *Job, outputs []convertapi.OutputFile) ([]archive.Entry, error) {
	entries := make([]archive.Entry, 0, len(outputs))

	for i, output := range outputs {
		data, err := p.client.Download(ctx, output.URL)
		if err != nil {
			if len(outputs) > 1 && job.PartialFailures != PartialForbidden {
				p.logger.WithFields(logrus.Fields{
					"file":  output.FileName,
					"url":   output.URL,
					"index": i,
				}).WithError(err).Warn("Skipping output file that failed to download")
				continue
			}
			return nil, newError(ErrOutputDownloadFailed,
				fmt.Sprintf("could not download %s", output.FileName), err)
		}
		entries = append(entries, archive.Entry{Name: output.FileName, Data: data})
	}

	if len(entries) == 0 {
		return nil, newError(ErrOutputDownloadFailed, "every output file failed to download", nil)
	}

	return entries, nil
}

// zipName swaps the extension of a derived output name for .zip.
func zipName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".zip"
}
