// Package tools defines the interface every catalog tool implements, whether
// it is a file converter backed by the conversion pipeline or a local
// calculator.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Tool is the interface that all catalog tool implementations must satisfy
type Tool interface {
	// Definition returns the tool's definition for catalog registration
	Definition() Definition

	// Execute executes the tool's logic using shared resources (logger, cache) and parsed arguments
	Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]interface{}) (*Result, error)
}

// Category groups tools in the catalog listing.
type Category string

const (
	CategoryConversion Category = "conversion"
	CategoryCalculator Category = "calculator"
)

// Definition describes one tool to API consumers.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    Category    `json:"category"`
	Parameters  []Parameter `json:"parameters,omitempty"`
}

// Parameter describes one accepted argument beyond the standard file payload.
type Parameter struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Result is a tool's JSON-serialisable output.
type Result struct {
	Content map[string]interface{} `json:"content"`
}

// NewResult wraps a content map in a Result.
func NewResult(content map[string]interface{}) *Result {
	return &Result{Content: content}
}

// ArgumentError reports a missing or malformed tool argument, as opposed to
// a failure while running the tool itself.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

// NewArgumentError builds an ArgumentError from a format string.
func NewArgumentError(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}
