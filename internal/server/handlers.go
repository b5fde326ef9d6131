package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dptools869/dp-tools-server/internal/pipeline"
	"github.com/dptools869/dp-tools-server/internal/registry"
	"github.com/dptools869/dp-tools-server/internal/tools"
	"github.com/sirupsen/logrus"
)

// maxRequestBody caps incoming JSON bodies. Base64 inflates payloads by
// roughly a third, so this allows source files up to ~48MB.
const maxRequestBody = 64 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type toolSummary struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Parameters  []parameterDetail `json:"parameters,omitempty"`
}

type parameterDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var summaries []toolSummary
	for _, tool := range registry.GetTools() {
		def := tool.Definition()
		summary := toolSummary{
			Name:        def.Name,
			Description: def.Description,
			Category:    string(def.Category),
		}
		for _, p := range def.Parameters {
			summary.Parameters = append(summary.Parameters, parameterDetail{
				Name:        p.Name,
				Description: p.Description,
				Required:    p.Required,
			})
		}
		summaries = append(summaries, summary)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	json.NewEncoder(w).Encode(map[string]interface{}{"tools": summaries})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/convert/")
	name = strings.Trim(name, "/")
	if name == "" {
		writeError(w, http.StatusNotFound, "tool name missing from path", "")
		return
	}

	tool, ok := registry.GetTool(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tool: "+name, "")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", "")
		return
	}
	if len(body) > maxRequestBody {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
		return
	}

	args := make(map[string]interface{})
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object", "")
			return
		}
	}

	result, err := tool.Execute(r.Context(), registry.GetLogger(), registry.GetCache(), args)
	if err != nil {
		status, code := statusForError(err)
		s.logger.WithFields(logrus.Fields{
			"tool":   name,
			"status": status,
		}).WithError(err).Warn("Tool execution failed")
		writeError(w, status, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(result.Content)
}

// statusForError maps pipeline failures onto HTTP statuses. Upstream
// problems surface as 502 so callers can tell them apart from bad input.
func statusForError(err error) (int, string) {
	kind := pipeline.KindOf(err)
	switch kind {
	case pipeline.ErrInvalidInputEncoding:
		return http.StatusBadRequest, string(kind)
	case pipeline.ErrMissingCredentials:
		return http.StatusServiceUnavailable, string(kind)
	case pipeline.ErrUpstreamConversionFailed, pipeline.ErrEmptyConversionResult, pipeline.ErrOutputDownloadFailed:
		return http.StatusBadGateway, string(kind)
	case pipeline.ErrArchiveBuildFailed:
		return http.StatusInternalServerError, string(kind)
	}
	var argErr *tools.ArgumentError
	if errors.As(err, &argErr) {
		return http.StatusBadRequest, ""
	}
	return http.StatusInternalServerError, ""
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}
