package convertapi

import (
	"fmt"
)

// Route addresses one conversion operation on the upstream service,
// e.g. {From: "pdf", To: "docx"} maps to POST /convert/pdf/to/docx.
type Route struct {
	From string
	To   string
}

// OutputFile is one file reference returned by the upstream service.
// Each URL is independently fetchable and returns the raw file bytes.
type OutputFile struct {
	URL      string `json:"Url"`
	FileName string `json:"FileName"`
	FileSize int64  `json:"FileSize,omitempty"`
}

// convertResponse is the JSON body of a successful conversion request.
type convertResponse struct {
	Files []OutputFile `json:"Files"`
}

// HTTPError carries the status and body of a non-success upstream response
// so callers can surface them for diagnostics.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}
