// Package datauri encodes and decodes data URIs, the transport format the
// browser-facing API uses for file payloads in both directions.
package datauri

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultMime is used when a payload carries no declared content type.
const DefaultMime = "application/octet-stream"

// Parse decodes a base64 data URI ("data:<mime>;base64,<payload>") into its
// MIME type and raw bytes. A bare base64 string without the data: prefix is
// accepted for callers that strip the header client-side.
func Parse(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, fmt.Errorf("empty payload")
	}

	mime := DefaultMime
	payload := s

	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return "", nil, fmt.Errorf("data URI has no payload separator")
		}

		header := s[len("data:"):comma]
		payload = s[comma+1:]

		if !strings.Contains(header, ";base64") {
			return "", nil, fmt.Errorf("data URI is not base64 encoded")
		}
		if m := strings.SplitN(header, ";", 2)[0]; m != "" {
			mime = m
		}
	}

	if payload == "" {
		return "", nil, fmt.Errorf("data URI has an empty base64 segment")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("decoded payload is empty")
	}

	return mime, data, nil
}

// Format encodes raw bytes as a base64 data URI with the given MIME type.
func Format(mime string, data []byte) string {
	if mime == "" {
		mime = DefaultMime
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
