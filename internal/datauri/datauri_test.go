package datauri

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 fake document body")

	tests := []struct {
		name     string
		input    string
		wantMime string
		wantData []byte
		wantErr  bool
	}{
		{
			name:     "full data URI",
			input:    "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdfBytes),
			wantMime: "application/pdf",
			wantData: pdfBytes,
		},
		{
			name:     "bare base64 without header",
			input:    base64.StdEncoding.EncodeToString([]byte("hello")),
			wantMime: DefaultMime,
			wantData: []byte("hello"),
		},
		{
			name:     "data URI without mime type",
			input:    "data:;base64," + base64.StdEncoding.EncodeToString([]byte("x")),
			wantMime: DefaultMime,
			wantData: []byte("x"),
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "empty segment after comma",
			input:   "data:application/pdf;base64,",
			wantErr: true,
		},
		{
			name:    "missing comma",
			input:   "data:application/pdf;base64",
			wantErr: true,
		},
		{
			name:    "not base64 encoded",
			input:   "data:text/plain,plain%20text",
			wantErr: true,
		},
		{
			name:    "invalid base64 payload",
			input:   "data:application/pdf;base64,!!!not-base64!!!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, data, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, mime)
			assert.True(t, bytes.Equal(tt.wantData, data))
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	original := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x01}

	encoded := Format("application/pdf", original)
	mime, decoded, err := Parse(encoded)

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)
	assert.Equal(t, original, decoded)
}

func TestFormatDefaultsMime(t *testing.T) {
	encoded := Format("", []byte("x"))
	assert.Contains(t, encoded, "data:"+DefaultMime+";base64,")
}
