package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPreservesOrderAndContent(t *testing.T) {
	entries := []Entry{
		{Name: "page-1.jpg", Data: []byte("first page bytes")},
		{Name: "page-2.jpg", Data: []byte("second page bytes")},
		{Name: "page-3.jpg", Data: []byte{0x00, 0xff, 0x10}},
	}

	data, err := Build(entries)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, reader.File, len(entries))

	for i, f := range reader.File {
		assert.Equal(t, entries[i].Name, f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		assert.Equal(t, entries[i].Data, content)
	}
}

func TestBuildSingleEntry(t *testing.T) {
	data, err := Build([]Entry{{Name: "out.pdf", Data: []byte("%PDF")}})
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, reader.File, 1)
}

func TestBuildEmptyFails(t *testing.T) {
	_, err := Build(nil)
	assert.Error(t, err)
}
