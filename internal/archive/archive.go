// Package archive bundles multiple in-memory files into a single ZIP buffer
// for conversion jobs that produce more than one output file.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one named file to include in an archive.
type Entry struct {
	Name string
	Data []byte
}

// Build combines the entries into a ZIP archive, preserving insertion order
// as file order. Entries are assumed to have unique names; default
// compression is used.
func Build(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries to archive")
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, entry := range entries {
		f, err := w.Create(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", entry.Name, err)
		}
		if _, err := f.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", entry.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalise archive: %w", err)
	}

	return buf.Bytes(), nil
}
