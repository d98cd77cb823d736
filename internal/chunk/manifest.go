package chunk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestName is the manifest file name within a stage directory.
const ManifestName = "manifest.json"

// Entry records one chunk file: its name relative to the stage directory,
// the source offset of its first row, its row count, and the xxh3 digest
// of the file body.
type Entry struct {
	File     string `json:"file"`
	Offset   int64  `json:"offset"`
	Rows     int    `json:"rows"`
	Checksum string `json:"checksum"`
}

// Manifest indexes the chunks a stage produced, in source offset order.
// An empty Entries list is valid; it means the source window held no rows.
type Manifest struct {
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	TotalRows int64     `json:"total_rows"`
	Entries   []Entry   `json:"chunks"`
}

// Add appends e and keeps TotalRows in step.
func (m *Manifest) Add(e Entry) {
	m.Entries = append(m.Entries, e)
	m.TotalRows += int64(e.Rows)
}

// WriteManifest stores m in dir, atomically via a .tmp sibling.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("chunk: marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("chunk: write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chunk: rename manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest from dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chunk: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("chunk: parse %s: %w", path, err)
	}
	return &m, nil
}
