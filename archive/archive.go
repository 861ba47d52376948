// Package archive reads and writes persisted daily briefings.
//
// Layout on disk:
//
//	{processed}/{date}/briefing.json
//	{processed}/latest/briefing.json
//	{archive}/daily/{date}/briefing.json
//	{archive}/daily/{date}.json   (older flat naming, read only)
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned when no readable briefing exists for a date.
var ErrNotFound = errors.New("briefing not found")

const briefingFile = "briefing.json"

// ObjectStore is a remote blob store holding a mirror of the briefings.
type ObjectStore interface {
	GetObject(ctx context.Context, name string) ([]byte, error)
	PutObject(ctx context.Context, name string, data []byte) error
}

// Config locates the archive.
type Config struct {
	ProcessedDir string
	ArchiveDir   string
	// Cache and Remote are optional.
	Cache  *Cache
	Remote ObjectStore
}

// Document is one persisted briefing as raw JSON, with where it was found.
type Document struct {
	Date string
	Path string
	Raw  []byte
}

// Decode unmarshals the raw document into v.
func (d *Document) Decode(v any) error {
	if err := json.Unmarshal(d.Raw, v); err != nil {
		return fmt.Errorf("failed to decode briefing %s: %w", d.Path, err)
	}
	return nil
}

func processedPath(dir, date string) string {
	return filepath.Join(dir, date, briefingFile)
}

func archivePath(dir, date string) string {
	return filepath.Join(dir, "daily", date, briefingFile)
}

func flatArchivePath(dir, date string) string {
	return filepath.Join(dir, "daily", date+".json")
}

func remoteName(date string) string {
	return date + "/" + briefingFile
}
