package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"compass/logging"
	"compass/types"

	"github.com/charmbracelet/log"
)

// Writer persists briefings to the processed and archive trees.
type Writer struct {
	cfg    Config
	logger *log.Logger
}

// NewWriter creates a writer over the configured directories.
func NewWriter(cfg Config) *Writer {
	return &Writer{cfg: cfg, logger: logging.WithPrefix("archive")}
}

// Encode renders a briefing as indented JSON with non-ASCII text left as is.
func Encode(b *types.Briefing) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("failed to encode briefing: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the briefing at processed/{date}, processed/latest and
// archive/daily/{date}, then mirrors it to the cache and remote store when
// those are configured. Mirror failures are logged, not returned.
func (w *Writer) Write(ctx context.Context, b *types.Briefing) ([]string, error) {
	data, err := Encode(b)
	if err != nil {
		return nil, err
	}

	paths := []string{
		processedPath(w.cfg.ProcessedDir, b.Date),
		processedPath(w.cfg.ProcessedDir, "latest"),
		archivePath(w.cfg.ArchiveDir, b.Date),
	}
	for _, path := range paths {
		if err := writeFile(path, data); err != nil {
			return nil, err
		}
	}
	w.logger.Info("briefing written", "date", b.Date, "signals", len(b.Signals), "paths", len(paths))

	if w.cfg.Cache != nil {
		for _, key := range []string{b.Date, "latest"} {
			if err := w.cfg.Cache.Set(ctx, key, data); err != nil {
				w.logger.Warn("failed to cache briefing", "key", key, "err", err)
			}
		}
	}
	if w.cfg.Remote != nil {
		for _, name := range []string{remoteName(b.Date), remoteName("latest")} {
			if err := w.cfg.Remote.PutObject(ctx, name, data); err != nil {
				w.logger.Warn("failed to mirror briefing", "name", name, "err", err)
				continue
			}
			paths = append(paths, "remote:"+name)
		}
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
