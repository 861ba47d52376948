package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"compass/types"
)

// Lister is implemented by remote stores that can enumerate their keys.
type Lister interface {
	List(ctx context.Context, sub string) ([]string, error)
}

const volumesDir = "volumes"

var (
	remoteBriefing = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})/` + regexp.QuoteMeta(briefingFile) + `$`)
	volumeFile     = regexp.MustCompile(`^vol-(\d+)\.json$`)
)

// VolumePath is where monthly volume n is kept locally.
func VolumePath(archiveDir string, n int) string {
	return filepath.Join(archiveDir, volumesDir, VolumeName(n))
}

// VolumeName is the file name of monthly volume n.
func VolumeName(n int) string {
	return fmt.Sprintf("vol-%03d.json", n)
}

func isDate(s string) bool {
	_, err := time.Parse(types.DateLayout, s)
	return err == nil
}

// ArchivedDates lists every date with an archived briefing, locally or on the
// remote mirror when it can be listed, oldest first.
func (r *Reader) ArchivedDates(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	dailyDir := filepath.Join(r.cfg.ArchiveDir, "daily")
	entries, err := os.ReadDir(dailyDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read archive %s: %w", dailyDir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if _, err := os.Stat(filepath.Join(dailyDir, name, briefingFile)); err == nil && isDate(name) {
				seen[name] = true
			}
			continue
		}
		if date := strings.TrimSuffix(name, ".json"); date != name && isDate(date) {
			seen[date] = true
		}
	}

	if lister, ok := r.cfg.Remote.(Lister); ok {
		keys, err := lister.List(ctx, "")
		if err != nil {
			r.logger.Warn("failed to list remote briefings", "err", err)
		}
		for _, key := range keys {
			if m := remoteBriefing.FindStringSubmatch(key); m != nil && isDate(m[1]) {
				seen[m[1]] = true
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates, nil
}

// NextMonthlyVolume returns one more than the highest monthly volume written
// locally or mirrored remotely.
func (r *Reader) NextMonthlyVolume(ctx context.Context) int {
	highest := 0
	note := func(name string) {
		if m := volumeFile.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				highest = max(highest, n)
			}
		}
	}

	entries, _ := os.ReadDir(filepath.Join(r.cfg.ArchiveDir, volumesDir))
	for _, e := range entries {
		note(e.Name())
	}
	if lister, ok := r.cfg.Remote.(Lister); ok {
		keys, err := lister.List(ctx, volumesDir+"/")
		if err != nil {
			r.logger.Warn("failed to list remote volumes", "err", err)
		}
		for _, key := range keys {
			note(strings.TrimPrefix(key, volumesDir+"/"))
		}
	}
	return highest + 1
}

// Publish writes data to path and mirrors it under the remote name when a
// remote store is configured. An empty remote name skips the mirror.
func (w *Writer) Publish(ctx context.Context, path, remote string, data []byte) ([]string, error) {
	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	paths := []string{path}
	if w.cfg.Remote != nil && remote != "" {
		if err := w.cfg.Remote.PutObject(ctx, remote, data); err != nil {
			w.logger.Warn("failed to mirror document", "name", remote, "err", err)
		} else {
			paths = append(paths, "remote:"+remote)
		}
	}
	return paths, nil
}

// WriteVolume stores monthly volume n under archive/volumes and mirrors it.
func (w *Writer) WriteVolume(ctx context.Context, n int, data []byte) ([]string, error) {
	return w.Publish(ctx, VolumePath(w.cfg.ArchiveDir, n), volumesDir+"/"+VolumeName(n), data)
}

// Update rewrites an already published briefing in place: the archived copy,
// the processed copy when present, latest when it holds the same date, and
// the mirrors.
func (w *Writer) Update(ctx context.Context, b *types.Briefing) ([]string, error) {
	data, err := Encode(b)
	if err != nil {
		return nil, err
	}

	paths := []string{archivePath(w.cfg.ArchiveDir, b.Date)}
	if _, err := os.Stat(processedPath(w.cfg.ProcessedDir, b.Date)); err == nil {
		paths = append(paths, processedPath(w.cfg.ProcessedDir, b.Date))
	}
	keys := []string{b.Date}
	if latestDate(processedPath(w.cfg.ProcessedDir, "latest")) == b.Date {
		paths = append(paths, processedPath(w.cfg.ProcessedDir, "latest"))
		keys = append(keys, "latest")
	}
	for _, path := range paths {
		if err := writeFile(path, data); err != nil {
			return nil, err
		}
	}

	for _, key := range keys {
		if w.cfg.Cache != nil {
			if err := w.cfg.Cache.Set(ctx, key, data); err != nil {
				w.logger.Warn("failed to cache briefing", "key", key, "err", err)
			}
		}
		if w.cfg.Remote != nil {
			if err := w.cfg.Remote.PutObject(ctx, remoteName(key), data); err != nil {
				w.logger.Warn("failed to mirror briefing", "name", remoteName(key), "err", err)
				continue
			}
			paths = append(paths, "remote:"+remoteName(key))
		}
	}
	w.logger.Info("briefing updated", "date", b.Date, "paths", len(paths))
	return paths, nil
}

func latestDate(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	doc := Document{Path: path, Raw: data}
	var head struct {
		Date string `json:"date"`
	}
	if doc.Decode(&head) != nil {
		return ""
	}
	return head.Date
}
