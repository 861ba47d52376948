package rssfeeds

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"compass/logging"
	"compass/types"
)

var listKeys = []string{"signals", "articles", "items", "results"}

// LoadRawSignals reads every *.json file in dir, in name order. A file may
// hold a list of signals, a {"data": ...} wrapper, an object with a
// signals/articles/items/results list, or a single signal object. Unreadable
// files are logged and skipped; a missing directory yields no signals.
// Files named in skip are left out.
func LoadRawSignals(dir string, skip ...string) ([]types.Signal, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Warn("raw directory not found", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read raw directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" && !slices.Contains(skip, e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var signals []types.Signal
	for _, name := range names {
		signals = append(signals, loadRawPath(filepath.Join(dir, name))...)
	}
	logging.Info("loaded raw signals", "files", len(names), "signals", len(signals))
	return signals, nil
}

// LoadRawSignalsForDate reads only the raw data collected for date: the
// fetcher's {dir}/{date}.json and any *.json files under {dir}/{date}/,
// except those named in skip. Neither being present yields no signals.
func LoadRawSignalsForDate(dir, date string, skip ...string) ([]types.Signal, error) {
	var signals []types.Signal
	file := filepath.Join(dir, date+".json")
	if _, err := os.Stat(file); err == nil {
		signals = append(signals, loadRawPath(file)...)
	}

	dayDir := filepath.Join(dir, date)
	info, err := os.Stat(dayDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read raw directory: %w", err)
	case info.IsDir():
		more, err := LoadRawSignals(dayDir, skip...)
		if err != nil {
			return nil, err
		}
		signals = append(signals, more...)
	}

	if len(signals) == 0 {
		logging.Warn("no raw signals for date", "dir", dir, "date", date)
	}
	return signals, nil
}

func loadRawPath(path string) []types.Signal {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("failed to read raw file", "path", path, "err", err)
		return nil
	}
	loaded, err := decodeRaw(data)
	if err != nil {
		logging.Warn("failed to load raw file", "path", path, "err", err)
		return nil
	}
	logging.Debug("loaded raw file", "path", path, "signals", len(loaded))
	return loaded
}

// LoadRawFile reads the signals in one raw file, accepting the same shapes
// as LoadRawSignals.
func LoadRawFile(path string) ([]types.Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file: %w", err)
	}
	signals, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw file %s: %w", path, err)
	}
	return signals, nil
}

func decodeRaw(data []byte) ([]types.Signal, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	if data[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		if payload, ok := obj["data"]; ok {
			data = bytes.TrimSpace(payload)
		}
	}

	switch {
	case len(data) > 0 && data[0] == '[':
		return decodeList(data)
	case len(data) > 0 && data[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		for _, key := range listKeys {
			if list, ok := obj[key]; ok && bytes.HasPrefix(bytes.TrimSpace(list), []byte("[")) {
				return decodeList(list)
			}
		}
		_, hasTitle := obj["title"]
		_, hasHeadline := obj["headline"]
		if !hasTitle && !hasHeadline {
			return nil, nil
		}
		var sig types.Signal
		if err := json.Unmarshal(data, &sig); err != nil {
			return nil, err
		}
		return []types.Signal{sig}, nil
	default:
		return nil, nil
	}
}

// decodeList decodes each element on its own so one bad entry does not drop
// the whole file.
func decodeList(data []byte) ([]types.Signal, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	signals := make([]types.Signal, 0, len(items))
	for i, item := range items {
		var sig types.Signal
		if err := json.Unmarshal(item, &sig); err != nil {
			logging.Debug("skipping raw item", "index", i, "err", err)
			continue
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
