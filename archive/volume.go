package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// VolumeNumber returns one more than the highest volume found among archived
// briefings, ignoring the entry for the date being written so that re-running
// a day keeps its number. An empty or missing archive yields 1.
func VolumeNumber(archiveDir, date string) int {
	dailyDir := filepath.Join(archiveDir, "daily")
	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		return 1
	}

	maxVolume := 0
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dailyDir, name)
		if entry.IsDir() {
			if name == date {
				continue
			}
			path = filepath.Join(path, briefingFile)
		} else if !strings.HasSuffix(name, ".json") || strings.TrimSuffix(name, ".json") == date {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var doc struct {
			Volume int `json:"volume"`
		}
		if json.Unmarshal(data, &doc) != nil {
			continue
		}
		maxVolume = max(maxVolume, doc.Volume)
	}
	return maxVolume + 1
}
