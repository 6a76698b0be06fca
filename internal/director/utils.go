package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// AnimationsDir is where the CLI looks for animation files by default
var AnimationsDir = filepath.Join("input", "animations")

// GenerateAnimationPath creates a timestamped export filename for the given animation id
func GenerateAnimationPath(dir, id string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	name := "animation"
	if id != "" {
		name = strings.ReplaceAll(id, " ", "_")
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", name, timestamp))
}

// FindLatestAnimation finds the most recently modified animation file in dir
func FindLatestAnimation(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read animations directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var found []candidate
	for _, entry := range entries {
		if entry.IsDir() || !isAnimationFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(found) == 0 {
		return "", fmt.Errorf("no animation files found in %s", dir)
	}

	// Newest first
	sort.Slice(found, func(i, j int) bool {
		return found[i].modTime.After(found[j].modTime)
	})

	return found[0].path, nil
}

func isAnimationFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
