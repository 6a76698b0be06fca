package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// PagesDir is where the CLI looks for HTML pages by default
var PagesDir = filepath.Join("input", "pages")

func FindLatestPage(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	extensions := []string{".html", ".htm"}
	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		isPage := false
		for _, ext := range extensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				isPage = true
				break
			}
		}
		if isPage {
			info, err := f.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(latestTime) {
				latestTime = info.ModTime()
				latestFile = filepath.Join(dir, f.Name())
			}
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено HTML-страниц", dir)
	}

	return latestFile, nil
}

// ProcessStats is the resource usage of the running process
type ProcessStats struct {
	RSS        uint64  // bytes
	CPUPercent float64 // since process start
	Threads    int32
	Goroutines int
}

// CurrentProcessStats samples the current process through gopsutil
func CurrentProcessStats() (*ProcessStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %w", err)
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("memory info: %w", err)
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	threads, err := proc.NumThreads()
	if err != nil {
		// Не все платформы отдают число потоков
		threads = 0
	}

	return &ProcessStats{
		RSS:        mem.RSS,
		CPUPercent: cpu,
		Threads:    threads,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

// Report formats stats the way the CLI prints them
func (s *ProcessStats) Report() string {
	return fmt.Sprintf("RSS: %.1f MB | CPU: %.1f%% | Threads: %d | Goroutines: %d",
		float64(s.RSS)/(1024*1024), s.CPUPercent, s.Threads, s.Goroutines)
}
