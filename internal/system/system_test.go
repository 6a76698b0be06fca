package system

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFindLatestPage(t *testing.T) {
	dir := t.TempDir()

	files := []string{"old.html", "new.HTM", "newest.css"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("<html></html>"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Minute)
		os.Chtimes(path, modTime, modTime)
	}

	latest, err := FindLatestPage(dir)
	if err != nil {
		t.Fatalf("FindLatestPage failed: %v", err)
	}
	if filepath.Base(latest) != "new.HTM" {
		t.Errorf("Expected new.HTM, got %s", latest)
	}

	if _, err := FindLatestPage(t.TempDir()); err == nil {
		t.Error("Expected error for directory without pages")
	}
}

func TestCurrentProcessStats(t *testing.T) {
	stats, err := CurrentProcessStats()
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	if stats.RSS == 0 {
		t.Error("Expected non-zero RSS")
	}
	if stats.Goroutines < 1 {
		t.Errorf("Expected at least one goroutine, got %d", stats.Goroutines)
	}

	report := stats.Report()
	if !strings.Contains(report, "RSS:") || !strings.Contains(report, "Goroutines:") {
		t.Errorf("Unexpected report: %s", report)
	}
	t.Logf("Report: %s", report)
}
