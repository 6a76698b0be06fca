package config

import (
	"fmt"
	"time"
)

type Config struct {
	AnimationPath string
	PagePath      string
	OutputPath    string
	URL           string
	ControlURL    string
	Headless      bool
	Infinity      bool
	Play          bool
	Watch         bool
	ExportPath    string
	ImportPath    string
	Timeout       time.Duration
	ShowStats     bool
	BuildVersion  string
}

// BrowserMode reports whether the animation runs in Chrome instead of an in-memory page
func (c *Config) BrowserMode() bool {
	return c.URL != ""
}

// KeepAlive reports whether the CLI waits for an interrupt instead of the end of a pass
func (c *Config) KeepAlive() bool {
	return c.Watch || (c.Play && c.Infinity)
}

func (c *Config) Validate() error {
	if c.AnimationPath == "" {
		return fmt.Errorf("не указан файл анимации")
	}
	if c.URL != "" && c.PagePath != "" {
		return fmt.Errorf("-url и -page нельзя использовать вместе")
	}
	if c.ControlURL != "" && c.URL == "" {
		return fmt.Errorf("-cdp требует -url")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("отрицательный timeout: %v", c.Timeout)
	}
	return nil
}
