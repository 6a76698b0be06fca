// Package browser drives a Chrome page over CDP so animations can play in a real
// rendering engine instead of the in-memory document.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Manager держит Chrome и открытые в нем вкладки с анимируемыми страницами
type Manager struct {
	mu       sync.Mutex
	chrome   *rod.Browser
	tabs     map[proto.TargetTargetID]*rod.Page
	headless bool
	cdpURL   string
	logger   *slog.Logger
}

type Option func(*Manager)

func WithHeadless(h bool) Option {
	return func(m *Manager) { m.headless = h }
}

// WithControlURL: подключиться к уже запущенному Chrome (-cdp)
func WithControlURL(u string) Option {
	return func(m *Manager) { m.cdpURL = u }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func New(opts ...Option) *Manager {
	m := &Manager{
		tabs:   make(map[proto.TargetTargetID]*rod.Page),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start запускает Chrome или подключается к cdpURL
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chrome != nil {
		return fmt.Errorf("chrome уже запущен")
	}

	u := m.cdpURL
	if u == "" {
		launched, err := launcher.New().
			Context(ctx).
			Headless(m.headless).
			Set("disable-gpu").
			Set("no-first-run").
			Set("no-default-browser-check").
			Launch()
		if err != nil {
			return fmt.Errorf("запуск chrome: %w", err)
		}
		u = launched
	}
	m.logger.Info("chrome", "cdp", u, "headless", m.headless, "attached", m.cdpURL != "")

	chrome := rod.New().ControlURL(u)
	if err := chrome.Connect(); err != nil {
		return fmt.Errorf("подключение к chrome: %w", err)
	}
	m.chrome = chrome
	return nil
}

// Stop закрывает запущенный нами Chrome. Чужой Chrome (-cdp) не закрываем,
// только свои вкладки.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chrome == nil {
		return nil
	}

	var err error
	if m.cdpURL != "" {
		for id, tab := range m.tabs {
			if cerr := tab.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("закрытие вкладки %s: %w", id, cerr)
			}
		}
	} else {
		err = m.chrome.Close()
	}
	m.chrome = nil
	clear(m.tabs)
	return err
}

func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chrome != nil
}

// Open открывает url в новой вкладке и ждет, пока страница успокоится
func (m *Manager) Open(ctx context.Context, url string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chrome == nil {
		return nil, fmt.Errorf("chrome не запущен")
	}

	page, err := m.chrome.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("открытие %s: %w", url, err)
	}
	if err := page.Context(ctx).WaitStable(300 * time.Millisecond); err != nil {
		page.Close()
		return nil, fmt.Errorf("ожидание %s: %w", url, err)
	}

	m.tabs[page.TargetID] = page
	m.logger.Debug("tab", "target", page.TargetID, "url", url)

	return NewDocument(page), nil
}

func (m *Manager) Close(doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tabs, doc.page.TargetID)
	return doc.page.Close()
}

// Tabs: сколько вкладок открыто через Open
func (m *Manager) Tabs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tabs)
}
