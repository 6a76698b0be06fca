package director

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler получает заново прочитанную анимацию
type ChangeHandler func(anim *Animation)

// Watcher перечитывает файл анимации при изменении.
// Следим за папкой, а не за файлом: редакторы сохраняют через rename,
// и наблюдение за самим файлом теряется после первого сохранения.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	handlers []ChangeHandler
	debounce time.Duration
	quit     chan struct{}
	mu       sync.Mutex
	logger   *slog.Logger
}

func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:     filepath.Clean(path),
		fsw:      fsw,
		debounce: 300 * time.Millisecond,
		logger:   slog.Default(),
	}, nil
}

func (w *Watcher) OnChange(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

func (w *Watcher) Start() error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.quit = make(chan struct{})
	go w.loop(w.quit)

	w.logger.Info("watching animation", "path", w.path)
	return nil
}

func (w *Watcher) Stop() {
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	w.fsw.Close()
}

// relevant reports whether ev touched the animation file with new content
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

func (w *Watcher) loop(quit <-chan struct{}) {
	// один reload на серию событий от одного сохранения
	var pending *time.Timer

	for {
		select {
		case <-quit:
			if pending != nil {
				pending.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	anim, err := ReadAnimation(w.path)
	if err != nil {
		w.logger.Error("read animation", "path", w.path, "error", err)
		return
	}
	if err := anim.Validate(); err != nil {
		w.logger.Error("animation rejected", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	handlers := append([]ChangeHandler(nil), w.handlers...)
	w.mu.Unlock()

	for _, h := range handlers {
		h(anim)
	}
	w.logger.Info("animation reloaded", "path", w.path, "frames", len(anim.Frames))
}
