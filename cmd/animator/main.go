package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/animator/internal/browser"
	"github.com/ivlev/animator/internal/config"
	"github.com/ivlev/animator/internal/director"
	"github.com/ivlev/animator/internal/dom"
	"github.com/ivlev/animator/internal/engine"
	"github.com/ivlev/animator/internal/system"
)

var buildVersion = "dev"

func main() {
	// Создаем нужные директории, если их нет
	dirs := []string{director.AnimationsDir, system.PagesDir, "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	animationPtr := flag.String("animation", "", "Файл анимации YAML/JSON (по умолчанию: самый свежий в input/animations/)")
	pagePtr := flag.String("page", "", "HTML-страница для режима в памяти (по умолчанию: самая свежая в input/pages/)")
	outputPtr := flag.String("output", "", "Куда сохранить итоговую страницу (если пусто, генерируется в output/)")
	urlPtr := flag.String("url", "", "URL страницы: анимация воспроизводится в Chrome")
	cdpPtr := flag.String("cdp", "", "Подключиться к уже запущенному Chrome по CDP вместо запуска нового")
	headlessPtr := flag.Bool("headless", false, "Запускать Chrome без окна")
	infinityPtr := flag.Bool("infinity", false, "Повторять сценарий до остановки")
	playPtr := flag.Bool("play", true, "Воспроизвести сценарий после компиляции")
	watchPtr := flag.Bool("watch", false, "Перекомпилировать при изменении файла анимации")
	exportPtr := flag.String("export", "", "Экспорт анимации в JSON (\"auto\" - файл в output/)")
	importPtr := flag.String("import", "", "Импорт JSON-экспорта той же анимации поверх файла")
	timeoutPtr := flag.Duration("timeout", 0, "Остановить воспроизведение через заданное время (0 - без ограничения)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")

	flag.Parse()

	animationPath := *animationPtr
	if animationPath == "" {
		latest, err := director.FindLatestAnimation(director.AnimationsDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите файл анимации в %s/", err, director.AnimationsDir)
		}
		animationPath = latest
		fmt.Printf("[*] Выбран файл анимации: %s\n", animationPath)
	}

	cfg := &config.Config{
		AnimationPath: animationPath,
		PagePath:      *pagePtr,
		OutputPath:    *outputPtr,
		URL:           *urlPtr,
		ControlURL:    *cdpPtr,
		Headless:      *headlessPtr,
		Infinity:      *infinityPtr,
		Play:          *playPtr,
		Watch:         *watchPtr,
		ExportPath:    *exportPtr,
		ImportPath:    *importPtr,
		Timeout:       *timeoutPtr,
		ShowStats:     *statsPtr,
		BuildVersion:  buildVersion,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	anim, err := director.ReadAnimation(cfg.AnimationPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения анимации: %v", err)
	}
	if err := anim.Validate(); err != nil {
		log.Fatalf("[-] Ошибка в анимации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := run(ctx, cfg, anim); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, anim *director.Animation) error {
	startTime := time.Now()

	fmt.Println("--- [PROJECT: ANIMATOR] ---")
	fmt.Printf("[*] Анимация: %s | Кадров: %d (активных %d)\n", anim.ID, len(anim.Frames), anim.EnabledCount())

	var doc dom.Document
	var page *dom.Page
	var remote *browser.Document

	if cfg.BrowserMode() {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		manager := browser.New(
			browser.WithHeadless(cfg.Headless),
			browser.WithControlURL(cfg.ControlURL),
			browser.WithLogger(logger),
		)
		if err := manager.Start(ctx); err != nil {
			return err
		}
		defer manager.Stop(context.Background())

		opened, err := manager.Open(ctx, cfg.URL)
		if err != nil {
			return err
		}
		remote = opened
		doc = opened
		fmt.Printf("[*] Режим: Chrome | URL: %s\n", cfg.URL)
	} else {
		pagePath := cfg.PagePath
		if pagePath == "" {
			latest, err := system.FindLatestPage(system.PagesDir)
			if err != nil {
				return fmt.Errorf("%v. Положите HTML-страницу в %s/", err, system.PagesDir)
			}
			pagePath = latest
			cfg.PagePath = latest
			fmt.Printf("[*] Выбрана страница: %s\n", pagePath)
		}
		p, err := loadPage(pagePath)
		if err != nil {
			return err
		}
		page = p
		doc = p
		fmt.Printf("[*] Режим: в памяти | Страница: %s\n", pagePath)
	}
	fmt.Println("-----------------------------")

	project := engine.NewProject(doc, anim, engine.Settings{Infinity: cfg.Infinity})
	if err := project.Init(ctx); err != nil {
		return err
	}

	if cfg.ImportPath != "" {
		f, err := os.Open(cfg.ImportPath)
		if err != nil {
			return fmt.Errorf("ошибка импорта: %w", err)
		}
		err = project.Import(ctx, f)
		f.Close()
		if err != nil {
			return err
		}
		fmt.Printf("[*] Импортирован файл: %s\n", cfg.ImportPath)
	}

	if cfg.Watch {
		watcher, err := director.NewWatcher(cfg.AnimationPath)
		if err != nil {
			return fmt.Errorf("ошибка запуска наблюдателя: %w", err)
		}
		watcher.OnChange(func(a *director.Animation) {
			if err := project.SetAnimation(ctx, a); err != nil {
				log.Printf("[!] Не удалось применить изменения: %v", err)
				return
			}
			fmt.Printf("[*] Анимация перекомпилирована: %s\n", cfg.AnimationPath)
		})
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("ошибка запуска наблюдателя: %w", err)
		}
		defer watcher.Stop()
	}

	if cfg.Play {
		if err := project.Play(ctx); err != nil {
			return err
		}
	}

	if cfg.KeepAlive() {
		fmt.Println("[*] Ожидание... (Ctrl+C для выхода)")
		<-ctx.Done()
		project.Stop()
	} else if cfg.Play {
		if err := project.Wait(ctx); err != nil {
			log.Printf("[!] Воспроизведение прервано: %v", err)
			project.Stop()
		}
	}
	project.Wait(context.Background())

	if cfg.ExportPath != "" {
		if err := exportAnimation(project, cfg.ExportPath); err != nil {
			return err
		}
	}

	output := cfg.OutputPath
	switch {
	case page != nil:
		if output == "" {
			output = generateOutputPath(cfg.PagePath)
		}
		if err := savePage(page, output); err != nil {
			return err
		}
	case remote != nil && output != "":
		html, err := remote.HTML()
		if err != nil {
			return fmt.Errorf("ошибка чтения страницы: %w", err)
		}
		if err := os.WriteFile(output, []byte(html), 0644); err != nil {
			return err
		}
	}

	if cfg.ShowStats {
		printReport(cfg, project.Stats(), time.Since(startTime))
	}

	if output != "" {
		fmt.Printf("[+++] Успех! Результат: %s\n", output)
	} else {
		fmt.Println("[+++] Успех!")
	}
	return nil
}

func loadPage(path string) (*dom.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dom.ParseHTML(f)
}

func savePage(page *dom.Page, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportAnimation(project *engine.Project, path string) error {
	if path == "auto" {
		anim := project.Animation()
		path = director.GenerateAnimationPath("output", anim.ID)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ошибка экспорта: %w", err)
	}
	if err := project.Export(f); err != nil {
		f.Close()
		return fmt.Errorf("ошибка экспорта: %w", err)
	}
	fmt.Printf("[*] Анимация экспортирована: %s\n", path)
	return f.Close()
}

func generateOutputPath(pagePath string) string {
	baseName := filepath.Base(pagePath)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.html", cleanName, timestamp))
}

func printReport(cfg *config.Config, stats engine.Stats, total time.Duration) {
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Playback: %s\n"+
			"Frames: %d active, %d fired\n"+
			"Passes: %d completed, %d aborted\n"+
			"Compilations: %d\n",
		cfg.BuildVersion, total.Seconds(), stats.PlaybackID,
		stats.Frames, stats.FramesFired,
		stats.PassesCompleted, stats.PassesAborted,
		stats.Compilations)

	if proc, err := system.CurrentProcessStats(); err == nil {
		report += "Process: " + proc.Report() + "\n"
	} else {
		log.Printf("[!] Не удалось получить статистику процесса: %v", err)
	}
	report += "----------------------------"
	fmt.Println(report)
}
