package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/animator/internal/compiler"
	"github.com/ivlev/animator/internal/director"
	"github.com/ivlev/animator/internal/dom"
	"github.com/ivlev/animator/internal/scenario"
)

// ErrForeignAnimation is returned when an imported file belongs to another animation
var ErrForeignAnimation = errors.New("animation id does not match the project")

type Settings struct {
	// Infinity loops the scenario until Stop
	Infinity bool
}

// Stats is a snapshot of project counters
type Stats struct {
	PlaybackID      string
	Frames          int
	FramesFired     int64
	PassesCompleted int64
	PassesAborted   int64
	Compilations    int
	Uptime          time.Duration
}

// Project binds an animation to a document: it compiles the animation, owns the
// resulting scenario and restores the container classes when playback ends.
type Project struct {
	doc      dom.Document
	compiler *compiler.Compiler
	settings Settings
	created  time.Time

	mu            sync.Mutex
	anim          director.Animation
	original      director.Animation
	scenario      *scenario.Scenario
	container     dom.Element
	classesBackup string
	hasBackup     bool
	playbackID    string
	compilations  int

	framesFired     atomic.Int64
	passesCompleted atomic.Int64
	passesAborted   atomic.Int64
}

func NewProject(doc dom.Document, anim *director.Animation, settings Settings) *Project {
	return &Project{
		doc:      doc,
		compiler: compiler.New(doc),
		settings: settings,
		created:  time.Now(),
		anim:     anim.Clone(),
		original: anim.Clone(),
	}
}

// Init compiles the current animation and prepares a fresh scenario.
// The container classes are backed up on the first successful call.
func (p *Project) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initLocked(ctx)
}

func (p *Project) initLocked(ctx context.Context) error {
	res, err := p.compiler.Compile(ctx, &p.anim)
	if err != nil {
		return fmt.Errorf("компиляция анимации %q: %w", p.anim.ID, err)
	}

	if !p.hasBackup {
		classes, err := res.Container.ClassName()
		if err != nil {
			return fmt.Errorf("backup container classes: %w", err)
		}
		p.classesBackup = classes
		p.hasBackup = true
	}
	p.container = res.Container

	if p.scenario != nil {
		p.scenario.Stop()
	}

	frames := make([]scenario.Frame, len(res.Frames))
	for i, f := range res.Frames {
		callback := f.Callback
		f.Callback = func() {
			callback()
			p.framesFired.Add(1)
		}
		frames[i] = f
	}

	sc := scenario.New(frames, scenario.Options{Infinity: p.settings.Infinity})
	sc.OnStart(func(*scenario.Scenario) {
		id := uuid.NewString()
		p.mu.Lock()
		p.playbackID = id
		p.mu.Unlock()
		fmt.Printf("[*] Старт воспроизведения %s (%d кадров)\n", id, sc.Len())
	})
	sc.OnEnd(func(s *scenario.Scenario, playback uint64, outcome scenario.Outcome) {
		if outcome == scenario.Completed {
			p.passesCompleted.Add(1)
		} else {
			p.passesAborted.Add(1)
		}
		// Завершение старого прогона после рестарта не трогает классы
		if p.settings.Infinity || s.Playing() || playback != s.Playback() {
			return
		}
		p.mu.Lock()
		current := p.scenario == s
		p.mu.Unlock()
		if current {
			p.restoreClasses()
		}
	})

	p.scenario = sc
	p.compilations++
	fmt.Printf("[*] Анимация %s скомпилирована: %d из %d кадров активны\n",
		p.anim.ID, len(frames), len(p.anim.Frames))
	return nil
}

// Play starts the scenario from the first frame, compiling it first if needed.
// It does nothing while a playback is in progress.
func (p *Project) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.scenario == nil {
		if err := p.initLocked(ctx); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	sc, id := p.scenario, p.anim.ID
	p.mu.Unlock()

	if !sc.StartAt(0) {
		log.Printf("[!] Анимация %s уже воспроизводится", id)
	}
	return nil
}

// Stop aborts playback and restores the container classes
func (p *Project) Stop() {
	p.mu.Lock()
	sc := p.scenario
	p.mu.Unlock()

	if sc == nil {
		return
	}
	sc.Stop()
	p.restoreClasses()
}

// Restart stops, restores the container and plays from the first frame
func (p *Project) Restart(ctx context.Context) error {
	p.Stop()
	return p.Play(ctx)
}

// Wait blocks until the current playback ends or ctx is done
func (p *Project) Wait(ctx context.Context) error {
	p.mu.Lock()
	sc := p.scenario
	p.mu.Unlock()

	if sc == nil {
		return nil
	}
	select {
	case <-sc.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Playing reports whether the scenario is running
func (p *Project) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scenario != nil && p.scenario.Playing()
}

// SetAnimation replaces the animation, recompiles it and resumes playback from
// the first frame if it was playing.
func (p *Project) SetAnimation(ctx context.Context, anim *director.Animation) error {
	if err := anim.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	wasPlaying := p.scenario != nil && p.scenario.Playing()
	previous := p.anim
	p.anim = anim.Clone()
	if err := p.initLocked(ctx); err != nil {
		p.anim = previous
		p.mu.Unlock()
		return err
	}
	sc := p.scenario
	p.mu.Unlock()

	if wasPlaying {
		sc.StartAt(0)
	}
	return nil
}

// Reset brings back the animation the project was created with
func (p *Project) Reset(ctx context.Context) error {
	p.mu.Lock()
	original := p.original.Clone()
	p.mu.Unlock()
	return p.SetAnimation(ctx, &original)
}

// Import loads a JSON export of the same animation
func (p *Project) Import(ctx context.Context, r io.Reader) error {
	var anim director.Animation
	if err := json.NewDecoder(r).Decode(&anim); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	p.mu.Lock()
	id := p.anim.ID
	p.mu.Unlock()
	if anim.ID != id {
		return fmt.Errorf("%w: got %q, want %q", ErrForeignAnimation, anim.ID, id)
	}
	return p.SetAnimation(ctx, &anim)
}

// Export writes the current animation in the JSON export format
func (p *Project) Export(w io.Writer) error {
	p.mu.Lock()
	anim := p.anim.Clone()
	p.mu.Unlock()
	return director.ExportJSON(w, &anim)
}

// Document is the host document the project mutates
func (p *Project) Document() dom.Document {
	return p.doc
}

// Animation returns a copy of the current animation
func (p *Project) Animation() director.Animation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anim.Clone()
}

func (p *Project) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	frames := 0
	if p.scenario != nil {
		frames = p.scenario.Len()
	}
	return Stats{
		PlaybackID:      p.playbackID,
		Frames:          frames,
		FramesFired:     p.framesFired.Load(),
		PassesCompleted: p.passesCompleted.Load(),
		PassesAborted:   p.passesAborted.Load(),
		Compilations:    p.compilations,
		Uptime:          time.Since(p.created),
	}
}

func (p *Project) restoreClasses() {
	p.mu.Lock()
	container, classes, ok := p.container, p.classesBackup, p.hasBackup
	p.mu.Unlock()

	if !ok || container == nil {
		return
	}
	if err := container.SetClassName(classes); err != nil {
		log.Printf("[!] Не удалось восстановить классы контейнера: %v", err)
	}
}
