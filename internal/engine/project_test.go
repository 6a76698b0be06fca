package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/animator/internal/director"
	"github.com/ivlev/animator/internal/dom"
)

const testHTML = `<html><head></head><body>
<section id="hero"><div class="view start"></div></section>
</body></html>`

func newPage(t *testing.T) *dom.Page {
	t.Helper()
	p, err := dom.ParseHTMLString(testHTML)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func testAnimation() *director.Animation {
	frame := func(className string, toDelete ...string) director.Frame {
		return director.Frame{
			Enabled:       true,
			Duration:      100,
			Mode:          director.ModeLinear,
			ClassName:     className,
			ToDelete:      toDelete,
			ChildNodesIDs: []string{""},
		}
	}
	return &director.Animation{
		Options: director.Options{ID: "hero", BaseClassName: "step"},
		Frames:  []director.Frame{frame("a"), frame("b", "a")},
	}
}

func classes(t *testing.T, p *dom.Page) string {
	t.Helper()
	view, err := p.Find("#hero .view")
	if err != nil {
		t.Fatal(err)
	}
	return strings.Join(view.Classes(), " ")
}

func TestFinitePlaybackRestoresClasses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		page := newPage(t)
		p := NewProject(page, testAnimation(), Settings{})

		if err := p.Play(context.Background()); err != nil {
			t.Fatal(err)
		}
		time.Sleep(150 * time.Millisecond)
		if got := classes(t, page); got != "view start b" {
			t.Errorf("Mid-playback classes: expected \"view start b\", got %q", got)
		}

		if err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := classes(t, page); got != "view start" {
			t.Errorf("Classes not restored after pass: %q", got)
		}

		stats := p.Stats()
		if stats.FramesFired != 2 || stats.PassesCompleted != 1 || stats.PassesAborted != 0 {
			t.Errorf("Unexpected stats: %+v", stats)
		}
		if _, err := uuid.Parse(stats.PlaybackID); err != nil {
			t.Errorf("Playback id %q is not a uuid: %v", stats.PlaybackID, err)
		}
		t.Logf("Stats: %+v", stats)
	})
}

func TestStopRestoresClasses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		page := newPage(t)
		p := NewProject(page, testAnimation(), Settings{Infinity: true})

		p.Play(context.Background())
		time.Sleep(50 * time.Millisecond)
		if !strings.Contains(classes(t, page), "a") {
			t.Errorf("First frame did not fire: %q", classes(t, page))
		}

		p.Stop()
		if got := classes(t, page); got != "view start" {
			t.Errorf("Expected restored classes, got %q", got)
		}
		if p.Playing() {
			t.Error("Still playing after stop")
		}
		p.Wait(context.Background())

		if stats := p.Stats(); stats.PassesAborted != 1 {
			t.Errorf("Expected 1 aborted pass, got %+v", stats)
		}
	})
}

func TestPlayWhilePlaying(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := NewProject(newPage(t), testAnimation(), Settings{})
		ctx := context.Background()

		p.Play(ctx)
		first := p.Stats().PlaybackID
		time.Sleep(10 * time.Millisecond)
		p.Play(ctx)
		if p.Stats().PlaybackID != first {
			t.Error("Second Play started a new playback")
		}
		p.Wait(ctx)

		if fired := p.Stats().FramesFired; fired != 2 {
			t.Errorf("Expected 2 frames fired, got %d", fired)
		}
	})
}

func TestRestart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		page := newPage(t)
		p := NewProject(page, testAnimation(), Settings{})
		ctx := context.Background()

		p.Play(ctx)
		time.Sleep(150 * time.Millisecond)
		first := p.Stats().PlaybackID
		if err := p.Restart(ctx); err != nil {
			t.Fatal(err)
		}
		p.Wait(ctx)

		stats := p.Stats()
		if stats.PlaybackID == first {
			t.Error("Restart kept the playback id")
		}
		if stats.FramesFired != 4 || stats.PassesCompleted != 1 || stats.PassesAborted != 1 {
			t.Errorf("Unexpected stats after restart: %+v", stats)
		}
		if got := classes(t, page); got != "view start" {
			t.Errorf("Classes not restored: %q", got)
		}
	})
}

func TestSetAnimationResumes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		page := newPage(t)
		p := NewProject(page, testAnimation(), Settings{Infinity: true})
		ctx := context.Background()

		p.Play(ctx)
		time.Sleep(50 * time.Millisecond)

		edited := testAnimation()
		edited.Frames[0].ClassName = "z"
		edited.Frames[1].Enabled = false
		if err := p.SetAnimation(ctx, edited); err != nil {
			t.Fatal(err)
		}
		if !p.Playing() {
			t.Fatal("Playback not resumed after SetAnimation")
		}
		time.Sleep(50 * time.Millisecond)
		if !strings.Contains(classes(t, page), "z") {
			t.Errorf("Edited frame did not fire: %q", classes(t, page))
		}

		stats := p.Stats()
		if stats.Compilations != 2 || stats.Frames != 1 {
			t.Errorf("Unexpected stats: %+v", stats)
		}
		if page.StyleCount("hero-step-style-2") != 1 {
			t.Error("Disabled frame lost its style rule")
		}

		p.Stop()
		p.Wait(ctx)
	})
}

func TestSetAnimationRejectsInvalid(t *testing.T) {
	p := NewProject(newPage(t), testAnimation(), Settings{})
	if err := p.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	bad := testAnimation()
	bad.Frames[0].Mode = "bounce"
	if err := p.SetAnimation(context.Background(), bad); err == nil {
		t.Fatal("Expected validation error")
	}
	if p.Animation().Frames[0].Mode != director.ModeLinear {
		t.Error("Invalid animation replaced the current one")
	}
}

func TestResetAndImport(t *testing.T) {
	p := NewProject(newPage(t), testAnimation(), Settings{})
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatal(err)
	}

	edited := testAnimation()
	edited.Frames[0].Delay = 777
	if err := p.SetAnimation(ctx, edited); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Export(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\t\"id\": \"hero\"") {
		t.Errorf("Export is not tab-indented JSON:\n%s", buf.String())
	}

	if err := p.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if d := p.Animation().Frames[0].Delay; d != 0 {
		t.Errorf("Reset kept delay %d", d)
	}

	if err := p.Import(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	if d := p.Animation().Frames[0].Delay; d != 777 {
		t.Errorf("Import lost delay, got %d", d)
	}

	foreign := `{"id": "other", "baseClassName": "step", "frames": []}`
	if err := p.Import(ctx, strings.NewReader(foreign)); !errors.Is(err, ErrForeignAnimation) {
		t.Errorf("Expected ErrForeignAnimation, got %v", err)
	}
}

func TestInitFailsWithoutContainer(t *testing.T) {
	page, err := dom.ParseHTMLString(`<html><body><div id="hero"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	p := NewProject(page, testAnimation(), Settings{})
	if err := p.Play(context.Background()); err == nil {
		t.Error("Expected error for missing container")
	}
	if p.Playing() {
		t.Error("Project playing without a container")
	}
}
