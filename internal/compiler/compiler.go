// Package compiler turns an animation file into the frame list a Scenario plays,
// injecting one transition rule per frame into the host document on the way.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/ivlev/animator/internal/director"
	"github.com/ivlev/animator/internal/dom"
	"github.com/ivlev/animator/internal/effects"
	"github.com/ivlev/animator/internal/renderer"
	"github.com/ivlev/animator/internal/scenario"
	"golang.org/x/sync/errgroup"
)

// ErrContainerNotFound is returned when the animation container is missing from the document
var ErrContainerNotFound = errors.New("animation container not found")

// Compiler compiles animations against one document. The style registry
// persists across passes so recompiling replaces rules instead of adding them.
type Compiler struct {
	Doc    dom.Document
	Styles *dom.StyleRegistry
}

// Result is the output of one compilation pass
type Result struct {
	// Frames holds the enabled frames in descriptor order
	Frames    []scenario.Frame
	Container dom.Element
	// Rules holds the rule of every descriptor, disabled ones included
	Rules []string
}

func New(doc dom.Document) *Compiler {
	return &Compiler{
		Doc:    doc,
		Styles: dom.NewStyleRegistry(),
	}
}

// Compile validates anim, builds the rule of every frame and the callbacks of
// the enabled ones, then writes the rules into the document in frame order.
// Any failure aborts the whole pass.
func (c *Compiler) Compile(ctx context.Context, anim *director.Animation) (*Result, error) {
	if err := anim.Validate(); err != nil {
		return nil, fmt.Errorf("invalid animation: %w", err)
	}

	selector := anim.ContainerSelector()
	container, err := c.Doc.QuerySelector(selector)
	if err != nil {
		if errors.Is(err, dom.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, selector)
		}
		return nil, fmt.Errorf("container %q: %w", selector, err)
	}

	effect, err := effects.NewEffect(anim.Options)
	if err != nil {
		return nil, err
	}

	rules := make([]string, len(anim.Frames))
	callbacks := make([]func(), len(anim.Frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, frame := range anim.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := i + 1
			rules[i] = renderer.BuildRule(anim.Options, frame, key)

			if !frame.Enabled {
				return nil
			}
			cb, err := effect.Callback(c.Doc, container, frame)
			if err != nil {
				return fmt.Errorf("frame %d %q: %w", key, frame.Title, err)
			}
			callbacks[i] = cb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Style elements go into the document in frame order: with ignoreKey all
	// rules share one selector and the last one wins the cascade.
	for i, rule := range rules {
		key := i + 1
		styleKey := dom.StyleKey{ID: anim.ID, BaseClassName: anim.BaseClassName, Index: key}
		if err := c.Styles.Upsert(c.Doc, styleKey, rule); err != nil {
			return nil, fmt.Errorf("frame %d: %w", key, err)
		}
	}

	frames := make([]scenario.Frame, 0, anim.EnabledCount())
	for i, frame := range anim.Frames {
		if !frame.Enabled {
			continue
		}
		frames = append(frames, scenario.Frame{
			Delay:    time.Duration(frame.Delay) * time.Millisecond,
			Duration: time.Duration(frame.Duration) * time.Millisecond,
			Callback: callbacks[i],
		})
	}

	if anim.EffectType() == director.TypeCarousel {
		slides, err := c.Doc.QuerySelectorAll(anim.SlidesSelector)
		if err != nil {
			return nil, fmt.Errorf("carousel slides %q: %w", anim.SlidesSelector, err)
		}
		effects.ApplySlidesClasses(slides, anim.VisibleClasses)
	}

	if err := c.Styles.Retain(c.Doc, anim.ID, anim.BaseClassName, len(anim.Frames)); err != nil {
		return nil, err
	}

	return &Result{
		Frames:    frames,
		Container: container,
		Rules:     rules,
	}, nil
}
