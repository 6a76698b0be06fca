package effects

import (
	"fmt"
	"log"

	"github.com/ivlev/animator/internal/director"
	"github.com/ivlev/animator/internal/dom"
)

// CarouselEffect rotates a fixed-size window of visible classes over the slides.
// Slides are never reordered in the document; only their classes move.
type CarouselEffect struct {
	SlidesSelector string
	VisibleClasses []string
}

// Callback snapshots the slides now. Each frame owns its own queue, so two carousel
// frames rotate independently.
func (e *CarouselEffect) Callback(doc dom.Document, _ dom.Element, _ director.Frame) (func(), error) {
	slides, err := doc.QuerySelectorAll(e.SlidesSelector)
	if err != nil {
		return nil, fmt.Errorf("carousel slides %q: %w", e.SlidesSelector, err)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("carousel slides %q: %w", e.SlidesSelector, dom.ErrNotFound)
	}

	queue := append([]dom.Element(nil), slides...)
	visible := append([]string(nil), e.VisibleClasses...)

	return func() {
		first := queue[0]
		if len(visible) > 0 {
			if err := first.RemoveClass(visible...); err != nil {
				log.Printf("[!] carousel: strip visible classes: %v", err)
			}
		}
		queue = append(queue[1:], first)
		ApplySlidesClasses(queue, visible)
	}, nil
}

// ApplySlidesClasses gives visibleClasses[i] to the i-th slide for the first
// min(len(slides), len(visibleClasses)) slides, after stripping all visible classes
func ApplySlidesClasses(slides []dom.Element, visibleClasses []string) {
	n := min(len(slides), len(visibleClasses))
	for i, slide := range slides[:n] {
		if err := slide.RemoveClass(visibleClasses...); err != nil {
			log.Printf("[!] carousel: strip visible classes: %v", err)
			continue
		}
		if err := slide.AddClass(visibleClasses[i]); err != nil {
			log.Printf("[!] carousel: add %q: %v", visibleClasses[i], err)
		}
	}
}
