package effects

import (
	"fmt"
	"log"

	"github.com/ivlev/animator/internal/director"
	"github.com/ivlev/animator/internal/dom"
)

// Effect builds the visual mutation a frame performs when it fires
type Effect interface {
	Callback(doc dom.Document, container dom.Element, frame director.Frame) (func(), error)
}

// NewEffect selects the callback strategy for an animation type
func NewEffect(opts director.Options) (Effect, error) {
	switch opts.EffectType() {
	case director.TypeDefault:
		return &ClassToggleEffect{}, nil
	case director.TypeCarousel:
		if opts.SlidesSelector == "" {
			return nil, fmt.Errorf("carousel effect requires slidesSelector")
		}
		return &CarouselEffect{
			SlidesSelector: opts.SlidesSelector,
			VisibleClasses: opts.VisibleClasses,
		}, nil
	default:
		return nil, fmt.Errorf("unknown animation type: %s", opts.Type)
	}
}

// ClassToggleEffect adds the frame class to the container and removes the toDelete classes
type ClassToggleEffect struct{}

func (e *ClassToggleEffect) Callback(_ dom.Document, container dom.Element, frame director.Frame) (func(), error) {
	if container == nil {
		return nil, fmt.Errorf("class toggle effect: container is nil")
	}

	className := frame.ClassName
	toDelete := append([]string(nil), frame.ToDelete...)

	return func() {
		if className != "" {
			if err := container.AddClass(className); err != nil {
				log.Printf("[!] add class %q: %v", className, err)
			}
		}
		if len(toDelete) > 0 {
			if err := container.RemoveClass(toDelete...); err != nil {
				log.Printf("[!] remove classes %v: %v", toDelete, err)
			}
		}
	}, nil
}
