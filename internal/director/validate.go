package director

import "fmt"

// Validate checks an animation for author mistakes that would make compilation meaningless.
// Frame numbers in messages are 1-based, matching the style element keys.
func (a *Animation) Validate() error {
	if a == nil {
		return fmt.Errorf("animation is nil")
	}
	if a.ID == "" {
		return fmt.Errorf("animation id is empty")
	}
	if a.BaseClassName == "" {
		return fmt.Errorf("animation %q: baseClassName is empty", a.ID)
	}

	switch a.EffectType() {
	case TypeDefault:
	case TypeCarousel:
		if a.SlidesSelector == "" {
			return fmt.Errorf("animation %q: carousel type requires slidesSelector", a.ID)
		}
	default:
		return fmt.Errorf("animation %q: unknown type %q", a.ID, a.Type)
	}

	for i, f := range a.Frames {
		key := i + 1
		if f.Delay < 0 {
			return fmt.Errorf("frame %d: negative delay %d", key, f.Delay)
		}
		if f.Duration < 0 {
			return fmt.Errorf("frame %d: negative duration %d", key, f.Duration)
		}
		if !f.Mode.Valid() {
			return fmt.Errorf("frame %d: unknown mode %q", key, f.Mode)
		}
		if len(f.ChildNodesIDs) == 0 {
			return fmt.Errorf("frame %d: childNodesIds is empty, no selector can be built", key)
		}
	}

	return nil
}
