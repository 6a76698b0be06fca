package director

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mode is a CSS transition-timing-function value
type Mode string

const (
	ModeEaseIn    Mode = "ease-in"
	ModeEaseOut   Mode = "ease-out"
	ModeEaseInOut Mode = "ease-in-out"
	ModeLinear    Mode = "linear"
)

// Modes lists the supported timing functions in editor order
var Modes = []Mode{ModeEaseIn, ModeEaseOut, ModeEaseInOut, ModeLinear}

// Valid reports whether m is one of Modes
func (m Mode) Valid() bool {
	for _, v := range Modes {
		if m == v {
			return true
		}
	}
	return false
}

// Type selects how frame callbacks mutate the document
type Type string

const (
	TypeDefault  Type = "default"
	TypeCarousel Type = "carousel"
)

var (
	// DefaultTransitions is used when an animation does not list its own
	DefaultTransitions = []string{"transform", "border-color", "background-color", "opacity"}
	// DefaultSubSelectors is used when an animation does not list its own
	DefaultSubSelectors = []string{"", ":after", ":before"}
)

// Animation is a complete animation file: global options plus ordered frames
type Animation struct {
	Options `yaml:",inline"`
	Frames  []Frame `yaml:"frames" json:"frames"`
}

// Options are shared by every frame of one animation
type Options struct {
	ID             string   `yaml:"id" json:"id"`
	BaseClassName  string   `yaml:"baseClassName" json:"baseClassName"`
	Container      string   `yaml:"container,omitempty" json:"container,omitempty"`
	Transitions    []string `yaml:"transitions,omitempty" json:"transitions,omitempty"`
	SubSelectors   []string `yaml:"subSelectors,omitempty" json:"subSelectors,omitempty"`
	Type           Type     `yaml:"type,omitempty" json:"type,omitempty"`
	SlidesSelector string   `yaml:"slidesSelector,omitempty" json:"slidesSelector,omitempty"`
	VisibleClasses []string `yaml:"visibleClasses,omitempty" json:"visibleClasses,omitempty"`
	IgnoreKey      bool     `yaml:"ignoreKey,omitempty" json:"ignoreKey,omitempty"`
}

// Frame is one authored step of an animation
type Frame struct {
	Title         string     `yaml:"title" json:"title"`
	Enabled       bool       `yaml:"enabled" json:"enabled"`
	Delay         int        `yaml:"delay" json:"delay"`       // ms before the effect fires
	Duration      int        `yaml:"duration" json:"duration"` // ms after the effect fires
	Mode          Mode       `yaml:"mode" json:"mode"`
	ClassName     string     `yaml:"className,omitempty" json:"className,omitempty"`
	ToDelete      ClassNames `yaml:"toDelete,omitempty" json:"toDelete,omitempty"`
	ChildNodesIDs []string   `yaml:"childNodesIds" json:"childNodesIds"`
}

// ContainerSelector returns the configured container or the #id .view fallback
func (o Options) ContainerSelector() string {
	if o.Container != "" {
		return o.Container
	}
	return fmt.Sprintf("#%s .view", o.ID)
}

// TransitionList returns the configured transitions, or the defaults when unset.
// An explicitly empty list is kept as is.
func (o Options) TransitionList() []string {
	if o.Transitions == nil {
		return DefaultTransitions
	}
	return o.Transitions
}

// SubSelectorList returns the configured sub-selectors, or the defaults when unset
func (o Options) SubSelectorList() []string {
	if o.SubSelectors == nil {
		return DefaultSubSelectors
	}
	return o.SubSelectors
}

// EffectType returns the animation type with the empty value mapped to TypeDefault
func (o Options) EffectType() Type {
	if o.Type == "" {
		return TypeDefault
	}
	return o.Type
}

// Clone returns a deep copy so editors can keep a pristine backup
func (a Animation) Clone() Animation {
	c := a
	c.Transitions = cloneStrings(a.Transitions)
	c.SubSelectors = cloneStrings(a.SubSelectors)
	c.VisibleClasses = cloneStrings(a.VisibleClasses)
	if a.Frames != nil {
		c.Frames = make([]Frame, len(a.Frames))
		for i, f := range a.Frames {
			f.ToDelete = ClassNames(cloneStrings(f.ToDelete))
			f.ChildNodesIDs = cloneStrings(f.ChildNodesIDs)
			c.Frames[i] = f
		}
	}
	return c
}

// EnabledCount returns how many frames take part in playback
func (a Animation) EnabledCount() int {
	n := 0
	for _, f := range a.Frames {
		if f.Enabled {
			n++
		}
	}
	return n
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ClassNames holds toDelete, which files may write as a single string or a list
type ClassNames []string

func (c *ClassNames) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*c = singleClass(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	return fmt.Errorf("toDelete: expected string or list, got %s", value.Tag)
}

func (c *ClassNames) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = singleClass(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("toDelete: expected string or list: %w", err)
	}
	*c = list
	return nil
}

func singleClass(s string) ClassNames {
	if s == "" {
		return nil
	}
	return ClassNames{s}
}
