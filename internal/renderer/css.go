package renderer

import (
	"fmt"
	"strings"

	"github.com/ivlev/animator/internal/director"
)

// BuildSelector creates the combined selector a frame's transition rule applies to.
// Every child id yields one base selector which is expanded across the sub-selectors.
func BuildSelector(opts director.Options, frame director.Frame, key int) string {
	keySuffix := ""
	if !opts.IgnoreKey {
		keySuffix = fmt.Sprintf("-%d", key)
	}
	subSelectors := opts.SubSelectorList()

	groups := make([]string, 0, len(frame.ChildNodesIDs))
	for _, childID := range frame.ChildNodesIDs {
		postfix := ""
		if childID != "" {
			postfix = " #" + childID
		}
		base := fmt.Sprintf("#%s .%s%s%s", opts.ID, opts.BaseClassName, keySuffix, postfix)

		expanded := make([]string, len(subSelectors))
		for i, sub := range subSelectors {
			expanded[i] = base + sub
		}
		groups = append(groups, strings.Join(expanded, ","))
	}

	return strings.Join(groups, ",")
}

// BuildTransitions creates the transition shorthand list, e.g. "opacity 300ms !important"
func BuildTransitions(transitions []string, duration int) string {
	parts := make([]string, len(transitions))
	for i, name := range transitions {
		parts[i] = fmt.Sprintf("%s %dms", name, duration)
	}
	return strings.Join(parts, ", ") + " !important"
}

// BuildRule creates the complete CSS rule injected for a frame
func BuildRule(opts director.Options, frame director.Frame, key int) string {
	return fmt.Sprintf("%s { transition: %s; transition-timing-function: %s !important;}",
		BuildSelector(opts, frame, key),
		BuildTransitions(opts.TransitionList(), frame.Duration),
		frame.Mode)
}
