// Package dom describes the host document an animation runs against and ships an
// in-memory implementation backed by an HTML tree.
package dom

import "errors"

var (
	// ErrNotFound is returned when a selector matches nothing
	ErrNotFound = errors.New("no element matches selector")
	// ErrUnsupportedSelector is returned for selectors the host cannot evaluate
	ErrUnsupportedSelector = errors.New("unsupported selector")
)

// Element is a node whose class list can be changed
type Element interface {
	ClassName() (string, error)
	SetClassName(value string) error
	AddClass(names ...string) error
	RemoveClass(names ...string) error
}

// Document is the host environment the compiler and frame callbacks mutate
type Document interface {
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
	// UpsertStyle sets the text of the style element with the given id, creating it
	// in the document head when it does not exist yet.
	UpsertStyle(id, css string) error
	RemoveStyle(id string) error
}
