package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"github.com/ivlev/animator/internal/dom"
)

const (
	upsertStyleJS = `(id, css) => {
	let el = document.getElementById(id);
	if (!el) {
		el = document.createElement('style');
		el.id = id;
		document.head.appendChild(el);
	}
	el.textContent = css;
}`
	removeStyleJS = `(id) => {
	const el = document.getElementById(id);
	if (el) el.remove();
}`
	styleTextJS = `(id) => {
	const el = document.getElementById(id);
	return el ? el.textContent : null;
}`
	classNameJS    = `function() { return this.className }`
	setClassNameJS = `function(value) { this.className = value }`
	addClassJS     = `function(names) { this.classList.add(...names) }`
	removeClassJS  = `function(names) { this.classList.remove(...names) }`
)

// Document is a dom.Document backed by a live Chrome page
type Document struct {
	page *rod.Page
}

func NewDocument(page *rod.Page) *Document {
	return &Document{page: page}
}

// Page exposes the underlying rod page
func (d *Document) Page() *rod.Page {
	return d.page
}

func (d *Document) QuerySelector(selector string) (dom.Element, error) {
	has, el, err := d.page.Has(selector)
	if err != nil {
		return nil, selectorError(selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", dom.ErrNotFound, selector)
	}
	return &Element{el: el}, nil
}

func (d *Document) QuerySelectorAll(selector string) ([]dom.Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, selectorError(selector, err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out, nil
}

func (d *Document) UpsertStyle(id, css string) error {
	if _, err := d.page.Eval(upsertStyleJS, id, css); err != nil {
		return fmt.Errorf("upsert style %s: %w", id, err)
	}
	return nil
}

func (d *Document) RemoveStyle(id string) error {
	if _, err := d.page.Eval(removeStyleJS, id); err != nil {
		return fmt.Errorf("remove style %s: %w", id, err)
	}
	return nil
}

// StyleText returns the text of the style element with the given id
func (d *Document) StyleText(id string) (string, bool, error) {
	res, err := d.page.Eval(styleTextJS, id)
	if err != nil {
		return "", false, fmt.Errorf("style text %s: %w", id, err)
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

// HTML returns the serialised page
func (d *Document) HTML() (string, error) {
	return d.page.HTML()
}

// selectorError maps a SyntaxError thrown by querySelector to
// dom.ErrUnsupportedSelector. Transport and context errors are wrapped as is.
func selectorError(selector string, err error) error {
	var evalErr *rod.EvalError
	if errors.As(err, &evalErr) && evalErr.RuntimeExceptionDetails != nil {
		if exp := evalErr.Exception; exp != nil && strings.Contains(exp.Description, "SyntaxError") {
			return fmt.Errorf("%w: %s: %v", dom.ErrUnsupportedSelector, selector, err)
		}
	}
	return fmt.Errorf("query %s: %w", selector, err)
}

// Element is a dom.Element backed by a remote DOM node
type Element struct {
	el *rod.Element
}

func (e *Element) ClassName() (string, error) {
	res, err := e.el.Eval(classNameJS)
	if err != nil {
		return "", fmt.Errorf("read className: %w", err)
	}
	return res.Value.Str(), nil
}

func (e *Element) SetClassName(value string) error {
	if _, err := e.el.Eval(setClassNameJS, value); err != nil {
		return fmt.Errorf("set className: %w", err)
	}
	return nil
}

func (e *Element) AddClass(names ...string) error {
	names = nonEmpty(names)
	if len(names) == 0 {
		return nil
	}
	if _, err := e.el.Eval(addClassJS, names); err != nil {
		return fmt.Errorf("add class %v: %w", names, err)
	}
	return nil
}

func (e *Element) RemoveClass(names ...string) error {
	names = nonEmpty(names)
	if len(names) == 0 {
		return nil
	}
	if _, err := e.el.Eval(removeClassJS, names); err != nil {
		return fmt.Errorf("remove class %v: %w", names, err)
	}
	return nil
}

// classList.add throws on empty tokens
func nonEmpty(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
