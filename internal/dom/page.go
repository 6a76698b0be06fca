package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is an in-memory Document parsed from HTML.
// It is safe for concurrent use; frame callbacks mutate it from the playback goroutine.
type Page struct {
	mu   sync.RWMutex
	root *html.Node
}

// Node is an element of a Page
type Node struct {
	page *Page
	n    *html.Node
}

// ParseHTML builds a Page from an HTML document
func ParseHTML(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{root: root}, nil
}

// ParseHTMLString is ParseHTML for inline markup, mostly used by tests
func ParseHTMLString(s string) (*Page, error) {
	return ParseHTML(strings.NewReader(s))
}

// Render writes the current state of the page as HTML
func (p *Page) Render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return html.Render(w, p.root)
}

func (p *Page) QuerySelector(selector string) (Element, error) {
	nodes, err := p.query(selector, true)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, selector)
	}
	return nodes[0], nil
}

func (p *Page) QuerySelectorAll(selector string) ([]Element, error) {
	nodes, err := p.query(selector, false)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

// Find is QuerySelector returning the concrete node type
func (p *Page) Find(selector string) (*Node, error) {
	nodes, err := p.query(selector, true)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, selector)
	}
	return nodes[0], nil
}

func (p *Page) query(selector string, first bool) ([]*Node, error) {
	sel, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var found []*Node
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && sel.Match(n) {
			found = append(found, &Node{page: p, n: n})
			return !first
		}
		return true
	})
	return found, nil
}

func (p *Page) UpsertStyle(id, css string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	el := p.elementByID(id)
	if el == nil {
		head := p.head()
		el = &html.Node{
			Type:     html.ElementNode,
			Data:     "style",
			DataAtom: atom.Style,
			Attr:     []html.Attribute{{Key: "id", Val: id}},
		}
		head.AppendChild(el)
	}

	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return nil
}

func (p *Page) RemoveStyle(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if el := p.elementByID(id); el != nil && el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
	return nil
}

// StyleText returns the text of the element with the given id
func (p *Page) StyleText(id string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	el := p.elementByID(id)
	if el == nil {
		return "", false
	}
	var sb strings.Builder
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String(), true
}

// StyleCount returns how many elements carry the given id
func (p *Page) StyleCount(id string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			count++
		}
		return true
	})
	return count
}

func (p *Page) elementByID(id string) *html.Node {
	var found *html.Node
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// head returns the document head; html.Parse always synthesises one
func (p *Page) head() *html.Node {
	var head *html.Node
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Head {
			head = n
			return false
		}
		return true
	})
	if head == nil {
		head = p.root
	}
	return head
}

// walk visits nodes in document order until fn returns false
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func (n *Node) ClassName() (string, error) {
	n.page.mu.RLock()
	defer n.page.mu.RUnlock()
	return attr(n.n, "class"), nil
}

func (n *Node) SetClassName(value string) error {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	setAttr(n.n, "class", value)
	return nil
}

func (n *Node) AddClass(names ...string) error {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()

	classes := strings.Fields(attr(n.n, "class"))
	for _, name := range names {
		if name != "" && !containsString(classes, name) {
			classes = append(classes, name)
		}
	}
	setAttr(n.n, "class", strings.Join(classes, " "))
	return nil
}

func (n *Node) RemoveClass(names ...string) error {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()

	classes := strings.Fields(attr(n.n, "class"))
	kept := classes[:0]
	for _, c := range classes {
		if !containsString(names, c) {
			kept = append(kept, c)
		}
	}
	setAttr(n.n, "class", strings.Join(kept, " "))
	return nil
}

// Classes returns the current class list
func (n *Node) Classes() []string {
	n.page.mu.RLock()
	defer n.page.mu.RUnlock()
	return strings.Fields(attr(n.n, "class"))
}

// HasClass reports whether the element currently carries name
func (n *Node) HasClass(name string) bool {
	return containsString(n.Classes(), name)
}

// ID returns the element id attribute
func (n *Node) ID() string {
	n.page.mu.RLock()
	defer n.page.mu.RUnlock()
	return attr(n.n, "id")
}
