package sandbox

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DOM provides the lightweight document proxy handed to code running
// under the embedded-document strategy. It is built per execution from
// the test case's HTML fixture and records every mutation so the
// validator can compare the resulting tree state.
type DOM struct {
	root    *Element
	changes []Change
	mu      sync.RWMutex
}

// Element is one node of the document proxy
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
	Children    []*Element
	Parent      *Element

	dom *DOM
}

// Change records one mutation performed by sandboxed code
type Change struct {
	Type     string      `json:"type"`
	Selector string      `json:"selector"`
	Property string      `json:"property,omitempty"`
	Value    interface{} `json:"value"`
}

// NewDOM creates an empty document proxy
func NewDOM() *DOM {
	d := &DOM{}
	d.root = &Element{
		TagName:    "document",
		Attributes: make(map[string]string),
		dom:        d,
	}
	return d
}

// DOMFromHTML builds a document proxy from an HTML fixture
func DOMFromHTML(markup string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	d := NewDOM()
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		d.root.AddElement(d.buildElement(s))
	})
	return d, nil
}

func (d *DOM) buildElement(s *goquery.Selection) *Element {
	el := &Element{
		TagName:    goquery.NodeName(s),
		ID:         s.AttrOr("id", ""),
		ClassName:  s.AttrOr("class", ""),
		Attributes: make(map[string]string),
		dom:        d,
	}
	if len(s.Nodes) > 0 {
		for _, attr := range s.Nodes[0].Attr {
			el.Attributes[attr.Key] = attr.Val
		}
	}

	kids := s.Children()
	if kids.Length() == 0 {
		el.TextContent = strings.TrimSpace(s.Text())
	}
	kids.Each(func(_ int, c *goquery.Selection) {
		el.AddElement(d.buildElement(c))
	})
	return el
}

// Query finds elements by a simplified selector: #id, .class or tag
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch {
	case strings.HasPrefix(selector, "#"):
		if elem := findByID(d.root, strings.TrimPrefix(selector, "#")); elem != nil {
			return []*Element{elem}
		}
		return nil
	case strings.HasPrefix(selector, "."):
		return findByClass(d.root, strings.TrimPrefix(selector, "."))
	default:
		return findByTag(d.root, selector)
	}
}

// Changes returns accumulated mutations
func (d *DOM) Changes() []Change {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Change{}, d.changes...)
}

func (d *DOM) recordChange(c Change) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, c)
}

// selector returns the best available selector for change records
func (e *Element) selector() string {
	if e.ID != "" {
		return "#" + e.ID
	}
	if e.ClassName != "" {
		return "." + strings.Fields(e.ClassName)[0]
	}
	return e.TagName
}

// GetAttribute retrieves an attribute value
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[name]
}

// SetAttribute sets an attribute and records the mutation
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[name] = value
	switch name {
	case "id":
		e.ID = value
	case "class":
		e.ClassName = value
	}
	if e.dom != nil {
		e.dom.recordChange(Change{
			Type:     "set_attribute",
			Selector: e.selector(),
			Property: name,
			Value:    value,
		})
	}
}

// SetText replaces the element's text content and records the mutation
func (e *Element) SetText(text string) {
	e.TextContent = text
	if e.dom != nil {
		e.dom.recordChange(Change{
			Type:     "set_text",
			Selector: e.selector(),
			Value:    text,
		})
	}
}

// AddElement adds a child element
func (e *Element) AddElement(child *Element) {
	child.Parent = e
	child.dom = e.dom
	e.Children = append(e.Children, child)
}

func findByID(elem *Element, id string) *Element {
	if elem.ID == id {
		return elem
	}
	for _, child := range elem.Children {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func findByClass(elem *Element, class string) []*Element {
	var result []*Element
	for _, c := range strings.Fields(elem.ClassName) {
		if c == class {
			result = append(result, elem)
			break
		}
	}
	for _, child := range elem.Children {
		result = append(result, findByClass(child, class)...)
	}
	return result
}

func findByTag(elem *Element, tag string) []*Element {
	var result []*Element
	if strings.EqualFold(elem.TagName, tag) && elem.TagName != "document" {
		result = append(result, elem)
	}
	for _, child := range elem.Children {
		result = append(result, findByTag(child, tag)...)
	}
	return result
}
