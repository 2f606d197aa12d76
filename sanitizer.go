package htmlrules

import (
	"bytes"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// DefaultLinkRel is the rel value set on links with a target, to
// prevent reverse tabnabbing.
const DefaultLinkRel = "noopener noreferrer"

var nullLogger = slog.New(slog.DiscardHandler)

// Transformer receives an allowed element after all rules were applied
// and may mutate it in place. Returning nil removes the element and its
// content.
type Transformer func(n *html.Node) *html.Node

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithLinkRel sets the rel value added to links with a target. An empty
// value removes rel from those links instead.
func WithLinkRel(rel string) Option {
	return func(s *Sanitizer) {
		s.linkRel = rel
		s.linkRelEnabled = true
	}
}

// WithoutLinkRel disables link rel rewriting.
func WithoutLinkRel() Option {
	return func(s *Sanitizer) {
		s.linkRelEnabled = false
	}
}

// WithElementFilter replaces the default XSSFilter. A nil filter
// disables the check.
func WithElementFilter(f ElementFilter) Option {
	return func(s *Sanitizer) {
		s.filter = f
	}
}

// WithTransformers adds transformers, applied in order.
func WithTransformers(t ...Transformer) Option {
	return func(s *Sanitizer) {
		s.transformers = append(s.transformers, t...)
	}
}

// WithLogger sets the sanitizer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sanitizer) {
		s.logger = logger
	}
}

// Sanitizer removes from a document every element and attribute its
// RuleSet does not allow. It only reads the RuleSet and is safe for
// concurrent use.
type Sanitizer struct {
	rules          *RuleSet
	linkRel        string
	linkRelEnabled bool
	filter         ElementFilter
	transformers   []Transformer
	logger         *slog.Logger
}

// NewSanitizer returns a sanitizer for rules.
func NewSanitizer(rules *RuleSet, options ...Option) *Sanitizer {
	s := &Sanitizer{
		rules:          rules,
		linkRel:        DefaultLinkRel,
		linkRelEnabled: true,
		filter:         NewXSSFilter(),
		logger:         nullLogger,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// RuleSet returns the sanitizer's rules.
func (s *Sanitizer) RuleSet() *RuleSet {
	return s.rules
}

type sanitizeStats struct {
	removed, unwrapped, renamed int
}

// SanitizeNode sanitizes, in place, every element under the body of doc
// (or under doc itself when it has no body).
//
// Elements are collected first and visited in document order. Elements
// moved by an unwrap or a rename are still visited; elements deleted
// with a script or style are skipped. Once every element is visited, the
// kept elements are checked again from the last to the first, so that
// removeIfEmpty and padEmpty see their final children.
func (s *Sanitizer) SanitizeNode(doc *html.Node) {
	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var stats sanitizeStats
	var kept []keptElement
	for _, el := range dom.QuerySelectorAll(root, "*") {
		if el == root || !isAttached(el, root) {
			continue
		}
		if k, ok := s.sanitizeElement(el, &stats); ok {
			kept = append(kept, k)
		}
	}

	for _, k := range slices.Backward(kept) {
		if !isAttached(k.el, root) || k.el.FirstChild != nil {
			continue
		}
		if !k.rule.IsElementAllowed(k.el) {
			dropElement(k.el, &stats)
			continue
		}
		if k.rule.PadEmpty() && !isVoidElement(k.el.Data) {
			k.el.AppendChild(dom.CreateTextNode("\u00a0"))
		}
	}

	s.logger.Debug("document sanitized",
		slog.Int("removed", stats.removed),
		slog.Int("unwrapped", stats.unwrapped),
		slog.Int("renamed", stats.renamed),
	)
}

type keptElement struct {
	el   *html.Node
	rule *ElementRule
}

func (s *Sanitizer) sanitizeElement(el *html.Node, stats *sanitizeStats) (keptElement, bool) {
	rule := s.rules.RuleForElement(el.Data)
	if rule == nil || !rule.IsElementAllowed(el) {
		dropElement(el, stats)
		return keptElement{}, false
	}

	if rule.PadEmpty() && el.FirstChild == nil && !isVoidElement(el.Data) {
		el.AppendChild(dom.CreateTextNode("\u00a0"))
	}

	// Pattern rules cannot hold forced or default values.
	for _, ar := range rule.AttributeRules() {
		if ar.NameIsPattern() {
			continue
		}
		if v, ok := ar.DefaultValue(); ok && GetAttr(el, ar.Name()) == "" {
			SetAttr(el, ar.Name(), v)
		}
		if v, ok := ar.ForcedValue(); ok {
			SetAttr(el, ar.Name(), v)
		}
	}

	el.Attr = slices.DeleteFunc(el.Attr, func(a html.Attribute) bool {
		return !rule.IsAttributeAllowed(attrName(a), a.Val)
	})

	if !rule.NameIsPattern() && rule.Name() != el.Data {
		el = rename(el, rule.Name())
		stats.renamed++
	}

	if s.filter != nil {
		s.filter.FilterElement(el)
	}

	for _, t := range s.transformers {
		res := t(el)
		if res == nil {
			if el.Parent != nil {
				el.Parent.RemoveChild(el)
			}
			stats.removed++
			return keptElement{}, false
		}
		el = res
	}

	// Required attributes may be gone by now.
	if !rule.IsElementAllowed(el) {
		dropElement(el, stats)
		return keptElement{}, false
	}

	if el.Data == "a" && s.linkRelEnabled {
		s.addRelValue(el)
	}
	return keptElement{el: el, rule: rule}, true
}

// dropElement unwraps el, or deletes it with its content when it is a
// script or style.
func dropElement(el *html.Node, stats *sanitizeStats) {
	if el.Parent == nil {
		return
	}
	if el.Data == "script" || el.Data == "style" {
		el.Parent.RemoveChild(el)
		stats.removed++
		return
	}
	unwrap(el)
	stats.unwrapped++
}

// addRelValue sets rel on links opening a new window, and drops it
// again once the target is gone.
func (s *Sanitizer) addRelValue(el *html.Node) {
	target, rel := GetAttr(el, "target"), GetAttr(el, "rel")
	switch {
	case target != "" && rel != s.linkRel:
		if s.linkRel != "" {
			SetAttr(el, "rel", s.linkRel)
		} else {
			RemoveAttr(el, "rel")
		}
	case target == "" && rel == s.linkRel:
		RemoveAttr(el, "rel")
	}
}

// Sanitize parses htmlStr, applies s, and returns the sanitized body
// content. If s is nil, the active configuration of DefaultRegistry is
// used.
func Sanitize(htmlStr string, s *Sanitizer) (string, error) {
	return SanitizeReader(strings.NewReader(htmlStr), s)
}

// SanitizeReader reads HTML from r, applies s, and returns the
// sanitized body content.
func SanitizeReader(r io.Reader, s *Sanitizer) (string, error) {
	if s == nil {
		var err error
		if s, err = DefaultRegistry().Sanitizer(""); err != nil {
			return "", err
		}
	}

	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	s.SanitizeNode(doc)

	var buf bytes.Buffer
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// StripTags removes all HTML tags and returns plain text. Entity
// references are decoded.
func StripTags(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	if body := findBody(doc); body != nil {
		return dom.TextContent(body), nil
	}
	return dom.TextContent(doc), nil
}

// SetAttr sets (or adds) the attribute key=val on node n. It is
// intended for use inside Transformer functions.
func SetAttr(n *html.Node, key, val string) {
	dom.SetAttribute(n, key, val)
}

// GetAttr returns the value of the named attribute on n, or "" if not
// present.
func GetAttr(n *html.Node, key string) string {
	return dom.GetAttribute(n, key)
}

// HasAttr reports whether n has the named attribute, even empty.
func HasAttr(n *html.Node, key string) bool {
	return dom.HasAttribute(n, key)
}

// RemoveAttr removes the named attribute from n if present.
func RemoveAttr(n *html.Node, key string) {
	dom.RemoveAttribute(n, key)
}

// --- helpers ---------------------------------------------------------

// unwrap replaces el with its children.
func unwrap(el *html.Node) {
	parent := el.Parent
	for c := el.FirstChild; c != nil; c = el.FirstChild {
		el.RemoveChild(c)
		parent.InsertBefore(c, el)
	}
	parent.RemoveChild(el)
}

// rename replaces el with a new tag element holding its attributes and
// children, and returns the new element.
func rename(el *html.Node, tag string) *html.Node {
	repl := dom.CreateElement(tag)
	repl.Namespace = el.Namespace
	repl.Attr = el.Attr
	el.Attr = nil
	if isVoidElement(tag) {
		// Void elements cannot hold content, it goes after them.
		el.Parent.InsertBefore(repl, el)
		unwrap(el)
		return repl
	}
	for c := el.FirstChild; c != nil; c = el.FirstChild {
		el.RemoveChild(c)
		repl.AppendChild(c)
	}
	dom.ReplaceChild(el.Parent, repl, el)
	return repl
}

func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

// isAttached reports whether n is still a descendant of root.
func isAttached(n, root *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func findBody(doc *html.Node) *html.Node {
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "body" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r := find(c); r != nil {
				return r
			}
		}
		return nil
	}
	return find(doc)
}
