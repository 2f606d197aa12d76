package htmlrules

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// ElementFilter applies checks that do not depend on the rule set. The
// sanitizer calls it on every element the rule set allowed.
type ElementFilter interface {
	FilterElement(n *html.Node)
}

// ElementFilterFunc adapts a function to ElementFilter.
type ElementFilterFunc func(n *html.Node)

// FilterElement calls f(n).
func (f ElementFilterFunc) FilterElement(n *html.Node) {
	f(n)
}

var cssThreatRegexp = regexp.MustCompile(`expression\(|javascript:|vbscript:|behavior:|-moz-binding`)

// XSSFilter removes constructs no allow-list is expected to special
// case: URL attributes with a dangerous scheme, event handler
// attributes and scripted CSS.
type XSSFilter struct {
	// URLAttributes are the attributes holding a URL.
	URLAttributes []string
	// DeniedSchemes are the URL schemes removed from URLAttributes.
	DeniedSchemes []string
	// AllowDataImages keeps data:image/ URLs in img src.
	AllowDataImages bool
	// KeepEventHandlers disables the removal of on* attributes.
	KeepEventHandlers bool
}

// NewXSSFilter returns the default filter.
func NewXSSFilter() *XSSFilter {
	return &XSSFilter{
		URLAttributes: []string{
			"action", "background", "cite", "data", "dynsrc", "formaction",
			"href", "longdesc", "lowsrc", "poster", "src", "usemap", "xlink:href",
		},
		DeniedSchemes: []string{"javascript", "vbscript", "data"},
	}
}

// FilterElement strips dangerous attributes from n.
func (f *XSSFilter) FilterElement(n *html.Node) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		name := strings.ToLower(attrName(a))
		switch {
		case !f.KeepEventHandlers && strings.HasPrefix(name, "on"):
			return true
		case name == "style":
			return cssThreatRegexp.MatchString(normalizeURL(a.Val))
		case slices.Contains(f.URLAttributes, name):
			return !f.urlAllowed(n.Data, name, a.Val)
		}
		return false
	})
}

func (f *XSSFilter) urlAllowed(tag, attr, raw string) bool {
	v := normalizeURL(raw)
	scheme, ok := urlScheme(v)
	if !ok {
		// Relative URL
		return true
	}
	if f.AllowDataImages && scheme == "data" && tag == "img" && attr == "src" &&
		strings.HasPrefix(v, "data:image/") && !strings.HasPrefix(v, "data:image/svg") {
		return true
	}
	return !slices.Contains(f.DeniedSchemes, scheme)
}

// normalizeURL decodes entities and drops control characters and
// spaces, which browsers ignore inside a scheme, e.g. "java&#x09;script:".
func normalizeURL(raw string) string {
	decoded := html.UnescapeString(raw)
	decoded = strings.Map(func(r rune) rune {
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, decoded)
	return strings.ToLower(decoded)
}

// urlScheme returns the scheme of v, if it has one.
func urlScheme(v string) (string, bool) {
	i := strings.IndexByte(v, ':')
	if i <= 0 || strings.ContainsAny(v[:i], "/?#") {
		return "", false
	}
	return v[:i], true
}

// attrName returns the qualified name of a, e.g. "xlink:href".
func attrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}
