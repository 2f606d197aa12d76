package htmlrules_test

import (
	"strings"
	"testing"

	"github.com/go-shiori/dom"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/njchilds90/htmlrules"
)

// parseElement returns the first element of the body of src.
func parseElement(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	n := dom.QuerySelector(doc, "body > *")
	require.NotNil(t, n, src)
	return n
}

func attrRule(t *testing.T, name string, value htmlrules.Value, valueType htmlrules.ValueType) *htmlrules.AttributeRule {
	t.Helper()
	rule, err := htmlrules.NewAttributeRule(name, value, valueType)
	require.NoError(t, err)
	return rule
}

func elementRule(t *testing.T, name string, opts htmlrules.ElementOptions) *htmlrules.ElementRule {
	t.Helper()
	rule, err := htmlrules.NewElementRule(name, opts)
	require.NoError(t, err)
	return rule
}

func TestElementRuleRequiredAttributes(t *testing.T) {
	rule := elementRule(t, "a", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "href", htmlrules.NoValue(), "").SetRequired(true))
	rule.AddAttributeRule(attrRule(t, "name", htmlrules.NoValue(), ""))

	tests := []struct {
		src      string
		expected bool
	}{
		{`<a href="/x">x</a>`, true},
		{`<a href="">x</a>`, true},
		{`<a>x</a>`, false},
		{`<a name="top">x</a>`, false},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			require.Equal(t, test.expected, rule.IsElementAllowed(parseElement(t, test.src)))
		})
	}
}

func TestElementRuleRequiredWithDefault(t *testing.T) {
	assert := require.New(t)
	rule := elementRule(t, "img", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "src", htmlrules.Scalar("blank.gif"), htmlrules.ValueDefault).SetRequired(true))

	assert.True(rule.IsElementAllowed(parseElement(t, `<img>`)))
	assert.Len(rule.RequiredAttributeRules(), 1)
}

func TestElementRuleRequiredPattern(t *testing.T) {
	assert := require.New(t)
	rule := elementRule(t, "div", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "data-*", htmlrules.NoValue(), "").SetRequired(true))

	assert.True(rule.IsElementAllowed(parseElement(t, `<div data-id="1">x</div>`)))
	assert.False(rule.IsElementAllowed(parseElement(t, `<div id="1">x</div>`)))
}

func TestElementRuleRequiredNamespaced(t *testing.T) {
	assert := require.New(t)
	n := &html.Node{
		Type: html.ElementNode,
		Data: "use",
		Attr: []html.Attribute{{Namespace: "xlink", Key: "href", Val: "#icon"}},
	}

	rule := elementRule(t, "use", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "xlink:href", htmlrules.NoValue(), "").SetRequired(true))
	assert.True(rule.IsElementAllowed(n))
	assert.True(rule.IsAttributeAllowed("xlink:href", "#icon"))

	rule = elementRule(t, "use", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "href", htmlrules.NoValue(), "").SetRequired(true))
	assert.False(rule.IsElementAllowed(n))
}

func TestElementRuleOptions(t *testing.T) {
	t.Run("removeIfNoAttributes", func(t *testing.T) {
		assert := require.New(t)
		rule := elementRule(t, "span", htmlrules.ElementOptions{RemoveIfNoAttributes: true})
		assert.True(rule.RemoveIfNoAttributes())
		assert.False(rule.IsElementAllowed(parseElement(t, `<span>x</span>`)))
		assert.True(rule.IsElementAllowed(parseElement(t, `<span class="a">x</span>`)))
	})

	t.Run("removeIfNoAttributes with default value", func(t *testing.T) {
		assert := require.New(t)
		rule := elementRule(t, "span", htmlrules.ElementOptions{RemoveIfNoAttributes: true})
		rule.AddAttributeRule(attrRule(t, "class", htmlrules.Scalar("note"), htmlrules.ValueDefault))
		assert.True(rule.IsElementAllowed(parseElement(t, `<span>x</span>`)))
	})

	t.Run("removeIfEmpty", func(t *testing.T) {
		assert := require.New(t)
		rule := elementRule(t, "span", htmlrules.ElementOptions{RemoveIfEmpty: true})
		assert.False(rule.IsElementAllowed(parseElement(t, `<span></span>`)))
		assert.True(rule.IsElementAllowed(parseElement(t, `<span> </span>`)))
	})

	t.Run("padEmpty", func(t *testing.T) {
		assert := require.New(t)
		rule := elementRule(t, "p", htmlrules.ElementOptions{PadEmpty: true})
		assert.True(rule.PadEmpty())
		assert.True(rule.IsElementAllowed(parseElement(t, `<p></p>`)))
		assert.Equal(htmlrules.ElementOptions{PadEmpty: true}, rule.Options())
	})
}

func TestElementRuleAttributes(t *testing.T) {
	assert := require.New(t)

	rs := htmlrules.NewRuleSet()
	rs.GlobalRule().AddAttributeRule(attrRule(t, "id", htmlrules.NoValue(), ""))

	rule := elementRule(t, "div", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "data-*", htmlrules.NoValue(), ""))
	rule.AddAttributeRule(attrRule(t, "align", htmlrules.List("left", "right"), htmlrules.ValueValid))

	// Before being added to a rule set, the global rule is unknown.
	assert.Nil(rule.RuleForAttribute("id"))
	rs.AddElementRule(rule)

	assert.Equal("align", rule.RuleForAttribute("align").Name())
	assert.Equal("^data-.*$", rule.RuleForAttribute("data-id").Name())
	assert.Equal("id", rule.RuleForAttribute("id").Name())
	assert.Nil(rule.RuleForAttribute("style"))

	assert.True(rule.IsAttributeAllowed("align", "left"))
	assert.False(rule.IsAttributeAllowed("align", "center"))
	assert.True(rule.IsAttributeAllowed("data-x", "anything"))
	assert.False(rule.IsAttributeAllowed("style", "color: red"))

	names := []string{}
	for _, r := range rule.AttributeRules() {
		names = append(names, r.Name())
	}
	assert.Equal([]string{"align", "^data-.*$"}, names)

	rule.RemoveAttributeRule("data-*")
	assert.Nil(rule.RuleForAttribute("data-id"))
	rule.RemoveAttributeRule("align")
	assert.Empty(rule.AttributeRules())
}

func TestElementRuleReplaceRequired(t *testing.T) {
	assert := require.New(t)
	rule := elementRule(t, "a", htmlrules.ElementOptions{})
	rule.AddAttributeRule(attrRule(t, "href", htmlrules.NoValue(), "").SetRequired(true))
	assert.Len(rule.RequiredAttributeRules(), 1)

	rule.AddAttributeRule(attrRule(t, "href", htmlrules.NoValue(), ""))
	assert.Empty(rule.RequiredAttributeRules())
	assert.True(rule.IsElementAllowed(parseElement(t, `<a>x</a>`)))
}

func TestElementRulePatternName(t *testing.T) {
	assert := require.New(t)
	rule := elementRule(t, "h?", htmlrules.ElementOptions{})
	assert.True(rule.NameIsPattern())
	assert.Equal("^h.?$", rule.Name())
	assert.True(rule.Matches("h1"))
	assert.False(rule.Matches("header"))
}
