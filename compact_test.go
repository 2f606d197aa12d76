package htmlrules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/njchilds90/htmlrules"
)

func TestParseCompact(t *testing.T) {
	assert := require.New(t)
	rs, err := htmlrules.CompactRuleSet(
		"@[id|class|xml::lang],#p,-strong/-b[class],a![!href|target<_blank?_self|rel~nofollow],img[alt=|src|data*]",
	)
	assert.NoError(err)

	global := rs.GlobalRule()
	assert.NotNil(global.RuleForAttribute("id"))
	assert.NotNil(global.RuleForAttribute("xml:lang"))

	p := rs.RuleForElement("p")
	assert.True(p.PadEmpty())
	assert.Empty(p.AttributeRules())

	strong := rs.RuleForElement("b")
	assert.Equal("strong", strong.Name())
	assert.True(strong.RemoveIfEmpty())
	assert.NotNil(strong.RuleForAttribute("class"))

	a := rs.RuleForElement("a")
	assert.True(a.RemoveIfNoAttributes())
	assert.Len(a.RequiredAttributeRules(), 1)
	assert.Equal("href", a.RequiredAttributeRules()[0].Name())
	assert.Equal([]string{"_blank", "_self"}, a.RuleForAttribute("target").ValidValues())
	v, ok := a.RuleForAttribute("rel").ForcedValue()
	assert.True(ok)
	assert.Equal("nofollow", v)

	img := rs.RuleForElement("img")
	v, ok = img.RuleForAttribute("alt").DefaultValue()
	assert.True(ok)
	assert.Equal("", v)
	assert.True(img.RuleForAttribute("data-src").NameIsPattern())
}

func TestParseCompactOverride(t *testing.T) {
	assert := require.New(t)
	rs, err := htmlrules.CompactRuleSet(
		"img[src|alt|title]",
		"img[class|src],@[id]",
	)
	assert.NoError(err)

	img := rs.RuleForElement("img")
	assert.Nil(img.RuleForAttribute("title"))
	assert.NotNil(img.RuleForAttribute("class"))
	assert.NotNil(img.RuleForAttribute("id"))

	rs = htmlrules.NewRuleSet()
	assert.NoError(htmlrules.ParseCompact("a[href|target|-target]", rs))
	assert.Nil(rs.RuleForElement("a").RuleForAttribute("target"))
}

func TestParseCompactErrors(t *testing.T) {
	tests := []string{
		"a[href",
		"p/h*",
		"img[data*=x]",
		"a[target~_blank]b",
	}
	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			_, err := htmlrules.CompactRuleSet(test)
			require.ErrorIs(t, err, htmlrules.ErrInvalidConfig)
		})
	}
}

func TestRuleSetString(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			"simple",
			"@[id|class],#p,-strong/b[class],a![!href|target<_blank?_self|rel~nofollow],img[alt=|src]",
			"@[id|class],#p,-strong/b[class],a![!href|target<_blank?_self|rel~nofollow],img[alt=|src]",
		},
		{
			"aliases",
			"em/i,strong/b,strong/x[class],h?[data*]",
			"em/i,strong/b[class],strong/x[class],h?[data*]",
		},
		{
			"blanks",
			" p , br ,,",
			"p,br",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := require.New(t)
			rs, err := htmlrules.CompactRuleSet(test.src)
			assert.NoError(err)
			assert.Equal(test.expected, rs.String())

			again, err := htmlrules.CompactRuleSet(rs.String())
			assert.NoError(err)
			assert.Equal(test.expected, again.String())
		})
	}
}

func TestRuleSetStringChain(t *testing.T) {
	assert := require.New(t)
	rs := htmlrules.NewRuleSet()
	rs.AddElementRule(elementRule(t, "c", htmlrules.ElementOptions{}))
	assert.NoError(rs.AddElementSubstitutionRule("b", "c"))
	assert.NoError(rs.AddElementSubstitutionRule("a", "b"))
	assert.NoError(rs.AddElementSubstitutionRule("x", "y"))

	assert.Equal("c/b,c/a", rs.String())
}

func TestTinyMCERules(t *testing.T) {
	assert := require.New(t)
	cfg, err := htmlrules.DefaultRegistry().Get("tinymce")
	assert.NoError(err)

	rs := cfg.RuleSet
	assert.Equal("strong", rs.RuleForElement("b").Name())
	assert.Equal("em", rs.RuleForElement("i").Name())
	assert.True(rs.RuleForElement("p").PadEmpty())
	assert.True(rs.RuleForElement("table").RemoveIfEmpty())
	assert.NotNil(rs.RuleForElement("iframe"))

	// extended_valid_elements replaces the img rule
	img := rs.RuleForElement("img")
	assert.NotNil(img.RuleForAttribute("hspace"))
	assert.Nil(img.RuleForAttribute("border"))
	assert.NotNil(img.RuleForAttribute("style"))
}
