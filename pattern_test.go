package htmlrules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/njchilds90/htmlrules"
)

func TestPattern(t *testing.T) {
	tests := []struct {
		pattern string
		regex   string
		match   []string
		noMatch []string
	}{
		{"data-*", "^data-.*$", []string{"data-", "data-id", "data-a-b"}, []string{"data", "xdata-id"}},
		{"data-+", "^data-.+$", []string{"data-x", "data-xyz"}, []string{"data-"}},
		{"h?", "^h.?$", []string{"h", "h1"}, []string{"h12", "hr1"}},
		{"*", "^.*$", []string{"", "anything"}, nil},
	}

	for _, test := range tests {
		t.Run(test.pattern, func(t *testing.T) {
			assert := require.New(t)
			assert.True(htmlrules.NameIsPattern(test.pattern))
			assert.Equal(test.regex, htmlrules.PatternToRegex(test.pattern))
			assert.Equal(test.pattern, htmlrules.RegexToPattern(test.regex))

			rule, err := htmlrules.NewAttributeRule(test.pattern, htmlrules.NoValue(), htmlrules.ValueValid)
			assert.NoError(err)
			assert.True(rule.NameIsPattern())
			assert.Equal(test.regex, rule.Name())
			for _, name := range test.match {
				assert.True(rule.Matches(name), name)
			}
			for _, name := range test.noMatch {
				assert.False(rule.Matches(name), name)
			}
		})
	}
}

func TestNameIsPattern(t *testing.T) {
	assert := require.New(t)
	assert.False(htmlrules.NameIsPattern("div"))
	assert.False(htmlrules.NameIsPattern("xml:lang"))
	assert.False(htmlrules.NameIsPattern("aria-label"))
	assert.True(htmlrules.NameIsPattern("aria-*"))
}
