package htmlrules_test

import (
	"testing"

	"github.com/go-shiori/dom"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/njchilds90/htmlrules"
)

func TestXSSFilter(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{`<a href="javascript:alert(1)" title="x">l</a>`, `<a title="x">l</a>`},
		{`<a href="&#106;avascript:alert(1)">l</a>`, `<a>l</a>`},
		{`<a href="vbscript:msgbox(1)">l</a>`, `<a>l</a>`},
		{`<a href="mailto:me@example.net">l</a>`, `<a href="mailto:me@example.net">l</a>`},
		{`<a href="#top">l</a>`, `<a href="#top">l</a>`},
		{`<img src="data:image/png;base64,AAAA">`, `<img/>`},
		{`<img src="/a.png" onerror="alert(1)">`, `<img src="/a.png"/>`},
		{`<blockquote cite="javascript:x">q</blockquote>`, `<blockquote>q</blockquote>`},
		{`<p style="background: url(javascript:alert(1))">t</p>`, `<p>t</p>`},
		{`<p style="-moz-binding: url(x)">t</p>`, `<p>t</p>`},
		{`<p data-href="javascript:alert(1)">t</p>`, `<p data-href="javascript:alert(1)">t</p>`},
	}

	f := htmlrules.NewXSSFilter()
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			n := parseElement(t, test.src)
			f.FilterElement(n)
			require.Equal(t, test.expected, dom.OuterHTML(n))
		})
	}
}

func TestXSSFilterOptions(t *testing.T) {
	t.Run("data images", func(t *testing.T) {
		assert := require.New(t)
		f := htmlrules.NewXSSFilter()
		f.AllowDataImages = true

		n := parseElement(t, `<img src="data:image/png;base64,AAAA">`)
		f.FilterElement(n)
		assert.Equal(`<img src="data:image/png;base64,AAAA"/>`, dom.OuterHTML(n))

		n = parseElement(t, `<img src="data:image/svg+xml;base64,AAAA">`)
		f.FilterElement(n)
		assert.Equal(`<img/>`, dom.OuterHTML(n))

		n = parseElement(t, `<a href="data:image/png;base64,AAAA">l</a>`)
		f.FilterElement(n)
		assert.Equal(`<a>l</a>`, dom.OuterHTML(n))
	})

	t.Run("event handlers", func(t *testing.T) {
		f := htmlrules.NewXSSFilter()
		f.KeepEventHandlers = true
		n := parseElement(t, `<p onclick="x()">t</p>`)
		f.FilterElement(n)
		require.Equal(t, `<p onclick="x()">t</p>`, dom.OuterHTML(n))
	})
}

func TestElementFilterFunc(t *testing.T) {
	assert := require.New(t)
	rs := mustRules(t, "p:\n  attributes:\n    class: true\n")

	var seen []string
	s := htmlrules.NewSanitizer(rs, htmlrules.WithElementFilter(
		htmlrules.ElementFilterFunc(func(n *html.Node) {
			seen = append(seen, n.Data)
			htmlrules.RemoveAttr(n, "class")
		}),
	))

	got, err := htmlrules.Sanitize(`<p class="a">x</p><div><p class="b">y</p></div>`, s)
	assert.NoError(err)
	assert.Equal(`<p>x</p><p>y</p>`, got)
	assert.Equal([]string{"p", "p"}, seen)
}
