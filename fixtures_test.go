package htmlrules_test

import (
	"os"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/htmlrules"
)

func TestSanitizeFixtures(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"article", "default"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := require.New(t)

			f, err := os.Open("testdata/" + test.name + ".html")
			assert.NoError(err)
			defer f.Close() //nolint:errcheck

			expectedBytes, err := os.ReadFile("testdata/" + test.name + ".expected.html")
			assert.NoError(err)

			s, err := htmlrules.DefaultRegistry().Sanitizer(test.config)
			assert.NoError(err)
			got, err := htmlrules.SanitizeReader(f, s)
			assert.NoError(err)

			expected := strings.TrimSpace(string(expectedBytes))
			got = strings.TrimSpace(got)
			if expected != got {
				diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(expected),
					B:        difflib.SplitLines(got),
					FromFile: "Expected",
					ToFile:   "Actual",
					Context:  2,
				})
				t.Error("Expected and actual HTML does not match:\n" + diff)
			}
		})
	}
}
