package htmlrules

import (
	"regexp"
	"strings"
)

var (
	hasPatternRegexp  = regexp.MustCompile(`[*?+]`)
	patternCharRegexp = regexp.MustCompile(`([?+*])`)
)

// NameIsPattern reports whether an element or attribute name uses the
// pattern grammar. Patterns may contain:
//   - `*` zero or more characters
//   - `?` zero or one character
//   - `+` one or more characters
func NameIsPattern(name string) bool {
	return hasPatternRegexp.MatchString(name)
}

// PatternToRegex turns a raw pattern into an anchored regular
// expression, e.g. "data-*" becomes "^data-.*$".
func PatternToRegex(pattern string) string {
	return "^" + patternCharRegexp.ReplaceAllString(pattern, ".$1") + "$"
}

// RegexToPattern is the inverse of PatternToRegex. It is only used to
// write a rule set back to its compact string form.
func RegexToPattern(regex string) string {
	return strings.ReplaceAll(strings.Trim(regex, "/^$"), ".", "")
}

// compileName returns the stored name and, for patterns, the compiled
// expression matching it.
func compileName(name, path string) (string, *regexp.Regexp, error) {
	if !NameIsPattern(name) {
		return name, nil, nil
	}
	expr := PatternToRegex(name)
	re, err := regexp.Compile(expr)
	if err != nil {
		return "", nil, configErrorf(path, "invalid name pattern %q: %s", name, err)
	}
	return expr, re, nil
}
