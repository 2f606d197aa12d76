// Package htmlrules provides a rule-based HTML allow-list sanitizer
// for Go applications.
//
// # Overview
//
// htmlrules parses HTML with the golang.org/x/net/html parser and
// mutates the resulting tree in place. Every element and attribute must
// be explicitly allowed by a [RuleSet]; anything else is removed.
//
// # Rules
//
// A [RuleSet] holds:
//   - a global rule listing attributes valid on every element
//     ([RuleSet.GlobalRule])
//   - element rules by name or pattern ([ElementRule]), each with its own
//     attribute rules ([AttributeRule])
//   - element substitutions, e.g. <b> becomes <strong>
//
// Names may be patterns: `*` matches any run of characters, `?` zero or
// one character and `+` one or more characters. Lookups try the literal
// rules first, then substitutions, then patterns in insertion order.
//
// Rule sets are built from a declarative configuration ([Rules], usually
// decoded from YAML) with [BuildRuleSet], or from a TinyMCE style
// valid_elements string with [CompactRuleSet].
//
// # Sanitizing
//
// A [Sanitizer] walks every element under <body>:
//   - disallowed <script> and <style> elements are deleted with their content
//   - other disallowed elements are unwrapped, their content is kept
//   - allowed elements get their default and forced attribute values, lose
//     disallowed attributes and are renamed when they were substituted
//   - an [ElementFilter] (by default [XSSFilter]) then removes dangerous URL
//     schemes and event handlers
//   - links with a target get a rel value preventing reverse tabnabbing
//
// # Configurations
//
// A [Registry] maps configuration identifiers to rule sets. Rule sets are
// built on first use and cached. [DefaultRegistry] holds the built-in
// configurations: default, cms, comments and tinymce.
//
// # Thread Safety
//
// A built RuleSet is read-only and may be shared. Sanitizer and Registry
// are safe for concurrent use.
//
// # Example
//
//	rs, err := htmlrules.BuildRuleSet(htmlrules.Rules{
//		{Name: "p", Definition: htmlrules.Allow()},
//		{Name: "a", Definition: htmlrules.AllowWith(htmlrules.ElementOptions{},
//			htmlrules.RequiredAttr("href"), htmlrules.Attr("target"))},
//	})
//	clean, err := htmlrules.Sanitize(userInput, htmlrules.NewSanitizer(rs))
package htmlrules
