package htmlrules

import (
	"regexp"
	"strings"
)

// The compact grammar is the TinyMCE valid_elements syntax:
//
//	@[id|class],#p,-strong/b[class],a![!href|target<_blank?_self|rel~nofollow],img[alt=]
//
// Element prefixes: `#` pad empty, `-` remove if empty. A `!` after
// the name removes elements without attributes, `/alias` renames alias
// into the element and `@` is the global rule. Attribute prefixes: `!`
// required, `-` remove an inherited rule. Attribute values: `=default`,
// `~forced`, `<a?b` allowed values. `xml::lang` stands for `xml:lang`.
var (
	compactElementRegexp  = regexp.MustCompile(`^([#+\-])?([^\[!/]+)(?:/([^\[!]+))?(!)?(?:\[([^\]]*)\])?$`)
	compactAttrRegexp     = regexp.MustCompile(`^([!\-])?(\w+[\\:]:\w+|[^=~<]+)?(?:([=~<])(.*))?$`)
	compactAttrNameRegexp = regexp.MustCompile(`[\\:]:`)
)

// ParseCompact adds the rules of a compact rule string to rs. Rules are
// added in order and replace earlier rules with the same name.
func ParseCompact(validElements string, rs *RuleSet) error {
	global := rs.GlobalRule()

	for _, token := range strings.Split(validElements, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		m := compactElementRegexp.FindStringSubmatch(token)
		if m == nil {
			return configErrorf(token, "malformed element rule")
		}
		prefix, name, noAttrs, attrData := m[1], strings.TrimSpace(m[2]), m[4], m[5]
		// TinyMCE writes "-strong/-b": the alias prefix means nothing here.
		alias := strings.TrimLeft(strings.TrimSpace(m[3]), "#+-")

		rule := global
		if name != "@" {
			var err error
			rule, err = newElementRule(name, ElementOptions{
				PadEmpty:             prefix == "#",
				RemoveIfEmpty:        prefix == "-",
				RemoveIfNoAttributes: noAttrs == "!",
			}, token)
			if err != nil {
				return err
			}
		}

		if attrData != "" {
			if err := parseCompactAttributes(attrData, rule, token); err != nil {
				return err
			}
		}

		if rule == global {
			continue
		}
		rs.AddElementRule(rule)
		if alias != "" {
			if err := rs.AddElementSubstitutionRule(alias, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseCompactAttributes(attrData string, rule *ElementRule, path string) error {
	for _, attr := range strings.Split(attrData, "|") {
		m := compactAttrRegexp.FindStringSubmatch(strings.TrimSpace(attr))
		if m == nil || m[2] == "" {
			continue
		}
		attrType, name, op, raw := m[1], compactAttrNameRegexp.ReplaceAllString(m[2], ":"), m[3], m[4]

		if attrType == "-" {
			rule.RemoveAttributeRule(name)
			continue
		}

		value, valueType := NoValue(), ValueValid
		switch op {
		case "=":
			value, valueType = Scalar(raw), ValueDefault
		case "~":
			value, valueType = Scalar(raw), ValueForced
		case "<":
			value = List(strings.Split(raw, "?")...)
		}

		ar, err := newAttributeRule(name, value, valueType, joinPath(path, name))
		if err != nil {
			return err
		}
		rule.AddAttributeRule(ar.SetRequired(attrType == "!"))
	}
	return nil
}

// CompactRuleSet builds a rule set from compact rule strings, e.g. a
// valid_elements string followed by an extended_valid_elements one.
func CompactRuleSet(validElements ...string) (*RuleSet, error) {
	rs := NewRuleSet()
	for _, s := range validElements {
		if err := ParseCompact(s, rs); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// String returns the rule set in the compact grammar. Parsing the
// result with CompactRuleSet gives an equivalent rule set.
//
// Substitution chains are written as a direct alias of the final rule.
// Substitutions resolving to a pattern rule, or to nothing, cannot be
// expressed and are left out.
func (s *RuleSet) String() string {
	aliases := map[string][]string{}
	for _, sub := range s.ElementSubstitutionRules() {
		if rule := s.RuleForElement(sub.From); rule != nil && !rule.NameIsPattern() {
			aliases[rule.Name()] = append(aliases[rule.Name()], sub.From)
		}
	}

	var parts []string
	if attrs := s.global.AttributeRules(); len(attrs) > 0 {
		parts = append(parts, "@"+compactAttributes(attrs))
	}
	for _, rule := range s.ElementRules() {
		var prefix string
		switch {
		case rule.PadEmpty():
			prefix = "#"
		case rule.RemoveIfEmpty():
			prefix = "-"
		}
		var suffix string
		if rule.RemoveIfNoAttributes() {
			suffix = "!"
		}
		suffix += compactAttributes(rule.AttributeRules())
		name := compactName(rule.Name(), rule.NameIsPattern())

		// One token per alias. Repeating a rule replaces it in place.
		names := aliases[rule.Name()]
		if len(names) == 0 {
			parts = append(parts, prefix+name+suffix)
			continue
		}
		for _, alias := range names {
			parts = append(parts, prefix+name+"/"+alias+suffix)
		}
	}
	return strings.Join(parts, ",")
}

func compactName(name string, isPattern bool) string {
	if isPattern {
		return RegexToPattern(name)
	}
	return name
}

func compactAttributes(rules []*AttributeRule) string {
	if len(rules) == 0 {
		return ""
	}
	attrs := make([]string, 0, len(rules))
	for _, r := range rules {
		var b strings.Builder
		if r.IsRequired() {
			b.WriteByte('!')
		}
		b.WriteString(compactName(r.Name(), r.NameIsPattern()))
		if v, ok := r.DefaultValue(); ok {
			b.WriteString("=" + v)
		} else if v, ok := r.ForcedValue(); ok {
			b.WriteString("~" + v)
		} else if valid := r.ValidValues(); len(valid) > 0 {
			b.WriteString("<" + strings.Join(valid, "?"))
		}
		attrs = append(attrs, b.String())
	}
	return "[" + strings.Join(attrs, "|") + "]"
}
