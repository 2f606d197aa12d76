package htmlrules

import (
	"regexp"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"golang.org/x/net/html"
)

// GlobalRuleName is the reserved name of the rule holding attributes
// that are valid on every element.
const GlobalRuleName = "_global"

// ElementOptions are the element-level flags of an ElementRule.
type ElementOptions struct {
	// PadEmpty adds a non-breaking space to elements without children.
	PadEmpty bool `yaml:"padEmpty"`
	// RemoveIfEmpty removes elements without children.
	RemoveIfEmpty bool `yaml:"removeIfEmpty"`
	// RemoveIfNoAttributes removes elements without attributes.
	RemoveIfNoAttributes bool `yaml:"removeIfNoAttributes"`
}

// ElementRule constrains one element name, or every element matching a
// pattern, and holds the attribute rules for it.
type ElementRule struct {
	name          string
	nameIsPattern bool
	re            *regexp.Regexp
	opts          ElementOptions

	// string -> *AttributeRule, insertion ordered
	attributeRules         *linkedhashmap.Map
	attributePatternRules  *linkedhashmap.Map
	requiredAttributeRules *linkedhashmap.Map

	// Not owned: set by RuleSet.AddElementRule.
	global *ElementRule
}

// NewElementRule returns an element rule for name, which may be a
// pattern.
func NewElementRule(name string, opts ElementOptions) (*ElementRule, error) {
	return newElementRule(name, opts, name)
}

func newElementRule(name string, opts ElementOptions, path string) (*ElementRule, error) {
	storedName, re, err := compileName(name, path)
	if err != nil {
		return nil, err
	}
	return &ElementRule{
		name:                   storedName,
		nameIsPattern:          re != nil,
		re:                     re,
		opts:                   opts,
		attributeRules:         linkedhashmap.New(),
		attributePatternRules:  linkedhashmap.New(),
		requiredAttributeRules: linkedhashmap.New(),
	}, nil
}

func newGlobalRule() *ElementRule {
	return &ElementRule{
		name:                   GlobalRuleName,
		attributeRules:         linkedhashmap.New(),
		attributePatternRules:  linkedhashmap.New(),
		requiredAttributeRules: linkedhashmap.New(),
	}
}

// Name returns the element name. For pattern rules this is the
// anchored regular expression.
func (r *ElementRule) Name() string {
	return r.name
}

// NameIsPattern reports whether Name is a regular expression.
func (r *ElementRule) NameIsPattern() bool {
	return r.nameIsPattern
}

// Matches reports whether the rule applies to tag.
func (r *ElementRule) Matches(tag string) bool {
	if r.nameIsPattern {
		return r.re.MatchString(tag)
	}
	return r.name == tag
}

// Options returns the element-level flags.
func (r *ElementRule) Options() ElementOptions {
	return r.opts
}

// PadEmpty reports whether empty elements get a non-breaking space.
func (r *ElementRule) PadEmpty() bool { return r.opts.PadEmpty }

// RemoveIfEmpty reports whether empty elements are removed.
func (r *ElementRule) RemoveIfEmpty() bool { return r.opts.RemoveIfEmpty }

// RemoveIfNoAttributes reports whether elements without attributes are removed.
func (r *ElementRule) RemoveIfNoAttributes() bool { return r.opts.RemoveIfNoAttributes }

// AddAttributeRule adds rule, replacing any rule with the same name.
func (r *ElementRule) AddAttributeRule(rule *AttributeRule) *ElementRule {
	if rule.IsRequired() {
		r.requiredAttributeRules.Put(rule.Name(), rule)
	} else {
		r.requiredAttributeRules.Remove(rule.Name())
	}
	if rule.NameIsPattern() {
		r.attributePatternRules.Put(rule.Name(), rule)
	} else {
		r.attributeRules.Put(rule.Name(), rule)
	}
	return r
}

// RemoveAttributeRule removes the rule for the attribute name or
// pattern.
func (r *ElementRule) RemoveAttributeRule(name string) *ElementRule {
	if NameIsPattern(name) {
		name = PatternToRegex(name)
	}
	r.attributePatternRules.Remove(name)
	r.attributeRules.Remove(name)
	r.requiredAttributeRules.Remove(name)
	return r
}

// AttributeRules returns the literal rules followed by the pattern
// rules, each in insertion order.
func (r *ElementRule) AttributeRules() []*AttributeRule {
	rules := attributeRuleValues(r.attributeRules)
	return append(rules, attributeRuleValues(r.attributePatternRules)...)
}

// RequiredAttributeRules returns the rules flagged as required.
func (r *ElementRule) RequiredAttributeRules() []*AttributeRule {
	return attributeRuleValues(r.requiredAttributeRules)
}

// RuleForAttribute returns the rule applying to the attribute name:
// an exact match, then the first matching pattern, then the global
// rule. It returns nil when the attribute is not allowed at all.
func (r *ElementRule) RuleForAttribute(name string) *AttributeRule {
	if v, ok := r.attributeRules.Get(name); ok {
		return v.(*AttributeRule)
	}
	it := r.attributePatternRules.Iterator()
	for it.Next() {
		if rule := it.Value().(*AttributeRule); rule.Matches(name) {
			return rule
		}
	}
	if r.global != nil {
		return r.global.RuleForAttribute(name)
	}
	return nil
}

// IsAttributeAllowed reports whether the attribute may stay on
// elements covered by this rule.
func (r *ElementRule) IsAttributeAllowed(name, value string) bool {
	rule := r.RuleForAttribute(name)
	return rule != nil && rule.IsAttributeAllowed(value)
}

// IsElementAllowed checks n against the element-level constraints. It
// assumes the rule applies to n and does not look at its tag name.
func (r *ElementRule) IsElementAllowed(n *html.Node) bool {
	// One required attribute is enough. Forced or default values count
	// as present since the sanitizer will set them.
	if !r.requiredAttributeRules.Empty() {
		hasMatch := false
		it := r.requiredAttributeRules.Iterator()
		for it.Next() {
			rule := it.Value().(*AttributeRule)
			if rule.HasForcedOrDefaultValue() || hasMatchingAttr(n, rule) {
				hasMatch = true
				break
			}
		}
		if !hasMatch {
			return false
		}
	}

	if r.opts.RemoveIfNoAttributes && len(n.Attr) == 0 && !r.hasDefaultAttributeValues() {
		return false
	}

	if r.opts.RemoveIfEmpty && n.FirstChild == nil {
		return false
	}

	return true
}

// hasDefaultAttributeValues reports whether any attribute rule supplies
// a forced or default value, applied or not.
func (r *ElementRule) hasDefaultAttributeValues() bool {
	for _, rule := range r.AttributeRules() {
		if rule.HasForcedOrDefaultValue() {
			return true
		}
	}
	return false
}

func hasMatchingAttr(n *html.Node, rule *AttributeRule) bool {
	for _, a := range n.Attr {
		if rule.Matches(attrName(a)) {
			return true
		}
	}
	return false
}

func attributeRuleValues(m *linkedhashmap.Map) []*AttributeRule {
	rules := make([]*AttributeRule, 0, m.Size())
	it := m.Iterator()
	for it.Next() {
		rules = append(rules, it.Value().(*AttributeRule))
	}
	return rules
}
