package htmlrules

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"golang.org/x/net/html"
)

// Substitution renames elements From into elements To.
type Substitution struct {
	From string
	To   string
}

// RuleSet is the allow-list for one configuration: a global rule for
// attributes valid on every element, element rules by name or
// pattern, and element substitutions.
//
// A RuleSet is built once and then only read. It is safe for
// concurrent use by sanitizers as long as nobody adds or removes rules.
type RuleSet struct {
	global *ElementRule

	// string -> *ElementRule
	elementRules        *linkedhashmap.Map
	elementPatternRules *linkedhashmap.Map
	// string -> string
	substitutions *linkedhashmap.Map
}

// NewRuleSet returns an empty rule set. Nothing is allowed.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		global:              newGlobalRule(),
		elementRules:        linkedhashmap.New(),
		elementPatternRules: linkedhashmap.New(),
		substitutions:       linkedhashmap.New(),
	}
}

// GlobalRule returns the rule holding attributes valid on every element.
// Its element-level flags are never used.
func (s *RuleSet) GlobalRule() *ElementRule {
	return s.global
}

// ElementRules returns the literal rules followed by the pattern rules.
func (s *RuleSet) ElementRules() []*ElementRule {
	rules := make([]*ElementRule, 0, s.elementRules.Size()+s.elementPatternRules.Size())
	for _, m := range []*linkedhashmap.Map{s.elementRules, s.elementPatternRules} {
		it := m.Iterator()
		for it.Next() {
			rules = append(rules, it.Value().(*ElementRule))
		}
	}
	return rules
}

// ElementSubstitutionRules returns the substitutions in insertion order.
func (s *RuleSet) ElementSubstitutionRules() []Substitution {
	subs := make([]Substitution, 0, s.substitutions.Size())
	it := s.substitutions.Iterator()
	for it.Next() {
		subs = append(subs, Substitution{From: it.Key().(string), To: it.Value().(string)})
	}
	return subs
}

// AddElementRule adds rule, replacing any rule or substitution
// registered under the same name.
func (s *RuleSet) AddElementRule(rule *ElementRule) *RuleSet {
	rule.global = s.global
	name := rule.Name()
	if rule.NameIsPattern() {
		s.elementPatternRules.Put(name, rule)
	} else {
		s.elementRules.Put(name, rule)
	}
	s.substitutions.Remove(name)
	return s
}

// AddElementSubstitutionRule renames from elements into to elements.
// Both names must be concrete. Any rule registered for from is
// dropped.
func (s *RuleSet) AddElementSubstitutionRule(from, to string) error {
	if NameIsPattern(from) || NameIsPattern(to) {
		return configErrorf(from, "cannot add element substitutions using patterns")
	}
	s.substitutions.Put(from, to)
	s.elementRules.Remove(from)
	return nil
}

// RemoveElementRule removes every rule and substitution registered
// under name, which may be a pattern.
func (s *RuleSet) RemoveElementRule(name string) *RuleSet {
	if NameIsPattern(name) {
		s.elementPatternRules.Remove(PatternToRegex(name))
		return s
	}
	s.elementRules.Remove(name)
	s.substitutions.Remove(name)
	return s
}

// RuleForElement returns the rule applying to tag: a literal rule,
// then the rule of the substitution target (chains are followed), then
// the first matching pattern rule. It returns nil when tag is not
// allowed.
func (s *RuleSet) RuleForElement(tag string) *ElementRule {
	var seen map[string]struct{}
	for {
		if v, ok := s.elementRules.Get(tag); ok {
			return v.(*ElementRule)
		}
		to, ok := s.substitutions.Get(tag)
		if !ok {
			break
		}
		if seen == nil {
			seen = map[string]struct{}{}
		}
		if _, loop := seen[tag]; loop {
			return nil
		}
		seen[tag] = struct{}{}
		tag = to.(string)
	}

	it := s.elementPatternRules.Iterator()
	for it.Next() {
		if rule := it.Value().(*ElementRule); rule.Matches(tag) {
			return rule
		}
	}
	return nil
}

// IsElementAllowed reports whether n has a rule and satisfies it.
func (s *RuleSet) IsElementAllowed(n *html.Node) bool {
	rule := s.RuleForElement(n.Data)
	return rule != nil && rule.IsElementAllowed(n)
}
