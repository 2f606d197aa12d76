package htmlrules

import (
	"slices"
)

// BuildRuleSet compiles a declarative configuration into a RuleSet.
//
// The _global entry is applied first and may only declare attributes.
// Substitutions are registered next, and only when their target is
// itself allowed, so that later concrete rules cannot clobber them.
// Every other allowed entry then becomes an ElementRule. Any error
// aborts the build.
func BuildRuleSet(rules Rules) (*RuleSet, error) {
	rs := NewRuleSet()
	if len(rules) == 0 {
		return rs, nil
	}
	rules = Merge(nil, rules)

	if def, ok := rules.Get(GlobalRuleName); ok {
		if err := applyGlobalDefinition(rs, def); err != nil {
			return nil, err
		}
	}

	for _, e := range rules {
		if e.Name == GlobalRuleName || e.Definition.Kind != RuleSubstituted || e.Definition.ConvertTo == "" {
			continue
		}
		target, ok := rules.Get(e.Definition.ConvertTo)
		if !ok || target.Kind == RuleDisallowed || e.Definition.ConvertTo == GlobalRuleName {
			continue
		}
		if err := rs.AddElementSubstitutionRule(e.Name, e.Definition.ConvertTo); err != nil {
			return nil, err
		}
	}

	for _, e := range rules {
		if e.Name == GlobalRuleName {
			continue
		}
		switch e.Definition.Kind {
		case RuleDisallowed, RuleSubstituted:
			continue
		}
		rule, err := newElementRule(e.Name, e.Definition.Options, e.Name)
		if err != nil {
			return nil, err
		}
		if err := addAttributeDefinitions(rule, e.Definition.Attributes, joinPath(e.Name, "attributes")); err != nil {
			return nil, err
		}
		rs.AddElementRule(rule)
	}

	return rs, nil
}

// MustBuildRuleSet is like BuildRuleSet but panics on error. It is
// meant for rule sets declared in Go code.
func MustBuildRuleSet(rules Rules) *RuleSet {
	rs, err := BuildRuleSet(rules)
	if err != nil {
		panic(err)
	}
	return rs
}

func applyGlobalDefinition(rs *RuleSet, def ElementDefinition) error {
	switch def.Kind {
	case RuleDisallowed:
		return nil
	case RuleAllowed, RuleSubstituted:
		return configErrorf(GlobalRuleName, "%s element rule can only have attributes", GlobalRuleName)
	}
	extra := slices.ContainsFunc(def.keys, func(k string) bool { return k != "attributes" })
	if extra || def.Options != (ElementOptions{}) {
		return configErrorf(GlobalRuleName, "%s element rule can only have attributes", GlobalRuleName)
	}
	return addAttributeDefinitions(rs.GlobalRule(), def.Attributes, joinPath(GlobalRuleName, "attributes"))
}

func addAttributeDefinitions(rule *ElementRule, attrs AttributeDefinitions, path string) error {
	for _, a := range attrs {
		if !a.Definition.Allowed {
			continue
		}
		ar, err := newAttributeRule(a.Name, a.Definition.Value, a.Definition.ValueType, joinPath(path, a.Name))
		if err != nil {
			return err
		}
		rule.AddAttributeRule(ar.SetRequired(a.Definition.IsRequired))
	}
	return nil
}
