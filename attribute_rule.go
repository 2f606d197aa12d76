package htmlrules

import (
	"regexp"
	"slices"
)

// ValueType says how the value of an attribute declaration is used.
type ValueType string

const (
	// ValueValid makes the value an allow-list of accepted values.
	ValueValid ValueType = "valid"
	// ValueDefault sets the attribute when it is missing or empty.
	ValueDefault ValueType = "default"
	// ValueForced always overwrites the attribute.
	ValueForced ValueType = "forced"
)

// Value is the value part of an attribute declaration. It is either
// unset, a single string or a list of strings. Only allow-lists
// (ValueValid) accept a list.
type Value struct {
	items []string
	list  bool
	set   bool
}

// NoValue returns an unset Value.
func NoValue() Value {
	return Value{}
}

// Scalar returns a single string Value.
func Scalar(s string) Value {
	return Value{items: []string{s}, set: true}
}

// List returns a list Value.
func List(items ...string) Value {
	return Value{items: slices.Clone(items), list: true, set: true}
}

// IsSet reports whether a value was given at all.
func (v Value) IsSet() bool {
	return v.set
}

// IsList reports whether the value was given as a list.
func (v Value) IsList() bool {
	return v.list
}

// Items returns the strings held by the value.
func (v Value) Items() []string {
	return slices.Clone(v.items)
}

func (v Value) empty() bool {
	return !v.set || len(v.items) == 0 || (!v.list && v.items[0] == "")
}

// AttributeRule constrains one attribute name, or every attribute
// matching a pattern.
type AttributeRule struct {
	name          string
	nameIsPattern bool
	re            *regexp.Regexp

	defaultValue    string
	hasDefaultValue bool
	forcedValue     string
	hasForcedValue  bool
	validValues     []string

	isRequired bool
}

// NewAttributeRule returns a rule for the attribute name (or pattern).
// Pattern rules cannot carry forced or default values, and a list
// value is only accepted for ValueValid.
func NewAttributeRule(name string, value Value, valueType ValueType) (*AttributeRule, error) {
	return newAttributeRule(name, value, valueType, name)
}

func newAttributeRule(name string, value Value, valueType ValueType, path string) (*AttributeRule, error) {
	if valueType == "" {
		valueType = ValueValid
	}
	isPattern := NameIsPattern(name)
	if isPattern && valueType != ValueValid && !value.empty() {
		return nil, configErrorf(path,
			"cannot set forced or default values for attributes with a pattern, define this rule with explicit attribute names")
	}
	if value.list && valueType != ValueValid {
		return nil, configErrorf(path,
			"value can only be a list when setting valid values, forced or default values must be a single string")
	}

	storedName, re, err := compileName(name, path)
	if err != nil {
		return nil, err
	}
	r := &AttributeRule{
		name:          storedName,
		nameIsPattern: isPattern,
		re:            re,
	}
	if !value.set {
		return r, nil
	}

	switch valueType {
	case ValueDefault:
		r.defaultValue = value.items[0]
		r.hasDefaultValue = true
	case ValueForced:
		r.forcedValue = value.items[0]
		r.hasForcedValue = true
		r.validValues = []string{r.forcedValue}
	case ValueValid:
		r.validValues = slices.Clone(value.items)
	default:
		return nil, configErrorf(path, "valueType must be one of %q, %q or %q, got %q",
			ValueValid, ValueDefault, ValueForced, valueType)
	}
	return r, nil
}

// Name returns the attribute name. For pattern rules this is the
// anchored regular expression.
func (r *AttributeRule) Name() string {
	return r.name
}

// NameIsPattern reports whether Name is a regular expression.
func (r *AttributeRule) NameIsPattern() bool {
	return r.nameIsPattern
}

// Matches reports whether the rule applies to the attribute name.
func (r *AttributeRule) Matches(attrName string) bool {
	if r.nameIsPattern {
		return r.re.MatchString(attrName)
	}
	return r.name == attrName
}

// DefaultValue returns the default value, if any.
func (r *AttributeRule) DefaultValue() (string, bool) {
	return r.defaultValue, r.hasDefaultValue
}

// ForcedValue returns the forced value, if any.
func (r *AttributeRule) ForcedValue() (string, bool) {
	return r.forcedValue, r.hasForcedValue
}

// HasForcedOrDefaultValue reports whether the rule supplies a value.
func (r *AttributeRule) HasForcedOrDefaultValue() bool {
	return r.hasForcedValue || r.hasDefaultValue
}

// ValidValues returns the allow-list of values. Empty means any value.
func (r *AttributeRule) ValidValues() []string {
	return slices.Clone(r.validValues)
}

// IsRequired reports whether the attribute must be present.
func (r *AttributeRule) IsRequired() bool {
	return r.isRequired
}

// SetRequired marks the attribute as required. Call it before adding
// the rule to an ElementRule.
func (r *AttributeRule) SetRequired(required bool) *AttributeRule {
	r.isRequired = required
	return r
}

// IsAttributeAllowed checks value against the allow-list. It assumes
// the rule applies to the attribute; presence is the element rule's
// concern.
func (r *AttributeRule) IsAttributeAllowed(value string) bool {
	if len(r.validValues) > 0 && !slices.Contains(r.validValues, value) {
		return false
	}
	return true
}
