package htmlrules

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// RuleKind tells how an element entry of a declarative configuration
// is handled by the builder.
type RuleKind int

const (
	// RuleDisallowed (false or null) explicitly removes an element,
	// overriding inherited configuration.
	RuleDisallowed RuleKind = iota
	// RuleAllowed (true) allows an element with default options.
	RuleAllowed
	// RuleAllowedWithOptions (a map) allows an element with options
	// and attributes.
	RuleAllowedWithOptions
	// RuleSubstituted (a map with convertTo) renames an element.
	RuleSubstituted
)

func (k RuleKind) String() string {
	switch k {
	case RuleDisallowed:
		return "disallowed"
	case RuleAllowed:
		return "allowed"
	case RuleAllowedWithOptions:
		return "allowed-with-options"
	case RuleSubstituted:
		return "substituted"
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// ElementDefinition is one decoded element entry.
type ElementDefinition struct {
	Kind       RuleKind
	Options    ElementOptions
	ConvertTo  string
	Attributes AttributeDefinitions

	// keys holds the map keys present when decoded from YAML.
	keys []string
}

// Allow returns a definition allowing an element with default options.
func Allow() ElementDefinition {
	return ElementDefinition{Kind: RuleAllowed}
}

// AllowWith returns a definition allowing an element with options and
// attributes.
func AllowWith(opts ElementOptions, attrs ...AttributeEntry) ElementDefinition {
	return ElementDefinition{Kind: RuleAllowedWithOptions, Options: opts, Attributes: attrs}
}

// Disallow returns a definition removing an element.
func Disallow() ElementDefinition {
	return ElementDefinition{Kind: RuleDisallowed}
}

// ConvertTo returns a definition renaming an element into target.
func ConvertTo(target string) ElementDefinition {
	return ElementDefinition{Kind: RuleSubstituted, ConvertTo: target}
}

// ElementEntry is a named element definition.
type ElementEntry struct {
	Name       string
	Definition ElementDefinition
}

// Rules is an ordered declarative configuration keyed by element name
// or pattern. Order matters: pattern rules match first-come.
type Rules []ElementEntry

// Get returns the definition registered under name.
func (r Rules) Get(name string) (ElementDefinition, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Name == name {
			return r[i].Definition, true
		}
	}
	return ElementDefinition{}, false
}

// Merge returns base with extra applied on top of it. Entries already in
// base are replaced in place, new entries are appended.
func Merge(base, extra Rules) Rules {
	res := slices.Clone(base)
	index := make(map[string]int, len(res))
	for i, e := range res {
		index[e.Name] = i
	}
	for _, e := range extra {
		if i, ok := index[e.Name]; ok {
			res[i] = e
			continue
		}
		index[e.Name] = len(res)
		res = append(res, e)
	}
	return res
}

// AttributeDefinition is one decoded attribute entry.
type AttributeDefinition struct {
	// Allowed is false for entries given as false or null.
	Allowed    bool
	IsRequired bool
	Value      Value
	ValueType  ValueType
}

// AttributeEntry is a named attribute definition.
type AttributeEntry struct {
	Name       string
	Definition AttributeDefinition
}

// Attr allows an attribute with any value.
func Attr(name string) AttributeEntry {
	return AttributeEntry{Name: name, Definition: AttributeDefinition{Allowed: true}}
}

// RequiredAttr allows an attribute and makes it mandatory.
func RequiredAttr(name string) AttributeEntry {
	return AttributeEntry{Name: name, Definition: AttributeDefinition{Allowed: true, IsRequired: true}}
}

// AttrValue allows an attribute with a default, forced or valid value.
func AttrValue(name string, valueType ValueType, value Value) AttributeEntry {
	return AttributeEntry{Name: name, Definition: AttributeDefinition{
		Allowed:   true,
		Value:     value,
		ValueType: valueType,
	}}
}

// AttributeDefinitions is an ordered list of attribute entries.
type AttributeDefinitions []AttributeEntry

// UnmarshalYAML decodes an element rule mapping, keeping key order and
// telling true, false and null apart.
func (r *Rules) UnmarshalYAML(node *yaml.Node) error {
	rules, err := decodeRules(node, "")
	if err != nil {
		return err
	}
	*r = rules
	return nil
}

// UnmarshalYAML decodes an attribute rule mapping.
func (a *AttributeDefinitions) UnmarshalYAML(node *yaml.Node) error {
	attrs, err := decodeAttributes(node, "attributes")
	if err != nil {
		return err
	}
	*a = attrs
	return nil
}

// UnmarshalYAML decodes a scalar or a list of scalars.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	val, err := decodeValue(node, "value")
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

// mappingPairs returns the key/value pairs of node. An empty sequence
// or null counts as an empty mapping.
func mappingPairs(node *yaml.Node, path, what string) ([][2]*yaml.Node, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	switch {
	case node.Kind == yaml.MappingNode:
	case isNull(node):
		return nil, nil
	case node.Kind == yaml.SequenceNode && len(node.Content) == 0:
		return nil, nil
	default:
		return nil, configErrorf(path, "%s must be associative (line %d)", what, node.Line)
	}
	pairs := make([][2]*yaml.Node, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{node.Content[i], node.Content[i+1]})
	}
	return pairs, nil
}

func decodeRules(node *yaml.Node, path string) (Rules, error) {
	pairs, err := mappingPairs(node, path, "element rules")
	if err != nil {
		return nil, err
	}
	var rules Rules
	for _, p := range pairs {
		name := p[0].Value
		def, err := decodeElementDefinition(p[1], joinPath(path, name))
		if err != nil {
			return nil, err
		}
		rules = Merge(rules, Rules{{Name: name, Definition: def}})
	}
	return rules, nil
}

func decodeBool(node *yaml.Node, path string) (bool, error) {
	if isNull(node) {
		return false, nil
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return false, configErrorf(path, "expected a boolean (line %d)", node.Line)
	}
	return b, nil
}

func decodeElementDefinition(node *yaml.Node, path string) (ElementDefinition, error) {
	switch {
	case isNull(node):
		return Disallow(), nil
	case node.Kind == yaml.ScalarNode:
		allowed, err := decodeBool(node, path)
		if err != nil {
			return ElementDefinition{}, err
		}
		if allowed {
			return Allow(), nil
		}
		return Disallow(), nil
	}

	pairs, err := mappingPairs(node, path, "element rule")
	if err != nil {
		return ElementDefinition{}, err
	}
	def := ElementDefinition{Kind: RuleAllowedWithOptions}
	for _, p := range pairs {
		key, val := p[0].Value, p[1]
		def.keys = append(def.keys, key)
		switch key {
		case "padEmpty":
			def.Options.PadEmpty, err = decodeBool(val, joinPath(path, key))
		case "removeIfEmpty":
			def.Options.RemoveIfEmpty, err = decodeBool(val, joinPath(path, key))
		case "removeIfNoAttributes":
			def.Options.RemoveIfNoAttributes, err = decodeBool(val, joinPath(path, key))
		case "convertTo":
			if isNull(val) {
				continue
			}
			if val.Kind != yaml.ScalarNode {
				return ElementDefinition{}, configErrorf(joinPath(path, key), "expected an element name (line %d)", val.Line)
			}
			def.Kind = RuleSubstituted
			def.ConvertTo = val.Value
		case "attributes":
			def.Attributes, err = decodeAttributes(val, joinPath(path, key))
		}
		if err != nil {
			return ElementDefinition{}, err
		}
	}
	return def, nil
}

func decodeAttributes(node *yaml.Node, path string) (AttributeDefinitions, error) {
	pairs, err := mappingPairs(node, path, "attribute rules")
	if err != nil {
		return nil, err
	}
	var attrs AttributeDefinitions
	for _, p := range pairs {
		name := p[0].Value
		def, err := decodeAttributeDefinition(p[1], joinPath(path, name))
		if err != nil {
			return nil, err
		}
		if i := slices.IndexFunc(attrs, func(e AttributeEntry) bool { return e.Name == name }); i >= 0 {
			attrs[i].Definition = def
			continue
		}
		attrs = append(attrs, AttributeEntry{Name: name, Definition: def})
	}
	return attrs, nil
}

func decodeAttributeDefinition(node *yaml.Node, path string) (AttributeDefinition, error) {
	switch {
	case isNull(node):
		return AttributeDefinition{}, nil
	case node.Kind == yaml.ScalarNode:
		allowed, err := decodeBool(node, path)
		return AttributeDefinition{Allowed: allowed}, err
	}

	pairs, err := mappingPairs(node, path, "attribute rule")
	if err != nil {
		return AttributeDefinition{}, err
	}
	def := AttributeDefinition{Allowed: true}
	for _, p := range pairs {
		key, val := p[0].Value, p[1]
		switch key {
		case "isRequired":
			def.IsRequired, err = decodeBool(val, joinPath(path, key))
		case "value":
			def.Value, err = decodeValue(val, joinPath(path, key))
		case "valueType":
			if !isNull(val) {
				def.ValueType = ValueType(val.Value)
			}
		}
		if err != nil {
			return AttributeDefinition{}, err
		}
	}
	return def, nil
}

func decodeValue(node *yaml.Node, path string) (Value, error) {
	switch {
	case isNull(node):
		return NoValue(), nil
	case node.Kind == yaml.ScalarNode:
		return Scalar(node.Value), nil
	case node.Kind == yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			if c.Kind != yaml.ScalarNode {
				return Value{}, configErrorf(path, "list items must be strings (line %d)", c.Line)
			}
			items = append(items, c.Value)
		}
		return List(items...), nil
	}
	return Value{}, configErrorf(path, "value must be a string or a list of strings (line %d)", node.Line)
}
