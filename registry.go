package htmlrules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

//go:embed html.yml
var defaultConfigYAML []byte

// DefaultIdentifier is the identifier used when no active configuration
// was set.
const DefaultIdentifier = "default"

// LinkRel is the rel value set on links with a target. An empty Value
// removes rel from those links, Disabled turns the rewriting off.
type LinkRel struct {
	Value    string
	Disabled bool
}

func (l LinkRel) option() Option {
	if l.Disabled {
		return WithoutLinkRel()
	}
	return WithLinkRel(l.Value)
}

// ConfigDefinition declares a named editor configuration.
type ConfigDefinition struct {
	FriendlyName string
	// ElementRules replaces the registry default rules when not nil.
	ElementRules *Rules
	// ExtraElementRules are merged on top of the element rules.
	ExtraElementRules Rules
	// ValidElements and ExtendedValidElements use the compact grammar.
	// When set they replace the element rules entirely.
	ValidElements         string
	ExtendedValidElements string
	// LinkRel overrides the registry link rel when not nil.
	LinkRel *LinkRel
}

var configKeys = []string{
	"friendly_name",
	"elementRules",
	"extraElementRules",
	"valid_elements",
	"extended_valid_elements",
	"link_rel_value",
}

// UnmarshalYAML decodes a configuration definition. A null
// link_rel_value disables link rel rewriting. Unknown keys are errors.
func (d *ConfigDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if k := node.Content[i]; !slices.Contains(configKeys, k.Value) {
				return configErrorf(k.Value, "unknown configuration key (line %d)", k.Line)
			}
		}
	}

	var raw struct {
		FriendlyName          string    `yaml:"friendly_name"`
		ElementRules          *Rules    `yaml:"elementRules"`
		ExtraElementRules     Rules     `yaml:"extraElementRules"`
		ValidElements         string    `yaml:"valid_elements"`
		ExtendedValidElements string    `yaml:"extended_valid_elements"`
		LinkRelValue          yaml.Node `yaml:"link_rel_value"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*d = ConfigDefinition{
		FriendlyName:          raw.FriendlyName,
		ElementRules:          raw.ElementRules,
		ExtraElementRules:     raw.ExtraElementRules,
		ValidElements:         raw.ValidElements,
		ExtendedValidElements: raw.ExtendedValidElements,
		LinkRel:               linkRelFromNode(&raw.LinkRelValue),
	}
	return nil
}

func linkRelFromNode(node *yaml.Node) *LinkRel {
	switch {
	case node.Kind == 0:
		return nil
	case isNull(node):
		return &LinkRel{Disabled: true}
	}
	return &LinkRel{Value: node.Value}
}

// Config is a built editor configuration.
type Config struct {
	Identifier   string
	FriendlyName string
	RuleSet      *RuleSet
	LinkRel      LinkRel
}

// Sanitizer returns a sanitizer using the configuration's rules and
// link rel value. Extra options are applied last.
func (c *Config) Sanitizer(options ...Option) *Sanitizer {
	return NewSanitizer(c.RuleSet, append([]Option{c.LinkRel.option()}, options...)...)
}

// Registry resolves configuration identifiers to built configurations.
// A configuration is built on first use and cached until Flush, Define
// or Set replaces it. Concurrent first uses of one identifier share a
// single build.
type Registry struct {
	mu                sync.RWMutex
	definitions       map[string]ConfigDefinition
	defaultRules      Rules
	defaultIdentifier string
	active            string
	linkRel           LinkRel
	configs           map[string]*Config
	// gen changes whenever a cached configuration may be outdated.
	gen uint64

	group  singleflight.Group
	logger *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions:       map[string]ConfigDefinition{},
		defaultIdentifier: DefaultIdentifier,
		linkRel:           LinkRel{Value: DefaultLinkRel},
		configs:           map[string]*Config{},
		logger:            nullLogger,
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := LoadRegistry(bytes.NewReader(defaultConfigYAML))
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the process-wide registry holding the
// built-in configurations: default, cms, comments and tinymce.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

type registryFile struct {
	DefaultConfig       string                      `yaml:"default_config"`
	LinkRelValue        yaml.Node                   `yaml:"link_rel_value"`
	DefaultElementRules *Rules                      `yaml:"default_element_rules"`
	Configs             map[string]ConfigDefinition `yaml:"configs"`
}

// LoadRegistry returns a registry holding the configurations of a YAML
// document.
func LoadRegistry(r io.Reader) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.Load(r); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadRegistryFile is LoadRegistry for a file.
func LoadRegistryFile(name string) (*Registry, error) {
	fd, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close() //nolint:errcheck

	reg, err := LoadRegistry(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return reg, nil
}

// Load adds the content of a YAML document to the registry. Settings
// present in the document replace the current ones. The document is
// fully decoded before anything changes.
func (r *Registry) Load(rd io.Reader) error {
	var f registryFile
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f.DefaultConfig != "" {
		r.defaultIdentifier = f.DefaultConfig
	}
	if l := linkRelFromNode(&f.LinkRelValue); l != nil {
		r.linkRel = *l
	}
	if f.DefaultElementRules != nil {
		r.defaultRules = *f.DefaultElementRules
	}
	maps.Copy(r.definitions, f.Configs)
	clear(r.configs)
	r.gen++
	return nil
}

// SetLogger sets the registry's logger.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// DefaultRules returns the rules used by definitions without their own.
func (r *Registry) DefaultRules() Rules {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.defaultRules)
}

// SetDefaultRules sets the rules used by definitions without their own
// and drops every cached configuration.
func (r *Registry) SetDefaultRules(rules Rules) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultRules = slices.Clone(rules)
	clear(r.configs)
	r.gen++
}

// SetLinkRel sets the link rel of definitions without their own.
func (r *Registry) SetLinkRel(l LinkRel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linkRel = l
	clear(r.configs)
	r.gen++
}

// Define registers a configuration definition, replacing any cached
// configuration for identifier.
func (r *Registry) Define(identifier string, def ConfigDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[identifier] = def
	delete(r.configs, identifier)
	r.gen++
}

// Set assigns a built configuration to identifier. A nil cfg clears it.
func (r *Registry) Set(identifier string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if cfg == nil {
		delete(r.configs, identifier)
		return
	}
	cfg.Identifier = identifier
	r.configs[identifier] = cfg
}

// Flush drops every cached configuration.
func (r *Registry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.configs)
	r.gen++
}

// SetActiveIdentifier sets the configuration used when none is asked for.
func (r *Registry) SetActiveIdentifier(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = identifier
}

// ActiveIdentifier returns the active identifier, or the default one
// when none was set.
func (r *Registry) ActiveIdentifier() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active != "" {
		return r.active
	}
	return r.defaultIdentifier
}

// Active returns the active configuration.
func (r *Registry) Active() (*Config, error) {
	return r.Get("")
}

// SetActive assigns cfg to the active identifier.
func (r *Registry) SetActive(cfg *Config) {
	r.Set(r.ActiveIdentifier(), cfg)
}

// Identifiers returns the defined and assigned identifiers, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := slices.Collect(maps.Keys(r.definitions))
	for id := range r.configs {
		if _, ok := r.definitions[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// AvailableConfigs maps every known identifier to its friendly name.
func (r *Registry) AvailableConfigs() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make(map[string]string, len(r.definitions)+len(r.configs))
	for id, def := range r.definitions {
		res[id] = def.FriendlyName
	}
	for id, cfg := range r.configs {
		res[id] = cfg.FriendlyName
	}
	return res
}

// Get returns the configuration for identifier, building and caching
// it on first use. An empty identifier returns the active
// configuration. Unknown identifiers get the default rules.
func (r *Registry) Get(identifier string) (*Config, error) {
	if identifier == "" {
		identifier = r.ActiveIdentifier()
	}
	if cfg := r.cached(identifier); cfg != nil {
		return cfg, nil
	}

	v, err, _ := r.group.Do(identifier, func() (any, error) {
		if cfg := r.cached(identifier); cfg != nil {
			return cfg, nil
		}
		// Build again when the registry changed during the build.
		for {
			cfg, gen, err := r.build(identifier)
			if err != nil {
				return nil, err
			}
			if stored, ok := r.store(identifier, cfg, gen); ok {
				return stored, nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

// Sanitizer returns a sanitizer for the configuration identifier.
func (r *Registry) Sanitizer(identifier string, options ...Option) (*Sanitizer, error) {
	cfg, err := r.Get(identifier)
	if err != nil {
		return nil, err
	}
	return cfg.Sanitizer(options...), nil
}

func (r *Registry) cached(identifier string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[identifier]
}

// store caches cfg, built at generation gen, and returns the cached
// configuration. It fails when the registry changed since then.
func (r *Registry) store(identifier string, cfg *Config, gen uint64) (*Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.configs[identifier]; ok {
		return existing, true
	}
	if gen != r.gen {
		return nil, false
	}
	r.configs[identifier] = cfg
	return cfg, true
}

func (r *Registry) build(identifier string) (*Config, uint64, error) {
	r.mu.RLock()
	gen := r.gen
	def, defined := r.definitions[identifier]
	defaults := r.defaultRules
	linkRel := r.linkRel
	logger := r.logger
	r.mu.RUnlock()

	var (
		rs  *RuleSet
		err error
	)
	switch {
	case def.ValidElements != "" || def.ExtendedValidElements != "":
		rs, err = CompactRuleSet(def.ValidElements, def.ExtendedValidElements)
	default:
		rules := defaults
		if def.ElementRules != nil {
			rules = *def.ElementRules
		}
		rs, err = BuildRuleSet(Merge(rules, def.ExtraElementRules))
	}
	if err != nil {
		return nil, gen, fmt.Errorf("editor config %q: %w", identifier, err)
	}

	if def.LinkRel != nil {
		linkRel = *def.LinkRel
	}
	logger.Debug("rule set built",
		slog.String("config", identifier),
		slog.Bool("defined", defined),
		slog.Int("elements", len(rs.ElementRules())),
		slog.Int("substitutions", len(rs.ElementSubstitutionRules())),
	)

	return &Config{
		Identifier:   identifier,
		FriendlyName: def.FriendlyName,
		RuleSet:      rs,
		LinkRel:      linkRel,
	}, gen, nil
}
