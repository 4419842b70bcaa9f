// Package registry loads the detector definition table. Detection is
// data-driven: adding an identifier type means adding a YAML entry, never
// touching scan control flow.
package registry

import (
	_ "embed"
	"regexp"
	"sort"
	"sync"

	"github.com/phiguard/phiguard/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultTable []byte

type yamlRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type yamlDefinition struct {
	TypeID          string     `yaml:"type_id"`
	Name            string     `yaml:"name"`
	Category        string     `yaml:"category"`
	Classification  string     `yaml:"classification"`
	IdentifierClass string     `yaml:"identifier_class"`
	Rules           []yamlRule `yaml:"rules"`
	Validator       string     `yaml:"validator"`
	BaseSensitivity int        `yaml:"base_sensitivity"`
	BaseConfidence  float64    `yaml:"base_confidence"`
	SeverityFloor   string     `yaml:"severity_floor"`
	AllowOverlap    bool       `yaml:"allow_overlap"`
	ScopeBase       int        `yaml:"scope_base"`
	Labels          []string   `yaml:"labels"`
	Exclusions      []string   `yaml:"exclusions"`
}

type yamlTable struct {
	Version               int              `yaml:"version"`
	PlaceholderExclusions []string         `yaml:"placeholder_exclusions"`
	Definitions           []yamlDefinition `yaml:"definitions"`
}

// Registry is the process-wide read-only detector table.
type Registry struct {
	version int
	byID    map[string]*PatternDefinition
	ordered []*PatternDefinition
}

// Load parses and compiles a definition table. Any malformed entry yields a
// *PatternDefinitionError and no registry.
func Load(data []byte) (*Registry, error) {
	var tbl yamlTable
	if err := yaml.Unmarshal(data, &tbl); err != nil {
		return nil, &PatternDefinitionError{Reason: "unparseable table", Err: err}
	}
	if len(tbl.Definitions) == 0 {
		return nil, &PatternDefinitionError{Reason: "empty definition table"}
	}

	placeholders := make([]*regexp.Regexp, 0, len(tbl.PlaceholderExclusions))
	for _, p := range tbl.PlaceholderExclusions {
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, &PatternDefinitionError{Reason: "bad placeholder exclusion " + p, Err: err}
		}
		placeholders = append(placeholders, rx)
	}

	r := &Registry{version: tbl.Version, byID: make(map[string]*PatternDefinition, len(tbl.Definitions))}
	for _, yd := range tbl.Definitions {
		def, err := compileDefinition(yd, placeholders)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byID[def.TypeID]; dup {
			return nil, &PatternDefinitionError{TypeID: def.TypeID, Reason: "duplicate type_id"}
		}
		r.byID[def.TypeID] = def
		r.ordered = append(r.ordered, def)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].TypeID < r.ordered[j].TypeID })
	return r, nil
}

func compileDefinition(yd yamlDefinition, placeholders []*regexp.Regexp) (*PatternDefinition, error) {
	if yd.TypeID == "" {
		return nil, &PatternDefinitionError{Reason: "missing type_id"}
	}
	if len(yd.Rules) == 0 {
		return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "no rules"}
	}
	if yd.BaseSensitivity < 0 || yd.BaseSensitivity > 100 {
		return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "base_sensitivity outside [0,100]"}
	}
	if yd.BaseConfidence < 0 || yd.BaseConfidence > 1 {
		return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "base_confidence outside [0,1]"}
	}
	cat := types.Category(yd.Category)
	if cat != types.CategoryPHI && cat != types.CategorySecret {
		return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "unknown category " + yd.Category}
	}
	class := types.Classification(yd.Classification)
	switch class {
	case types.ClassPHI, types.ClassPII, types.ClassSecret, types.ClassSensitiveNonPHI:
	default:
		return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "unknown classification " + yd.Classification}
	}

	def := &PatternDefinition{
		TypeID:          yd.TypeID,
		Name:            yd.Name,
		Category:        cat,
		Classification:  class,
		IdentifierClass: IdentifierClass(yd.IdentifierClass),
		ValidatorRef:    yd.Validator,
		BaseSensitivity: yd.BaseSensitivity,
		BaseConfidence:  yd.BaseConfidence,
		AllowOverlap:    yd.AllowOverlap,
		ScopeBase:       yd.ScopeBase,
		Labels:          yd.Labels,
	}
	if yd.SeverityFloor != "" {
		def.SeverityFloor = types.ParseSeverity(yd.SeverityFloor)
	}
	for _, yr := range yd.Rules {
		rx, err := regexp.Compile(yr.Pattern)
		if err != nil {
			return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "bad rule " + yr.Name, Err: err}
		}
		def.Rules = append(def.Rules, Rule{Name: yr.Name, RX: rx})
	}
	for _, ex := range yd.Exclusions {
		rx, err := regexp.Compile("(?i)" + ex)
		if err != nil {
			return nil, &PatternDefinitionError{TypeID: yd.TypeID, Reason: "bad exclusion " + ex, Err: err}
		}
		def.exclusions = append(def.exclusions, rx)
	}
	// Secret-category types additionally inherit the shared placeholder list.
	if cat == types.CategorySecret {
		def.exclusions = append(def.exclusions, placeholders...)
	}
	return def, nil
}

// Lookup returns the definition for a type id.
func (r *Registry) Lookup(typeID string) (*PatternDefinition, bool) {
	d, ok := r.byID[typeID]
	return d, ok
}

// All returns every definition in deterministic (type id) order.
func (r *Registry) All() []*PatternDefinition {
	return r.ordered
}

// Version reports the definition table version.
func (r *Registry) Version() int { return r.version }

// TypeIDs returns the sorted identifier types the registry knows about.
func (r *Registry) TypeIDs() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, d := range r.ordered {
		ids = append(ids, d.TypeID)
	}
	return ids
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded table. The table is
// compiled exactly once; every caller shares the same immutable registry.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load(defaultTable)
	})
	return defaultReg, defaultErr
}
