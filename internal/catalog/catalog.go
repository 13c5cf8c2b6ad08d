package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/joefrost01/batch-report/internal/contracts"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog wraps every catalog validation failure
var ErrInvalidCatalog = errors.New("invalid catalog")

// File is the on-disk shape of a catalog
type File struct {
	Version   int                          `yaml:"version" json:"version"`
	Scenarios []contracts.ExpectedScenario `yaml:"scenarios" json:"scenarios"`
}

// Catalog is the immutable set of scenarios expected on every batch date.
// ⭐ SSOT: expectations come from here only. Safe for concurrent reads.
type Catalog struct {
	scenarios []contracts.ExpectedScenario
	groups    []contracts.GroupKey
	byGroup   map[contracts.GroupKey][]contracts.ExpectedScenario
	expected  map[contracts.ScenarioKey]struct{}
	hash      string
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// MustDefault is Default for package initialisation and tests
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from path, or the embedded default when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML strictly: unknown fields fail immediately
func Parse(r io.Reader) (*Catalog, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	return New(file.Scenarios)
}

// New builds a catalog from scenarios in the given order
func New(scenarios []contracts.ExpectedScenario) (*Catalog, error) {
	c := &Catalog{
		scenarios: make([]contracts.ExpectedScenario, 0, len(scenarios)),
		byGroup:   make(map[contracts.GroupKey][]contracts.ExpectedScenario),
		expected:  make(map[contracts.ScenarioKey]struct{}, len(scenarios)),
	}

	for i, s := range scenarios {
		if s.AssetClass == "" || s.Product == "" || s.Entity == "" || s.Scenario == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty field", ErrInvalidCatalog, i)
		}
		key := s.FullKey()
		if _, dup := c.expected[key]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %d (%s/%s/%s/%s)",
				ErrInvalidCatalog, i, s.AssetClass, s.Product, s.Entity, s.Scenario)
		}

		c.expected[key] = struct{}{}
		c.scenarios = append(c.scenarios, s)

		g := s.GroupKey()
		if _, seen := c.byGroup[g]; !seen {
			c.groups = append(c.groups, g)
		}
		c.byGroup[g] = append(c.byGroup[g], s)
	}

	raw, err := json.Marshal(File{Version: 1, Scenarios: c.scenarios})
	if err != nil {
		return nil, fmt.Errorf("hash catalog: %w", err)
	}
	sum := sha256.Sum256(raw)
	c.hash = hex.EncodeToString(sum[:])

	return c, nil
}

// All returns every expected scenario in catalog order
func (c *Catalog) All() []contracts.ExpectedScenario {
	out := make([]contracts.ExpectedScenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// Len returns the number of expected scenarios
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// Hash is a SHA-256 of the canonical JSON form, stable across YAML formatting
func (c *Catalog) Hash() string {
	return c.hash
}

// ScenariosForGroup returns the group's scenarios in catalog order, or none
func (c *Catalog) ScenariosForGroup(assetClass, product, entity string) []contracts.ExpectedScenario {
	list := c.byGroup[contracts.GroupKey{AssetClass: assetClass, Product: product, Entity: entity}]
	out := make([]contracts.ExpectedScenario, len(list))
	copy(out, list)
	return out
}

// ExpectedCount returns how many scenarios the group expects
func (c *Catalog) ExpectedCount(g contracts.GroupKey) int {
	return len(c.byGroup[g])
}

// IsExpected reports whether the exact 4-tuple is in the catalog
func (c *Catalog) IsExpected(assetClass, product, entity, scenario string) bool {
	_, ok := c.expected[contracts.ScenarioKey{
		GroupKey: contracts.GroupKey{AssetClass: assetClass, Product: product, Entity: entity},
		Scenario: scenario,
	}]
	return ok
}

// GroupedByGroupKey returns scenarios bucketed by group; each bucket keeps catalog order
func (c *Catalog) GroupedByGroupKey() map[contracts.GroupKey][]contracts.ExpectedScenario {
	out := make(map[contracts.GroupKey][]contracts.ExpectedScenario, len(c.byGroup))
	for g, list := range c.byGroup {
		cp := make([]contracts.ExpectedScenario, len(list))
		copy(cp, list)
		out[g] = cp
	}
	return out
}

// GroupKeys returns distinct groups in order of first appearance
func (c *Catalog) GroupKeys() []contracts.GroupKey {
	out := make([]contracts.GroupKey, len(c.groups))
	copy(out, c.groups)
	return out
}

// AssetClasses returns distinct asset classes, sorted
func (c *Catalog) AssetClasses() []string {
	return c.distinct(func(s contracts.ExpectedScenario) (string, bool) { return s.AssetClass, true })
}

// Entities returns distinct entities, sorted
func (c *Catalog) Entities() []string {
	return c.distinct(func(s contracts.ExpectedScenario) (string, bool) { return s.Entity, true })
}

// ProductsForAssetClass returns distinct products of one asset class, sorted
func (c *Catalog) ProductsForAssetClass(assetClass string) []string {
	return c.distinct(func(s contracts.ExpectedScenario) (string, bool) {
		return s.Product, s.AssetClass == assetClass
	})
}

func (c *Catalog) distinct(pick func(contracts.ExpectedScenario) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range c.scenarios {
		v, ok := pick(s)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// WriteYAML serialises the catalog in the same format Parse reads
func (c *Catalog) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Version: 1, Scenarios: c.scenarios}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
