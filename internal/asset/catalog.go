package asset

import (
	_ "embed"
	"fmt"

	"TickData/internal/errs"

	"gopkg.in/yaml.v3"
)

//go:embed assets.yaml
var assetsYAML []byte

// Definition is one row of the asset table.
type Definition struct {
	Symbol      string `yaml:"symbol"`
	Kind        string `yaml:"kind"`
	Precision   int    `yaml:"precision"`
	Description string `yaml:"description"`
}

// Catalog is the read-only Symbol to Asset table. Build it once at start-up
// and share the pointer.
type Catalog struct {
	assets map[Symbol]*Asset
}

// LoadCatalog builds the catalog from the embedded asset table.
func LoadCatalog() (*Catalog, error) {
	var doc struct {
		Assets []Definition `yaml:"assets"`
	}
	if err := yaml.Unmarshal(assetsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse asset table: %w", err)
	}
	return NewCatalog(doc.Assets)
}

// MustLoadCatalog is like LoadCatalog but panics on error. The embedded table
// is fixed at build time, so a failure is a programming error.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates defs and builds a catalog holding exactly one asset per
// declared Symbol.
func NewCatalog(defs []Definition) (*Catalog, error) {
	assets := make(map[Symbol]*Asset, len(defs))
	for i, def := range defs {
		symbol, err := ParseSymbol(def.Symbol)
		if err != nil {
			return nil, errs.Range(fmt.Sprintf("assets[%d].symbol", i), def.Symbol, err.Error())
		}
		kind, err := ParseKind(def.Kind)
		if err != nil {
			return nil, errs.Range(fmt.Sprintf("assets[%d].kind", i), def.Kind, err.Error())
		}
		if _, dup := assets[symbol]; dup {
			return nil, errs.Range(fmt.Sprintf("assets[%d].symbol", i), def.Symbol, "defined more than once")
		}
		a, err := New(symbol, kind, def.Precision, def.Description)
		if err != nil {
			return nil, fmt.Errorf("assets[%d] %s: %w", i, symbol, err)
		}
		assets[symbol] = a
	}
	for _, s := range Symbols() {
		if _, ok := assets[s]; !ok {
			return nil, errs.Range("assets", s.String(), "symbol has no definition")
		}
	}
	return &Catalog{assets: assets}, nil
}

// Get returns the asset for symbol, or nil when symbol is not declared.
func (c *Catalog) Get(symbol Symbol) *Asset { return c.assets[symbol] }

// Lookup returns the asset for symbol and whether it exists.
func (c *Catalog) Lookup(symbol Symbol) (*Asset, bool) {
	a, ok := c.assets[symbol]
	return a, ok
}

// All returns every asset in Symbol declaration order.
func (c *Catalog) All() []*Asset {
	out := make([]*Asset, 0, len(c.assets))
	for _, s := range Symbols() {
		out = append(out, c.assets[s])
	}
	return out
}

// Len returns the number of assets.
func (c *Catalog) Len() int { return len(c.assets) }

// Parse resolves symbol codes such as "EURUSD" to their assets. A symbol
// listed twice, in any case, is a range error.
func (c *Catalog) Parse(codes []string) ([]*Asset, error) {
	out := make([]*Asset, 0, len(codes))
	seen := make(map[Symbol]bool, len(codes))
	for i, code := range codes {
		s, err := ParseSymbol(code)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, errs.Range(fmt.Sprintf("symbols[%d]", i), code, "listed more than once")
		}
		seen[s] = true
		out = append(out, c.assets[s])
	}
	return out, nil
}
