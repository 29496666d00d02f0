package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxQuantity is the per-line quantity ceiling used when a catalog does not declare one.
const DefaultMaxQuantity = 99

var ErrConfiguration = errors.New("catalog configuration error")

// ConfigurationError reports a catalog that cannot be sold as described.
type ConfigurationError struct {
	ProductID string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog %q: %s", e.ProductID, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

type VariantOption struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	BaseAvailable bool   `json:"base_available"`
}

type VariantDimension struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Options         []VariantOption `json:"options"`
	DefaultOptionID string          `json:"default_option_id,omitempty"`
}

// Option returns the option with the given id if it belongs to the dimension.
func (d VariantDimension) Option(id string) (VariantOption, bool) {
	for _, opt := range d.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return VariantOption{}, false
}

// Tuple maps dimension id to option id.
type Tuple map[string]string

func (t Tuple) Clone() Tuple {
	out := make(Tuple, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// key is the canonical "dim=opt;dim=opt" form with dimension ids sorted.
func (t Tuple) key() string {
	dims := make([]string, 0, len(t))
	for dim := range t {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	var b strings.Builder
	for i, dim := range dims {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(dim)
		b.WriteByte('=')
		b.WriteString(t[dim])
	}
	return b.String()
}

// Signature is a deterministic hash of the tuple, independent of map iteration order.
func (t Tuple) Signature() string {
	sum := sha256.Sum256([]byte(t.key()))
	return hex.EncodeToString(sum[:8])
}

type CombinationRule struct {
	Tuple         Tuple           `json:"tuple"`
	Available     bool            `json:"available"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Image         string          `json:"image,omitempty"`
	StockTag      string          `json:"stock_tag,omitempty"`
}

// IsZeroStock reports whether a stock tag means nothing is left to sell.
func IsZeroStock(tag string) bool {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "out_of_stock", "sold_out":
		return true
	default:
		return false
	}
}

// Catalog is the immutable description of one product's selectable dimensions and its
// combination table. Build it with New; the zero value is not usable.
type Catalog struct {
	productID   string
	title       string
	maxQuantity int
	dimensions  []VariantDimension
	index       map[string]int
	rules       map[string]CombinationRule
	sellable    []CombinationRule
}

type Option func(*Catalog)

func WithMaxQuantity(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.maxQuantity = n
		}
	}
}

func WithTitle(title string) Option {
	return func(c *Catalog) {
		c.title = title
	}
}

// New validates the dimensions and rules and returns the catalog. Every dimension needs at
// least one option and at least one rule must be available and composed of base-available
// options; otherwise the product is unsellable and a *ConfigurationError is returned.
func New(productID string, dimensions []VariantDimension, rules []CombinationRule, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		productID:   productID,
		maxQuantity: DefaultMaxQuantity,
		index:       make(map[string]int, len(dimensions)),
		rules:       make(map[string]CombinationRule, len(rules)),
	}
	for _, opt := range opts {
		opt(c)
	}

	fail := func(format string, args ...interface{}) (*Catalog, error) {
		return nil, &ConfigurationError{ProductID: productID, Reason: fmt.Sprintf(format, args...)}
	}

	if productID == "" {
		return fail("product id is required")
	}
	if len(dimensions) == 0 {
		return fail("at least one dimension is required")
	}

	c.dimensions = make([]VariantDimension, 0, len(dimensions))
	for i, dim := range dimensions {
		if dim.ID == "" {
			return fail("dimension #%d has no id", i)
		}
		if _, dup := c.index[dim.ID]; dup {
			return fail("dimension %q declared twice", dim.ID)
		}
		if len(dim.Options) == 0 {
			return fail("dimension %q has no options", dim.ID)
		}
		seen := make(map[string]bool, len(dim.Options))
		for _, opt := range dim.Options {
			if opt.ID == "" {
				return fail("dimension %q has an option without id", dim.ID)
			}
			if seen[opt.ID] {
				return fail("dimension %q declares option %q twice", dim.ID, opt.ID)
			}
			seen[opt.ID] = true
		}
		if dim.DefaultOptionID != "" && !seen[dim.DefaultOptionID] {
			return fail("dimension %q default option %q is not one of its options", dim.ID, dim.DefaultOptionID)
		}

		copied := dim
		copied.Options = append([]VariantOption(nil), dim.Options...)
		c.index[dim.ID] = len(c.dimensions)
		c.dimensions = append(c.dimensions, copied)
	}

	for i, rule := range rules {
		if len(rule.Tuple) != len(c.dimensions) {
			return fail("rule #%d names %d dimensions, want %d", i, len(rule.Tuple), len(c.dimensions))
		}
		for dimID, optID := range rule.Tuple {
			idx, ok := c.index[dimID]
			if !ok {
				return fail("rule #%d names unknown dimension %q", i, dimID)
			}
			if _, ok := c.dimensions[idx].Option(optID); !ok {
				return fail("rule #%d names unknown option %q in dimension %q", i, optID, dimID)
			}
		}

		stored := rule
		stored.Tuple = rule.Tuple.Clone()
		key := stored.Tuple.key()
		if _, dup := c.rules[key]; dup {
			return fail("rule #%d duplicates combination %s", i, key)
		}
		c.rules[key] = stored

		if stored.Available && c.baseAvailable(stored.Tuple) {
			c.sellable = append(c.sellable, stored)
		}
	}

	if len(c.sellable) == 0 {
		return fail("no available combination")
	}
	return c, nil
}

func (c *Catalog) baseAvailable(t Tuple) bool {
	for dimID, optID := range t {
		opt, ok := c.dimensions[c.index[dimID]].Option(optID)
		if !ok || !opt.BaseAvailable {
			return false
		}
	}
	return true
}

func (c *Catalog) ProductID() string { return c.productID }

func (c *Catalog) Title() string { return c.title }

func (c *Catalog) MaxQuantity() int { return c.maxQuantity }

// Dimensions returns the dimensions in display order.
func (c *Catalog) Dimensions() []VariantDimension {
	return append([]VariantDimension(nil), c.dimensions...)
}

func (c *Catalog) Dimension(id string) (VariantDimension, bool) {
	idx, ok := c.index[id]
	if !ok {
		return VariantDimension{}, false
	}
	return c.dimensions[idx], true
}

// OptionsFor returns the options of a dimension in display order, or nil for an unknown dimension.
func (c *Catalog) OptionsFor(dimensionID string) []VariantOption {
	dim, ok := c.Dimension(dimensionID)
	if !ok {
		return nil
	}
	return append([]VariantOption(nil), dim.Options...)
}

// RuleFor looks up the rule for a complete tuple.
func (c *Catalog) RuleFor(t Tuple) (CombinationRule, bool) {
	if len(t) != len(c.dimensions) {
		return CombinationRule{}, false
	}
	rule, ok := c.rules[t.key()]
	return rule, ok
}

// Satisfiable reports whether some sellable combination picks optionID for dimensionID while
// agreeing with every other dimension fixed in partial.
func (c *Catalog) Satisfiable(dimensionID, optionID string, partial Tuple) bool {
	for _, rule := range c.sellable {
		if rule.Tuple[dimensionID] != optionID {
			continue
		}
		if agrees(rule.Tuple, partial, dimensionID) {
			return true
		}
	}
	return false
}

func agrees(full, partial Tuple, skip string) bool {
	for dimID, optID := range partial {
		if dimID == skip {
			continue
		}
		if full[dimID] != optID {
			return false
		}
	}
	return true
}

// Label renders the option labels of a tuple in display order, e.g. "Black / 256GB".
func (c *Catalog) Label(t Tuple) string {
	parts := make([]string, 0, len(t))
	for _, dim := range c.dimensions {
		optID, ok := t[dim.ID]
		if !ok {
			continue
		}
		if opt, ok := dim.Option(optID); ok && opt.Label != "" {
			parts = append(parts, opt.Label)
		} else {
			parts = append(parts, optID)
		}
	}
	return strings.Join(parts, " / ")
}
