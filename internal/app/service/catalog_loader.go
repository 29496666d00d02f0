package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedCatalogFormat = errors.New("unsupported catalog format")

// CatalogDocument is the on-disk and on-wire shape of one product's variant catalog.
type CatalogDocument struct {
	ProductID   string              `json:"product_id" yaml:"product_id"`
	Title       string              `json:"title" yaml:"title"`
	StoreID     string              `json:"store_id" yaml:"store_id"`
	MaxQuantity int                 `json:"max_quantity,omitempty" yaml:"max_quantity,omitempty"`
	Dimensions  []DimensionDocument `json:"dimensions" yaml:"dimensions"`
	Rules       []RuleDocument      `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Without explicit rules every option combination is generated at BasePrice and is
	// available when all of its options are.
	BasePrice         *decimal.Decimal `json:"base_price,omitempty" yaml:"base_price,omitempty"`
	BaseOriginalPrice *decimal.Decimal `json:"base_original_price,omitempty" yaml:"base_original_price,omitempty"`
	BaseImage         string           `json:"base_image,omitempty" yaml:"base_image,omitempty"`
}

type DimensionDocument struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Options []OptionDocument `json:"options" yaml:"options"`
}

type OptionDocument struct {
	ID            string `json:"id" yaml:"id"`
	Label         string `json:"label" yaml:"label"`
	BaseAvailable *bool  `json:"base_available,omitempty" yaml:"base_available,omitempty"`
	IsDefault     bool   `json:"is_default,omitempty" yaml:"is_default,omitempty"`
}

type RuleDocument struct {
	Options       map[string]string `json:"options" yaml:"options"`
	Available     *bool             `json:"available,omitempty" yaml:"available,omitempty"`
	Price         decimal.Decimal   `json:"price" yaml:"price"`
	OriginalPrice *decimal.Decimal  `json:"original_price,omitempty" yaml:"original_price,omitempty"`
	Image         string            `json:"image,omitempty" yaml:"image,omitempty"`
	StockTag      string            `json:"stock_tag,omitempty" yaml:"stock_tag,omitempty"`
}

// NormalizeCatalogFormat maps file extensions and content types onto json or yaml.
func NormalizeCatalogFormat(format string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".") {
	case "json", "application/json":
		return "json", nil
	case "yaml", "yml", "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCatalogFormat, format)
	}
}

// DecodeCatalogDocument parses data as JSON or YAML. Unknown JSON fields are rejected.
func DecodeCatalogDocument(data []byte, format string) (*CatalogDocument, error) {
	normalized, err := NormalizeCatalogFormat(format)
	if err != nil {
		return nil, err
	}

	var doc CatalogDocument
	switch normalized {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode catalog json: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode catalog yaml: %w", err)
		}
	}
	return &doc, nil
}

// EncodeCatalogDocument renders doc in the given format.
func EncodeCatalogDocument(doc *CatalogDocument, format string) ([]byte, error) {
	normalized, err := NormalizeCatalogFormat(format)
	if err != nil {
		return nil, err
	}
	if normalized == "yaml" {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode catalog yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Build validates the document and returns the engine catalog.
func (d *CatalogDocument) Build() (*catalog.Catalog, error) {
	dims := make([]catalog.VariantDimension, 0, len(d.Dimensions))
	for _, dimDoc := range d.Dimensions {
		dim := catalog.VariantDimension{
			ID:      dimDoc.ID,
			Name:    dimDoc.Name,
			Options: make([]catalog.VariantOption, 0, len(dimDoc.Options)),
		}
		for _, optDoc := range dimDoc.Options {
			label := optDoc.Label
			if label == "" {
				label = optDoc.ID
			}
			dim.Options = append(dim.Options, catalog.VariantOption{
				ID:            optDoc.ID,
				Label:         label,
				BaseAvailable: optDoc.BaseAvailable == nil || *optDoc.BaseAvailable,
			})
			if optDoc.IsDefault && dim.DefaultOptionID == "" {
				dim.DefaultOptionID = optDoc.ID
			}
		}
		dims = append(dims, dim)
	}

	var rules []catalog.CombinationRule
	switch {
	case len(d.Rules) > 0:
		rules = make([]catalog.CombinationRule, 0, len(d.Rules))
		for _, ruleDoc := range d.Rules {
			original := ruleDoc.Price
			if ruleDoc.OriginalPrice != nil {
				original = *ruleDoc.OriginalPrice
			}
			rules = append(rules, catalog.CombinationRule{
				Tuple:         catalog.Tuple(ruleDoc.Options).Clone(),
				Available:     ruleDoc.Available == nil || *ruleDoc.Available,
				Price:         ruleDoc.Price,
				OriginalPrice: original,
				Image:         ruleDoc.Image,
				StockTag:      ruleDoc.StockTag,
			})
		}
	case d.BasePrice != nil:
		original := *d.BasePrice
		if d.BaseOriginalPrice != nil {
			original = *d.BaseOriginalPrice
		}
		rules = catalog.BaseAvailabilityRules(dims, *d.BasePrice, original, d.BaseImage)
	}

	opts := []catalog.Option{catalog.WithTitle(d.Title)}
	if d.MaxQuantity > 0 {
		opts = append(opts, catalog.WithMaxQuantity(d.MaxQuantity))
	}
	return catalog.New(d.ProductID, dims, rules, opts...)
}
