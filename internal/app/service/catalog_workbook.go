package service

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names. Each sheet's first row is a header.
const (
	ProductsSheet = "products"
	OptionsSheet  = "options"
	RulesSheet    = "rules"
)

var (
	productsHeader = []string{"product_id", "title", "store_id", "max_quantity", "base_price", "base_original_price", "base_image"}
	optionsHeader  = []string{"product_id", "dimension_id", "dimension_name", "option_id", "option_label", "base_available", "is_default"}
	rulesHeader    = []string{"product_id", "options", "available", "price", "original_price", "image", "stock_tag"}
)

// ReadCatalogWorkbook reads catalog documents from an XLSX workbook with products, options and
// rules sheets. Rule options are written as "color=black;storage=128". The rules sheet may be
// omitted, in which case each product needs a base price.
func ReadCatalogWorkbook(r io.Reader) ([]*CatalogDocument, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	products, err := sheetRecords(f, ProductsSheet, true)
	if err != nil {
		return nil, err
	}
	options, err := sheetRecords(f, OptionsSheet, true)
	if err != nil {
		return nil, err
	}
	rules, err := sheetRecords(f, RulesSheet, false)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]*CatalogDocument)
	var order []string
	for _, rec := range products {
		id := rec.get("product_id")
		if id == "" {
			return nil, fmt.Errorf("%s row %d: product_id is required", ProductsSheet, rec.row)
		}
		if _, dup := docs[id]; dup {
			return nil, fmt.Errorf("%s row %d: product %q listed twice", ProductsSheet, rec.row, id)
		}
		doc := &CatalogDocument{
			ProductID: id,
			Title:     rec.get("title"),
			StoreID:   rec.get("store_id"),
			BaseImage: rec.get("base_image"),
		}
		if v := rec.get("max_quantity"); v != "" {
			if doc.MaxQuantity, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("%s row %d: max_quantity: %w", ProductsSheet, rec.row, err)
			}
		}
		if doc.BasePrice, err = rec.decimalPtr("base_price"); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ProductsSheet, rec.row, err)
		}
		if doc.BaseOriginalPrice, err = rec.decimalPtr("base_original_price"); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ProductsSheet, rec.row, err)
		}
		docs[id] = doc
		order = append(order, id)
	}

	for _, rec := range options {
		doc, ok := docs[rec.get("product_id")]
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown product %q", OptionsSheet, rec.row, rec.get("product_id"))
		}
		dimID := rec.get("dimension_id")
		var dim *DimensionDocument
		for i := range doc.Dimensions {
			if doc.Dimensions[i].ID == dimID {
				dim = &doc.Dimensions[i]
				break
			}
		}
		if dim == nil {
			doc.Dimensions = append(doc.Dimensions, DimensionDocument{ID: dimID, Name: rec.get("dimension_name")})
			dim = &doc.Dimensions[len(doc.Dimensions)-1]
		}

		available, err := rec.boolPtr("base_available")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", OptionsSheet, rec.row, err)
		}
		isDefault, err := rec.boolPtr("is_default")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", OptionsSheet, rec.row, err)
		}
		dim.Options = append(dim.Options, OptionDocument{
			ID:            rec.get("option_id"),
			Label:         rec.get("option_label"),
			BaseAvailable: available,
			IsDefault:     isDefault != nil && *isDefault,
		})
	}

	for _, rec := range rules {
		doc, ok := docs[rec.get("product_id")]
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown product %q", RulesSheet, rec.row, rec.get("product_id"))
		}
		tuple, err := ParseOptionTuple(rec.get("options"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", RulesSheet, rec.row, err)
		}
		available, err := rec.boolPtr("available")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", RulesSheet, rec.row, err)
		}
		price, err := decimal.NewFromString(rec.get("price"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: price: %w", RulesSheet, rec.row, err)
		}
		original, err := rec.decimalPtr("original_price")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", RulesSheet, rec.row, err)
		}
		doc.Rules = append(doc.Rules, RuleDocument{
			Options:       tuple,
			Available:     available,
			Price:         price,
			OriginalPrice: original,
			Image:         rec.get("image"),
			StockTag:      rec.get("stock_tag"),
		})
	}

	out := make([]*CatalogDocument, 0, len(order))
	for _, id := range order {
		out = append(out, docs[id])
	}
	return out, nil
}

// WriteCatalogWorkbook renders docs in the layout ReadCatalogWorkbook expects.
func WriteCatalogWorkbook(w io.Writer, docs []*CatalogDocument) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ProductsSheet); err != nil {
		return err
	}
	for _, sheet := range []string{OptionsSheet, RulesSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	rows := map[string][][]string{
		ProductsSheet: {productsHeader},
		OptionsSheet:  {optionsHeader},
		RulesSheet:    {rulesHeader},
	}
	for _, doc := range docs {
		rows[ProductsSheet] = append(rows[ProductsSheet], []string{
			doc.ProductID, doc.Title, doc.StoreID, intString(doc.MaxQuantity),
			decimalString(doc.BasePrice), decimalString(doc.BaseOriginalPrice), doc.BaseImage,
		})
		for _, dim := range doc.Dimensions {
			for _, opt := range dim.Options {
				rows[OptionsSheet] = append(rows[OptionsSheet], []string{
					doc.ProductID, dim.ID, dim.Name, opt.ID, opt.Label,
					boolString(opt.BaseAvailable), strconv.FormatBool(opt.IsDefault),
				})
			}
		}
		for _, rule := range doc.Rules {
			rows[RulesSheet] = append(rows[RulesSheet], []string{
				doc.ProductID, FormatOptionTuple(rule.Options), boolString(rule.Available),
				rule.Price.String(), decimalString(rule.OriginalPrice), rule.Image, rule.StockTag,
			})
		}
	}

	for sheet, records := range rows {
		for i, record := range records {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			values := make([]interface{}, len(record))
			for j, v := range record {
				values[j] = v
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// ParseOptionTuple parses "dim=opt;dim=opt".
func ParseOptionTuple(s string) (map[string]string, error) {
	tuple := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		dim, opt, ok := strings.Cut(pair, "=")
		dim, opt = strings.TrimSpace(dim), strings.TrimSpace(opt)
		if !ok || dim == "" || opt == "" {
			return nil, fmt.Errorf("invalid option pair %q", pair)
		}
		if _, dup := tuple[dim]; dup {
			return nil, fmt.Errorf("dimension %q repeated", dim)
		}
		tuple[dim] = opt
	}
	if len(tuple) == 0 {
		return nil, fmt.Errorf("no options in %q", s)
	}
	return tuple, nil
}

// FormatOptionTuple renders a tuple with dimensions in sorted order.
func FormatOptionTuple(tuple map[string]string) string {
	dims := make([]string, 0, len(tuple))
	for dim := range tuple {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	pairs := make([]string, len(dims))
	for i, dim := range dims {
		pairs[i] = dim + "=" + tuple[dim]
	}
	return strings.Join(pairs, ";")
}

type sheetRecord struct {
	row    int
	fields map[string]string
}

func (r sheetRecord) get(name string) string {
	return r.fields[name]
}

func (r sheetRecord) decimalPtr(name string) (*decimal.Decimal, error) {
	v := r.get(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

func (r sheetRecord) boolPtr(name string) (*bool, error) {
	v := strings.ToLower(r.get(name))
	switch v {
	case "":
		return nil, nil
	case "y", "yes", "o":
		b := true
		return &b, nil
	case "n", "no", "x":
		b := false
		return &b, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &b, nil
}

// sheetRecords maps each data row to its header names. Blank rows are skipped.
func sheetRecords(f *excelize.File, sheet string, required bool) ([]sheetRecord, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if required {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
		return nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []sheetRecord
	for i, row := range rows[1:] {
		fields := make(map[string]string, len(header))
		blank := true
		for j, name := range header {
			if j < len(row) {
				fields[name] = strings.TrimSpace(row[j])
				if fields[name] != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		records = append(records, sheetRecord{row: i + 2, fields: fields})
	}
	return records, nil
}

func intString(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func boolString(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
