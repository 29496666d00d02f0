package cart

import "github.com/shopspring/decimal"

type Line struct {
	LineID           string          `json:"line_id"`
	ProductID        string          `json:"product_id"`
	VariantSignature string          `json:"variant_signature"`
	StoreID          string          `json:"store_id"`
	Title            string          `json:"title,omitempty"`
	VariantLabel     string          `json:"variant_label,omitempty"`
	Image            string          `json:"image,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	Selected         bool            `json:"selected"`
	// MaxQuantity is the product's own limit. Zero means only the cart limit applies.
	MaxQuantity int `json:"max_quantity,omitempty"`
}

// Amount is UnitPrice * Quantity.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) key() lineKey {
	return lineKey{productID: l.ProductID, signature: l.VariantSignature}
}

type lineKey struct {
	productID string
	signature string
}

type StoreGroup struct {
	StoreID     string `json:"store_id"`
	Lines       []Line `json:"lines"`
	AllSelected bool   `json:"all_selected"`
}

// Snapshot is an immutable view of a cart at one version. All derived values are computed
// from the lines on every call.
type Snapshot struct {
	lines       []Line
	version     uint64
	maxQuantity int
}

func (s Snapshot) Version() uint64 { return s.version }

func (s Snapshot) MaxQuantity() int { return s.maxQuantity }

func (s Snapshot) Len() int { return len(s.lines) }

func (s Snapshot) Lines() []Line {
	return append([]Line(nil), s.lines...)
}

func (s Snapshot) Line(lineID string) (Line, bool) {
	for _, line := range s.lines {
		if line.LineID == lineID {
			return line, true
		}
	}
	return Line{}, false
}

// LinesByStore groups lines by store. Stores appear in the order their first line was added
// and lines keep insertion order within a store.
func (s Snapshot) LinesByStore() []StoreGroup {
	var groups []StoreGroup
	index := make(map[string]int)
	for _, line := range s.lines {
		i, ok := index[line.StoreID]
		if !ok {
			i = len(groups)
			index[line.StoreID] = i
			groups = append(groups, StoreGroup{StoreID: line.StoreID, AllSelected: true})
		}
		groups[i].Lines = append(groups[i].Lines, line)
		if !line.Selected {
			groups[i].AllSelected = false
		}
	}
	return groups
}

func (s Snapshot) SelectedLines() []Line {
	var out []Line
	for _, line := range s.lines {
		if line.Selected {
			out = append(out, line)
		}
	}
	return out
}

// SelectedCount is the sum of quantities over selected lines.
func (s Snapshot) SelectedCount() int {
	count := 0
	for _, line := range s.lines {
		if line.Selected {
			count += line.Quantity
		}
	}
	return count
}

func (s Snapshot) SelectedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines {
		if line.Selected {
			total = total.Add(line.Amount())
		}
	}
	return total
}

func (s Snapshot) AllTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Amount())
	}
	return total
}
