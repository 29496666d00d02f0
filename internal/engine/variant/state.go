package variant

import (
	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusIncomplete  Status = "incomplete"
	StatusResolved    Status = "resolved"
	StatusUnavailable Status = "unavailable"
)

// ResolvedVariant is a fully specified, sellable tuple.
type ResolvedVariant struct {
	ProductID     string          `json:"product_id"`
	Title         string          `json:"title,omitempty"`
	Label         string          `json:"label"`
	Tuple         catalog.Tuple   `json:"tuple"`
	Signature     string          `json:"signature"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Image         string          `json:"image,omitempty"`
	StockTag      string          `json:"stock_tag,omitempty"`
	MaxQuantity   int             `json:"max_quantity"`
}

// Selectable lists, per dimension id, the options that can still be chosen.
type Selectable map[string][]catalog.VariantOption

// ResolutionState is one of Incomplete, Resolved or Unavailable.
type ResolutionState interface {
	Status() Status
	SelectableOptions() Selectable
	resolutionState()
}

type Incomplete struct {
	Selection catalog.Tuple
	Missing   []string
	Options   Selectable
}

type Resolved struct {
	Variant ResolvedVariant
	Options Selectable
}

type Unavailable struct {
	Tuple   catalog.Tuple
	Options Selectable
}

func (Incomplete) Status() Status  { return StatusIncomplete }
func (Resolved) Status() Status    { return StatusResolved }
func (Unavailable) Status() Status { return StatusUnavailable }

func (s Incomplete) SelectableOptions() Selectable  { return s.Options }
func (s Resolved) SelectableOptions() Selectable    { return s.Options }
func (s Unavailable) SelectableOptions() Selectable { return s.Options }

func (Incomplete) resolutionState()  {}
func (Resolved) resolutionState()    {}
func (Unavailable) resolutionState() {}
