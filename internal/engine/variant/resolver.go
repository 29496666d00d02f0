package variant

import (
	"errors"
	"fmt"

	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
)

var (
	ErrInvalidOption    = errors.New("invalid option")
	ErrUnknownDimension = errors.New("unknown dimension")
)

// Resolver tracks one shopper's selection for one product. It is not safe for concurrent use;
// callers serialize commands the way a single UI thread would.
type Resolver struct {
	catalog   *catalog.Catalog
	selection catalog.Tuple
	quantity  int
	state     ResolutionState
}

type ResolverOption func(*Resolver)

// WithDefaults preselects each dimension's declared default option when it is satisfiable.
func WithDefaults() ResolverOption {
	return func(r *Resolver) {
		for _, dim := range r.catalog.Dimensions() {
			if dim.DefaultOptionID == "" {
				continue
			}
			opt, ok := dim.Option(dim.DefaultOptionID)
			if !ok || !opt.BaseAvailable {
				continue
			}
			if r.catalog.Satisfiable(dim.ID, opt.ID, r.selection) {
				r.selection[dim.ID] = opt.ID
			}
		}
	}
}

func WithQuantity(q int) ResolverOption {
	return func(r *Resolver) {
		r.quantity = r.clamp(q)
	}
}

func NewResolver(cat *catalog.Catalog, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		catalog:   cat,
		selection: catalog.Tuple{},
		quantity:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state = r.derive()
	return r
}

// Rebind returns a resolver over cat that keeps prev's quantity and as much of its selection
// as cat still allows. Choices cat rejects fall back the same way Select does.
func Rebind(prev *Resolver, cat *catalog.Catalog) *Resolver {
	r := NewResolver(cat, WithDefaults(), WithQuantity(prev.quantity))
	for _, dim := range cat.Dimensions() {
		if _, set := prev.selection[dim.ID]; !set {
			_, _ = r.Deselect(dim.ID)
		}
	}
	for _, dim := range cat.Dimensions() {
		if optionID, set := prev.selection[dim.ID]; set {
			_, _ = r.Select(dim.ID, optionID)
		}
	}
	return r
}

func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

func (r *Resolver) State() ResolutionState { return r.state }

func (r *Resolver) Selection() catalog.Tuple { return r.selection.Clone() }

func (r *Resolver) Quantity() int { return r.quantity }

// Select chooses optionID for dimensionID. Other dimensions whose choice no longer has a
// satisfiable completion fall back to their default, then to the first satisfiable option,
// and are left unset when nothing fits. On error the selection is unchanged.
func (r *Resolver) Select(dimensionID, optionID string) (ResolutionState, error) {
	dim, ok := r.catalog.Dimension(dimensionID)
	if !ok {
		return r.state, fmt.Errorf("%w: %q", ErrUnknownDimension, dimensionID)
	}
	opt, ok := dim.Option(optionID)
	if !ok {
		return r.state, fmt.Errorf("%w: %q is not an option of %q", ErrInvalidOption, optionID, dimensionID)
	}
	if !opt.BaseAvailable {
		return r.state, fmt.Errorf("%w: %q is not available", ErrInvalidOption, optionID)
	}

	next := r.selection.Clone()
	next[dimensionID] = optionID

	// Each kept dimension is checked against the changed one plus those already kept, so the
	// final choices always share at least one sellable combination.
	settled := catalog.Tuple{dimensionID: optionID}
	for _, other := range r.catalog.Dimensions() {
		if other.ID == dimensionID {
			continue
		}
		chosen, set := next[other.ID]
		if !set {
			continue
		}
		if r.catalog.Satisfiable(other.ID, chosen, settled) {
			settled[other.ID] = chosen
			continue
		}
		if fallback, ok := r.fallback(other, settled); ok {
			next[other.ID] = fallback
			settled[other.ID] = fallback
		} else {
			delete(next, other.ID)
		}
	}

	r.selection = next
	r.state = r.derive()
	return r.state, nil
}

// Deselect clears a dimension's choice.
func (r *Resolver) Deselect(dimensionID string) (ResolutionState, error) {
	if _, ok := r.catalog.Dimension(dimensionID); !ok {
		return r.state, fmt.Errorf("%w: %q", ErrUnknownDimension, dimensionID)
	}
	if _, set := r.selection[dimensionID]; !set {
		return r.state, nil
	}
	next := r.selection.Clone()
	delete(next, dimensionID)
	r.selection = next
	r.state = r.derive()
	return r.state, nil
}

// SetQuantity clamps q into [1, MaxQuantity] and returns the stored value.
func (r *Resolver) SetQuantity(q int) int {
	r.quantity = r.clamp(q)
	return r.quantity
}

// CanCommit reports whether the current selection may be added to a cart.
func (r *Resolver) CanCommit() bool {
	resolved, ok := r.state.(Resolved)
	if !ok {
		return false
	}
	if r.quantity < 1 || r.quantity > r.catalog.MaxQuantity() {
		return false
	}
	return !catalog.IsZeroStock(resolved.Variant.StockTag)
}

func (r *Resolver) clamp(q int) int {
	if q < 1 {
		return 1
	}
	if limit := r.catalog.MaxQuantity(); q > limit {
		return limit
	}
	return q
}

func (r *Resolver) fallback(dim catalog.VariantDimension, fixed catalog.Tuple) (string, bool) {
	if dim.DefaultOptionID != "" {
		if opt, ok := dim.Option(dim.DefaultOptionID); ok && opt.BaseAvailable &&
			r.catalog.Satisfiable(dim.ID, opt.ID, fixed) {
			return opt.ID, true
		}
	}
	for _, opt := range dim.Options {
		if opt.BaseAvailable && r.catalog.Satisfiable(dim.ID, opt.ID, fixed) {
			return opt.ID, true
		}
	}
	return "", false
}

func (r *Resolver) selectable() Selectable {
	out := make(Selectable)
	for _, dim := range r.catalog.Dimensions() {
		options := make([]catalog.VariantOption, 0, len(dim.Options))
		for _, opt := range dim.Options {
			if opt.BaseAvailable && r.catalog.Satisfiable(dim.ID, opt.ID, r.selection) {
				options = append(options, opt)
			}
		}
		out[dim.ID] = options
	}
	return out
}

func (r *Resolver) derive() ResolutionState {
	options := r.selectable()

	var missing []string
	for _, dim := range r.catalog.Dimensions() {
		if _, set := r.selection[dim.ID]; !set {
			missing = append(missing, dim.ID)
		}
	}
	if len(missing) > 0 {
		return Incomplete{Selection: r.selection.Clone(), Missing: missing, Options: options}
	}

	rule, ok := r.catalog.RuleFor(r.selection)
	if !ok || !rule.Available {
		return Unavailable{Tuple: r.selection.Clone(), Options: options}
	}

	tuple := r.selection.Clone()
	return Resolved{
		Variant: ResolvedVariant{
			ProductID:     r.catalog.ProductID(),
			Title:         r.catalog.Title(),
			Label:         r.catalog.Label(tuple),
			Tuple:         tuple,
			Signature:     tuple.Signature(),
			Price:         rule.Price,
			OriginalPrice: rule.OriginalPrice,
			Image:         rule.Image,
			StockTag:      rule.StockTag,
			MaxQuantity:   r.catalog.MaxQuantity(),
		},
		Options: options,
	}
}
