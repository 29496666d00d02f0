package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/internal/engine/pricing"
	"github.com/ikkim/udonggeum-checkout/internal/engine/variant"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

var ErrOutOfStock = errors.New("variant is out of stock")

type OptionView struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Selectable bool   `json:"selectable"`
	Selected   bool   `json:"selected"`
}

type DimensionView struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Selected string       `json:"selected,omitempty"`
	Options  []OptionView `json:"options"`
}

// VariantView is the read model of one shopper's selection on a product detail page.
type VariantView struct {
	ProductID   string                   `json:"product_id"`
	Title       string                   `json:"title"`
	StoreID     string                   `json:"store_id"`
	Status      variant.Status           `json:"status"`
	Dimensions  []DimensionView          `json:"dimensions"`
	Missing     []string                 `json:"missing,omitempty"`
	Variant     *variant.ResolvedVariant `json:"variant,omitempty"`
	Quantity    int                      `json:"quantity"`
	MaxQuantity int                      `json:"max_quantity"`
	Amount      decimal.Decimal          `json:"amount"`
	CanCommit   bool                     `json:"can_commit"`
}

// CartView is the read model of a cart with a live pricing preview over the selected lines.
type CartView struct {
	Version       uint64            `json:"version"`
	Stores        []cart.StoreGroup `json:"stores"`
	LineCount     int               `json:"line_count"`
	SelectedCount int               `json:"selected_count"`
	SelectedTotal decimal.Decimal   `json:"selected_total"`
	AllTotal      decimal.Decimal   `json:"all_total"`
	AllSelected   bool              `json:"all_selected"`
	Pricing       pricing.Breakdown `json:"pricing"`
}

type ShoppingService interface {
	VariantState(ctx context.Context, shopperID, productID string) (*VariantView, error)
	SelectOption(ctx context.Context, shopperID, productID, dimensionID, optionID string) (*VariantView, error)
	DeselectOption(ctx context.Context, shopperID, productID, dimensionID string) (*VariantView, error)
	SetVariantQuantity(ctx context.Context, shopperID, productID string, quantity int) (*VariantView, error)
	AddToCart(ctx context.Context, shopperID, productID string) (string, *CartView, error)

	GetCart(shopperID string) (*CartView, error)
	ToggleLine(shopperID, lineID string) (*CartView, error)
	SetLineQuantity(shopperID, lineID string, quantity int) (*CartView, error)
	RemoveLine(shopperID, lineID string) (*CartView, error)
	ToggleStore(shopperID, storeID string) (*CartView, error)
	SelectAll(shopperID string, selected bool) (*CartView, error)
}

type resolverKey struct {
	shopperID string
	productID string
}

type shoppingService struct {
	catalogs CatalogService
	carts    *CartRegistry
	coupons  CouponService
	shipping pricing.ShippingRule

	// resolvers are single-owner state machines; mu serializes every command on them
	mu        sync.Mutex
	resolvers map[resolverKey]*variant.Resolver
}

func NewShoppingService(
	catalogs CatalogService,
	carts *CartRegistry,
	coupons CouponService,
	shipping pricing.ShippingRule,
) ShoppingService {
	return &shoppingService{
		catalogs:  catalogs,
		carts:     carts,
		coupons:   coupons,
		shipping:  shipping,
		resolvers: make(map[resolverKey]*variant.Resolver),
	}
}

func (s *shoppingService) VariantState(ctx context.Context, shopperID, productID string) (*VariantView, error) {
	product, err := s.catalogs.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return variantView(product, s.resolver(shopperID, product)), nil
}

func (s *shoppingService) SelectOption(ctx context.Context, shopperID, productID, dimensionID, optionID string) (*VariantView, error) {
	product, err := s.catalogs.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.resolver(shopperID, product)
	state, err := r.Select(dimensionID, optionID)
	if err != nil {
		logger.Warn("Option selection rejected", map[string]interface{}{
			"shopper_id":   shopperID,
			"product_id":   productID,
			"dimension_id": dimensionID,
			"option_id":    optionID,
			"error":        err.Error(),
		})
		return nil, err
	}

	logger.Info("Option selected", map[string]interface{}{
		"shopper_id":   shopperID,
		"product_id":   productID,
		"dimension_id": dimensionID,
		"option_id":    optionID,
		"status":       state.Status(),
	})
	return variantView(product, r), nil
}

func (s *shoppingService) DeselectOption(ctx context.Context, shopperID, productID, dimensionID string) (*VariantView, error) {
	product, err := s.catalogs.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.resolver(shopperID, product)
	if _, err := r.Deselect(dimensionID); err != nil {
		return nil, err
	}
	return variantView(product, r), nil
}

func (s *shoppingService) SetVariantQuantity(ctx context.Context, shopperID, productID string, quantity int) (*VariantView, error) {
	product, err := s.catalogs.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.resolver(shopperID, product)
	r.SetQuantity(quantity)
	return variantView(product, r), nil
}

// AddToCart commits the shopper's current selection for productID into their cart.
func (s *shoppingService) AddToCart(ctx context.Context, shopperID, productID string) (string, *CartView, error) {
	product, err := s.catalogs.Get(ctx, productID)
	if err != nil {
		return "", nil, err
	}
	agg, err := s.carts.Cart(shopperID)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	r := s.resolver(shopperID, product)
	state, quantity := r.State(), r.Quantity()
	s.mu.Unlock()

	if resolved, ok := state.(variant.Resolved); ok && catalog.IsZeroStock(resolved.Variant.StockTag) {
		logger.Warn("Cannot add to cart: variant out of stock", map[string]interface{}{
			"shopper_id": shopperID,
			"product_id": productID,
			"signature":  resolved.Variant.Signature,
		})
		return "", nil, ErrOutOfStock
	}

	lineID, err := agg.AddLine(state, quantity, product.StoreID)
	if err != nil {
		logger.Warn("Cannot add to cart", map[string]interface{}{
			"shopper_id": shopperID,
			"product_id": productID,
			"status":     state.Status(),
			"error":      err.Error(),
		})
		return "", nil, err
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"shopper_id": shopperID,
		"product_id": productID,
		"line_id":    lineID,
		"quantity":   quantity,
	})
	view, err := s.cartView(shopperID, agg.Snapshot())
	if err != nil {
		return "", nil, err
	}
	return lineID, view, nil
}

func (s *shoppingService) GetCart(shopperID string) (*CartView, error) {
	agg, err := s.carts.Cart(shopperID)
	if err != nil {
		return nil, err
	}
	return s.cartView(shopperID, agg.Snapshot())
}

func (s *shoppingService) ToggleLine(shopperID, lineID string) (*CartView, error) {
	return s.mutateCart(shopperID, "toggle_line", func(agg *cart.Aggregator) error {
		return agg.ToggleSelection(lineID)
	})
}

func (s *shoppingService) SetLineQuantity(shopperID, lineID string, quantity int) (*CartView, error) {
	return s.mutateCart(shopperID, "set_quantity", func(agg *cart.Aggregator) error {
		return agg.SetQuantity(lineID, quantity)
	})
}

func (s *shoppingService) RemoveLine(shopperID, lineID string) (*CartView, error) {
	return s.mutateCart(shopperID, "remove_line", func(agg *cart.Aggregator) error {
		agg.RemoveLine(lineID)
		return nil
	})
}

func (s *shoppingService) ToggleStore(shopperID, storeID string) (*CartView, error) {
	return s.mutateCart(shopperID, "toggle_store", func(agg *cart.Aggregator) error {
		agg.ToggleStoreSelection(storeID)
		return nil
	})
}

func (s *shoppingService) SelectAll(shopperID string, selected bool) (*CartView, error) {
	return s.mutateCart(shopperID, "select_all", func(agg *cart.Aggregator) error {
		agg.SetAllSelected(selected)
		return nil
	})
}

func (s *shoppingService) mutateCart(shopperID, command string, apply func(*cart.Aggregator) error) (*CartView, error) {
	agg, err := s.carts.Cart(shopperID)
	if err != nil {
		return nil, err
	}
	if err := apply(agg); err != nil {
		logger.Warn("Cart command rejected", map[string]interface{}{
			"shopper_id": shopperID,
			"command":    command,
			"error":      err.Error(),
		})
		return nil, err
	}

	snapshot := agg.Snapshot()
	logger.Info("Cart command applied", map[string]interface{}{
		"shopper_id": shopperID,
		"command":    command,
		"version":    snapshot.Version(),
	})
	return s.cartView(shopperID, snapshot)
}

func (s *shoppingService) cartView(shopperID string, snapshot cart.Snapshot) (*CartView, error) {
	return RenderCart(s.coupons, s.shipping)(shopperID, snapshot)
}

// RenderCart returns a function that prices a shopper's snapshot with their usable coupons.
func RenderCart(coupons CouponService, shipping pricing.ShippingRule) func(shopperID string, snapshot cart.Snapshot) (*CartView, error) {
	return func(shopperID string, snapshot cart.Snapshot) (*CartView, error) {
		usable, err := coupons.UsableCoupons(shopperID)
		if err != nil {
			return nil, err
		}
		return NewCartView(snapshot, pricing.ComputeBreakdown(snapshot.SelectedLines(), usable, shipping)), nil
	}
}

// NewCartView builds the cart read model from a snapshot and its pricing preview.
func NewCartView(snapshot cart.Snapshot, breakdown pricing.Breakdown) *CartView {
	stores := snapshot.LinesByStore()
	if stores == nil {
		stores = []cart.StoreGroup{}
	}
	allSelected := snapshot.Len() > 0
	for _, group := range stores {
		allSelected = allSelected && group.AllSelected
	}
	return &CartView{
		Version:       snapshot.Version(),
		Stores:        stores,
		LineCount:     snapshot.Len(),
		SelectedCount: snapshot.SelectedCount(),
		SelectedTotal: snapshot.SelectedTotal(),
		AllTotal:      snapshot.AllTotal(),
		AllSelected:   allSelected,
		Pricing:       breakdown,
	}
}

// resolver returns the shopper's resolver for the product, starting on the default SKU. A
// reloaded catalog rebinds the resolver so the shopper keeps their choices and quantity.
// Callers hold s.mu.
func (s *shoppingService) resolver(shopperID string, product *ProductCatalog) *variant.Resolver {
	key := resolverKey{shopperID: shopperID, productID: product.Catalog.ProductID()}
	r, ok := s.resolvers[key]
	switch {
	case ok && r.Catalog() == product.Catalog:
		return r
	case ok:
		r = variant.Rebind(r, product.Catalog)
	default:
		r = variant.NewResolver(product.Catalog, variant.WithDefaults())
	}
	s.resolvers[key] = r
	return r
}

func variantView(product *ProductCatalog, r *variant.Resolver) *VariantView {
	cat := product.Catalog
	state := r.State()
	selection := r.Selection()
	selectable := state.SelectableOptions()

	view := &VariantView{
		ProductID:   cat.ProductID(),
		Title:       cat.Title(),
		StoreID:     product.StoreID,
		Status:      state.Status(),
		Quantity:    r.Quantity(),
		MaxQuantity: cat.MaxQuantity(),
		Amount:      decimal.Zero,
		CanCommit:   r.CanCommit(),
	}

	for _, dim := range cat.Dimensions() {
		open := make(map[string]bool, len(selectable[dim.ID]))
		for _, opt := range selectable[dim.ID] {
			open[opt.ID] = true
		}
		dv := DimensionView{
			ID:       dim.ID,
			Name:     dim.Name,
			Selected: selection[dim.ID],
			Options:  make([]OptionView, 0, len(dim.Options)),
		}
		for _, opt := range dim.Options {
			dv.Options = append(dv.Options, OptionView{
				ID:         opt.ID,
				Label:      opt.Label,
				Selectable: open[opt.ID],
				Selected:   selection[dim.ID] == opt.ID,
			})
		}
		view.Dimensions = append(view.Dimensions, dv)
	}

	switch st := state.(type) {
	case variant.Incomplete:
		view.Missing = st.Missing
	case variant.Resolved:
		v := st.Variant
		view.Variant = &v
		view.Amount = v.Price.Mul(decimal.NewFromInt(int64(r.Quantity())))
	case variant.Unavailable:
	}
	return view
}
