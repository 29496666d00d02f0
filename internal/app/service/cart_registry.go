package service

import (
	"sync"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
)

// CartPublisher receives every new cart snapshot of a shopper.
type CartPublisher interface {
	PublishCart(shopperID string, snapshot cart.Snapshot)
}

// CartRegistry owns one aggregator per shopper. Aggregators are restored from the store on
// first use and every new snapshot is written back and handed to the publisher.
type CartRegistry struct {
	repo        repository.CartRepository
	publisher   CartPublisher
	maxQuantity int

	mu    sync.Mutex
	carts map[string]*cart.Aggregator

	persistMu sync.Mutex
	persisted map[string]uint64
}

func NewCartRegistry(repo repository.CartRepository, publisher CartPublisher, maxQuantity int) *CartRegistry {
	return &CartRegistry{
		repo:        repo,
		publisher:   publisher,
		maxQuantity: maxQuantity,
		carts:       make(map[string]*cart.Aggregator),
		persisted:   make(map[string]uint64),
	}
}

// Cart returns the shopper's aggregator, loading it on first use.
func (r *CartRegistry) Cart(shopperID string) (*cart.Aggregator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if agg, ok := r.carts[shopperID]; ok {
		return agg, nil
	}

	rows, err := r.repo.FindByShopperID(shopperID)
	if err != nil {
		logger.Error("Failed to restore cart", err, map[string]interface{}{
			"shopper_id": shopperID,
		})
		return nil, err
	}

	lines := make([]cart.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lineFromModel(row))
	}
	agg := cart.Restore(lines, cart.WithMaxQuantity(r.maxQuantity))
	agg.Subscribe(func(snapshot cart.Snapshot) {
		r.persist(shopperID, snapshot)
		if r.publisher != nil {
			r.publisher.PublishCart(shopperID, snapshot)
		}
	})
	r.carts[shopperID] = agg

	logger.Debug("Cart restored", map[string]interface{}{
		"shopper_id": shopperID,
		"lines":      len(lines),
	})
	return agg, nil
}

// persist writes the snapshot through. Observers may run concurrently, so a snapshot older than
// the last one written is dropped. A failed write is logged; the in-memory cart stays
// authoritative and the next successful write catches the store up.
func (r *CartRegistry) persist(shopperID string, snapshot cart.Snapshot) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	if snapshot.Version() <= r.persisted[shopperID] {
		return
	}

	lines := snapshot.Lines()
	rows := make([]model.CartLine, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, lineToModel(shopperID, line))
	}
	if err := r.repo.ReplaceForShopper(shopperID, rows); err != nil {
		logger.Error("Failed to persist cart", err, map[string]interface{}{
			"shopper_id": shopperID,
			"version":    snapshot.Version(),
		})
		return
	}
	r.persisted[shopperID] = snapshot.Version()
}

func lineFromModel(row model.CartLine) cart.Line {
	return cart.Line{
		LineID:           row.LineID,
		ProductID:        row.ProductID,
		VariantSignature: row.VariantSignature,
		StoreID:          row.StoreID,
		Title:            row.Title,
		VariantLabel:     row.VariantLabel,
		Image:            row.Image,
		UnitPrice:        row.UnitPrice,
		Quantity:         row.Quantity,
		Selected:         row.Selected,
		MaxQuantity:      row.MaxQuantity,
	}
}

func lineToModel(shopperID string, line cart.Line) model.CartLine {
	return model.CartLine{
		ShopperID:        shopperID,
		LineID:           line.LineID,
		ProductID:        line.ProductID,
		VariantSignature: line.VariantSignature,
		StoreID:          line.StoreID,
		Title:            line.Title,
		VariantLabel:     line.VariantLabel,
		Image:            line.Image,
		UnitPrice:        line.UnitPrice,
		Quantity:         line.Quantity,
		Selected:         line.Selected,
		MaxQuantity:      line.MaxQuantity,
	}
}
