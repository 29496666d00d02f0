package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/pricing"
	"github.com/ikkim/udonggeum-checkout/internal/engine/settlement"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/xuri/excelize/v2"
)

var ErrSettlementNotFound = errors.New("settlement not found")

type SettlementView struct {
	ID        string            `json:"id"`
	Lines     []cart.Line       `json:"lines"`
	Overrides map[string]int    `json:"overrides"`
	Pricing   pricing.Breakdown `json:"pricing"`
	CreatedAt time.Time         `json:"created_at"`
}

type SettlementService interface {
	Begin(shopperID string) (*SettlementView, error)
	Get(shopperID, settlementID string) (*SettlementView, error)
	AdjustQuantity(shopperID, settlementID, lineID string, quantity int) (*SettlementView, error)
	Cancel(shopperID, settlementID string)
	Export(shopperID, settlementID string) ([]byte, error)
	PruneOlderThan(age time.Duration) int
}

type settlementEntry struct {
	shopperID string
	session   *settlement.Session
}

type settlementService struct {
	carts    *CartRegistry
	coupons  CouponService
	shipping pricing.ShippingRule
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]settlementEntry
}

func NewSettlementService(carts *CartRegistry, coupons CouponService, shipping pricing.ShippingRule) SettlementService {
	return &settlementService{
		carts:    carts,
		coupons:  coupons,
		shipping: shipping,
		now:      time.Now,
		sessions: make(map[string]settlementEntry),
	}
}

// Begin opens a settlement over the shopper's currently selected lines.
func (s *settlementService) Begin(shopperID string) (*SettlementView, error) {
	agg, err := s.carts.Cart(shopperID)
	if err != nil {
		return nil, err
	}
	coupons, err := s.coupons.UsableCoupons(shopperID)
	if err != nil {
		return nil, err
	}

	session, err := settlement.Begin(agg.Snapshot(), coupons, s.shipping)
	if err != nil {
		logger.Warn("Cannot begin settlement", map[string]interface{}{
			"shopper_id": shopperID,
			"error":      err.Error(),
		})
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID()] = settlementEntry{shopperID: shopperID, session: session}
	s.mu.Unlock()

	logger.Info("Settlement started", map[string]interface{}{
		"shopper_id":    shopperID,
		"settlement_id": session.ID(),
		"lines":         len(session.Lines()),
		"total":         session.Pricing().Total.String(),
	})
	return settlementView(session), nil
}

func (s *settlementService) Get(shopperID, settlementID string) (*SettlementView, error) {
	session, err := s.lookup(shopperID, settlementID)
	if err != nil {
		return nil, err
	}
	return settlementView(session), nil
}

// AdjustQuantity changes a quantity inside the settlement only; the live cart is untouched.
func (s *settlementService) AdjustQuantity(shopperID, settlementID, lineID string, quantity int) (*SettlementView, error) {
	session, err := s.lookup(shopperID, settlementID)
	if err != nil {
		return nil, err
	}

	breakdown, err := session.AdjustQuantity(lineID, quantity)
	if err != nil {
		logger.Warn("Settlement quantity change rejected", map[string]interface{}{
			"settlement_id": settlementID,
			"line_id":       lineID,
			"error":         err.Error(),
		})
		return nil, err
	}

	logger.Info("Settlement quantity changed", map[string]interface{}{
		"settlement_id": settlementID,
		"line_id":       lineID,
		"quantity":      quantity,
		"total":         breakdown.Total.String(),
	})
	return settlementView(session), nil
}

// Cancel discards the settlement. Unknown or foreign ids are ignored.
func (s *settlementService) Cancel(shopperID, settlementID string) {
	s.mu.Lock()
	entry, ok := s.sessions[settlementID]
	if ok && entry.shopperID == shopperID {
		delete(s.sessions, settlementID)
	}
	s.mu.Unlock()

	if ok && entry.shopperID == shopperID {
		entry.session.Cancel()
		logger.Info("Settlement cancelled", map[string]interface{}{
			"shopper_id":    shopperID,
			"settlement_id": settlementID,
		})
	}
}

// PruneOlderThan cancels settlements opened more than age ago and returns how many were dropped.
func (s *settlementService) PruneOlderThan(age time.Duration) int {
	cutoff := s.now().Add(-age)

	s.mu.Lock()
	var stale []*settlement.Session
	for id, entry := range s.sessions {
		if entry.session.CreatedAt().Before(cutoff) {
			stale = append(stale, entry.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range stale {
		session.Cancel()
	}
	return len(stale)
}

func (s *settlementService) lookup(shopperID, settlementID string) (*settlement.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[settlementID]
	s.mu.RUnlock()

	if !ok || entry.shopperID != shopperID {
		return nil, fmt.Errorf("%w: %s", ErrSettlementNotFound, settlementID)
	}
	return entry.session, nil
}

func settlementView(session *settlement.Session) *SettlementView {
	return &SettlementView{
		ID:        session.ID(),
		Lines:     session.Lines(),
		Overrides: session.Overrides(),
		Pricing:   session.Pricing(),
		CreatedAt: session.CreatedAt(),
	}
}

const settlementSheet = "정산내역"

// Export renders the settlement as an XLSX workbook.
func (s *settlementService) Export(shopperID, settlementID string) ([]byte, error) {
	session, err := s.lookup(shopperID, settlementID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), settlementSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"매장", "상품", "옵션", "단가", "수량", "금액"}
	if err := f.SetSheetRow(settlementSheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, line := range session.Lines() {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			line.StoreID,
			line.Title,
			line.VariantLabel,
			line.UnitPrice.InexactFloat64(),
			line.Quantity,
			line.Amount().InexactFloat64(),
		}
		if err := f.SetSheetRow(settlementSheet, cell, &values); err != nil {
			return nil, err
		}
		row++
	}

	breakdown := session.Pricing()
	summary := [][]interface{}{
		{"상품금액", breakdown.Subtotal.InexactFloat64()},
		{"할인", breakdown.Discount.InexactFloat64()},
		{"배송비", breakdown.ShippingFee.InexactFloat64()},
		{"결제금액", breakdown.Total.InexactFloat64()},
	}
	if breakdown.CouponID != "" {
		summary = append(summary, []interface{}{"쿠폰", breakdown.CouponID})
	}
	row++
	for _, values := range summary {
		cell, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetSheetRow(settlementSheet, cell, &values); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to render settlement workbook", err, map[string]interface{}{
			"settlement_id": settlementID,
		})
		return nil, err
	}
	return buf.Bytes(), nil
}
