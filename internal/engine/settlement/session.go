package settlement

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/internal/engine/pricing"
)

var (
	ErrEmptySelection = errors.New("no cart lines selected")
	ErrLineNotFound   = errors.New("settlement line not found")
	ErrSessionClosed  = errors.New("settlement session is closed")
)

// Session is a detached copy of the selected cart lines. Quantity changes made here are kept as
// overrides and never reach the cart the session was started from.
type Session struct {
	id          string
	createdAt   time.Time
	lines       []cart.Line
	maxQuantity int
	coupons     []pricing.Coupon
	shipping    pricing.ShippingRule

	mu        sync.RWMutex
	overrides map[string]int
	breakdown pricing.Breakdown
	closed    bool
}

// Begin snapshots the selected lines of snap by value.
func Begin(snap cart.Snapshot, coupons []pricing.Coupon, shipping pricing.ShippingRule) (*Session, error) {
	if snap.SelectedCount() == 0 {
		return nil, ErrEmptySelection
	}

	s := &Session{
		id:          uuid.NewString(),
		createdAt:   time.Now(),
		lines:       snap.SelectedLines(),
		maxQuantity: snap.MaxQuantity(),
		coupons:     append([]pricing.Coupon(nil), coupons...),
		shipping:    shipping,
		overrides:   make(map[string]int),
	}
	if s.maxQuantity <= 0 {
		s.maxQuantity = catalog.DefaultMaxQuantity
	}
	s.breakdown = pricing.ComputeBreakdown(s.lines, s.coupons, s.shipping)
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Lines returns the snapshot with overrides applied.
func (s *Session) Lines() []cart.Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effectiveLines()
}

// Overrides returns a copy of the per-line quantity overrides.
func (s *Session) Overrides() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.overrides))
	for id, q := range s.overrides {
		out[id] = q
	}
	return out
}

func (s *Session) Pricing() pricing.Breakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.breakdown
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// AdjustQuantity overrides a line's quantity inside the session and reprices. The quantity is
// clamped into [1, MaxQuantity] of both the cart and the line.
func (s *Session) AdjustQuantity(lineID string, quantity int) (pricing.Breakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.breakdown, ErrSessionClosed
	}
	var target *cart.Line
	for i := range s.lines {
		if s.lines[i].LineID == lineID {
			target = &s.lines[i]
			break
		}
	}
	if target == nil {
		return s.breakdown, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}

	s.overrides[lineID] = cart.ClampQuantity(quantity, s.maxQuantity, target.MaxQuantity)
	s.breakdown = pricing.ComputeBreakdown(s.effectiveLines(), s.coupons, s.shipping)
	return s.breakdown, nil
}

// Cancel closes the session. It is safe to call more than once.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) effectiveLines() []cart.Line {
	out := make([]cart.Line, len(s.lines))
	for i, line := range s.lines {
		if q, ok := s.overrides[line.LineID]; ok {
			line.Quantity = q
		}
		out[i] = line
	}
	return out
}
