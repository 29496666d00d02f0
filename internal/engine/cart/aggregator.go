package cart

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/internal/engine/variant"
)

var (
	ErrIncompleteSpec = errors.New("variant is not fully resolved")
	ErrLineNotFound   = errors.New("cart line not found")
)

// Observer receives every snapshot produced by a successful mutation.
type Observer func(Snapshot)

// Aggregator is the sole mutator of one cart. Each mutation builds a new Snapshot and swaps
// it in, so readers always see a whole cart from before or after a command.
type Aggregator struct {
	mu          sync.Mutex
	current     atomic.Pointer[Snapshot]
	maxQuantity int
	newID       func() string

	observers    map[uint64]Observer
	nextObserver uint64
}

type Option func(*Aggregator)

func WithMaxQuantity(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxQuantity = n
		}
	}
}

// WithIDGenerator replaces the uuid line id generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Aggregator) {
		a.newID = fn
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		maxQuantity: catalog.DefaultMaxQuantity,
		newID:       uuid.NewString,
		observers:   make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.current.Store(&Snapshot{maxQuantity: a.maxQuantity})
	return a
}

// Restore rebuilds an aggregator from persisted lines. Lines sharing a product and variant
// signature are merged and quantities are clamped, so the restored cart satisfies the same
// invariants as one built through AddLine.
func Restore(lines []Line, opts ...Option) *Aggregator {
	a := New(opts...)

	restored := make([]Line, 0, len(lines))
	index := make(map[lineKey]int, len(lines))
	for _, line := range lines {
		if line.LineID == "" {
			line.LineID = a.newID()
		}
		if i, ok := index[line.key()]; ok {
			restored[i].Quantity = a.clampLine(restored[i], restored[i].Quantity+line.Quantity)
			continue
		}
		line.Quantity = a.clampLine(line, line.Quantity)
		index[line.key()] = len(restored)
		restored = append(restored, line)
	}

	a.current.Store(&Snapshot{lines: restored, maxQuantity: a.maxQuantity})
	return a
}

// Snapshot returns the current cart.
func (a *Aggregator) Snapshot() Snapshot {
	return *a.current.Load()
}

func (a *Aggregator) MaxQuantity() int { return a.maxQuantity }

// Subscribe registers an observer and returns a function that removes it.
func (a *Aggregator) Subscribe(observer Observer) func() {
	a.mu.Lock()
	id := a.nextObserver
	a.nextObserver++
	a.observers[id] = observer
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.observers, id)
		a.mu.Unlock()
	}
}

// AddLine adds a resolved variant. A line with the same product and variant signature has its
// quantity increased and keeps its selected flag; otherwise a new selected line is appended.
// The variant's MaxQuantity is stored on the line and bounds every later quantity change.
func (a *Aggregator) AddLine(state variant.ResolutionState, quantity int, storeID string) (string, error) {
	resolved, ok := state.(variant.Resolved)
	if !ok {
		return "", ErrIncompleteSpec
	}
	v := resolved.Variant
	if v.ProductID == "" || len(v.Tuple) == 0 {
		return "", ErrIncompleteSpec
	}
	signature := v.Signature
	if signature == "" {
		signature = v.Tuple.Signature()
	}

	var lineID string
	a.mutate(func(lines []Line) []Line {
		key := lineKey{productID: v.ProductID, signature: signature}
		for i := range lines {
			if lines[i].key() == key {
				lines[i].MaxQuantity = v.MaxQuantity
				lines[i].Quantity = a.clampLine(lines[i], lines[i].Quantity+a.clampLine(lines[i], quantity))
				lineID = lines[i].LineID
				return lines
			}
		}
		lineID = a.newID()
		line := Line{
			LineID:           lineID,
			ProductID:        v.ProductID,
			VariantSignature: signature,
			StoreID:          storeID,
			Title:            v.Title,
			VariantLabel:     v.Label,
			Image:            v.Image,
			UnitPrice:        v.Price,
			Selected:         true,
			MaxQuantity:      v.MaxQuantity,
		}
		line.Quantity = a.clampLine(line, quantity)
		return append(lines, line)
	})
	return lineID, nil
}

// RemoveLine removes a line. Removing an absent line is a no-op.
func (a *Aggregator) RemoveLine(lineID string) {
	a.mutate(func(lines []Line) []Line {
		for i := range lines {
			if lines[i].LineID == lineID {
				return append(lines[:i], lines[i+1:]...)
			}
		}
		return nil
	})
}

// SetQuantity clamps quantity into [1, MaxQuantity] of the line and the cart. It never removes
// a line.
func (a *Aggregator) SetQuantity(lineID string, quantity int) error {
	return a.mutateLine(lineID, func(line *Line) {
		line.Quantity = a.clampLine(*line, quantity)
	})
}

func (a *Aggregator) ToggleSelection(lineID string) error {
	return a.mutateLine(lineID, func(line *Line) {
		line.Selected = !line.Selected
	})
}

// ToggleStoreSelection selects every line of the store unless all of them are already
// selected, in which case it deselects them all.
func (a *Aggregator) ToggleStoreSelection(storeID string) {
	a.mutate(func(lines []Line) []Line {
		found, allSelected := false, true
		for _, line := range lines {
			if line.StoreID != storeID {
				continue
			}
			found = true
			if !line.Selected {
				allSelected = false
			}
		}
		if !found {
			return nil
		}
		for i := range lines {
			if lines[i].StoreID == storeID {
				lines[i].Selected = !allSelected
			}
		}
		return lines
	})
}

// SetAllSelected selects or deselects every line.
func (a *Aggregator) SetAllSelected(selected bool) {
	a.mutate(func(lines []Line) []Line {
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].Selected = selected
		}
		return lines
	})
}

func (a *Aggregator) mutateLine(lineID string, apply func(*Line)) error {
	found := false
	a.mutate(func(lines []Line) []Line {
		for i := range lines {
			if lines[i].LineID == lineID {
				apply(&lines[i])
				found = true
				return lines
			}
		}
		return nil
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	return nil
}

// mutate hands fn a private copy of the current lines. A nil result means nothing changed and
// no new version is published.
func (a *Aggregator) mutate(fn func([]Line) []Line) {
	a.mu.Lock()
	prev := a.current.Load()
	lines := fn(append([]Line(nil), prev.lines...))
	if lines == nil {
		a.mu.Unlock()
		return
	}
	next := &Snapshot{lines: lines, version: prev.version + 1, maxQuantity: a.maxQuantity}
	a.current.Store(next)

	observers := make([]Observer, 0, len(a.observers))
	for _, observer := range a.observers {
		observers = append(observers, observer)
	}
	a.mu.Unlock()

	for _, observer := range observers {
		observer(*next)
	}
}

func (a *Aggregator) clampLine(line Line, q int) int {
	return ClampQuantity(q, a.maxQuantity, line.MaxQuantity)
}

// ClampQuantity bounds q into [1, min(limits)]. Non-positive limits are ignored.
func ClampQuantity(q int, limits ...int) int {
	if q < 1 {
		return 1
	}
	for _, limit := range limits {
		if limit > 0 && q > limit {
			q = limit
		}
	}
	return q
}
