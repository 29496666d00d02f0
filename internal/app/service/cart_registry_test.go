package service

import (
	"sync"
	"testing"

	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	versions map[string][]uint64
}

func (p *recordingPublisher) PublishCart(shopperID string, snapshot cart.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.versions == nil {
		p.versions = make(map[string][]uint64)
	}
	p.versions[shopperID] = append(p.versions[shopperID], snapshot.Version())
}

func setupCartRegistryTest(t *testing.T) (*CartRegistry, repository.CartRepository, *recordingPublisher) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := repository.NewCartRepository(testDB)
	publisher := &recordingPublisher{}
	return NewCartRegistry(repo, publisher, 10), repo, publisher
}

func resolvedPhone(t *testing.T, storage string) variant.ResolutionState {
	cat, err := phoneDocument().Build()
	require.NoError(t, err)
	r := variant.NewResolver(cat, variant.WithDefaults())
	state, err := r.Select("storage", storage)
	require.NoError(t, err)
	return state
}

func TestCartRegistry_SameAggregatorPerShopper(t *testing.T) {
	registry, _, _ := setupCartRegistryTest(t)

	first, err := registry.Cart("shopper-1")
	require.NoError(t, err)
	second, err := registry.Cart("shopper-1")
	require.NoError(t, err)
	other, err := registry.Cart("shopper-2")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 10, first.MaxQuantity())
}

func TestCartRegistry_PersistsAndPublishes(t *testing.T) {
	registry, repo, publisher := setupCartRegistryTest(t)

	agg, err := registry.Cart("shopper-1")
	require.NoError(t, err)
	_, err = agg.AddLine(resolvedPhone(t, "128"), 1, "store-a")
	require.NoError(t, err)
	lineID, err := agg.AddLine(resolvedPhone(t, "256"), 20, "store-a")
	require.NoError(t, err)
	require.NoError(t, agg.ToggleSelection(lineID))

	assert.Equal(t, []uint64{1, 2, 3}, publisher.versions["shopper-1"])

	rows, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "store-a", rows[0].StoreID)
	assert.Equal(t, lineID, rows[1].LineID)
	assert.Equal(t, 10, rows[1].Quantity)
	assert.False(t, rows[1].Selected)

	restored, err := NewCartRegistry(repo, nil, 10).Cart("shopper-1")
	require.NoError(t, err)
	snapshot := restored.Snapshot()
	require.Equal(t, 2, snapshot.Len())
	assert.Equal(t, 1, snapshot.SelectedCount())
	line, ok := snapshot.Line(lineID)
	require.True(t, ok)
	assert.Equal(t, rows[1].VariantSignature, line.VariantSignature)
}

func TestCartRegistry_DropsStaleSnapshots(t *testing.T) {
	registry, repo, _ := setupCartRegistryTest(t)

	agg, err := registry.Cart("shopper-1")
	require.NoError(t, err)
	stale := agg.Snapshot()
	_, err = agg.AddLine(resolvedPhone(t, "128"), 1, "store-a")
	require.NoError(t, err)

	registry.persist("shopper-1", stale)

	rows, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
