package cache

import (
	"context"
	"testing"

	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemFilterHashIsOrderInsensitive(t *testing.T) {
	a := itemFilterHash(domain.ItemFilter{
		Vendors:   []string{"Hitachi", "Siemens"},
		FlowCodes: []int{3, 1},
	})
	b := itemFilterHash(domain.ItemFilter{
		Vendors:   []string{" siemens ", "HITACHI"},
		FlowCodes: []int{1, 3},
	})
	assert.Equal(t, a, b)
}

func TestItemFilterHashDistinguishesFilters(t *testing.T) {
	base := itemFilterHash(domain.ItemFilter{Vendors: []string{"Hitachi"}})
	other := itemFilterHash(domain.ItemFilter{Vendors: []string{"Hitachi"}, Page: 2})
	assert.NotEqual(t, base, other)

	assert.Equal(t, "default", itemFilterHash(domain.ItemFilter{}))
}

func TestNoopCacheNeverHits(t *testing.T) {
	noop := NewNoopDashboardCache()
	ctx := context.Background()

	_, ok, err := noop.GetDashboard(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, noop.SetDashboard(ctx, 1, &domain.Dashboard{}))
	require.NoError(t, noop.InvalidateAll(ctx))
}
