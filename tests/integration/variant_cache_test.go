package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/variant/provider"
)

type countingAssetIndex struct {
	asset   provider.Asset
	lookups int
}

func (s *countingAssetIndex) Lookup(_ context.Context, _, _ string) (provider.Asset, error) {
	s.lookups++
	return s.asset, nil
}

func TestCachedAssetIndex_ReadThrough(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	ctx := context.Background()
	origin := &countingAssetIndex{asset: provider.Asset{Exists: true, Locator: "renders/initial-pendant/wg_yg.jpg"}}
	cached := provider.NewCachedAssetIndex(infra.RedisClient, origin, 0)

	first, err := cached.Lookup(ctx, "initial-pendant", "wg_yg")
	require.NoError(t, err)
	assert.True(t, first.Exists)
	assert.Equal(t, 1, origin.lookups)

	second, err := cached.Lookup(ctx, "initial-pendant", "wg_yg")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, origin.lookups, "second lookup is served from cache")
}

func TestCachedAssetIndex_CachesNegativeAnswers(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	ctx := context.Background()
	origin := &countingAssetIndex{asset: provider.Asset{Exists: false}}
	cached := provider.NewCachedAssetIndex(infra.RedisClient, origin, 0)

	_, err := cached.Lookup(ctx, "initial-pendant", "wg_missing")
	require.NoError(t, err)

	miss, err := cached.Lookup(ctx, "initial-pendant", "wg_missing")
	require.NoError(t, err)
	assert.False(t, miss.Exists)
	assert.Equal(t, 1, origin.lookups)
}

func TestCachedAssetIndex_Invalidate(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	ctx := context.Background()
	origin := &countingAssetIndex{asset: provider.Asset{Exists: true, Locator: "renders/initial-pendant/yg.jpg"}}
	cached := provider.NewCachedAssetIndex(infra.RedisClient, origin, 0)

	_, err := cached.Lookup(ctx, "initial-pendant", "yg")
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx, "initial-pendant", "yg"))

	_, err = cached.Lookup(ctx, "initial-pendant", "yg")
	require.NoError(t, err)
	assert.Equal(t, 2, origin.lookups, "invalidation forces a fresh lookup")
}
