package variant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/engine"
	"atelier/internal/variant/provider"
)

type stubAssetIndex struct {
	asset   provider.Asset
	err     error
	lookups []string
}

func (s *stubAssetIndex) Lookup(ctx context.Context, productID, variantKey string) (provider.Asset, error) {
	s.lookups = append(s.lookups, productID+"/"+variantKey)
	return s.asset, s.err
}

func newNecklaceModel() *engine.Model {
	model := &engine.Model{
		ProductID: "initial-necklace",
		Currency:  "USD",
		Settings: []engine.Setting{
			{
				ID:           "metal",
				Title:        "Metal",
				DisplayOrder: 1,
				Options: []engine.Option{
					{ID: "yellow_gold", Name: "Yellow Gold", Active: true, AffectsImageVariant: true, FilenameSlug: "yg"},
					{ID: "white_gold", Name: "White Gold", Active: true, AffectsImageVariant: true, FilenameSlug: "wg"},
				},
			},
			{
				ID:           "letter",
				Title:        "Letter",
				DisplayOrder: 2,
				Options: []engine.Option{
					{ID: "letter_a", Name: "A", Active: true, AffectsImageVariant: true, FilenameSlug: "a"},
					{ID: "letter_b", Name: "B", Active: true, AffectsImageVariant: true},
				},
			},
			{
				ID:           "chain_length",
				Title:        "Chain Length",
				DisplayOrder: 3,
				Options: []engine.Option{
					{ID: "len_45", Name: "45cm", Active: true},
					{ID: "len_50", Name: "50cm", Active: true},
				},
			},
		},
	}
	model.BuildIndex()
	return model
}

func TestBuildKey(t *testing.T) {
	model := newNecklaceModel()

	tests := []struct {
		name      string
		selection engine.Selection
		want      string
	}{
		{
			name:      "joins slugs in display order",
			selection: engine.Selection{"letter": "letter_a", "metal": "yellow_gold"},
			want:      "yg_a",
		},
		{
			name:      "skips settings that do not affect the image",
			selection: engine.Selection{"metal": "white_gold", "letter": "letter_a", "chain_length": "len_50"},
			want:      "wg_a",
		},
		{
			name:      "falls back to option id when slug is empty",
			selection: engine.Selection{"metal": "white_gold", "letter": "letter_b"},
			want:      "wg_letter_b",
		},
		{
			name:      "empty selection yields empty key",
			selection: engine.Selection{},
			want:      "",
		},
		{
			name:      "only non-image settings yields empty key",
			selection: engine.Selection{"chain_length": "len_45"},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildKey(model, tt.selection))
		})
	}
}

func TestBuildKeyDeterministic(t *testing.T) {
	model := newNecklaceModel()
	selection := engine.Selection{"metal": "yellow_gold", "letter": "letter_a", "chain_length": "len_45"}

	first := BuildKey(model, selection)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, BuildKey(model, selection))
	}
}

func TestResolveExistingVariant(t *testing.T) {
	index := &stubAssetIndex{asset: provider.Asset{Exists: true, Locator: "renders/initial-necklace/yg_a.png"}}
	resolver := NewResolver(index)
	model := newNecklaceModel()

	variant, err := resolver.Resolve(context.Background(), model, engine.Selection{
		"metal":  "yellow_gold",
		"letter": "letter_a",
	})

	require.NoError(t, err)
	assert.Equal(t, "yg_a", variant.Key)
	assert.True(t, variant.Exists)
	assert.Equal(t, "renders/initial-necklace/yg_a.png", variant.Locator)
	assert.Equal(t, []string{"initial-necklace/yg_a"}, index.lookups)
}

func TestResolveMissingVariantIsNotAnError(t *testing.T) {
	index := &stubAssetIndex{asset: provider.Asset{Exists: false}}
	resolver := NewResolver(index)
	model := newNecklaceModel()

	variant, err := resolver.Resolve(context.Background(), model, engine.Selection{"metal": "white_gold"})

	require.NoError(t, err)
	assert.Equal(t, "wg", variant.Key)
	assert.False(t, variant.Exists)
	assert.Empty(t, variant.Locator)
}

func TestResolveEmptyKeySkipsLookup(t *testing.T) {
	index := &stubAssetIndex{asset: provider.Asset{Exists: true}}
	resolver := NewResolver(index)
	model := newNecklaceModel()

	variant, err := resolver.Resolve(context.Background(), model, engine.Selection{"chain_length": "len_45"})

	require.NoError(t, err)
	assert.Empty(t, variant.Key)
	assert.False(t, variant.Exists)
	assert.Empty(t, index.lookups, "no lookup for an empty key")
}

func TestResolveLookupErrorKeepsKey(t *testing.T) {
	index := &stubAssetIndex{err: errors.New("index unavailable")}
	resolver := NewResolver(index)
	model := newNecklaceModel()

	variant, err := resolver.Resolve(context.Background(), model, engine.Selection{"metal": "yellow_gold"})

	assert.Error(t, err)
	assert.Equal(t, "yg", variant.Key, "key is still computed so callers can degrade")
	assert.False(t, variant.Exists)
}
