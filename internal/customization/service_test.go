package customization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/config"
	"atelier/internal/engine"
	"atelier/internal/logger"
	"atelier/internal/variant"
	"atelier/internal/variant/provider"
	pkgerrors "atelier/pkg/errors"
)

type fakeRepository struct {
	models    map[string]*engine.Model
	loadErr   error
	loadCalls int
}

func (f *fakeRepository) LoadModels(ctx context.Context) ([]*engine.Model, error) {
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]*engine.Model, 0, len(f.models))
	for _, m := range f.models {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepository) LoadModel(ctx context.Context, productID string) (*engine.Model, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.models[productID], nil
}

type fakeAssetIndex struct {
	asset provider.Asset
	err   error
}

func (f *fakeAssetIndex) Lookup(ctx context.Context, productID, variantKey string) (provider.Asset, error) {
	return f.asset, f.err
}

func newStudModel() *engine.Model {
	model := &engine.Model{
		ProductID: "stud-earrings",
		Title:     "Stud Earrings",
		Currency:  "USD",
		BasePrice: 8000,
		Settings: []engine.Setting{
			{
				ID:           "metal",
				Title:        "Metal",
				Required:     true,
				DisplayOrder: 1,
				Options: []engine.Option{
					{ID: "silver", Name: "Silver", Active: true, AffectsImageVariant: true, FilenameSlug: "ag"},
					{ID: "gold", Name: "Gold", Active: true, AffectsImageVariant: true, FilenameSlug: "au", DefaultPriceDelta: 3000},
				},
			},
			{
				ID:           "stone",
				Title:        "Stone",
				Required:     true,
				DisplayOrder: 2,
				Options: []engine.Option{
					{ID: "pearl", Name: "Pearl", Active: true, AffectsImageVariant: true, FilenameSlug: "prl", DefaultPriceDelta: 1000},
					{ID: "onyx", Name: "Onyx", Active: true, AffectsImageVariant: true, FilenameSlug: "onx", DefaultPriceDelta: 500},
				},
			},
		},
		Rules: []engine.LogicRule{
			{
				ID:                 "no-onyx-on-gold",
				Active:             true,
				Sequence:           1,
				ConditionSettingID: "metal",
				ConditionOptionID:  "gold",
				ActionType:         engine.ActionExcludeOptions,
				TargetSettingID:    "stone",
				TargetOptionIDs:    []string{"onyx"},
			},
		},
	}
	model.BuildIndex()
	return model
}

func newTestService(t *testing.T, repo Repository, index provider.AssetIndex) *Service {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)

	svc, err := NewService(repo, variant.NewResolver(index), config.CustomizationConfig{}, log)
	require.NoError(t, err)
	require.NoError(t, svc.ReloadModels(context.Background()))
	return svc
}

func TestResolveUnknownProduct(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, nil)

	_, err := svc.Resolve(context.Background(), "ghost", CustomizeRequest{})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestResolveAppliesRules(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	svc := newTestService(t, repo, nil)

	resp, err := svc.Resolve(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "gold", "stone": "onyx"},
	})

	require.NoError(t, err)
	assert.True(t, resp.Converged)
	assert.Equal(t, []string{"pearl"}, resp.View["stone"].VisibleOptionIDs)
	_, stoneChosen := resp.AdjustedSelection["stone"]
	assert.False(t, stoneChosen)
}

func TestQuoteTotals(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	svc := newTestService(t, repo, nil)

	resp, err := svc.Quote(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "gold", "stone": "pearl"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(12000), resp.Quote.TotalMinorUnits)
	assert.Equal(t, 120.0, resp.Total)
	assert.Empty(t, resp.Quote.UnmetRequirements)
}

func TestQuoteReportsUnmetRequirements(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	svc := newTestService(t, repo, nil)

	resp, err := svc.Quote(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "gold"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"stone"}, resp.Quote.UnmetRequirements)
	assert.Equal(t, int64(11000), resp.Quote.TotalMinorUnits)
}

func TestVariantLookup(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	index := &fakeAssetIndex{asset: provider.Asset{Exists: true, Locator: "renders/au_prl.png"}}
	svc := newTestService(t, repo, index)

	resp, err := svc.Variant(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "gold", "stone": "pearl"},
	})

	require.NoError(t, err)
	assert.Equal(t, "au_prl", resp.Variant.Key)
	assert.True(t, resp.Variant.Exists)
	assert.Equal(t, "renders/au_prl.png", resp.Variant.Locator)
}

func TestVariantLookupFailureDegrades(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	index := &fakeAssetIndex{err: errors.New("index down")}
	svc := newTestService(t, repo, index)

	resp, err := svc.Variant(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "silver", "stone": "onyx"},
	})

	require.NoError(t, err, "lookup failure must not fail the request")
	assert.Equal(t, "ag_onx", resp.Variant.Key)
	assert.False(t, resp.Variant.Exists)
}

func TestSummary(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	svc := newTestService(t, repo, nil)

	resp, err := svc.Summary(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "silver", "stone": "pearl"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Metal: Silver; Stone: Pearl", resp.Summary)
}

func TestReloadModelsErrorKeepsExisting(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	svc := newTestService(t, repo, nil)

	repo.loadErr = errors.New("database gone")
	assert.Error(t, svc.ReloadModels(context.Background()))

	_, err := svc.Resolve(context.Background(), "stud-earrings", CustomizeRequest{})
	assert.NoError(t, err, "previous models remain usable after a failed reload")
}

func TestReloadProductRemovesDeletedProduct(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{"stud-earrings": newStudModel()}}
	svc := newTestService(t, repo, nil)

	delete(repo.models, "stud-earrings")
	require.NoError(t, svc.ReloadProduct(context.Background(), "stud-earrings"))

	_, err := svc.Resolve(context.Background(), "stud-earrings", CustomizeRequest{})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReloadProductAddsNewProduct(t *testing.T) {
	repo := &fakeRepository{models: map[string]*engine.Model{}}
	svc := newTestService(t, repo, nil)

	repo.models["stud-earrings"] = newStudModel()
	require.NoError(t, svc.ReloadProduct(context.Background(), "stud-earrings"))

	resp, err := svc.Resolve(context.Background(), "stud-earrings", CustomizeRequest{
		Selection: map[string]string{"metal": "silver"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Converged)
}
