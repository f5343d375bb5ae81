package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/engine"
)

func newPendantModel(rules ...engine.LogicRule) *engine.Model {
	model := &engine.Model{
		ProductID: "heart-pendant",
		Title:     "Heart Pendant",
		Currency:  "USD",
		BasePrice: 10000,
		BasePrices: map[engine.PriceVariant]int64{
			engine.PriceVariantNatural:  10000,
			engine.PriceVariantLabGrown: 7500,
		},
		Settings: []engine.Setting{
			{
				ID:           "metal",
				Title:        "Metal",
				Required:     true,
				DisplayOrder: 1,
				Options: []engine.Option{
					{ID: "silver", Name: "Silver", Active: true},
					{
						ID:                "gold",
						Name:              "Gold",
						Active:            true,
						DefaultPriceDelta: 5000,
						PriceDeltas: map[engine.MaterialVariant]int64{
							engine.MaterialGold:   5000,
							engine.MaterialSilver: 2000,
						},
					},
				},
			},
			{
				ID:           "chain",
				Title:        "Chain",
				Required:     true,
				DisplayOrder: 2,
				Options: []engine.Option{
					{ID: "cable_45", Name: "Cable 45cm", Active: true, DefaultPriceDelta: 1500},
					{ID: "rope_50", Name: "Rope 50cm", Active: true, DefaultPriceDelta: 2500},
				},
			},
			{
				ID:           "gift_box",
				Title:        "Gift Box",
				DisplayOrder: 3,
				Options: []engine.Option{
					{ID: "classic", Name: "Classic", Active: true, DefaultPriceDelta: 500},
				},
			},
		},
		Rules: rules,
	}
	model.BuildIndex()
	return model
}

func resolveView(t *testing.T, model *engine.Model, selection engine.Selection) engine.Result {
	t.Helper()
	resolver, err := engine.NewResolver()
	require.NoError(t, err)
	return resolver.Resolve(context.Background(), model, selection)
}

func TestCalculateBasePlusDeltas(t *testing.T) {
	model := newPendantModel()
	selection := engine.Selection{"metal": "gold", "chain": "cable_45"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialGold, engine.PriceVariantNatural)

	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, int64(10000), quote.BaseMinorUnits)
	assert.Equal(t, int64(16500), quote.TotalMinorUnits)
	assert.Equal(t, 165.0, quote.Total())
	assert.Empty(t, quote.UnmetRequirements)
	require.Len(t, quote.Lines, 2)
}

func TestCalculateMaterialVariantDelta(t *testing.T) {
	model := newPendantModel()
	selection := engine.Selection{"metal": "gold", "chain": "cable_45"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialSilver, engine.PriceVariantNatural)

	// The gold option charges its silver-variant delta.
	assert.Equal(t, int64(10000+2000+1500), quote.TotalMinorUnits)
}

func TestCalculatePriceVariantBase(t *testing.T) {
	model := newPendantModel()
	selection := engine.Selection{"metal": "silver", "chain": "cable_45"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialGold, engine.PriceVariantLabGrown)

	assert.Equal(t, int64(7500), quote.BaseMinorUnits)
	assert.Equal(t, int64(7500+1500), quote.TotalMinorUnits)
}

func TestCalculateMultiplierAppliedToDelta(t *testing.T) {
	model := newPendantModel(engine.LogicRule{
		ID:                 "premium-chain-for-gold",
		Active:             true,
		Sequence:           1,
		ConditionSettingID: "metal",
		ConditionOptionID:  "gold",
		ActionType:         engine.ActionSetPriceMultiplier,
		TargetSettingID:    "chain",
		PriceMultiplier:    1.2,
	})
	selection := engine.Selection{"metal": "gold", "chain": "rope_50"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialGold, engine.PriceVariantNatural)

	// 10000 base + 5000 metal + 2500*1.2 chain.
	assert.Equal(t, int64(18000), quote.TotalMinorUnits)

	var chainLine *Line
	for i := range quote.Lines {
		if quote.Lines[i].SettingID == "chain" {
			chainLine = &quote.Lines[i]
		}
	}
	require.NotNil(t, chainLine)
	assert.Equal(t, int64(2500), chainLine.DeltaMinorUnits)
	assert.InDelta(t, 1.2, chainLine.Multiplier, 1e-9)
	assert.Equal(t, int64(3000), chainLine.AmountMinorUnits)
}

func TestCalculateRoundsOnceAtEnd(t *testing.T) {
	model := &engine.Model{
		ProductID: "charm",
		Currency:  "EUR",
		BasePrice: 0,
		Settings: []engine.Setting{
			{ID: "a", Title: "A", Options: []engine.Option{{ID: "x", Name: "X", Active: true, DefaultPriceDelta: 333}}},
			{ID: "b", Title: "B", Options: []engine.Option{{ID: "y", Name: "Y", Active: true, DefaultPriceDelta: 333}}},
			{ID: "c", Title: "C", Options: []engine.Option{{ID: "z", Name: "Z", Active: true, DefaultPriceDelta: 333}}},
		},
		Rules: []engine.LogicRule{
			{
				ID: "m1", Active: true, Sequence: 1,
				ConditionSettingID: "a", ConditionOptionID: "x",
				ActionType: engine.ActionSetPriceMultiplier, TargetSettingID: "a", PriceMultiplier: 1.001,
			},
			{
				ID: "m2", Active: true, Sequence: 2,
				ConditionSettingID: "a", ConditionOptionID: "x",
				ActionType: engine.ActionSetPriceMultiplier, TargetSettingID: "b", PriceMultiplier: 1.001,
			},
			{
				ID: "m3", Active: true, Sequence: 3,
				ConditionSettingID: "a", ConditionOptionID: "x",
				ActionType: engine.ActionSetPriceMultiplier, TargetSettingID: "c", PriceMultiplier: 1.001,
			},
		},
	}
	model.BuildIndex()

	selection := engine.Selection{"a": "x", "b": "y", "c": "z"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialGold, engine.PriceVariantNatural)

	// Each line is 333 * 1.001 = 333.333; the unrounded subtotal is
	// 999.999 which rounds to 1000. Summing per-line rounded amounts
	// would give 999 instead.
	assert.Equal(t, int64(1000), quote.TotalMinorUnits)

	var lineSum int64
	for _, line := range quote.Lines {
		lineSum += line.AmountMinorUnits
	}
	assert.Equal(t, int64(999), lineSum)
}

func TestCalculateUnmetRequirements(t *testing.T) {
	model := newPendantModel()
	selection := engine.Selection{"metal": "gold"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialGold, engine.PriceVariantNatural)

	assert.Equal(t, []string{"chain"}, quote.UnmetRequirements)
	assert.Equal(t, int64(15000), quote.TotalMinorUnits, "quote is still produced")
}

func TestCalculateHiddenSettingContributesZero(t *testing.T) {
	model := newPendantModel(engine.LogicRule{
		ID:                 "no-gift-box-for-gold",
		Active:             true,
		Sequence:           1,
		ConditionSettingID: "metal",
		ConditionOptionID:  "gold",
		ActionType:         engine.ActionExcludeSetting,
		TargetSettingID:    "gift_box",
	})
	selection := engine.Selection{"metal": "gold", "chain": "cable_45", "gift_box": "classic"}
	result := resolveView(t, model, selection)

	quote := Calculate(model, result.AdjustedSelection, result.View, engine.MaterialGold, engine.PriceVariantNatural)

	assert.Equal(t, int64(16500), quote.TotalMinorUnits)
	for _, line := range quote.Lines {
		assert.NotEqual(t, "gift_box", line.SettingID)
	}
}

func TestCalculateInvisibleChoiceContributesZero(t *testing.T) {
	model := newPendantModel()
	view := engine.View{
		"metal": &engine.SettingView{
			SettingID:        "metal",
			VisibleOptionIDs: []string{"silver"},
			Required:         true,
			PriceMultiplier:  1.0,
		},
		"chain": &engine.SettingView{
			SettingID:        "chain",
			VisibleOptionIDs: []string{"cable_45", "rope_50"},
			Required:         true,
			PriceMultiplier:  1.0,
		},
		"gift_box": &engine.SettingView{
			SettingID:        "gift_box",
			VisibleOptionIDs: []string{"classic"},
			PriceMultiplier:  1.0,
		},
	}
	selection := engine.Selection{"metal": "gold", "chain": "cable_45"}

	quote := Calculate(model, selection, view, engine.MaterialGold, engine.PriceVariantNatural)

	assert.Equal(t, []string{"metal"}, quote.UnmetRequirements)
	assert.Equal(t, int64(11500), quote.TotalMinorUnits)
}

func TestCalculateSignetRingScenario(t *testing.T) {
	model := &engine.Model{
		ProductID: "signet-ring",
		Title:     "Signet Ring",
		Currency:  "USD",
		BasePrice: 10000,
		Settings: []engine.Setting{
			{
				ID:           "band",
				Title:        "Band",
				Required:     true,
				DisplayOrder: 1,
				Options: []engine.Option{
					{ID: "wide", Name: "Wide", Active: true, DefaultPriceDelta: 5000},
				},
			},
			{
				ID:           "engraving_text",
				Title:        "Engraving",
				Required:     true,
				DisplayOrder: 2,
				Options: []engine.Option{
					{ID: "initials", Name: "Initials", Active: true},
				},
			},
		},
		Rules: []engine.LogicRule{
			{
				ID:                 "premium-band",
				Active:             true,
				Sequence:           1,
				ConditionSettingID: "band",
				ConditionOptionID:  "wide",
				ActionType:         engine.ActionSetPriceMultiplier,
				TargetSettingID:    "band",
				PriceMultiplier:    1.2,
			},
		},
	}
	model.BuildIndex()

	result := resolveView(t, model, engine.Selection{"band": "wide"})
	quote := Calculate(model, result.AdjustedSelection, result.View, "", "")

	// $100 base plus a $50 band at the 1.2 premium comes to $160.00 even.
	assert.Equal(t, int64(16000), quote.TotalMinorUnits)
	assert.InDelta(t, 160.00, quote.Total(), 0.0001)
	assert.Equal(t, []string{"engraving_text"}, quote.UnmetRequirements)
}
