package pricing

import (
	"math"
	"sort"

	"atelier/internal/engine"
)

// Line is one setting's contribution to a quote, after the setting's rule
// multiplier has been applied.
type Line struct {
	SettingID        string  `json:"setting_id"`
	OptionID         string  `json:"option_id"`
	DeltaMinorUnits  int64   `json:"delta_minor_units"`
	Multiplier       float64 `json:"multiplier"`
	AmountMinorUnits int64   `json:"amount_minor_units"`
}

// Quote is the pricing outcome for one selection. UnmetRequirements lists
// required, visible settings without a choice; callers decide whether that
// blocks checkout. A quote is always produced.
type Quote struct {
	TotalMinorUnits   int64    `json:"total_minor_units"`
	Currency          string   `json:"currency"`
	BaseMinorUnits    int64    `json:"base_minor_units"`
	Lines             []Line   `json:"lines,omitempty"`
	UnmetRequirements []string `json:"unmet_requirements,omitempty"`
}

// Total returns the quote total in major units, rounded to two decimals.
// Rounding happens here, at the output boundary, never mid-calculation.
func (q Quote) Total() float64 {
	return float64(q.TotalMinorUnits) / 100
}

// Calculate prices a selection against a resolved view. The running total
// stays in fractional minor units and is rounded exactly once at the end,
// so multipliers across many settings cannot compound rounding error.
// Line amounts are rounded independently for display. Hidden settings and
// selections no longer visible contribute zero.
func Calculate(model *engine.Model, selection engine.Selection, view engine.View, material engine.MaterialVariant, priceVariant engine.PriceVariant) Quote {
	quote := Quote{
		Currency:       model.Currency,
		BaseMinorUnits: model.BasePriceFor(priceVariant),
	}
	subtotal := float64(quote.BaseMinorUnits)

	for _, setting := range model.Settings {
		sv := view[setting.ID]
		if sv == nil || sv.Hidden {
			continue
		}

		optionID, selected := selection[setting.ID]
		if !selected {
			if sv.Required {
				quote.UnmetRequirements = append(quote.UnmetRequirements, setting.ID)
			}
			continue
		}
		if !visibleIn(sv, optionID) {
			if sv.Required {
				quote.UnmetRequirements = append(quote.UnmetRequirements, setting.ID)
			}
			continue
		}

		option, ok := setting.Option(optionID)
		if !ok {
			continue
		}

		delta := option.PriceDelta(material)
		amount := float64(delta) * sv.PriceMultiplier
		subtotal += amount

		quote.Lines = append(quote.Lines, Line{
			SettingID:        setting.ID,
			OptionID:         optionID,
			DeltaMinorUnits:  delta,
			Multiplier:       sv.PriceMultiplier,
			AmountMinorUnits: int64(math.Round(amount)),
		})
	}

	sort.Strings(quote.UnmetRequirements)
	quote.TotalMinorUnits = int64(math.Round(subtotal))
	return quote
}

func visibleIn(sv *engine.SettingView, optionID string) bool {
	for _, id := range sv.VisibleOptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}
