package customization

import (
	"atelier/internal/engine"
	"atelier/internal/pricing"
	"atelier/internal/variant"
)

// CustomizeRequest is the shared request body for the resolve, quote,
// variant and summary endpoints.
type CustomizeRequest struct {
	Selection    map[string]string `json:"selection"`
	Material     string            `json:"material,omitempty"`
	PriceVariant string            `json:"price_variant,omitempty"`
}

type ResolveResponse struct {
	ProductID string `json:"product_id"`
	engine.Result
}

type QuoteResponse struct {
	ProductID         string           `json:"product_id"`
	AdjustedSelection engine.Selection `json:"adjusted_selection"`
	View              engine.View      `json:"view"`
	Quote             pricing.Quote    `json:"quote"`
	Total             float64          `json:"total"`
}

type VariantResponse struct {
	ProductID         string           `json:"product_id"`
	AdjustedSelection engine.Selection `json:"adjusted_selection"`
	Variant           variant.Variant  `json:"variant"`
}

type SummaryResponse struct {
	ProductID string `json:"product_id"`
	Summary   string `json:"summary"`
}
