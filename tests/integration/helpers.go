package integration

import (
	"time"

	"atelier/internal/catalog"
	"atelier/internal/logger"
)

const (
	containerStartupTimeout = 60
	timestampDelay          = 10 * time.Millisecond
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestRuleRequest(productID, name string, sequence int, active bool) catalog.CreateLogicRuleRequest {
	return catalog.CreateLogicRuleRequest{
		ProductID:          productID,
		Name:               name,
		Sequence:           sequence,
		Active:             &active,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "exclude_options",
		TargetSettingID:    "stone",
		TargetOptionIDs:    []string{"onyx"},
	}
}

func createTestProductRequest(id, title string) catalog.CreateProductConfigRequest {
	active := true
	return catalog.CreateProductConfigRequest{
		ID:        id,
		Title:     title,
		Currency:  "USD",
		BasePrice: 10000,
		BasePrices: map[string]int64{
			"natural":   10000,
			"lab_grown": 7500,
		},
		Active: &active,
		Settings: []catalog.ProductSetting{
			{
				ID:           "metal",
				Title:        "Metal",
				Required:     true,
				DisplayOrder: 1,
				Options: []catalog.ProductOption{
					{ID: "white_gold", Name: "White Gold", Active: true, AffectsImageVariant: true, FilenameSlug: "wg"},
					{ID: "yellow_gold", Name: "Yellow Gold", Active: true, AffectsImageVariant: true, FilenameSlug: "yg", DefaultPriceDelta: 2000},
				},
			},
			{
				ID:           "stone",
				Title:        "Stone",
				Required:     true,
				DisplayOrder: 2,
				Options: []catalog.ProductOption{
					{ID: "diamond", Name: "Diamond", Active: true, AffectsImageVariant: true, FilenameSlug: "dia", DefaultPriceDelta: 5000},
					{ID: "onyx", Name: "Onyx", Active: true, AffectsImageVariant: true, FilenameSlug: "onx", DefaultPriceDelta: 1500},
				},
			},
		},
	}
}
