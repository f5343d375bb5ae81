package catalog

import (
	"fmt"

	"atelier/internal/engine"
	"atelier/pkg/cel"
)

func ValidateLogicRule(req CreateLogicRuleRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if req.TargetSettingID == "" {
		return fmt.Errorf("target_setting_id is required")
	}

	if err := validateCondition(req.ConditionSettingID, req.ConditionOptionID, req.ConditionExpression); err != nil {
		return err
	}

	return validateAction(req.ActionType, req.TargetOptionIDs, req.PriceMultiplier)
}

func ValidateUpdateLogicRule(req UpdateLogicRuleRequest) error {
	if req.Name != nil && *req.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if req.TargetSettingID != nil && *req.TargetSettingID == "" {
		return fmt.Errorf("target_setting_id cannot be empty")
	}

	if req.ConditionExpression != nil && *req.ConditionExpression != "" {
		if err := validateConditionExpression(*req.ConditionExpression); err != nil {
			return err
		}
	}

	if req.ActionType != nil {
		if !engine.ActionType(*req.ActionType).Valid() {
			return fmt.Errorf("invalid action_type: %s", *req.ActionType)
		}
	}
	if req.PriceMultiplier != nil && *req.PriceMultiplier < 0 {
		return fmt.Errorf("price_multiplier must be non-negative")
	}

	return nil
}

func validateCondition(settingID, optionID, expression string) error {
	hasPair := settingID != "" && optionID != ""
	hasExpr := expression != ""

	if !hasPair && !hasExpr {
		if settingID != "" || optionID != "" {
			return fmt.Errorf("condition_setting_id and condition_option_id must be set together")
		}
		return fmt.Errorf("a condition is required: either condition_setting_id with condition_option_id, or condition_expression")
	}

	if hasExpr {
		return validateConditionExpression(expression)
	}

	return nil
}

func validateConditionExpression(expression string) error {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	if err := evaluator.ValidateConditionExpression(expression); err != nil {
		return fmt.Errorf("invalid CEL expression: %w", err)
	}

	return nil
}

func validateAction(actionType string, targetOptionIDs []string, priceMultiplier float64) error {
	at := engine.ActionType(actionType)
	if !at.Valid() {
		return fmt.Errorf("invalid action_type: %s", actionType)
	}

	switch at {
	case engine.ActionExcludeOptions, engine.ActionIncludeOnly:
		if len(targetOptionIDs) == 0 {
			return fmt.Errorf("target_option_ids is required for action_type %s", actionType)
		}
	case engine.ActionAutoSelect, engine.ActionProposeSelection:
		if len(targetOptionIDs) != 1 {
			return fmt.Errorf("action_type %s requires exactly one target option", actionType)
		}
	case engine.ActionSetPriceMultiplier:
		if priceMultiplier <= 0 {
			return fmt.Errorf("price_multiplier must be positive for action_type %s", actionType)
		}
	}

	return nil
}

var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "CAD": true, "AUD": true, "JPY": true,
}

func ValidateProductConfig(req CreateProductConfigRequest) error {
	if req.ID == "" {
		return fmt.Errorf("id is required")
	}
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validCurrencies[req.Currency] {
		return fmt.Errorf("unsupported currency: %s", req.Currency)
	}
	if req.BasePrice < 0 {
		return fmt.Errorf("base_price must be non-negative")
	}
	for variant, price := range req.BasePrices {
		if price < 0 {
			return fmt.Errorf("base_prices[%s] must be non-negative", variant)
		}
	}

	return validateSettings(req.Settings)
}

func ValidateUpdateProductConfig(req UpdateProductConfigRequest) error {
	if req.Title != nil && *req.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if req.Currency != nil && !validCurrencies[*req.Currency] {
		return fmt.Errorf("unsupported currency: %s", *req.Currency)
	}
	if req.BasePrice != nil && *req.BasePrice < 0 {
		return fmt.Errorf("base_price must be non-negative")
	}
	if req.Settings != nil {
		return validateSettings(*req.Settings)
	}
	return nil
}

func validateSettings(settings []ProductSetting) error {
	seenSettings := make(map[string]bool, len(settings))
	for i, setting := range settings {
		if setting.ID == "" {
			return fmt.Errorf("settings[%d].id is required", i)
		}
		if seenSettings[setting.ID] {
			return fmt.Errorf("duplicate setting id: %s", setting.ID)
		}
		seenSettings[setting.ID] = true

		if setting.Title == "" {
			return fmt.Errorf("settings[%d].title is required", i)
		}

		seenOptions := make(map[string]bool, len(setting.Options))
		for j, option := range setting.Options {
			if option.ID == "" {
				return fmt.Errorf("settings[%d].options[%d].id is required", i, j)
			}
			if seenOptions[option.ID] {
				return fmt.Errorf("duplicate option id %s in setting %s", option.ID, setting.ID)
			}
			seenOptions[option.ID] = true

			if option.Name == "" {
				return fmt.Errorf("settings[%d].options[%d].name is required", i, j)
			}
		}
	}
	return nil
}
