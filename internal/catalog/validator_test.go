package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRuleRequest() CreateLogicRuleRequest {
	return CreateLogicRuleRequest{
		ProductID:          "solitaire-ring",
		Name:               "no onyx on white gold",
		Sequence:           1,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "exclude_options",
		TargetSettingID:    "stone",
		TargetOptionIDs:    []string{"onyx"},
	}
}

func TestValidateLogicRule(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateLogicRuleRequest)
		wantError string
	}{
		{
			name:   "valid pair condition",
			mutate: func(r *CreateLogicRuleRequest) {},
		},
		{
			name: "valid expression condition",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ConditionSettingID = ""
				r.ConditionOptionID = ""
				r.ConditionExpression = `selection["metal"] == "white_gold"`
			},
		},
		{
			name:      "missing name",
			mutate:    func(r *CreateLogicRuleRequest) { r.Name = "" },
			wantError: "name is required",
		},
		{
			name:      "missing product id",
			mutate:    func(r *CreateLogicRuleRequest) { r.ProductID = "" },
			wantError: "product_id is required",
		},
		{
			name:      "missing target setting",
			mutate:    func(r *CreateLogicRuleRequest) { r.TargetSettingID = "" },
			wantError: "target_setting_id is required",
		},
		{
			name: "no condition at all",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ConditionSettingID = ""
				r.ConditionOptionID = ""
			},
			wantError: "a condition is required",
		},
		{
			name: "half a pair condition",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ConditionOptionID = ""
			},
			wantError: "must be set together",
		},
		{
			name: "non-bool expression",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ConditionSettingID = ""
				r.ConditionOptionID = ""
				r.ConditionExpression = `selection["metal"]`
			},
			wantError: "invalid CEL expression",
		},
		{
			name:      "unknown action type",
			mutate:    func(r *CreateLogicRuleRequest) { r.ActionType = "explode" },
			wantError: "invalid action_type",
		},
		{
			name: "exclude without targets",
			mutate: func(r *CreateLogicRuleRequest) {
				r.TargetOptionIDs = nil
			},
			wantError: "target_option_ids is required",
		},
		{
			name: "auto_select with two targets",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ActionType = "auto_select"
				r.TargetOptionIDs = []string{"a", "b"}
			},
			wantError: "exactly one target option",
		},
		{
			name: "multiplier action without multiplier",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ActionType = "set_price_multiplier"
				r.PriceMultiplier = 0
			},
			wantError: "price_multiplier must be positive",
		},
		{
			name: "set_required needs no targets",
			mutate: func(r *CreateLogicRuleRequest) {
				r.ActionType = "set_required"
				r.TargetOptionIDs = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRuleRequest()
			tt.mutate(&req)
			err := ValidateLogicRule(req)
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUpdateLogicRule(t *testing.T) {
	str := func(s string) *string { return &s }
	f64 := func(f float64) *float64 { return &f }

	tests := []struct {
		name      string
		req       UpdateLogicRuleRequest
		wantError string
	}{
		{
			name: "empty update is valid",
			req:  UpdateLogicRuleRequest{},
		},
		{
			name:      "empty name rejected",
			req:       UpdateLogicRuleRequest{Name: str("")},
			wantError: "name cannot be empty",
		},
		{
			name:      "empty target setting rejected",
			req:       UpdateLogicRuleRequest{TargetSettingID: str("")},
			wantError: "target_setting_id cannot be empty",
		},
		{
			name: "valid expression accepted",
			req:  UpdateLogicRuleRequest{ConditionExpression: str(`selection["metal"] == "platinum"`)},
		},
		{
			name:      "broken expression rejected",
			req:       UpdateLogicRuleRequest{ConditionExpression: str(`selection[`)},
			wantError: "invalid CEL expression",
		},
		{
			name:      "unknown action type rejected",
			req:       UpdateLogicRuleRequest{ActionType: str("explode")},
			wantError: "invalid action_type",
		},
		{
			name:      "negative multiplier rejected",
			req:       UpdateLogicRuleRequest{PriceMultiplier: f64(-1)},
			wantError: "must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdateLogicRule(tt.req)
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validProductRequest() CreateProductConfigRequest {
	return CreateProductConfigRequest{
		ID:        "heart-pendant",
		Title:     "Heart Pendant",
		Currency:  "USD",
		BasePrice: 10000,
		Settings: []ProductSetting{
			{
				ID:    "metal",
				Title: "Metal",
				Options: []ProductOption{
					{ID: "silver", Name: "Silver", Active: true},
					{ID: "gold", Name: "Gold", Active: true},
				},
			},
		},
	}
}

func TestValidateProductConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateProductConfigRequest)
		wantError string
	}{
		{
			name:   "valid",
			mutate: func(r *CreateProductConfigRequest) {},
		},
		{
			name:      "missing id",
			mutate:    func(r *CreateProductConfigRequest) { r.ID = "" },
			wantError: "id is required",
		},
		{
			name:      "missing title",
			mutate:    func(r *CreateProductConfigRequest) { r.Title = "" },
			wantError: "title is required",
		},
		{
			name:      "bad currency",
			mutate:    func(r *CreateProductConfigRequest) { r.Currency = "DOGE" },
			wantError: "unsupported currency",
		},
		{
			name:      "negative base price",
			mutate:    func(r *CreateProductConfigRequest) { r.BasePrice = -1 },
			wantError: "base_price must be non-negative",
		},
		{
			name: "negative variant base price",
			mutate: func(r *CreateProductConfigRequest) {
				r.BasePrices = map[string]int64{"lab_grown": -5}
			},
			wantError: "base_prices[lab_grown]",
		},
		{
			name: "duplicate setting id",
			mutate: func(r *CreateProductConfigRequest) {
				r.Settings = append(r.Settings, r.Settings[0])
			},
			wantError: "duplicate setting id",
		},
		{
			name: "duplicate option id",
			mutate: func(r *CreateProductConfigRequest) {
				r.Settings[0].Options = append(r.Settings[0].Options, ProductOption{ID: "silver", Name: "Silver Again"})
			},
			wantError: "duplicate option id",
		},
		{
			name: "option without name",
			mutate: func(r *CreateProductConfigRequest) {
				r.Settings[0].Options[0].Name = ""
			},
			wantError: "name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validProductRequest()
			tt.mutate(&req)
			err := ValidateProductConfig(req)
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUpdateProductConfig(t *testing.T) {
	str := func(s string) *string { return &s }

	assert.NoError(t, ValidateUpdateProductConfig(UpdateProductConfigRequest{}))
	assert.ErrorContains(t, ValidateUpdateProductConfig(UpdateProductConfigRequest{Title: str("")}), "title cannot be empty")
	assert.ErrorContains(t, ValidateUpdateProductConfig(UpdateProductConfigRequest{Currency: str("XYZ")}), "unsupported currency")

	settings := []ProductSetting{{ID: "", Title: "Metal"}}
	assert.ErrorContains(t, ValidateUpdateProductConfig(UpdateProductConfigRequest{Settings: &settings}), "id is required")
}
