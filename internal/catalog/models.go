package catalog

import "time"

type LogicRule struct {
	ID                  string    `json:"id" db:"id"`
	ProductID           string    `json:"product_id" db:"product_id"`
	Name                string    `json:"name" db:"name"`
	Sequence            int       `json:"sequence" db:"sequence"`
	Active              bool      `json:"active" db:"active"`
	ConditionSettingID  string    `json:"condition_setting_id" db:"condition_setting_id"`
	ConditionOptionID   string    `json:"condition_option_id" db:"condition_option_id"`
	ConditionExpression string    `json:"condition_expression,omitempty" db:"condition_expression"`
	ActionType          string    `json:"action_type" db:"action_type"`
	TargetSettingID     string    `json:"target_setting_id" db:"target_setting_id"`
	TargetOptionIDs     []string  `json:"target_option_ids,omitempty" db:"target_option_ids"`
	PriceMultiplier     float64   `json:"price_multiplier,omitempty" db:"price_multiplier"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

type CreateLogicRuleRequest struct {
	ProductID           string   `json:"product_id" binding:"required"`
	Name                string   `json:"name" binding:"required"`
	Sequence            int      `json:"sequence"`
	Active              *bool    `json:"active"`
	ConditionSettingID  string   `json:"condition_setting_id"`
	ConditionOptionID   string   `json:"condition_option_id"`
	ConditionExpression string   `json:"condition_expression"`
	ActionType          string   `json:"action_type" binding:"required"`
	TargetSettingID     string   `json:"target_setting_id" binding:"required"`
	TargetOptionIDs     []string `json:"target_option_ids"`
	PriceMultiplier     float64  `json:"price_multiplier"`
}

type UpdateLogicRuleRequest struct {
	Name                *string   `json:"name"`
	Sequence            *int      `json:"sequence"`
	Active              *bool     `json:"active"`
	ConditionSettingID  *string   `json:"condition_setting_id"`
	ConditionOptionID   *string   `json:"condition_option_id"`
	ConditionExpression *string   `json:"condition_expression"`
	ActionType          *string   `json:"action_type"`
	TargetSettingID     *string   `json:"target_setting_id"`
	TargetOptionIDs     *[]string `json:"target_option_ids"`
	PriceMultiplier     *float64  `json:"price_multiplier"`
}

type ProductConfig struct {
	ID         string           `json:"id" bson:"_id,omitempty"`
	Title      string           `json:"title" bson:"title"`
	Currency   string           `json:"currency" bson:"currency"`
	BasePrice  int64            `json:"base_price" bson:"base_price"`
	BasePrices map[string]int64 `json:"base_prices,omitempty" bson:"base_prices"`
	Settings   []ProductSetting `json:"settings" bson:"settings"`
	Active     bool             `json:"active" bson:"active"`
	CreatedAt  time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" bson:"updated_at"`
}

type ProductSetting struct {
	ID           string          `json:"id" bson:"id"`
	Title        string          `json:"title" bson:"title"`
	Required     bool            `json:"required" bson:"required"`
	DisplayOrder int             `json:"display_order" bson:"display_order"`
	Options      []ProductOption `json:"options" bson:"options"`
}

type ProductOption struct {
	ID                  string           `json:"id" bson:"id"`
	Name                string           `json:"name" bson:"name"`
	DefaultPriceDelta   int64            `json:"default_price_delta" bson:"default_price_delta"`
	PriceDeltas         map[string]int64 `json:"price_deltas,omitempty" bson:"price_deltas"`
	AffectsImageVariant bool             `json:"affects_image_variant" bson:"affects_image_variant"`
	FilenameSlug        string           `json:"filename_slug,omitempty" bson:"filename_slug"`
	Active              bool             `json:"active" bson:"active"`
}

type CreateProductConfigRequest struct {
	ID         string           `json:"id" binding:"required"`
	Title      string           `json:"title" binding:"required"`
	Currency   string           `json:"currency" binding:"required"`
	BasePrice  int64            `json:"base_price"`
	BasePrices map[string]int64 `json:"base_prices"`
	Settings   []ProductSetting `json:"settings"`
	Active     *bool            `json:"active"`
}

type UpdateProductConfigRequest struct {
	Title      *string           `json:"title"`
	Currency   *string           `json:"currency"`
	BasePrice  *int64            `json:"base_price"`
	BasePrices *map[string]int64 `json:"base_prices"`
	Settings   *[]ProductSetting `json:"settings"`
	Active     *bool             `json:"active"`
}
