package models

import "time"

type ConfigUpdateEvent struct {
	EventType   string                 `json:"event_type"`   // "logic_rule_updated", "product_config_updated"
	ServiceType string                 `json:"service_type"` // "catalog", "customization"
	ProductID   string                 `json:"product_id,omitempty"`
	RuleID      string                 `json:"rule_id,omitempty"`
	Action      string                 `json:"action"` // "create", "update", "delete"
	Timestamp   time.Time              `json:"timestamp"`
	ChangedBy   string                 `json:"changed_by,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

const (
	EventTypeLogicRuleUpdated     = "logic_rule_updated"
	EventTypeProductConfigUpdated = "product_config_updated"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionReload = "reload"
)

const (
	ServiceTypeCatalog       = "catalog"
	ServiceTypeCustomization = "customization"
)
