package catalog

import (
	"context"
)

type Service interface {
	CreateLogicRule(ctx context.Context, req CreateLogicRuleRequest) (*LogicRule, error)
	ListLogicRules(ctx context.Context, productID string) ([]LogicRule, error)
	GetLogicRule(ctx context.Context, id string) (*LogicRule, error)
	UpdateLogicRule(ctx context.Context, id string, req UpdateLogicRuleRequest) (*LogicRule, error)
	DeleteLogicRule(ctx context.Context, id string) error
	GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error)
	GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error)

	CreateProductConfig(ctx context.Context, req CreateProductConfigRequest) (*ProductConfig, error)
	ListProductConfigs(ctx context.Context) ([]ProductConfig, error)
	GetProductConfig(ctx context.Context, id string) (*ProductConfig, error)
	UpdateProductConfig(ctx context.Context, id string, req UpdateProductConfigRequest) (*ProductConfig, error)
	DeleteProductConfig(ctx context.Context, id string) error
}
