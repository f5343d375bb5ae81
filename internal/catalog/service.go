package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"atelier/internal/constants"
	pkgerrors "atelier/pkg/errors"
	"atelier/pkg/models"
)

type service struct {
	repo                Repository
	productRepo         ProductRepository
	versioningRepo      VersioningRepository
	configEventProducer *ConfigEventProducer
	auditEnabled        bool
}

type ServiceOption func(*service)

func WithVersioning(versioningRepo VersioningRepository) ServiceOption {
	return func(s *service) {
		s.versioningRepo = versioningRepo
		s.auditEnabled = true
	}
}

func WithProducts(productRepo ProductRepository) ServiceOption {
	return func(s *service) {
		s.productRepo = productRepo
	}
}

func WithConfigEvents(configEventProducer *ConfigEventProducer) ServiceOption {
	return func(s *service) {
		s.configEventProducer = configEventProducer
	}
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:         repo,
		auditEnabled: false,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.versioningRepo != nil {
		s.auditEnabled = true
	}

	return s
}

func (s *service) CreateLogicRule(ctx context.Context, req CreateLogicRuleRequest) (*LogicRule, error) {
	if err := ValidateLogicRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule := &LogicRule{
		ProductID:           req.ProductID,
		Name:                req.Name,
		Sequence:            req.Sequence,
		Active:              getActiveValue(req.Active),
		ConditionSettingID:  req.ConditionSettingID,
		ConditionOptionID:   req.ConditionOptionID,
		ConditionExpression: req.ConditionExpression,
		ActionType:          req.ActionType,
		TargetSettingID:     req.TargetSettingID,
		TargetOptionIDs:     req.TargetOptionIDs,
		PriceMultiplier:     req.PriceMultiplier,
	}

	if err := s.repo.CreateLogicRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.createVersionAndAudit(ctx, rule, "create", nil)
	s.publishRuleEvent(ctx, models.ActionCreate, rule)

	return s.copyLogicRule(rule), nil
}

func (s *service) ListLogicRules(ctx context.Context, productID string) ([]LogicRule, error) {
	rules, err := s.repo.ListLogicRules(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return rules, nil
}

func (s *service) GetLogicRule(ctx context.Context, id string) (*LogicRule, error) {
	rule, err := s.repo.GetLogicRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return s.copyLogicRule(rule), nil
}

func (s *service) UpdateLogicRule(ctx context.Context, id string, req UpdateLogicRuleRequest) (*LogicRule, error) {
	if err := ValidateUpdateLogicRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule, err := s.repo.GetLogicRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	oldValue, _ := s.ruleToMap(rule)
	s.updateLogicRuleFields(rule, req)

	if err := validateCondition(rule.ConditionSettingID, rule.ConditionOptionID, rule.ConditionExpression); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}
	if err := validateAction(rule.ActionType, rule.TargetOptionIDs, rule.PriceMultiplier); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	if err := s.repo.UpdateLogicRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.createVersionAndAudit(ctx, rule, "update", oldValue)
	s.publishRuleEvent(ctx, models.ActionUpdate, rule)

	return s.copyLogicRule(rule), nil
}

func (s *service) DeleteLogicRule(ctx context.Context, id string) error {
	rule, err := s.repo.GetLogicRule(ctx, id)
	if err != nil {
		return s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	oldValue, _ := s.ruleToMap(rule)

	if err := s.repo.DeleteLogicRule(ctx, id); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if s.auditEnabled && s.versioningRepo != nil {
		auditLog := s.buildAuditLog(id, "delete", oldValue, nil, getChangedBy(ctx))
		_ = s.versioningRepo.CreateAuditLog(ctx, auditLog)
	}

	s.publishRuleEvent(ctx, models.ActionDelete, rule)
	return nil
}

func (s *service) GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "versioning not enabled")
	}
	versions, err := s.versioningRepo.GetVersions(ctx, ruleID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return versions, nil
}

func (s *service) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "audit logging not enabled")
	}
	if limit <= 0 || limit > constants.MaxLimit {
		limit = constants.DefaultLimit
	}
	logs, err := s.versioningRepo.GetAuditLogs(ctx, ruleID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return logs, nil
}

func (s *service) CreateProductConfig(ctx context.Context, req CreateProductConfigRequest) (*ProductConfig, error) {
	if err := ValidateProductConfig(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	if s.productRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "product repository not configured")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	cfg := &ProductConfig{
		ID:         req.ID,
		Title:      req.Title,
		Currency:   req.Currency,
		BasePrice:  req.BasePrice,
		BasePrices: req.BasePrices,
		Settings:   req.Settings,
		Active:     active,
	}

	if err := s.productRepo.CreateProductConfig(ctx, cfg); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, pkgerrors.ErrConflict.WithCause(err).WithDetail("id", req.ID)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if s.configEventProducer != nil {
		_ = s.configEventProducer.PublishProductConfigEvent(ctx, models.ActionCreate, cfg.ID, getChangedBy(ctx))
	}

	return cfg, nil
}

func (s *service) ListProductConfigs(ctx context.Context) ([]ProductConfig, error) {
	if s.productRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "product repository not configured")
	}

	configs, err := s.productRepo.ListProductConfigs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return configs, nil
}

func (s *service) GetProductConfig(ctx context.Context, id string) (*ProductConfig, error) {
	if s.productRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "product repository not configured")
	}

	cfg, err := s.productRepo.GetProductConfig(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if cfg == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return cfg, nil
}

func (s *service) UpdateProductConfig(ctx context.Context, id string, req UpdateProductConfigRequest) (*ProductConfig, error) {
	if err := ValidateUpdateProductConfig(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	if s.productRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "product repository not configured")
	}

	cfg, err := s.productRepo.GetProductConfig(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if cfg == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	if req.Title != nil {
		cfg.Title = *req.Title
	}
	if req.Currency != nil {
		cfg.Currency = *req.Currency
	}
	if req.BasePrice != nil {
		cfg.BasePrice = *req.BasePrice
	}
	if req.BasePrices != nil {
		cfg.BasePrices = *req.BasePrices
	}
	if req.Settings != nil {
		cfg.Settings = *req.Settings
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}

	if err := s.productRepo.UpdateProductConfig(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if s.configEventProducer != nil {
		_ = s.configEventProducer.PublishProductConfigEvent(ctx, models.ActionUpdate, cfg.ID, getChangedBy(ctx))
	}

	return cfg, nil
}

func (s *service) DeleteProductConfig(ctx context.Context, id string) error {
	if s.productRepo == nil {
		return pkgerrors.ErrInternal.WithDetail("message", "product repository not configured")
	}

	cfg, err := s.productRepo.GetProductConfig(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if cfg == nil {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	if err := s.productRepo.DeleteProductConfig(ctx, id); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if s.configEventProducer != nil {
		_ = s.configEventProducer.PublishProductConfigEvent(ctx, models.ActionDelete, id, getChangedBy(ctx))
	}

	return nil
}

func (s *service) handleNotFoundError(err error, id string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "not found") {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
}

func (s *service) createVersionAndAudit(ctx context.Context, rule *LogicRule, action string, oldValue map[string]interface{}) {
	if !s.auditEnabled || s.versioningRepo == nil {
		return
	}

	ruleJSON, err := ruleToJSON(rule)
	if err != nil {
		return
	}

	version := s.buildVersion(ctx, rule, ruleJSON)
	if err := s.versioningRepo.CreateVersion(ctx, version); err != nil {
		return
	}

	newValue, err := s.ruleToMap(rule)
	if err != nil {
		return
	}

	auditLog := s.buildAuditLog(rule.ID, action, oldValue, newValue, getChangedBy(ctx))
	_ = s.versioningRepo.CreateAuditLog(ctx, auditLog)
}

func (s *service) buildVersion(ctx context.Context, rule *LogicRule, ruleJSON string) *RuleVersion {
	version := 1
	if s.versioningRepo != nil {
		if nextVersion, err := s.versioningRepo.GetNextVersion(ctx, rule.ID); err == nil {
			version = nextVersion
		}
	}

	return &RuleVersion{
		RuleID:    rule.ID,
		RuleData:  ruleJSON,
		Version:   version,
		ChangedBy: getChangedBy(ctx),
	}
}

func (s *service) buildAuditLog(ruleID, action string, oldValue, newValue map[string]interface{}, changedBy string) *AuditLog {
	return &AuditLog{
		RuleID:    &ruleID,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: changedBy,
	}
}

func (s *service) ruleToMap(rule *LogicRule) (map[string]interface{}, error) {
	ruleData, err := json.Marshal(rule)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(ruleData, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) publishRuleEvent(ctx context.Context, action string, rule *LogicRule) {
	if s.configEventProducer != nil {
		_ = s.configEventProducer.PublishLogicRuleEvent(ctx, action, rule.ID, rule.ProductID, getChangedBy(ctx))
	}
}

func (s *service) updateLogicRuleFields(rule *LogicRule, req UpdateLogicRuleRequest) {
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Sequence != nil {
		rule.Sequence = *req.Sequence
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if req.ConditionSettingID != nil {
		rule.ConditionSettingID = *req.ConditionSettingID
	}
	if req.ConditionOptionID != nil {
		rule.ConditionOptionID = *req.ConditionOptionID
	}
	if req.ConditionExpression != nil {
		rule.ConditionExpression = *req.ConditionExpression
	}
	if req.ActionType != nil {
		rule.ActionType = *req.ActionType
	}
	if req.TargetSettingID != nil {
		rule.TargetSettingID = *req.TargetSettingID
	}
	if req.TargetOptionIDs != nil {
		rule.TargetOptionIDs = *req.TargetOptionIDs
	}
	if req.PriceMultiplier != nil {
		rule.PriceMultiplier = *req.PriceMultiplier
	}
}

func (s *service) copyLogicRule(rule *LogicRule) *LogicRule {
	out := *rule
	out.TargetOptionIDs = append([]string(nil), rule.TargetOptionIDs...)
	return &out
}

func getActiveValue(reqActive *bool) bool {
	if reqActive == nil {
		return true
	}
	return *reqActive
}

func getChangedBy(ctx context.Context) string {
	if userID := ctx.Value("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return "system"
}
