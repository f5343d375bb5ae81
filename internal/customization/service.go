package customization

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"atelier/internal/config"
	"atelier/internal/engine"
	"atelier/internal/logger"
	"atelier/internal/pricing"
	"atelier/internal/summary"
	"atelier/internal/variant"
	pkgerrors "atelier/pkg/errors"
	"atelier/pkg/metrics"
	"atelier/pkg/tracing"
)

type Service struct {
	repo     Repository
	resolver *engine.Resolver
	variants *variant.Resolver
	models   map[string]*engine.Model
	modelsMu sync.RWMutex
	cfg      config.CustomizationConfig
	logger   logger.Logger
}

func NewService(repo Repository, variants *variant.Resolver, cfg config.CustomizationConfig, log logger.Logger) (*Service, error) {
	resolver, err := engine.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to create rule resolver: %w", err)
	}

	return &Service{
		repo:     repo,
		resolver: resolver,
		variants: variants,
		models:   make(map[string]*engine.Model),
		cfg:      cfg,
		logger:   log,
	}, nil
}

func (s *Service) Resolve(ctx context.Context, productID string, req CustomizeRequest) (*ResolveResponse, error) {
	ctx, span := tracing.GetTracer("customization-service").Start(ctx, "customization.resolve")
	defer span.End()

	model, err := s.model(productID)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues("unknown_product").Inc()
		return nil, err
	}

	start := time.Now()
	result := s.resolver.Resolve(ctx, model, engine.Selection(req.Selection))

	status := "converged"
	if !result.Converged {
		status = "non_convergence"
	}
	metrics.ResolutionsTotal.WithLabelValues(status).Inc()
	metrics.ObserveResolutionDuration(time.Since(start), status)
	metrics.ObserveResolutionRounds(result.Rounds)

	if !result.Converged {
		s.logger.WarnwCtx(ctx, "Resolution did not converge",
			"product_id", productID,
			"rounds", result.Rounds,
		)
	}

	return &ResolveResponse{ProductID: productID, Result: result}, nil
}

func (s *Service) Quote(ctx context.Context, productID string, req CustomizeRequest) (*QuoteResponse, error) {
	ctx, span := tracing.GetTracer("customization-service").Start(ctx, "customization.quote")
	defer span.End()

	model, err := s.model(productID)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues("unknown_product").Inc()
		return nil, err
	}

	result := s.resolver.Resolve(ctx, model, engine.Selection(req.Selection))
	quote := pricing.Calculate(model, result.AdjustedSelection, result.View,
		engine.MaterialVariant(req.Material), engine.PriceVariant(req.PriceVariant))

	status := "complete"
	if len(quote.UnmetRequirements) > 0 {
		status = "unmet_requirements"
	}
	metrics.QuotesTotal.WithLabelValues(status).Inc()

	return &QuoteResponse{
		ProductID:         productID,
		AdjustedSelection: result.AdjustedSelection,
		View:              result.View,
		Quote:             quote,
		Total:             quote.Total(),
	}, nil
}

func (s *Service) Variant(ctx context.Context, productID string, req CustomizeRequest) (*VariantResponse, error) {
	ctx, span := tracing.GetTracer("customization-service").Start(ctx, "customization.variant")
	defer span.End()

	model, err := s.model(productID)
	if err != nil {
		return nil, err
	}

	result := s.resolver.Resolve(ctx, model, engine.Selection(req.Selection))

	v, err := s.variants.Resolve(ctx, model, result.AdjustedSelection)
	if err != nil {
		metrics.VariantLookupsTotal.WithLabelValues("error").Inc()
		s.logger.WarnwCtx(ctx, "Variant lookup failed, returning key without existence",
			"product_id", productID,
			"variant_key", v.Key,
			"error", err,
		)
		// The key is still deterministic; existence is best effort.
		return &VariantResponse{
			ProductID:         productID,
			AdjustedSelection: result.AdjustedSelection,
			Variant:           v,
		}, nil
	}

	status := "miss"
	if v.Exists {
		status = "hit"
	}
	metrics.VariantLookupsTotal.WithLabelValues(status).Inc()

	return &VariantResponse{
		ProductID:         productID,
		AdjustedSelection: result.AdjustedSelection,
		Variant:           v,
	}, nil
}

func (s *Service) Summary(ctx context.Context, productID string, req CustomizeRequest) (*SummaryResponse, error) {
	ctx, span := tracing.GetTracer("customization-service").Start(ctx, "customization.summary")
	defer span.End()

	model, err := s.model(productID)
	if err != nil {
		return nil, err
	}

	result := s.resolver.Resolve(ctx, model, engine.Selection(req.Selection))

	return &SummaryResponse{
		ProductID: productID,
		Summary:   summary.Format(model, result.View, result.AdjustedSelection),
	}, nil
}

func (s *Service) model(productID string) (*engine.Model, error) {
	s.modelsMu.RLock()
	defer s.modelsMu.RUnlock()

	model, ok := s.models[productID]
	if !ok {
		return nil, pkgerrors.ErrNotFound.WithDetail("product_id", productID)
	}
	return model, nil
}

func (s *Service) ReloadModels(ctx context.Context) error {
	s.logger.DebugwCtx(ctx, "Loading product models")
	models, err := s.repo.LoadModels(ctx)
	if err != nil {
		metrics.IncModelReload("full", "error")
		return err
	}

	s.updateModels(ctx, models)
	metrics.IncModelReload("full", "success")
	return nil
}

func (s *Service) ReloadProduct(ctx context.Context, productID string) error {
	model, err := s.repo.LoadModel(ctx, productID)
	if err != nil {
		metrics.IncModelReload("product", "error")
		return err
	}

	s.modelsMu.Lock()
	if model == nil {
		delete(s.models, productID)
	} else {
		s.models[productID] = model
	}
	s.publishGauges()
	s.modelsMu.Unlock()

	metrics.IncModelReload("product", "success")
	s.logger.InfowCtx(ctx, "Reloaded product model",
		"product_id", productID,
		"removed", model == nil,
	)
	return nil
}

func (s *Service) applyJitter(ctx context.Context) error {
	if s.cfg.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.cfg.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) updateModels(ctx context.Context, models []*engine.Model) {
	indexed := make(map[string]*engine.Model, len(models))
	for _, m := range models {
		indexed[m.ProductID] = m
	}

	s.modelsMu.Lock()
	s.models = indexed
	s.publishGauges()
	s.modelsMu.Unlock()

	s.logger.InfowCtx(ctx, "Successfully reloaded product models",
		"models_count", len(indexed),
	)
}

// publishGauges must be called with modelsMu held.
func (s *Service) publishGauges() {
	ruleCount := 0
	for _, m := range s.models {
		for _, rule := range m.Rules {
			if rule.Active {
				ruleCount++
			}
		}
	}
	metrics.SetLoadedProductModels(len(s.models))
	metrics.SetActiveLogicRules(ruleCount)
}

func (s *Service) StartReloader(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.cfg.Reload.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	if err := s.ReloadModels(ctx); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to reload models",
			"error", err,
		)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.applyJitter(ctx); err != nil {
				return err
			}
			if err := s.ReloadModels(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload models",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
