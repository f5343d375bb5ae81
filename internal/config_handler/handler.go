package config_handler

import (
	"context"
	"encoding/json"

	"atelier/internal/logger"
	"atelier/pkg/models"
)

// ModelReloader refreshes in-memory customization models after a
// catalog change. Implementations decide whether a targeted product
// reload or a full reload is cheaper.
type ModelReloader interface {
	ReloadModels(ctx context.Context) error
	ReloadProduct(ctx context.Context, productID string) error
}

type Handler struct {
	expectedEventTypes  map[string]bool
	expectedServiceType string
	reloader            ModelReloader
	logger              logger.Logger
}

func NewHandler(expectedEventTypes []string, expectedServiceType string, log logger.Logger) *Handler {
	types := make(map[string]bool, len(expectedEventTypes))
	for _, t := range expectedEventTypes {
		types[t] = true
	}
	return &Handler{
		expectedEventTypes:  types,
		expectedServiceType: expectedServiceType,
		logger:              log,
	}
}

func NewHandlerWithReloader(expectedEventTypes []string, expectedServiceType string, reloader ModelReloader, log logger.Logger) *Handler {
	return NewHandler(expectedEventTypes, expectedServiceType, log).WithReloader(reloader)
}

func (h *Handler) WithReloader(reloader ModelReloader) *Handler {
	h.reloader = reloader
	return h
}

func (h *Handler) HandleConfigUpdateEvent(ctx context.Context, envelope models.MessageEnvelope) error {
	eventType, ok := envelope.Metadata.Attributes["event_type"].(string)
	if !ok {
		if eventTypeVal, ok := envelope.Payload["event_type"].(string); ok {
			eventType = eventTypeVal
		} else {
			h.logger.Warnw("Config event missing event_type", "id", envelope.ID)
			return nil
		}
	}

	if !h.expectedEventTypes[eventType] {
		return nil
	}

	serviceType, ok := envelope.Metadata.Attributes["service_type"].(string)
	if !ok {
		if serviceTypeVal, ok := envelope.Payload["service_type"].(string); ok {
			serviceType = serviceTypeVal
		} else {
			h.logger.Warnw("Config event missing service_type", "id", envelope.ID)
			return nil
		}
	}

	if serviceType != h.expectedServiceType {
		return nil
	}

	var event models.ConfigUpdateEvent
	eventJSON, err := json.Marshal(envelope.Payload)
	if err != nil {
		h.logger.Errorw("Failed to marshal event payload", "error", err, "id", envelope.ID)
		return err
	}

	if err := json.Unmarshal(eventJSON, &event); err != nil {
		h.logger.Errorw("Failed to unmarshal config event", "error", err, "id", envelope.ID)
		return err
	}

	h.logger.Infow("Received config update event",
		"event_type", event.EventType,
		"action", event.Action,
		"product_id", event.ProductID,
		"rule_id", event.RuleID,
	)

	if h.reloader == nil {
		return nil
	}

	if event.ProductID != "" && event.Action != models.ActionDelete {
		if err := h.reloader.ReloadProduct(ctx, event.ProductID); err != nil {
			h.logger.Errorw("Failed to reload product after config update",
				"error", err,
				"product_id", event.ProductID,
			)
			return err
		}
		h.logger.Infow("Product model reloaded after config update",
			"product_id", event.ProductID,
			"action", event.Action,
		)
		return nil
	}

	if err := h.reloader.ReloadModels(ctx); err != nil {
		h.logger.Errorw("Failed to reload models after config update", "error", err)
		return err
	}
	h.logger.Infow("Models reloaded after config update", "action", event.Action)

	return nil
}
