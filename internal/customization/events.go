package customization

import (
	"atelier/internal/config_handler"
	"atelier/internal/logger"
	"atelier/pkg/models"
)

type EventHandler = config_handler.Handler

// NewEventHandler reacts to catalog changes by reloading the affected
// product model (or all models when no product is named).
func NewEventHandler(service *Service, log logger.Logger) *EventHandler {
	return config_handler.NewHandlerWithReloader(
		[]string{
			models.EventTypeLogicRuleUpdated,
			models.EventTypeProductConfigUpdated,
		},
		models.ServiceTypeCustomization,
		service,
		log,
	)
}
