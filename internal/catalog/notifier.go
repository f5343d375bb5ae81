package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	kafka "atelier/internal/broker"
	"atelier/pkg/models"
)

type ConfigEventProducer struct {
	producer kafka.Producer
	topic    string
}

func NewConfigEventProducer(producer kafka.Producer, topic string) *ConfigEventProducer {
	return &ConfigEventProducer{
		producer: producer,
		topic:    topic,
	}
}

func (p *ConfigEventProducer) PublishLogicRuleEvent(ctx context.Context, action, ruleID, productID, changedBy string) error {
	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeLogicRuleUpdated,
		ServiceType: models.ServiceTypeCustomization,
		ProductID:   productID,
		RuleID:      ruleID,
		Action:      action,
		Timestamp:   time.Now(),
		ChangedBy:   changedBy,
	}
	return p.publishEvent(ctx, event)
}

func (p *ConfigEventProducer) PublishProductConfigEvent(ctx context.Context, action, productID, changedBy string) error {
	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeProductConfigUpdated,
		ServiceType: models.ServiceTypeCustomization,
		ProductID:   productID,
		Action:      action,
		Timestamp:   time.Now(),
		ChangedBy:   changedBy,
	}
	return p.publishEvent(ctx, event)
}

func (p *ConfigEventProducer) publishEvent(ctx context.Context, event models.ConfigUpdateEvent) error {
	if p.producer == nil || p.topic == "" {
		return nil
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal config event: %w", err)
	}

	var eventData map[string]interface{}
	if err := json.Unmarshal(eventJSON, &eventData); err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	envelope := models.MessageEnvelope{
		ID:        uuid.New().String(),
		Source:    "catalog-service",
		Timestamp: time.Now(),
		Payload:   eventData,
		Metadata:  models.Metadata{},
	}

	envelope.SetAttribute("event_type", event.EventType)
	envelope.SetAttribute("service_type", event.ServiceType)

	if event.Metadata != nil {
		envelope.SetAttribute("metadata", event.Metadata)
	}

	return p.producer.Publish(ctx, p.topic, envelope)
}
