package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/broker"
	"atelier/internal/catalog"
	"atelier/internal/config"
	"atelier/internal/customization"
	"atelier/internal/engine"
	"atelier/internal/variant"
)

// reloadTrackingRepository serves whatever models the test hands it and
// records which products the service asked to reload.
type reloadTrackingRepository struct {
	mu           sync.Mutex
	models       map[string]*engine.Model
	productLoads []string
}

func (r *reloadTrackingRepository) LoadModels(_ context.Context) ([]*engine.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*engine.Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out, nil
}

func (r *reloadTrackingRepository) LoadModel(_ context.Context, productID string) (*engine.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productLoads = append(r.productLoads, productID)
	return r.models[productID], nil
}

func (r *reloadTrackingRepository) addModel(m *engine.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ProductID] = m
}

func signetModel() *engine.Model {
	model := &engine.Model{
		ProductID: "signet-ring",
		Title:     "Signet Ring",
		Currency:  "USD",
		BasePrice: 10000,
		Settings: []engine.Setting{
			{
				ID:           "band",
				Title:        "Band",
				DisplayOrder: 1,
				Options: []engine.Option{
					{ID: "wide", Name: "Wide", Active: true},
				},
			},
		},
	}
	model.BuildIndex()
	return model
}

func TestConfigEventRoundTrip(t *testing.T) {
	brokers := SetupKafka(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokerCfg := config.BrokerConfig{
		Type: "kafka",
		Kafka: config.KafkaConfig{
			Brokers:           brokers,
			GroupID:           "customization-roundtrip",
			ConfigUpdateTopic: "config-updates",
			Retry: config.RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     time.Second,
				Multiplier:      2,
			},
		},
	}
	log := createTestLogger()

	repo := &reloadTrackingRepository{models: map[string]*engine.Model{}}
	svc, err := customization.NewService(repo, variant.NewResolver(nil), config.CustomizationConfig{}, log)
	require.NoError(t, err)
	require.NoError(t, svc.ReloadModels(ctx))

	_, err = svc.Resolve(ctx, "signet-ring", customization.CustomizeRequest{})
	require.Error(t, err, "product is unknown before the catalog change lands")

	consumer, err := broker.NewConsumer(brokerCfg, log)
	require.NoError(t, err)
	consumer.SetServiceName("customization-service")
	t.Cleanup(func() {
		consumer.Close()
	})

	eventHandler := customization.NewEventHandler(svc, log)
	require.NoError(t, consumer.Consume(ctx, brokerCfg.Kafka.ConfigUpdateTopic, eventHandler.HandleConfigUpdateEvent))

	producer, err := broker.NewProducer(brokerCfg, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		producer.Close()
	})
	notifier := catalog.NewConfigEventProducer(producer, brokerCfg.Kafka.ConfigUpdateTopic)

	// The catalog side activates the product, then announces it.
	repo.addModel(signetModel())
	require.Eventually(t, func() bool {
		return notifier.PublishProductConfigEvent(ctx, "update", "signet-ring", "roundtrip-test") == nil
	}, 30*time.Second, 500*time.Millisecond, "publish should succeed once the topic exists")

	require.Eventually(t, func() bool {
		_, err := svc.Resolve(ctx, "signet-ring", customization.CustomizeRequest{})
		return err == nil
	}, 60*time.Second, 250*time.Millisecond, "consumed event should reload the announced product")

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Contains(t, repo.productLoads, "signet-ring")
}
