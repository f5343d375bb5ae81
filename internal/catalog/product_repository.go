package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository interface {
	CreateProductConfig(ctx context.Context, cfg *ProductConfig) error
	ListProductConfigs(ctx context.Context) ([]ProductConfig, error)
	GetProductConfig(ctx context.Context, id string) (*ProductConfig, error)
	UpdateProductConfig(ctx context.Context, cfg *ProductConfig) error
	DeleteProductConfig(ctx context.Context, id string) error
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("product_configurations"),
	}
}

func (r *mongoProductRepository) CreateProductConfig(ctx context.Context, cfg *ProductConfig) error {
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, cfg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product configuration already exists: %w", err)
		}
		return fmt.Errorf("failed to create product configuration: %w", err)
	}

	return nil
}

func (r *mongoProductRepository) GetProductConfig(ctx context.Context, id string) (*ProductConfig, error) {
	filter := bson.M{"_id": id}

	var cfg ProductConfig
	err := r.collection.FindOne(ctx, filter).Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product configuration: %w", err)
	}

	return &cfg, nil
}

func (r *mongoProductRepository) ListProductConfigs(ctx context.Context) ([]ProductConfig, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list product configurations: %w", err)
	}
	defer cursor.Close(ctx)

	var configs []ProductConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode product configurations: %w", err)
	}

	return configs, nil
}

func (r *mongoProductRepository) UpdateProductConfig(ctx context.Context, cfg *ProductConfig) error {
	cfg.UpdatedAt = time.Now()

	filter := bson.M{"_id": cfg.ID}
	update := bson.M{"$set": cfg}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update product configuration: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("product configuration not found")
	}

	return nil
}

func (r *mongoProductRepository) DeleteProductConfig(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete product configuration: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("product configuration not found")
	}

	return nil
}
