package customization

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"atelier/internal/engine"
	"atelier/internal/logger"
)

type Repository interface {
	LoadModels(ctx context.Context) ([]*engine.Model, error)
	LoadModel(ctx context.Context, productID string) (*engine.Model, error)
}

// storeRepository assembles runtime models from the product configuration
// documents in MongoDB and the logic rules in PostgreSQL.
type storeRepository struct {
	products *mongo.Collection
	db       *sql.DB
	log      logger.Logger
}

func NewRepository(mongoDB *mongo.Database, db *sql.DB, log logger.Logger) Repository {
	return &storeRepository{
		products: mongoDB.Collection("product_configurations"),
		db:       db,
		log:      log,
	}
}

type productDoc struct {
	ID         string           `bson:"_id"`
	Title      string           `bson:"title"`
	Currency   string           `bson:"currency"`
	BasePrice  int64            `bson:"base_price"`
	BasePrices map[string]int64 `bson:"base_prices"`
	Settings   []settingDoc     `bson:"settings"`
	Active     bool             `bson:"active"`
}

type settingDoc struct {
	ID           string      `bson:"id"`
	Title        string      `bson:"title"`
	Required     bool        `bson:"required"`
	DisplayOrder int         `bson:"display_order"`
	Options      []optionDoc `bson:"options"`
}

type optionDoc struct {
	ID                  string           `bson:"id"`
	Name                string           `bson:"name"`
	DefaultPriceDelta   int64            `bson:"default_price_delta"`
	PriceDeltas         map[string]int64 `bson:"price_deltas"`
	AffectsImageVariant bool             `bson:"affects_image_variant"`
	FilenameSlug        string           `bson:"filename_slug"`
	Active              bool             `bson:"active"`
}

func (r *storeRepository) LoadModels(ctx context.Context) ([]*engine.Model, error) {
	cursor, err := r.products.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query product configurations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode product configurations: %w", err)
	}

	models := make([]*engine.Model, 0, len(docs))
	for _, doc := range docs {
		rules, err := r.loadRules(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		models = append(models, r.buildModel(ctx, doc, rules))
	}

	return models, nil
}

func (r *storeRepository) LoadModel(ctx context.Context, productID string) (*engine.Model, error) {
	var doc productDoc
	err := r.products.FindOne(ctx, bson.M{"_id": productID, "active": true}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product configuration: %w", err)
	}

	rules, err := r.loadRules(ctx, productID)
	if err != nil {
		return nil, err
	}

	return r.buildModel(ctx, doc, rules), nil
}

func (r *storeRepository) loadRules(ctx context.Context, productID string) ([]engine.LogicRule, error) {
	query := `
		SELECT id, active, sequence,
			condition_setting_id, condition_option_id, condition_expression,
			action_type, target_setting_id, target_option_ids, price_multiplier,
			created_at, updated_at
		FROM logic_rules
		WHERE product_id = $1 AND active = true
		ORDER BY sequence ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query logic rules: %w", err)
	}
	defer rows.Close()

	var rules []engine.LogicRule
	for rows.Next() {
		var rule engine.LogicRule
		var targetOptionIDs pq.StringArray
		var actionType string
		if err := rows.Scan(
			&rule.ID, &rule.Active, &rule.Sequence,
			&rule.ConditionSettingID, &rule.ConditionOptionID, &rule.ConditionExpression,
			&actionType, &rule.TargetSettingID, &targetOptionIDs, &rule.PriceMultiplier,
			&rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan logic rule: %w", err)
		}
		rule.ActionType = engine.ActionType(actionType)
		rule.TargetOptionIDs = []string(targetOptionIDs)
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}

// buildModel assembles the runtime snapshot. Structurally broken source
// records (blank ids, unknown action types) are quarantined here with a
// warning so the engine only ever sees well-formed data; rules that merely
// reference missing targets stay in and surface as resolve diagnostics.
func (r *storeRepository) buildModel(ctx context.Context, doc productDoc, rules []engine.LogicRule) *engine.Model {
	kept := make([]engine.LogicRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.ActionType.Valid() {
			r.log.WarnwCtx(ctx, "Quarantined logic rule with unknown action type",
				"product_id", doc.ID,
				"rule_id", rule.ID,
				"action_type", string(rule.ActionType),
			)
			continue
		}
		kept = append(kept, rule)
	}

	model := &engine.Model{
		ProductID:   doc.ID,
		Title:       doc.Title,
		Currency:    doc.Currency,
		BasePrice:   doc.BasePrice,
		Rules:       kept,
		GeneratedAt: time.Now(),
	}

	if len(doc.BasePrices) > 0 {
		model.BasePrices = make(map[engine.PriceVariant]int64, len(doc.BasePrices))
		for variant, price := range doc.BasePrices {
			model.BasePrices[engine.PriceVariant(variant)] = price
		}
	}

	model.Settings = make([]engine.Setting, 0, len(doc.Settings))
	for _, s := range doc.Settings {
		if s.ID == "" {
			r.log.WarnwCtx(ctx, "Quarantined setting without an id",
				"product_id", doc.ID,
				"setting_title", s.Title,
			)
			continue
		}
		setting := engine.Setting{
			ID:           s.ID,
			Title:        s.Title,
			Required:     s.Required,
			DisplayOrder: s.DisplayOrder,
			Options:      make([]engine.Option, 0, len(s.Options)),
		}
		for _, o := range s.Options {
			if o.ID == "" {
				r.log.WarnwCtx(ctx, "Quarantined option without an id",
					"product_id", doc.ID,
					"setting_id", s.ID,
					"option_name", o.Name,
				)
				continue
			}
			option := engine.Option{
				ID:                  o.ID,
				Name:                o.Name,
				DefaultPriceDelta:   o.DefaultPriceDelta,
				AffectsImageVariant: o.AffectsImageVariant,
				FilenameSlug:        o.FilenameSlug,
				Active:              o.Active,
			}
			if len(o.PriceDeltas) > 0 {
				option.PriceDeltas = make(map[engine.MaterialVariant]int64, len(o.PriceDeltas))
				for material, delta := range o.PriceDeltas {
					option.PriceDeltas[engine.MaterialVariant(material)] = delta
				}
			}
			setting.Options = append(setting.Options, option)
		}
		model.Settings = append(model.Settings, setting)
	}

	sort.SliceStable(model.Settings, func(i, j int) bool {
		return model.Settings[i].DisplayOrder < model.Settings[j].DisplayOrder
	})

	model.BuildIndex()
	return model
}
