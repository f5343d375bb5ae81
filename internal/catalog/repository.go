package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "atelier/pkg/errors"
)

type Repository interface {
	CreateLogicRule(ctx context.Context, rule *LogicRule) error
	ListLogicRules(ctx context.Context, productID string) ([]LogicRule, error)
	GetLogicRule(ctx context.Context, id string) (*LogicRule, error)
	UpdateLogicRule(ctx context.Context, rule *LogicRule) error
	DeleteLogicRule(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const logicRuleColumns = `id, product_id, name, sequence, active,
	condition_setting_id, condition_option_id, condition_expression,
	action_type, target_setting_id, target_option_ids, price_multiplier,
	created_at, updated_at`

func (r *PostgresRepository) CreateLogicRule(ctx context.Context, rule *LogicRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO logic_rules (` + logicRuleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.ProductID, rule.Name, rule.Sequence, rule.Active,
		rule.ConditionSettingID, rule.ConditionOptionID, rule.ConditionExpression,
		rule.ActionType, rule.TargetSettingID, pq.Array(rule.TargetOptionIDs), rule.PriceMultiplier,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists for product '%s'", rule.Name, rule.ProductID))
			}
		}
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists for product '%s'", rule.Name, rule.ProductID))
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetLogicRule(ctx context.Context, id string) (*LogicRule, error) {
	query := `
		SELECT ` + logicRuleColumns + `
		FROM logic_rules
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	rule, err := scanLogicRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

func (r *PostgresRepository) ListLogicRules(ctx context.Context, productID string) ([]LogicRule, error) {
	query := `
		SELECT ` + logicRuleColumns + `
		FROM logic_rules
	`
	var args []interface{}
	if productID != "" {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY sequence ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []LogicRule
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		rule, err := scanLogicRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	return rules, nil
}

func (r *PostgresRepository) UpdateLogicRule(ctx context.Context, rule *LogicRule) error {
	rule.UpdatedAt = time.Now()

	query := `
		UPDATE logic_rules
		SET name = $1, sequence = $2, active = $3,
			condition_setting_id = $4, condition_option_id = $5, condition_expression = $6,
			action_type = $7, target_setting_id = $8, target_option_ids = $9, price_multiplier = $10,
			updated_at = $11
		WHERE id = $12
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.Name, rule.Sequence, rule.Active,
		rule.ConditionSettingID, rule.ConditionOptionID, rule.ConditionExpression,
		rule.ActionType, rule.TargetSettingID, pq.Array(rule.TargetOptionIDs), rule.PriceMultiplier,
		rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

func (r *PostgresRepository) DeleteLogicRule(ctx context.Context, id string) error {
	query := `DELETE FROM logic_rules WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLogicRule(row rowScanner) (*LogicRule, error) {
	var rule LogicRule
	var targetOptionIDs pq.StringArray
	err := row.Scan(
		&rule.ID, &rule.ProductID, &rule.Name, &rule.Sequence, &rule.Active,
		&rule.ConditionSettingID, &rule.ConditionOptionID, &rule.ConditionExpression,
		&rule.ActionType, &rule.TargetSettingID, &targetOptionIDs, &rule.PriceMultiplier,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.TargetOptionIDs = []string(targetOptionIDs)
	return &rule, nil
}
