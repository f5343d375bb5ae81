package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/catalog"
	pkgerrors "atelier/pkg/errors"
)

func TestLogicRuleRepository_CRUD(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	repo := catalog.NewRepository(infra.PostgresDB)

	rule := &catalog.LogicRule{
		ProductID:          "solitaire-ring",
		Name:               "no onyx on white gold",
		Sequence:           1,
		Active:             true,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "exclude_options",
		TargetSettingID:    "stone",
		TargetOptionIDs:    []string{"onyx"},
	}

	require.NoError(t, repo.CreateLogicRule(ctx, rule))
	require.NotEmpty(t, rule.ID)

	fetched, err := repo.GetLogicRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.Name, fetched.Name)
	assert.Equal(t, rule.ProductID, fetched.ProductID)
	assert.Equal(t, []string{"onyx"}, fetched.TargetOptionIDs)

	fetched.Sequence = 5
	fetched.TargetOptionIDs = []string{"onyx", "sapphire"}
	require.NoError(t, repo.UpdateLogicRule(ctx, fetched))

	updated, err := repo.GetLogicRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Sequence)
	assert.Equal(t, []string{"onyx", "sapphire"}, updated.TargetOptionIDs)

	require.NoError(t, repo.DeleteLogicRule(ctx, rule.ID))

	_, err = repo.GetLogicRule(ctx, rule.ID)
	assert.Error(t, err)
}

func TestLogicRuleRepository_DuplicateNamePerProduct(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	repo := catalog.NewRepository(infra.PostgresDB)

	first := &catalog.LogicRule{
		ProductID:          "solitaire-ring",
		Name:               "unique name",
		Active:             true,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "set_required",
		TargetSettingID:    "stone",
	}
	require.NoError(t, repo.CreateLogicRule(ctx, first))

	duplicate := &catalog.LogicRule{
		ProductID:          "solitaire-ring",
		Name:               "unique name",
		Active:             true,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "set_required",
		TargetSettingID:    "stone",
	}
	err := repo.CreateLogicRule(ctx, duplicate)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))

	// Same name under another product is fine.
	other := &catalog.LogicRule{
		ProductID:          "heart-pendant",
		Name:               "unique name",
		Active:             true,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "set_required",
		TargetSettingID:    "stone",
	}
	assert.NoError(t, repo.CreateLogicRule(ctx, other))
}

func TestLogicRuleRepository_ListOrdering(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	repo := catalog.NewRepository(infra.PostgresDB)

	for i, name := range []string{"third", "first", "second"} {
		sequence := map[string]int{"first": 1, "second": 2, "third": 3}[name]
		rule := &catalog.LogicRule{
			ProductID:          "solitaire-ring",
			Name:               name,
			Sequence:           sequence,
			Active:             true,
			ConditionSettingID: "metal",
			ConditionOptionID:  "white_gold",
			ActionType:         "set_required",
			TargetSettingID:    "stone",
		}
		require.NoError(t, repo.CreateLogicRule(ctx, rule), "rule %d", i)
		time.Sleep(timestampDelay)
	}

	otherProduct := &catalog.LogicRule{
		ProductID:          "heart-pendant",
		Name:               "unrelated",
		Sequence:           0,
		Active:             true,
		ConditionSettingID: "metal",
		ConditionOptionID:  "white_gold",
		ActionType:         "set_required",
		TargetSettingID:    "stone",
	}
	require.NoError(t, repo.CreateLogicRule(ctx, otherProduct))

	rules, err := repo.ListLogicRules(ctx, "solitaire-ring")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "first", rules[0].Name)
	assert.Equal(t, "second", rules[1].Name)
	assert.Equal(t, "third", rules[2].Name)

	all, err := repo.ListLogicRules(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestVersioningRepository_VersionsAndAudit(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	repo := catalog.NewVersioningRepository(infra.PostgresDB)

	ruleID := "8b7f4c92-0000-4000-8000-000000000001"

	next, err := repo.GetNextVersion(ctx, ruleID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	require.NoError(t, repo.CreateVersion(ctx, &catalog.RuleVersion{
		RuleID:    ruleID,
		RuleData:  `{"name":"v1"}`,
		Version:   1,
		ChangedBy: "tester",
	}))
	require.NoError(t, repo.CreateVersion(ctx, &catalog.RuleVersion{
		RuleID:   ruleID,
		RuleData: `{"name":"v2"}`,
		Version:  2,
	}))

	next, err = repo.GetNextVersion(ctx, ruleID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	versions, err := repo.GetVersions(ctx, ruleID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version, "newest first")

	v1, err := repo.GetVersion(ctx, ruleID, 1)
	require.NoError(t, err)
	require.NotNil(t, v1)
	assert.Equal(t, `{"name":"v1"}`, v1.RuleData)

	missing, err := repo.GetVersion(ctx, ruleID, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.CreateAuditLog(ctx, &catalog.AuditLog{
		RuleID:    &ruleID,
		Action:    "update",
		OldValue:  map[string]interface{}{"name": "v1"},
		NewValue:  map[string]interface{}{"name": "v2"},
		ChangedBy: "tester",
	}))

	logs, err := repo.GetAuditLogs(ctx, &ruleID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "update", logs[0].Action)
	assert.Equal(t, "v2", logs[0].NewValue["name"])
}

func TestProductRepository_CRUD(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	ctx := context.Background()
	repo := catalog.NewProductRepository(infra.MongoDB)

	cfg := &catalog.ProductConfig{
		ID:        "heart-pendant",
		Title:     "Heart Pendant",
		Currency:  "USD",
		BasePrice: 10000,
		Active:    true,
		Settings: []catalog.ProductSetting{
			{
				ID:    "metal",
				Title: "Metal",
				Options: []catalog.ProductOption{
					{ID: "silver", Name: "Silver", Active: true},
				},
			},
		},
	}

	require.NoError(t, repo.CreateProductConfig(ctx, cfg))

	fetched, err := repo.GetProductConfig(ctx, "heart-pendant")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Heart Pendant", fetched.Title)
	require.Len(t, fetched.Settings, 1)

	fetched.Title = "Heart Pendant v2"
	require.NoError(t, repo.UpdateProductConfig(ctx, fetched))

	updated, err := repo.GetProductConfig(ctx, "heart-pendant")
	require.NoError(t, err)
	assert.Equal(t, "Heart Pendant v2", updated.Title)

	list, err := repo.ListProductConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeleteProductConfig(ctx, "heart-pendant"))

	missing, err := repo.GetProductConfig(ctx, "heart-pendant")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
