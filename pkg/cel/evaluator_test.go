package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid simple expression",
			expr:      `selection["metal"] == "white_gold"`,
			wantError: false,
		},
		{
			name:      "valid product comparison",
			expr:      `product == "solitaire-ring"`,
			wantError: false,
		},
		{
			name:      "invalid expression",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `undefinedVar == "test"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConditionExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid bool expression",
			expr:      `selection["metal"] == "platinum"`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `selection["metal"]`,
			wantError: true,
		},
		{
			name:      "valid conjunction",
			expr:      `selection["metal"] == "white_gold" && selection["stone"] != "onyx"`,
			wantError: false,
		},
		{
			name:      "valid membership check",
			expr:      `"engraving" in selection`,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateConditionExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateCondition(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	ctx := context.Background()
	selection := map[string]string{
		"metal": "white_gold",
		"stone": "diamond",
		"chain": "cable_45",
	}

	tests := []struct {
		name      string
		expr      string
		want      bool
		wantError bool
	}{
		{
			name: "simple equality true",
			expr: `selection["metal"] == "white_gold"`,
			want: true,
		},
		{
			name: "simple equality false",
			expr: `selection["metal"] == "yellow_gold"`,
			want: false,
		},
		{
			name: "conjunction true",
			expr: `selection["metal"] == "white_gold" && selection["stone"] == "diamond"`,
			want: true,
		},
		{
			name: "negation",
			expr: `selection["stone"] != "onyx"`,
			want: true,
		},
		{
			name: "product match",
			expr: `product == "solitaire-ring"`,
			want: true,
		},
		{
			name: "membership true",
			expr: `"chain" in selection`,
			want: true,
		},
		{
			name: "membership false",
			expr: `"engraving" in selection`,
			want: false,
		},
		{
			name: "unselected setting is not met",
			expr: `selection["engraving"] == "none"`,
			want: false,
		},
		{
			name:      "non-bool result",
			expr:      `product`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.EvaluateCondition(ctx, tt.expr, "solitaire-ring", selection)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, result)
			}
		})
	}
}

func TestEvaluateConditionNilSelection(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	result, err := eval.EvaluateCondition(context.Background(), `"metal" in selection`, "pendant", nil)
	require.NoError(t, err)
	assert.False(t, result)
}
