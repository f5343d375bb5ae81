package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"atelier/internal/engine"
)

func newBraceletModel() *engine.Model {
	model := &engine.Model{
		ProductID: "charm-bracelet",
		Currency:  "USD",
		Settings: []engine.Setting{
			{
				ID:           "metal",
				Title:        "Metal",
				DisplayOrder: 1,
				Options: []engine.Option{
					{ID: "silver", Name: "Sterling Silver", Active: true},
					{ID: "gold", Name: "14k Gold", Active: true},
				},
			},
			{
				ID:           "charm",
				Title:        "Charm",
				DisplayOrder: 2,
				Options: []engine.Option{
					{ID: "heart", Name: "Heart", Active: true},
					{ID: "star", Name: "Star", Active: true},
				},
			},
			{
				ID:           "clasp",
				Title:        "Clasp",
				DisplayOrder: 3,
				Options: []engine.Option{
					{ID: "lobster", Name: "Lobster", Active: true},
				},
			},
		},
	}
	model.BuildIndex()
	return model
}

func TestFormatFullSelection(t *testing.T) {
	model := newBraceletModel()
	selection := engine.Selection{"metal": "gold", "charm": "heart", "clasp": "lobster"}

	got := Format(model, nil, selection)

	assert.Equal(t, "Metal: 14k Gold; Charm: Heart; Clasp: Lobster", got)
}

func TestFormatSkipsUnselectedSettings(t *testing.T) {
	model := newBraceletModel()
	selection := engine.Selection{"metal": "silver"}

	got := Format(model, nil, selection)

	assert.Equal(t, "Metal: Sterling Silver", got)
}

func TestFormatSkipsHiddenSettings(t *testing.T) {
	model := newBraceletModel()
	selection := engine.Selection{"metal": "gold", "charm": "star", "clasp": "lobster"}
	view := engine.View{
		"charm": &engine.SettingView{SettingID: "charm", Hidden: true},
	}

	got := Format(model, view, selection)

	assert.Equal(t, "Metal: 14k Gold; Clasp: Lobster", got)
}

func TestFormatIgnoresUnknownOption(t *testing.T) {
	model := newBraceletModel()
	selection := engine.Selection{"metal": "gold", "charm": "moon"}

	got := Format(model, nil, selection)

	assert.Equal(t, "Metal: 14k Gold", got)
}

func TestFormatEmptySelection(t *testing.T) {
	model := newBraceletModel()

	assert.Empty(t, Format(model, nil, engine.Selection{}))
}

func TestFormatFollowsDisplayOrderNotSelectionOrder(t *testing.T) {
	model := newBraceletModel()
	selection := engine.Selection{"clasp": "lobster", "metal": "silver"}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "Metal: Sterling Silver; Clasp: Lobster", Format(model, nil, selection))
	}
}
