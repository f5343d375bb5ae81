package summary

import (
	"fmt"
	"strings"

	"atelier/internal/engine"
)

// Delimiter joins the rendered pairs. Summaries are persisted verbatim into
// order records at checkout, so the format must stay stable across engine
// versions; historical orders are never re-rendered from evolving rules.
const Delimiter = "; "

// Format renders "{Setting title}: {Option name}" for every setting with a
// selection, in the model's display order, skipping settings the view
// hides. Deterministic for a given model and selection.
func Format(model *engine.Model, view engine.View, selection engine.Selection) string {
	var parts []string
	for _, setting := range model.Settings {
		if view != nil {
			if sv := view[setting.ID]; sv != nil && sv.Hidden {
				continue
			}
		}

		optionID, ok := selection[setting.ID]
		if !ok {
			continue
		}
		option, ok := setting.Option(optionID)
		if !ok {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s: %s", setting.Title, option.Name))
	}
	return strings.Join(parts, Delimiter)
}
