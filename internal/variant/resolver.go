package variant

import (
	"context"
	"strings"

	"atelier/internal/engine"
	"atelier/internal/variant/provider"
)

// Variant identifies the pre-rendered image matching a selection. A key
// with Exists=false is an expected state while product art is still being
// uploaded, not an error; callers fall back to the base image.
type Variant struct {
	Key     string `json:"key"`
	Exists  bool   `json:"exists"`
	Locator string `json:"locator,omitempty"`
}

// BuildKey concatenates the filename slugs of the selected options of every
// image-affecting setting, in the model's display order. Settings that do
// not affect the image are skipped entirely, so their options vary freely
// without requiring new art. Pure; no I/O.
func BuildKey(model *engine.Model, selection engine.Selection) string {
	var slugs []string
	for _, setting := range model.Settings {
		optionID, ok := selection[setting.ID]
		if !ok {
			continue
		}
		option, ok := setting.Option(optionID)
		if !ok || !option.AffectsImageVariant {
			continue
		}
		slug := option.FilenameSlug
		if slug == "" {
			slug = option.ID
		}
		slugs = append(slugs, slug)
	}
	return strings.Join(slugs, "_")
}

// Resolver computes variant keys and delegates existence to an asset index.
// The lookup is the only I/O-bearing step of the customization flow and
// honors ctx cancellation, so callers can drop superseded preview lookups.
type Resolver struct {
	index provider.AssetIndex
}

func NewResolver(index provider.AssetIndex) *Resolver {
	return &Resolver{index: index}
}

func (r *Resolver) Resolve(ctx context.Context, model *engine.Model, selection engine.Selection) (Variant, error) {
	key := BuildKey(model, selection)
	if key == "" || r.index == nil {
		return Variant{Key: key}, nil
	}

	asset, err := r.index.Lookup(ctx, model.ProductID, key)
	if err != nil {
		return Variant{Key: key}, err
	}

	return Variant{
		Key:     key,
		Exists:  asset.Exists,
		Locator: asset.Locator,
	}, nil
}
