package provider

import "context"

// Asset is the index's answer for one variant key.
type Asset struct {
	Exists  bool   `json:"exists"`
	Locator string `json:"locator,omitempty"`
}

// AssetIndex answers whether a pre-rendered image exists for a product's
// variant key and where it lives.
type AssetIndex interface {
	Lookup(ctx context.Context, productID, variantKey string) (Asset, error)
}
