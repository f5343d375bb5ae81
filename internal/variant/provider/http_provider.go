package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"atelier/internal/constants"
)

// HTTPAssetIndex queries the media service's asset index. The endpoint URL
// may carry {product_id} and {variant_key} placeholders.
type HTTPAssetIndex struct {
	client   *http.Client
	endpoint string
	headers  map[string]string
}

func NewHTTPAssetIndex(endpoint string, headers map[string]string, timeout time.Duration) *HTTPAssetIndex {
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return &HTTPAssetIndex{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		headers:  headers,
	}
}

func (p *HTTPAssetIndex) Lookup(ctx context.Context, productID, variantKey string) (Asset, error) {
	url := strings.ReplaceAll(p.endpoint, "{product_id}", productID)
	url = strings.ReplaceAll(url, "{variant_key}", variantKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("asset index request failed: %w", err)
	}
	defer resp.Body.Close()

	// A missing variant is expected while art is being authored.
	if resp.StatusCode == http.StatusNotFound {
		return Asset{Exists: false}, nil
	}

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return Asset{}, fmt.Errorf("asset index returned status: %d", resp.StatusCode)
	}

	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return Asset{}, fmt.Errorf("failed to decode asset index response: %w", err)
	}

	return asset, nil
}
