package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"atelier/internal/constants"
	"atelier/pkg/metrics"
)

// CachedAssetIndex puts a Redis read-through cache in front of another
// index. Positive and negative answers are both cached: during authoring a
// variant can be missing for days and the storefront re-asks on every
// selection change.
type CachedAssetIndex struct {
	client *redis.Client
	next   AssetIndex
	ttl    time.Duration
}

func NewCachedAssetIndex(client *redis.Client, next AssetIndex, ttl time.Duration) *CachedAssetIndex {
	if ttl <= 0 {
		ttl = time.Duration(constants.DefaultTTLSeconds) * time.Second
	}
	return &CachedAssetIndex{
		client: client,
		next:   next,
		ttl:    ttl,
	}
}

func (p *CachedAssetIndex) Lookup(ctx context.Context, productID, variantKey string) (Asset, error) {
	key := cacheKey(productID, variantKey)

	val, err := p.client.Get(ctx, key).Result()
	if err == nil {
		var asset Asset
		if jsonErr := json.Unmarshal([]byte(val), &asset); jsonErr == nil {
			metrics.VariantCacheLookupsTotal.WithLabelValues("hit").Inc()
			return asset, nil
		}
	} else if err != redis.Nil {
		// Cache trouble must not break previews; fall through to the index.
		metrics.VariantCacheLookupsTotal.WithLabelValues("error").Inc()
	} else {
		metrics.VariantCacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	asset, err := p.next.Lookup(ctx, productID, variantKey)
	if err != nil {
		return Asset{}, err
	}

	if body, jsonErr := json.Marshal(asset); jsonErr == nil {
		_ = p.client.Set(ctx, key, body, p.ttl).Err()
	}

	return asset, nil
}

// Invalidate drops the cached answer for one variant, used when media is
// uploaded or replaced.
func (p *CachedAssetIndex) Invalidate(ctx context.Context, productID, variantKey string) error {
	if err := p.client.Del(ctx, cacheKey(productID, variantKey)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate variant cache: %w", err)
	}
	return nil
}

func cacheKey(productID, variantKey string) string {
	return fmt.Sprintf("%s%s:%s", constants.CacheKeyPrefixVariant, productID, variantKey)
}
