package graph

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/soundprediction/graphista/pkg/types"
)

// DefaultSchemaTTL is how long cached schema reads stay valid.
const DefaultSchemaTTL = 5 * time.Minute

const (
	cacheKeyCounts            = "counts"
	cacheKeyLabels            = "labels"
	cacheKeyRelationshipTypes = "relationship_types"
)

// SchemaCache sits in front of a Store's schema accessors. The Store itself
// never caches; callers that want bounded staleness opt in by wrapping it
// here and invalidate explicitly after bulk writes.
type SchemaCache struct {
	store *Store
	cache *expirable.LRU[string, interface{}]
}

// NewSchemaCache wraps store with a TTL cache over Counts, Labels and
// RelationshipTypes. A non-positive ttl uses DefaultSchemaTTL.
func NewSchemaCache(store *Store, ttl time.Duration) *SchemaCache {
	if ttl <= 0 {
		ttl = DefaultSchemaTTL
	}
	return &SchemaCache{
		store: store,
		cache: expirable.NewLRU[string, interface{}](8, nil, ttl),
	}
}

// Counts returns cached structural counts, recomputing on miss or expiry.
func (c *SchemaCache) Counts(ctx context.Context) (*types.Counts, error) {
	if cached, ok := c.cache.Get(cacheKeyCounts); ok {
		return cached.(*types.Counts), nil
	}
	counts, err := c.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cacheKeyCounts, counts)
	return counts, nil
}

// Labels returns the cached label list, recomputing on miss or expiry.
func (c *SchemaCache) Labels(ctx context.Context) ([]string, error) {
	if cached, ok := c.cache.Get(cacheKeyLabels); ok {
		return cached.([]string), nil
	}
	labels, err := c.store.Labels(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cacheKeyLabels, labels)
	return labels, nil
}

// RelationshipTypes returns the cached relationship type list, recomputing
// on miss or expiry.
func (c *SchemaCache) RelationshipTypes(ctx context.Context) ([]string, error) {
	if cached, ok := c.cache.Get(cacheKeyRelationshipTypes); ok {
		return cached.([]string), nil
	}
	relationshipTypes, err := c.store.RelationshipTypes(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cacheKeyRelationshipTypes, relationshipTypes)
	return relationshipTypes, nil
}

// Invalidate drops all cached schema reads.
func (c *SchemaCache) Invalidate() {
	c.cache.Purge()
}
