package sentinel

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/AgyeDark/galamsey-sentinel/internal/cache"
	"github.com/AgyeDark/galamsey-sentinel/internal/log"
)

// Searcher finds the scenes covering an extent during one year.
type Searcher interface {
	Search(ctx context.Context, extent orb.Bound, year int, maxCloud float64) ([]SceneDescriptor, error)
}

// CachedCatalog memoizes searches on disk keyed by the full query, so
// repeated runs over the same basin and season skip the API entirely
// until the entry ages out.
type CachedCatalog struct {
	inner      Searcher
	cache      *cache.FileCache[[]SceneDescriptor]
	endpoint   string
	collection string
}

func NewCachedCatalog(inner Searcher, endpoint, collection string, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		inner:      inner,
		cache:      cache.NewFileCache[[]SceneDescriptor]("catalog", ttl),
		endpoint:   endpoint,
		collection: collection,
	}
}

func (c *CachedCatalog) Search(ctx context.Context, extent orb.Bound, year int, maxCloud float64) ([]SceneDescriptor, error) {
	key := c.cache.GenerateKey(c.endpoint, c.collection,
		extent.Min[0], extent.Min[1], extent.Max[0], extent.Max[1], year, maxCloud)
	if scenes, ok := c.cache.Get(key); ok {
		log.Debugf("catalog cache hit, %d scenes for %d", len(scenes), year)
		return scenes, nil
	}

	scenes, err := c.inner.Search(ctx, extent, year, maxCloud)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(key, scenes); err != nil {
		log.Warnf("storing catalog cache failed: %v", err)
	}
	return scenes, nil
}
