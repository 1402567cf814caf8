// Package store persists crawl results locally so re-runs within the cache
// TTL skip the network entirely.
package store

import (
	"context"
	"time"

	"github.com/sells-group/vet-enrich/internal/model"
)

// Store is the crawl cache interface.
type Store interface {
	GetCachedCrawl(ctx context.Context, targetURL string) (*model.CrawlCache, error)
	SetCachedCrawl(ctx context.Context, targetURL string, pages []model.PageFetchResult, ttl time.Duration) error
	DeleteExpiredCrawls(ctx context.Context) (int, error)
	Close() error
}

// DefaultCrawlTTL is how long a cached crawl stays usable.
const DefaultCrawlTTL = 24 * time.Hour
