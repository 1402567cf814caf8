// Package crawl fetches a bounded, domain-confined set of pages per target
// and allocates a character budget per page by inferred role.
package crawl

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vet-enrich/internal/model"
)

// Options configures a Crawler.
type Options struct {
	// MaxPages bounds the pages fetched per target, homepage included.
	MaxPages int

	// MaxDepth bounds link discovery. 1 means homepage plus one level.
	MaxDepth int

	// PageTimeout applies independently to each page fetch.
	PageTimeout time.Duration

	// FetchConcurrency bounds concurrent sub-page fetches within one target.
	FetchConcurrency int
}

// DefaultOptions returns the crawl defaults: 5 pages, depth 1, 30s per page.
func DefaultOptions() Options {
	return Options{
		MaxPages:         5,
		MaxDepth:         1,
		PageTimeout:      30 * time.Second,
		FetchConcurrency: 4,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxPages <= 0 {
		o.MaxPages = def.MaxPages
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = def.MaxDepth
	}
	if o.PageTimeout <= 0 {
		o.PageTimeout = def.PageTimeout
	}
	if o.FetchConcurrency <= 0 {
		o.FetchConcurrency = def.FetchConcurrency
	}
	return o
}

// Crawler fetches practice website pages over plain HTTP.
type Crawler struct {
	client      *http.Client
	pageTimeout time.Duration
	maxPages    int
	maxDepth    int
	concurrency int
}

// New creates a Crawler with the given options.
func New(opts Options) *Crawler {
	opts = opts.withDefaults()
	return &Crawler{
		client: &http.Client{
			// Per-request timeouts come from fetchPage contexts; the transport
			// limits only connection setup.
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		pageTimeout: opts.PageTimeout,
		maxPages:    opts.MaxPages,
		maxDepth:    opts.MaxDepth,
		concurrency: opts.FetchConcurrency,
	}
}

// FetchTarget crawls one practice site: homepage first, then up to
// maxPages-1 same-host pages matching the role allow-list, breadth-first,
// one level deep. A single page failing does not abort the target; the
// caller decides based on whether any page succeeded.
func (c *Crawler) FetchTarget(ctx context.Context, homepageURL string) ([]model.PageFetchResult, error) {
	normalized, err := normalizeURL(homepageURL)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: parse homepage url")
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: parse base url")
	}

	log := zap.L().With(zap.String("url", normalized))

	var results []model.PageFetchResult

	home, homeErr := c.fetchPage(ctx, normalized)
	if homeErr != nil {
		log.Warn("crawl: homepage fetch failed", zap.Error(homeErr))
		results = append(results, model.PageFetchResult{
			URL:   normalized,
			Role:  model.RoleHomepage,
			Error: homeErr.Error(),
		})
		return results, nil
	}

	results = append(results, model.PageFetchResult{
		URL:        normalized,
		Role:       model.RoleHomepage,
		Title:      home.Title,
		Text:       home.Text,
		StatusCode: home.StatusCode,
		Succeeded:  true,
	})

	if c.maxDepth < 1 || c.maxPages <= 1 {
		return results, nil
	}

	// Discover candidate sub-pages from the homepage, allow-listed by role.
	seen := map[string]bool{normalized: true}
	var candidates []string
	for _, link := range parseLinks(home.HTML, base) {
		if seen[link] || !followable(link) {
			continue
		}
		seen[link] = true
		candidates = append(candidates, link)
		if len(candidates) == c.maxPages-1 {
			break
		}
	}

	if len(candidates) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, link := range candidates {
		g.Go(func() error {
			pr := model.PageFetchResult{
				URL:  link,
				Role: RoleForURL(link),
			}

			page, fetchErr := c.fetchPage(gCtx, link)
			if fetchErr != nil {
				pr.Error = fetchErr.Error()
				log.Debug("crawl: page fetch failed",
					zap.String("page", link),
					zap.Error(fetchErr),
				)
			} else {
				pr.Title = page.Title
				pr.Text = page.Text
				pr.StatusCode = page.StatusCode
				pr.Succeeded = true
			}

			mu.Lock()
			results = append(results, pr)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Deterministic order for budget allocation and logging.
	sort.Slice(results, func(i, j int) bool {
		ri, rj := results[i].Role.Priority(), results[j].Role.Priority()
		if ri != rj {
			return ri < rj
		}
		return results[i].URL < results[j].URL
	})

	succeeded := 0
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		}
	}
	log.Info("crawl: target complete",
		zap.Int("pages_attempted", len(results)),
		zap.Int("pages_succeeded", succeeded),
	)

	return results, nil
}

// AnySucceeded reports whether at least one page fetch succeeded; a target
// fetch only fails when every page failed.
func AnySucceeded(pages []model.PageFetchResult) bool {
	for _, p := range pages {
		if p.Succeeded {
			return true
		}
	}
	return false
}
