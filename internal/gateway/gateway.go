// Package gateway is the idempotent boundary between enrichment results and
// the Notion record store. All writes are partial updates scoped to
// enrichment-owned properties; human-owned sales fields are never touched.
package gateway

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vet-enrich/internal/model"
	"github.com/sells-group/vet-enrich/internal/resilience"
	"github.com/sells-group/vet-enrich/pkg/notion"
)

// DefaultStalenessDays is the re-enrichment window: records enriched within
// it are skipped.
const DefaultStalenessDays = 30

// Gateway reads eligible targets from and merges enrichment results into a
// Notion database.
type Gateway struct {
	client        notion.Client
	dbID          string
	stalenessDays int
	retry         resilience.RetryConfig
}

// Options configures a Gateway.
type Options struct {
	StalenessDays int
	Retry         *resilience.RetryConfig
}

// New creates a Gateway against the given database.
func New(client notion.Client, dbID string, opts Options) *Gateway {
	g := &Gateway{
		client:        client,
		dbID:          dbID,
		stalenessDays: opts.StalenessDays,
	}
	if g.stalenessDays <= 0 {
		g.stalenessDays = DefaultStalenessDays
	}
	if opts.Retry != nil {
		g.retry = *opts.Retry
	} else {
		g.retry = resilience.DefaultRetryConfig()
		g.retry.OnRetry = resilience.RetryLogger("notion", "gateway")
	}
	return g
}

// QueryEligible returns targets that have never been enriched or whose last
// enrichment is strictly older than the staleness window. Records without a
// website URL are skipped since there is nothing to crawl. A limit of 0
// means no limit.
func (g *Gateway) QueryEligible(ctx context.Context, limit int) ([]model.Target, error) {
	cutoff := notionapi.Date(time.Now().UTC().AddDate(0, 0, -g.stalenessDays))

	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.OrCompoundFilter{
			notionapi.PropertyFilter{
				Property: propEnrichStatus,
				Select: &notionapi.SelectFilterCondition{
					DoesNotEqual: statusCompleted,
				},
			},
			notionapi.PropertyFilter{
				Property: propLastEnriched,
				Date: &notionapi.DateFilterCondition{
					Before: &cutoff,
				},
			},
		},
	}

	pages, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) ([]notionapi.Page, error) {
		return notion.QueryUpTo(ctx, g.client, g.dbID, filter, limit)
	})
	if err != nil {
		return nil, eris.Wrap(err, "gateway: query eligible")
	}

	var targets []model.Target
	skipped := 0
	for _, page := range pages {
		t, ok := targetFromPage(page)
		if !ok {
			skipped++
			continue
		}
		targets = append(targets, t)
		if limit > 0 && len(targets) == limit {
			break
		}
	}

	zap.L().Info("gateway: eligible targets selected",
		zap.Int("eligible", len(targets)),
		zap.Int("skipped_no_url", skipped),
	)

	return targets, nil
}

// Merge writes an extraction record onto a target page as a partial update.
// Repeating a merge with the same record is a no-op beyond the refreshed
// timestamp; protected fields are stripped from the payload before the call.
func (g *Gateway) Merge(ctx context.Context, targetID string, rec *model.ExtractionRecord) error {
	if rec == nil {
		return eris.New("gateway: nil extraction record")
	}

	props := stripProtected(buildMergeProperties(rec, time.Now().UTC()))

	err := resilience.Do(ctx, g.retry, func(ctx context.Context) error {
		_, updateErr := g.client.UpdatePage(ctx, targetID, &notionapi.PageUpdateRequest{
			Properties: props,
		})
		return updateErr
	})
	if err != nil {
		return eris.Wrapf(err, "gateway: merge target %s", targetID)
	}

	zap.L().Debug("gateway: merge complete",
		zap.String("target_id", targetID),
		zap.Int("fields_written", len(props)),
	)
	return nil
}

// MarkFailed records a failed enrichment on the target page. The error text
// is truncated to fit the property; protected fields stay untouched.
func (g *Gateway) MarkFailed(ctx context.Context, targetID, errMsg string) error {
	props := stripProtected(buildFailureProperties(errMsg, time.Now().UTC()))

	err := resilience.Do(ctx, g.retry, func(ctx context.Context) error {
		_, updateErr := g.client.UpdatePage(ctx, targetID, &notionapi.PageUpdateRequest{
			Properties: props,
		})
		return updateErr
	})
	if err != nil {
		return eris.Wrapf(err, "gateway: mark failed %s", targetID)
	}
	return nil
}

// targetFromPage converts a Notion page into a Target. Pages without a
// website URL are not usable.
func targetFromPage(page notionapi.Page) (model.Target, bool) {
	t := model.Target{ID: string(page.ID)}

	if tp, ok := page.Properties[propPracticeName].(*notionapi.TitleProperty); ok {
		t.Name = plainText(tp.Title)
	}

	if up, ok := page.Properties[propWebsite].(*notionapi.URLProperty); ok {
		t.HomepageURL = up.URL
	}
	if t.HomepageURL == "" {
		return model.Target{}, false
	}

	if dp, ok := page.Properties[propLastEnriched].(*notionapi.DateProperty); ok {
		if dp.Date != nil && dp.Date.Start != nil {
			ts := time.Time(*dp.Date.Start)
			t.LastEnrichedAt = &ts
		}
	}

	return t, true
}

func plainText(rts []notionapi.RichText) string {
	var out string
	for _, rt := range rts {
		out += rt.PlainText
	}
	return out
}
