package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vet-enrich/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func samplePages() []model.PageFetchResult {
	return []model.PageFetchResult{
		{URL: "https://lakesidevet.com/", Role: model.RoleHomepage, Text: "Welcome", Succeeded: true},
		{URL: "https://lakesidevet.com/our-team", Role: model.RoleTeam, Text: "Dr. Lee", Succeeded: true},
	}
}

func TestSQLite_CrawlCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SetCachedCrawl(ctx, "https://lakesidevet.com/", samplePages(), time.Hour)
	require.NoError(t, err)

	cc, err := st.GetCachedCrawl(ctx, "https://lakesidevet.com/")
	require.NoError(t, err)
	require.NotNil(t, cc)
	assert.Equal(t, "https://lakesidevet.com/", cc.TargetURL)
	require.Len(t, cc.Pages, 2)
	assert.Equal(t, model.RoleTeam, cc.Pages[1].Role)
}

func TestSQLite_CrawlCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	cc, err := st.GetCachedCrawl(context.Background(), "https://unknown.example.com/")
	require.NoError(t, err)
	assert.Nil(t, cc)
}

func TestSQLite_CrawlCache_ExpiredNotReturned(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SetCachedCrawl(ctx, "https://lakesidevet.com/", samplePages(), -time.Hour)
	require.NoError(t, err)

	cc, err := st.GetCachedCrawl(ctx, "https://lakesidevet.com/")
	require.NoError(t, err)
	assert.Nil(t, cc)
}

func TestSQLite_CrawlCache_LatestWins(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := []model.PageFetchResult{{URL: "https://a.com/", Role: model.RoleHomepage, Text: "old"}}
	require.NoError(t, st.SetCachedCrawl(ctx, "https://a.com/", older, time.Hour))

	time.Sleep(1100 * time.Millisecond) // crawled_at has second resolution

	newer := []model.PageFetchResult{{URL: "https://a.com/", Role: model.RoleHomepage, Text: "new"}}
	require.NoError(t, st.SetCachedCrawl(ctx, "https://a.com/", newer, time.Hour))

	cc, err := st.GetCachedCrawl(ctx, "https://a.com/")
	require.NoError(t, err)
	require.NotNil(t, cc)
	assert.Equal(t, "new", cc.Pages[0].Text)
}

func TestSQLite_DeleteExpiredCrawls(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedCrawl(ctx, "https://expired.com/", samplePages(), -time.Hour))
	require.NoError(t, st.SetCachedCrawl(ctx, "https://fresh.com/", samplePages(), time.Hour))

	n, err := st.DeleteExpiredCrawls(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cc, err := st.GetCachedCrawl(ctx, "https://fresh.com/")
	require.NoError(t, err)
	assert.NotNil(t, cc)
}
