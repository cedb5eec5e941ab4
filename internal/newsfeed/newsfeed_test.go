package newsfeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/pkg/youdotcom"
)

type fakeNewsClient struct {
	mu       sync.Mutex
	calls    int
	queries  []string
	articles []youdotcom.Article
	err      error
}

func (f *fakeNewsClient) Search(ctx context.Context, req youdotcom.SearchRequest) ([]youdotcom.Hit, error) {
	return nil, nil
}

func (f *fakeNewsClient) LiveNews(ctx context.Context, req youdotcom.NewsRequest) ([]youdotcom.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, req.Query)
	return f.articles, f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(client *fakeNewsClient, clock *fakeClock) *Service {
	return NewService(client, zap.NewNop(), Options{
		TTL:        10 * time.Minute,
		MaxEntries: 4,
		ItemCount:  5,
		Clock:      clock.Now,
	})
}

func articles(n int) []youdotcom.Article {
	out := make([]youdotcom.Article, n)
	for i := range out {
		out[i] = youdotcom.Article{
			Title: "headline",
			URL:   "https://news.example/" + string(rune('a'+i)),
		}
	}
	return out
}

func TestService_CacheHitWithinTTL(t *testing.T) {
	client := &fakeNewsClient{articles: articles(3)}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	brazil := model.NewEntity("Brazil")

	first := svc.Get(context.Background(), brazil)
	require.Len(t, first.Items, 3)
	assert.False(t, first.FromCache)

	clock.Advance(9 * time.Minute)
	second := svc.Get(context.Background(), brazil)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.FetchedAt, second.FetchedAt, "cached payload is served unchanged")
	assert.Equal(t, 600, second.TTLSeconds)
	assert.Equal(t, 1, client.calls)
}

func TestService_ExpiredEntryRefetches(t *testing.T) {
	client := &fakeNewsClient{articles: articles(2)}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	brazil := model.NewEntity("Brazil")
	svc.Get(context.Background(), brazil)

	clock.Advance(11 * time.Minute)
	feed := svc.Get(context.Background(), brazil)
	assert.False(t, feed.FromCache)
	assert.Equal(t, 2, client.calls)
}

func TestService_VariantRotatesByHour(t *testing.T) {
	client := &fakeNewsClient{articles: articles(1)}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	brazil := model.NewEntity("Brazil")
	seen := make(map[string]bool)
	for i := 0; i < len(queryVariants); i++ {
		feed := svc.Get(context.Background(), brazil)
		seen[feed.Query] = true
		clock.Advance(time.Hour)
	}
	assert.Len(t, seen, len(queryVariants))
}

func TestService_VariantStableWithinHour(t *testing.T) {
	client := &fakeNewsClient{articles: articles(1)}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	brazil := model.NewEntity("Brazil")
	first := svc.Get(context.Background(), brazil)
	clock.Advance(30 * time.Minute)
	second := svc.Get(context.Background(), brazil)

	assert.Equal(t, first.Query, second.Query)
	assert.Equal(t, 1, client.calls, "same hour, same variant, cache hit")
}

func TestService_FailedFetchServesEmptyFeed(t *testing.T) {
	client := &fakeNewsClient{err: assert.AnError}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	feed := svc.Get(context.Background(), model.NewEntity("Brazil"))
	assert.Empty(t, feed.Items)

	// Failures are not cached: the next call tries upstream again.
	svc.Get(context.Background(), model.NewEntity("Brazil"))
	assert.Equal(t, 2, client.calls)
}

func TestService_EvictionBoundsCacheSize(t *testing.T) {
	client := &fakeNewsClient{articles: articles(1)}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	for _, name := range []string{"Brazil", "India", "Kenya", "Norway", "Chile", "Japan"} {
		svc.Get(context.Background(), model.NewEntity(name))
		clock.Advance(time.Second)
	}

	svc.mu.Lock()
	size := len(svc.cache)
	locks := len(svc.inflight)
	svc.mu.Unlock()
	assert.LessOrEqual(t, size, 4)
	assert.LessOrEqual(t, locks, 4, "key mutexes are pruned with their cache entries")
}

func TestService_ItemCountCapped(t *testing.T) {
	client := &fakeNewsClient{articles: articles(9)}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	feed := svc.Get(context.Background(), model.NewEntity("Brazil"))
	assert.Len(t, feed.Items, 5)
}

func TestService_SkipsArticlesWithoutURL(t *testing.T) {
	client := &fakeNewsClient{articles: []youdotcom.Article{
		{Title: "no url"},
		{Title: "ok", URL: "https://news.example/x"},
	}}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(client, clock)

	feed := svc.Get(context.Background(), model.NewEntity("Brazil"))
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "https://news.example/x", feed.Items[0].URL)
}
