// Package newsfeed serves recent AI news per entity through a TTL cache
// over the live news API. Query phrasing rotates by hour of day so
// repeated visitors see varied coverage angles.
package newsfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/pkg/youdotcom"
)

// queryVariants are the rotating phrasings for entity news lookups. The
// active variant is chosen by the current hour so the rotation is stable
// within an hour and cheap to compute.
var queryVariants = []string{
	"%s artificial intelligence news",
	"%s AI policy regulation government",
	"%s AI startup funding investment",
	"%s machine learning technology development",
}

// Item is one news article in a feed.
type Item struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Feed is the cached news result for one entity and variant. FetchedAt
// and TTLSeconds tell callers when a refetch will happen, so clients can
// poll on the cache window instead of a fixed timer.
type Feed struct {
	Entity     string    `json:"entity"`
	Query      string    `json:"query"`
	Items      []Item    `json:"items"`
	FetchedAt  time.Time `json:"fetched_at"`
	TTLSeconds int       `json:"cache_ttl_seconds"`
	FromCache  bool      `json:"from_cache"`
}

type entry struct {
	feed      Feed
	fetchedAt time.Time
}

// Options tune the service.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	ItemCount  int
	Clock      func() time.Time
}

// Service fetches and caches entity news feeds. Entries are cached
// whole: a feed is either fresh and served as-is or expired and
// refetched in full.
type Service struct {
	client youdotcom.Client
	log    *zap.Logger

	ttl        time.Duration
	maxEntries int
	itemCount  int
	clock      func() time.Time

	mu       sync.Mutex
	cache    map[string]*entry
	inflight map[string]*sync.Mutex
}

// NewService builds a Service. Zero option fields get working defaults.
func NewService(client youdotcom.Client, log *zap.Logger, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 256
	}
	if opts.ItemCount <= 0 {
		opts.ItemCount = 5
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		client:     client,
		log:        log,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		itemCount:  opts.ItemCount,
		clock:      opts.Clock,
		cache:      make(map[string]*entry),
		inflight:   make(map[string]*sync.Mutex),
	}
}

// Get returns the news feed for an entity, from cache when fresh.
// Concurrent misses for the same key resolve to a single upstream fetch.
// A failed refetch yields an empty feed, never an error to the caller.
func (s *Service) Get(ctx context.Context, entity model.Entity) Feed {
	now := s.clock()
	variant := now.Hour() % len(queryVariants)
	query := fmt.Sprintf(queryVariants[variant], entity.Name)
	key := entity.Key + "|" + query

	// Serialize per key so one fetch fills the cache for all waiters.
	keyMu := s.keyLock(key)
	keyMu.Lock()
	defer keyMu.Unlock()

	s.mu.Lock()
	e, ok := s.cache[key]
	s.mu.Unlock()
	if ok && now.Sub(e.fetchedAt) < s.ttl {
		feed := e.feed
		feed.FromCache = true
		return feed
	}

	feed := s.fetch(ctx, entity, query)
	if len(feed.Items) > 0 {
		s.put(key, feed)
	}
	return feed
}

func (s *Service) fetch(ctx context.Context, entity model.Entity, query string) Feed {
	feed := Feed{
		Entity:     entity.Name,
		Query:      query,
		FetchedAt:  s.clock(),
		TTLSeconds: int(s.ttl.Seconds()),
	}

	articles, err := s.client.LiveNews(ctx, youdotcom.NewsRequest{Query: query, Count: s.itemCount})
	if err != nil {
		s.log.Warn("news fetch failed, serving empty feed",
			zap.String("entity", entity.Key), zap.Error(err))
		return feed
	}

	now := s.clock()
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		feed.Items = append(feed.Items, Item{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source,
			Timestamp:   a.Timestamp,
			Thumbnail:   a.Thumbnail,
			FetchedAt:   now,
		})
		if len(feed.Items) == s.itemCount {
			break
		}
	}
	return feed
}

func (s *Service) put(key string, feed Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cache) >= s.maxEntries {
		s.evictOldest()
	}
	s.cache[key] = &entry{feed: feed, fetchedAt: s.clock()}
}

// evictOldest drops the stalest entry and its key mutex so the inflight
// map stays bounded along with the cache. Called with s.mu held.
func (s *Service) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range s.cache {
		if oldestKey == "" || e.fetchedAt.Before(oldest) {
			oldestKey = k
			oldest = e.fetchedAt
		}
	}
	if oldestKey != "" {
		delete(s.cache, oldestKey)
		delete(s.inflight, oldestKey)
	}
}

func (s *Service) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.inflight[key]
	if !ok {
		m = &sync.Mutex{}
		s.inflight[key] = m
	}
	return m
}
