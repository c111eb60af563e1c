package political

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/config"
)

type fakeFetcher struct {
	articles map[string][]Article
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, country string) ([]Article, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[country], nil
}

type stubProvider struct {
	name     string
	enabled  bool
	articles []Article
	err      error
}

func (p stubProvider) Name() string  { return p.name }
func (p stubProvider) Enabled() bool { return p.enabled }
func (p stubProvider) Articles(context.Context, string) ([]Article, error) {
	return p.articles, p.err
}

func TestArticleTextPrecedence(t *testing.T) {
	assert.Equal(t, "body", Article{Title: "t", Description: "d", Content: "body"}.Text())
	assert.Equal(t, "d", Article{Title: "t", Description: "d", Content: "  "}.Text())
	assert.Equal(t, "t", Article{Title: "t"}.Text())
	assert.Equal(t, "", Article{}.Text())
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "no markup here", PlainText("no markup here"))
	assert.Equal(t, "Port strike announced today.", PlainText("<p>Port <b>strike</b>\n announced</p><script>x()</script> <p>today.</p>"))
}

func TestAnalyzeSampleNews(t *testing.T) {
	fetcher := NewNewsFetcher(zap.NewNop())
	a := NewAnalyzer(fetcher, zap.NewNop())

	risks := a.AnalyzeRisks(context.Background(), []string{"China", "Germany", "India", "Japan", "Brazil", "Chile"})
	require.Len(t, risks, 3)

	assert.Equal(t, "Germany", risks[0].Country)
	assert.Equal(t, "General Economic Risk", risks[0].RiskType)
	assert.Equal(t, 1, risks[0].LikelihoodScore)
	assert.Equal(t, "Based on recent news: The German manufacturing sector shows signs of contraction.. Risk type identified as General Economic Risk.", risks[0].Reasoning)
	assert.Equal(t, "https://example.com/germany-manufacturing", risks[0].SourceURL)

	assert.Equal(t, "India", risks[1].Country)
	assert.Equal(t, "Trade Policy", risks[1].RiskType)
	assert.Equal(t, 2, risks[1].LikelihoodScore)

	assert.Equal(t, "Brazil", risks[2].Country)
	assert.Equal(t, "Labor Disputes", risks[2].RiskType)
	assert.Equal(t, 3, risks[2].LikelihoodScore)
	assert.Equal(t, "Brazilian Port Workers Announce Strike", risks[2].SourceTitle)
}

func TestAnalyzeFetchFailure(t *testing.T) {
	a := NewAnalyzer(&fakeFetcher{err: errors.New("connection refused")}, nil)
	risks := a.AnalyzeRisks(context.Background(), []string{"Peru"})
	require.Len(t, risks, 1)
	assert.Equal(t, "Peru", risks[0].Country)
	assert.Equal(t, "Analysis Error", risks[0].RiskType)
	assert.Equal(t, 1, risks[0].LikelihoodScore)
	assert.Equal(t, "Unable to fetch current data: connection refused", risks[0].Reasoning)
	assert.Equal(t, "System Error", risks[0].SourceTitle)
	assert.Empty(t, risks[0].SourceURL)
}

func TestScoreDefaults(t *testing.T) {
	a := NewAnalyzer(&fakeFetcher{}, nil)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	risks := a.Score("Chile", []Article{
		{Content: "Dock workers protest new tariff"},
		{Content: "Weather is mild"},
	})
	require.Len(t, risks, 1)
	assert.Equal(t, "Unknown", risks[0].SourceTitle)
	assert.Equal(t, "2025-03-01T12:00:00Z", risks[0].PublicationDate)
	assert.Equal(t, 5, risks[0].LikelihoodScore)
}

func TestNewsFetcherConcatenatesAndSkips(t *testing.T) {
	f := NewNewsFetcher(zap.NewNop(),
		stubProvider{name: "a", enabled: true, articles: []Article{{Title: "one"}}},
		stubProvider{name: "b", enabled: false, articles: []Article{{Title: "skipped"}}},
		stubProvider{name: "c", enabled: true, err: errors.New("boom")},
		stubProvider{name: "d", enabled: true, articles: []Article{{Title: "two"}}},
	)
	got, err := f.Fetch(context.Background(), "Chile")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Title)
	assert.Equal(t, "two", got[1].Title)
}

func TestNewsFetcherFallsBackToSamples(t *testing.T) {
	f := NewNewsFetcher(zap.NewNop(), stubProvider{name: "a", enabled: true, err: errors.New("down")})
	got, err := f.Fetch(context.Background(), "Brazil")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Brazilian Port Workers Announce Strike", got[0].Title)
	assert.NotEmpty(t, got[0].PublishedAt)

	got, err = f.Fetch(context.Background(), "Chile")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewsFetcherCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewNewsFetcher(zap.NewNop(), stubProvider{name: "a", enabled: true, err: errors.New("canceled")})
	_, err := f.Fetch(ctx, "Brazil")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewsDataClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.URL.Query().Get("apikey"))
		assert.Equal(t, "india", r.URL.Query().Get("country"))
		assert.Equal(t, "business,politics", r.URL.Query().Get("category"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","results":[{"title":"Tariff hike","description":"d","content":"c","pubDate":"2025-01-02 10:00:00","link":"https://n/1"}]}`))
	}))
	defer srv.Close()

	c := NewNewsData("key-1", srv.URL)
	require.True(t, c.Enabled())
	got, err := c.Articles(context.Background(), "India")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Article{Title: "Tariff hike", Description: "d", Content: "c", PublishedAt: "2025-01-02 10:00:00", URL: "https://n/1"}, got[0])

	assert.False(t, NewNewsData("", srv.URL).Enabled())
}

func TestGNewsClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		assert.Equal(t, "Japan trade politics economy", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("max"))
		_, _ = w.Write([]byte(`{"totalArticles":1,"articles":[{"title":"Sanctions","description":"d","content":"<p>Embargo</p>","publishedAt":"2025-01-03T00:00:00Z","url":"https://g/1"}]}`))
	}))
	defer srv.Close()

	got, err := NewGNews("tok", srv.URL).Articles(context.Background(), "Japan")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://g/1", got[0].URL)
	assert.Equal(t, "Embargo", got[0].Text())
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewNewsData("bad", srv.URL).Articles(context.Background(), "India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newsdata")
	assert.Contains(t, err.Error(), "401")
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis cache tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Failed to connect to Redis: %v", err)
	}

	country := "TestCountry-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, "sentrix:news:"+country)

	next := &fakeFetcher{articles: map[string][]Article{country: {{Title: "cached"}}}}
	cache := NewRedisCache(next, client, time.Minute, zap.NewNop())

	first, err := cache.Fetch(ctx, country)
	require.NoError(t, err)
	second, err := cache.Fetch(ctx, country)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
}

func TestNewFetcherFromConfig(t *testing.T) {
	ctx := context.Background()

	fetcher, closeFn := NewFetcherFromConfig(ctx, config.Config{}, nil)
	defer closeFn()
	assert.IsType(t, &NewsFetcher{}, fetcher)

	// An unreachable cache leaves the provider chain uncached.
	fetcher, closeFn = NewFetcherFromConfig(ctx, config.Config{RedisAddr: "127.0.0.1:1", NewsCacheTTL: time.Minute}, zap.NewNop())
	defer closeFn()
	assert.IsType(t, &NewsFetcher{}, fetcher)
}
