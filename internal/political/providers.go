package political

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	NewsDataURL = "https://newsdata.io/api/1/news"
	GNewsURL    = "https://gnews.io/api/v4/search"

	maxArticles = 10
)

// Provider fetches recent news for a country from one upstream API.
type Provider interface {
	Name() string
	Enabled() bool
	Articles(ctx context.Context, country string) ([]Article, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// NewsData queries newsdata.io for business and politics headlines.
type NewsData struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewNewsData(apiKey, endpoint string) *NewsData {
	if endpoint == "" {
		endpoint = NewsDataURL
	}
	return &NewsData{apiKey: apiKey, endpoint: endpoint, client: defaultHTTPClient()}
}

func (n *NewsData) Name() string  { return "newsdata" }
func (n *NewsData) Enabled() bool { return n.apiKey != "" }

func (n *NewsData) Articles(ctx context.Context, country string) ([]Article, error) {
	q := url.Values{}
	q.Set("apikey", n.apiKey)
	q.Set("country", strings.ToLower(country))
	q.Set("category", "business,politics")
	q.Set("language", "en")
	q.Set("size", fmt.Sprint(maxArticles))

	var body struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			PubDate     string `json:"pubDate"`
			Link        string `json:"link"`
		} `json:"results"`
	}
	if err := getJSON(ctx, n.client, n.endpoint, q, &body); err != nil {
		return nil, fmt.Errorf("newsdata: %w", err)
	}

	out := make([]Article, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, Article{
			Title:       r.Title,
			Description: r.Description,
			Content:     r.Content,
			PublishedAt: r.PubDate,
			URL:         r.Link,
		})
	}
	return out, nil
}

// GNews searches gnews.io for trade and politics coverage of a country.
type GNews struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewGNews(apiKey, endpoint string) *GNews {
	if endpoint == "" {
		endpoint = GNewsURL
	}
	return &GNews{apiKey: apiKey, endpoint: endpoint, client: defaultHTTPClient()}
}

func (g *GNews) Name() string  { return "gnews" }
func (g *GNews) Enabled() bool { return g.apiKey != "" }

func (g *GNews) Articles(ctx context.Context, country string) ([]Article, error) {
	q := url.Values{}
	q.Set("token", g.apiKey)
	q.Set("q", country+" trade politics economy")
	q.Set("lang", "en")
	q.Set("country", strings.ToLower(country))
	q.Set("max", fmt.Sprint(maxArticles))

	var body struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			PublishedAt string `json:"publishedAt"`
			URL         string `json:"url"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, g.client, g.endpoint, q, &body); err != nil {
		return nil, fmt.Errorf("gnews: %w", err)
	}

	out := make([]Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		out = append(out, Article{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			PublishedAt: a.PublishedAt,
			URL:         a.URL,
		})
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
