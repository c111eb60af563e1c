// Package political turns country news into political risk entries.
package political

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Article is a news item normalized across providers.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// Text is the first non-empty of content, description and title, reduced to plain text.
func (a Article) Text() string {
	for _, s := range []string{a.Content, a.Description, a.Title} {
		if t := strings.TrimSpace(s); t != "" {
			return PlainText(t)
		}
	}
	return ""
}

// PlainText strips markup from s; strings without tags are returned unchanged.
func PlainText(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var sampleNews = map[string][]Article{
	"China": {{
		Title:       "China Implements New Export Controls on Technology",
		Description: "New regulations affect semiconductor exports",
		Content:     "China has announced new export controls affecting technology sectors...",
		URL:         "https://example.com/china-tech-export",
	}},
	"Germany": {{
		Title:       "German Manufacturing Index Shows Decline",
		Description: "Economic indicators suggest potential supply chain impacts",
		Content:     "The German manufacturing sector shows signs of contraction...",
		URL:         "https://example.com/germany-manufacturing",
	}},
	"India": {{
		Title:       "India Announces New Trade Policies",
		Description: "Updated regulations affect international trade",
		Content:     "India's new trade policies aim to boost domestic manufacturing...",
		URL:         "https://example.com/india-trade",
	}},
	"Japan": {{
		Title:       "Japan's Supply Chain Resilience Initiative",
		Description: "Government announces new supply chain security measures",
		Content:     "Japan is implementing new measures to strengthen supply chain security...",
		URL:         "https://example.com/japan-supply-chain",
	}},
	"Brazil": {{
		Title:       "Brazilian Port Workers Announce Strike",
		Description: "Potential shipping delays expected",
		Content:     "Port workers in Brazil have announced a planned strike...",
		URL:         "https://example.com/brazil-strike",
	}},
}

// SampleArticles returns the built-in news for country, stamped with now.
// Countries without samples get an empty slice.
func SampleArticles(country string, now time.Time) []Article {
	src := sampleNews[country]
	out := make([]Article, 0, len(src))
	for _, a := range src {
		a.PublishedAt = now.Format(time.RFC3339)
		out = append(out, a)
	}
	return out
}
