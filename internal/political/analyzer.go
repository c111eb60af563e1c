package political

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/risk"
)

type Analyzer struct {
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time
}

func NewAnalyzer(fetcher Fetcher, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{fetcher: fetcher, logger: logger, now: time.Now}
}

// AnalyzeRisks scores the news of each country in order. A country whose news
// cannot be fetched gets a single placeholder entry instead of failing the batch.
func (a *Analyzer) AnalyzeRisks(ctx context.Context, countries []string) []contracts.PoliticalRisk {
	all := make([]contracts.PoliticalRisk, 0)
	for _, country := range countries {
		articles, err := a.fetcher.Fetch(ctx, country)
		if err != nil {
			a.logger.Warn("political analysis failed", zap.String("country", country), zap.Error(err))
			all = append(all, contracts.PoliticalRisk{
				Country:         country,
				RiskType:        "Analysis Error",
				LikelihoodScore: 1,
				Reasoning:       "Unable to fetch current data: " + err.Error(),
				PublicationDate: a.now().Format(time.RFC3339),
				SourceTitle:     "System Error",
			})
			continue
		}
		all = append(all, a.Score(country, articles)...)
	}
	return all
}

// Score turns articles into risks; articles without any risk keyword are dropped.
func (a *Analyzer) Score(country string, articles []Article) []contracts.PoliticalRisk {
	risks := make([]contracts.PoliticalRisk, 0, len(articles))
	for _, article := range articles {
		text := article.Text()
		score := risk.PoliticalScore(text)
		if score == 0 {
			continue
		}
		riskType := risk.PoliticalRiskType(text)

		published := article.PublishedAt
		if published == "" {
			published = a.now().Format(time.RFC3339)
		}
		title := article.Title
		if title == "" {
			title = "Unknown"
		}

		risks = append(risks, contracts.PoliticalRisk{
			Country:         country,
			RiskType:        riskType,
			LikelihoodScore: score,
			Reasoning:       risk.PoliticalReasoning(text, riskType),
			PublicationDate: published,
			SourceTitle:     title,
			SourceURL:       article.URL,
		})
	}
	return risks
}
