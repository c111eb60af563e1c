package risk

import (
	"math"
	"strings"
)

const MaxPoliticalScore = 5

var (
	highRiskKeywords   = []string{"strike", "protest", "conflict", "war", "embargo", "sanctions"}
	mediumRiskKeywords = []string{"tariff", "policy change", "regulation", "delay", "disruption"}
	lowRiskKeywords    = []string{"trade", "economic", "business", "manufacturing"}
)

// PoliticalScore scores news text by keyword weight: 3 per high, 2 per medium and
// 1 per low keyword present, capped at MaxPoliticalScore.
func PoliticalScore(content string) int {
	text := strings.ToLower(content)
	score := 0
	score += 3 * countPresent(text, highRiskKeywords)
	score += 2 * countPresent(text, mediumRiskKeywords)
	score += countPresent(text, lowRiskKeywords)
	return int(Clamp(float64(score), 0, MaxPoliticalScore))
}

func PoliticalRiskType(content string) string {
	text := strings.ToLower(content)
	switch {
	case containsAny(text, "strike", "protest", "unrest"):
		return "Labor Disputes"
	case containsAny(text, "tariff", "trade", "export", "import"):
		return "Trade Policy"
	case containsAny(text, "sanctions", "embargo", "ban"):
		return "Economic Sanctions"
	case containsAny(text, "regulation", "policy", "law"):
		return "Regulatory Changes"
	case containsAny(text, "election", "political", "government"):
		return "Political Instability"
	default:
		return "General Economic Risk"
	}
}

// PoliticalReasoning quotes the first two sentences of the article.
func PoliticalReasoning(content, riskType string) string {
	sentences := strings.Split(content, ".")
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	key := strings.TrimSpace(strings.Join(sentences, ". "))
	return "Based on recent news: " + key + ". Risk type identified as " + riskType + "."
}

// ScheduleLevel maps a delivery delay to a 1-5 level; on-time items are always 1.
func ScheduleLevel(delayDays int, status string) int {
	switch {
	case status == "on_time":
		return 1
	case delayDays <= 7:
		return 2
	case delayDays <= 14:
		return 3
	case delayDays <= 30:
		return 4
	default:
		return 5
	}
}

var emergingMarkets = map[string]bool{"China": true, "India": true, "Brazil": true}

func ScheduleFactors(country string, delayDays int) []string {
	factors := make([]string, 0, 4)
	if delayDays > 0 {
		factors = append(factors, "Delivery delay")
	}
	if delayDays > 14 {
		factors = append(factors, "Extended delay")
	}
	if emergingMarkets[country] {
		factors = append(factors, "Emerging market risks")
	}
	if delayDays > 30 {
		factors = append(factors, "Critical delay")
	}
	return factors
}

// Severity names an alert for a 1-5 country risk level.
func Severity(level int) string {
	switch {
	case level >= 5:
		return "critical"
	case level >= 4:
		return "high"
	case level >= 3:
		return "medium"
	default:
		return "low"
	}
}

func countPresent(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
