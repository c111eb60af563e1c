// Package intent routes free-text queries to one of the supported risk intents.
package intent

import (
	"strings"
	"unicode"
)

type Intent string

const (
	Political Intent = "political"
	Schedule  Intent = "schedule"
	Combined  Intent = "combined"
	Assistant Intent = "assistant"
	Reject    Intent = "reject"
)

var (
	allowedTopics = []string{
		"supply", "chain", "risk", "political", "geopolit", "tariff", "sanction",
		"schedule", "delivery", "delay", "logistics", "shipping", "transport",
		"report", "equipment", "supplier", "country", "trade", "from", "to", "route",
	}
	routeWords     = []string{"from", "to", "route", "transit", "voyage", "port", "ocean", "maritime"}
	politicalWords = []string{"political", "geopolit", "tariff", "sanction"}
	scheduleWords  = []string{"schedule", "delivery", "delay", "logistics", "shipping"}

	// exactWords must match a whole token; prefix matching would catch "tomorrow" or "fromage".
	exactWords = map[string]bool{"from": true, "to": true}
)

// Text is a tokenized, lower-cased query.
type Text struct {
	tokens []string
}

func Parse(s string) Text {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return Text{tokens: fields}
}

// Has reports whether keyword matches any token.
func (t Text) Has(keyword string) bool {
	for _, tok := range t.tokens {
		if exactWords[keyword] {
			if tok == keyword {
				return true
			}
			continue
		}
		if strings.HasPrefix(tok, keyword) {
			return true
		}
	}
	return false
}

func (t Text) HasAny(keywords ...string) bool {
	for _, k := range keywords {
		if t.Has(k) {
			return true
		}
	}
	return false
}

// HasWord reports whether any of words equals a whole token.
func (t Text) HasWord(words ...string) bool {
	for _, tok := range t.tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// Tokens returns a copy of the lower-cased word tokens.
func (t Text) Tokens() []string {
	return append([]string(nil), t.tokens...)
}

// OnTopic reports whether the text mentions any supply-chain topic.
func OnTopic(s string) bool {
	return Parse(s).HasAny(allowedTopics...)
}

// IsRouteQuery reports whether the text asks about a route between places.
func IsRouteQuery(s string) bool {
	return Parse(s).HasAny(routeWords...)
}

func Classify(s string) Intent {
	t := Parse(s)
	if !t.HasAny(allowedTopics...) {
		return Reject
	}
	if t.HasAny(routeWords...) {
		return Assistant
	}
	if t.Has("combined") || (t.Has("report") && t.HasAny("both", "all")) {
		return Combined
	}
	if t.HasAny(politicalWords...) {
		return Political
	}
	if t.HasAny(scheduleWords...) {
		return Schedule
	}
	if t.Has("report") {
		return Combined
	}
	return Assistant
}
