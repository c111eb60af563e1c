// Package assistant answers conversational queries that do not produce a risk report.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/intent"
	"github.com/anuragthippani1/SentriX/internal/ports"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
)

const AgentName = "assistant"

const (
	refusalText = "I can only assist with supply chain risk intelligence, shipping routes, " +
		"political risks, delivery delays, logistics disruptions, and report generation. " +
		"Try asking about routes between ports or countries."

	helpText = "You're connected to SentriX. I can help with:\n" +
		"• Route analysis (origin to destination with climate, risks, transit time)\n" +
		"• Political risks by country\n" +
		"• Delivery schedule risks\n" +
		"• Logistics disruptions\n" +
		"• Generate combined reports\n\n" +
		"Try: 'Route from Shanghai to Los Angeles' or 'Political risks in Germany'"

	politicalAck = "Understood. I'll analyze recent geopolitical events and their supply chain impact."
	scheduleAck  = "Got it. I'll assess equipment schedule delays and risk levels."
	combinedAck  = "Generating a combined report covering political and schedule risks."
	reportPrompt = "I can generate a political, schedule, or combined risk report. Which one would you like?"
	guidanceText = "I can help with supply chain risk questions, route analysis, political risks, " +
		"schedule/logistics issues, or generate reports. Please specify your focus."

	missingRouteText = "Please specify origin and destination. Example: 'Route from Shanghai to Los Angeles'"
)

// Response is the assistant's reply to one query.
type Response struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
}

// Completer produces a free-form answer for general on-topic questions.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Assistant struct {
	planner *routeplan.Planner
	llm     Completer
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Assistant)

// WithCompleter lets an LLM answer questions that have no canned reply.
func WithCompleter(c Completer) Option {
	return func(a *Assistant) { a.llm = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

func New(planner *routeplan.Planner, opts ...Option) *Assistant {
	a := &Assistant{
		planner: planner,
		logger:  zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) Respond(ctx context.Context, query string) Response {
	return Response{Message: a.message(ctx, query), Timestamp: a.now(), Agent: AgentName}
}

// Refusal wraps the off-topic reply in a Response.
func (a *Assistant) Refusal() Response {
	return Response{Message: Refusal(), Timestamp: a.now(), Agent: AgentName}
}

func Refusal() string { return refusalText }

// routeCues widens route detection beyond the classifier's route words.
var routeCues = []string{"shipping", "journey", "cargo", "freight"}

// isRouteQuestion reports whether the query asks about moving goods between places.
// "sea" and "ship" must be whole words so "search" or "shipment" do not count.
func isRouteQuestion(query string) bool {
	if intent.IsRouteQuery(query) {
		return true
	}
	t := intent.Parse(query)
	return t.HasAny(routeCues...) || t.HasWord("sea", "ship")
}

func (a *Assistant) message(ctx context.Context, query string) string {
	if isRouteQuestion(query) {
		origin, destination, ok := ParseRoute(query)
		if !ok {
			return missingRouteText
		}
		return a.RouteNarrative(origin, destination)
	}

	t := intent.Parse(query)
	switch {
	case !intent.OnTopic(query):
		return refusalText
	case t.HasWord("hello", "hi", "help"):
		return helpText
	case t.HasAny("political", "geopolit"):
		return politicalAck
	case t.HasAny("schedule", "delivery", "delay"):
		return scheduleAck
	case t.Has("combined") || (t.Has("report") && t.HasWord("both", "all")):
		return combinedAck
	case t.Has("report"):
		return reportPrompt
	}

	if a.llm != nil {
		answer, err := a.llm.Complete(ctx, systemPrompt, query)
		if err == nil && strings.TrimSpace(answer) != "" {
			return strings.TrimSpace(answer)
		}
		if err != nil {
			a.logger.Warn("llm completion failed, using canned guidance", zap.Error(err))
		}
	}
	return guidanceText
}

// ParseRoute extracts the places of a "from X to Y" query. The first "from"
// must precede the first "to" and both places must be non-empty.
func ParseRoute(query string) (origin, destination string, ok bool) {
	raw := strings.Fields(strings.ToLower(query))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" {
			words = append(words, w)
		}
	}

	fromIdx, toIdx := -1, -1
	for i, w := range words {
		if w == "from" && fromIdx < 0 {
			fromIdx = i
		}
		if w == "to" && toIdx < 0 {
			toIdx = i
		}
	}
	if fromIdx < 0 || toIdx < 0 || fromIdx > toIdx {
		return "", "", false
	}
	origin = strings.Join(words[fromIdx+1:toIdx], " ")
	destination = strings.Join(words[toIdx+1:], " ")
	if origin == "" || destination == "" {
		return "", "", false
	}
	return origin, destination, true
}

// RouteNarrative describes a voyage. When both places are known ports the canned
// assessment is preceded by metrics computed for the direct leg.
func (a *Assistant) RouteNarrative(origin, destination string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n🚢 **Route Analysis: %s → %s**\n", TitleCase(origin), TitleCase(destination))

	if a.planner != nil {
		if leg, err := a.planner.Leg(origin, destination); err == nil {
			b.WriteString(legMetrics(leg))
		}
	}

	b.WriteString(cannedAssessment)
	return b.String()
}

// KnownRoute reports whether both places resolve to ports in the table.
func KnownRoute(origin, destination string) bool {
	_, okFrom := ports.Lookup(origin)
	_, okTo := ports.Lookup(destination)
	return okFrom && okTo
}

func legMetrics(leg routeplan.Leg) string {
	canal := "None"
	if leg.CanalName != nil {
		canal = *leg.CanalName
	}
	return fmt.Sprintf("\n**📐 Computed Great-Circle Metrics:**\n"+
		"• Distance: %.2f nm (%.2f km)\n"+
		"• Sailing Time: %.2f days at %.0f knots plus %.2f days in port\n"+
		"• Canal: %s\n"+
		"• Estimated Cost: $%.2f\n"+
		"• Leg Risk: %s\n",
		leg.DistanceNM, leg.DistanceKM,
		leg.TransitTimeDays, routeplan.ShipSpeedKnots, leg.PortWaitTimeDays,
		canal, leg.TotalCostUSD, leg.RiskLevel)
}

// TitleCase upper-cases the first letter of each space-separated word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

const cannedAssessment = `
**🌊 Ocean Climate Conditions:**
• Primary Route: North Pacific (for most Asia-US routes)
• Seasonal Weather: Moderate seas, occasional storms in winter
• Current Conditions: Favorable for navigation
• Sea Temperature: 15-20°C average

**⚠️ Risk Assessment:**
• **Political Risk**: Low (2/5) - Stable trade routes
• **Weather Risk**: Medium (3/5) - Winter storm season
• **Piracy Risk**: Low (1/5) - Well-patrolled waters
• **Port Congestion**: Medium (3/5) - Occasional delays

**⏱️ Transit Time:**
• **Estimated Duration**: 12-15 days
• **Fastest Route**: Direct great circle
• **Alternative Routes**: +2-3 days via Panama Canal
• **Port Time**: 1-2 days loading/unloading

**🛡️ Safety Precautions:**
• Monitor weather forecasts continuously
• Maintain communication with coast guard
• Follow ISPS security protocols
• Ensure cargo is properly secured
• Have emergency response plans ready
• Regular equipment maintenance checks

**📊 Route Recommendation:**
This route is generally safe with standard precautions. Monitor weather conditions and maintain regular communication with port authorities.
`
