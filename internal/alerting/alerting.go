package alerting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/mq"
	"github.com/anuragthippani1/SentriX/internal/risk"
	"github.com/anuragthippani1/SentriX/internal/storage"
)

// Store is the slice of the alert repository the engine needs.
type Store interface {
	HasOpenAlertInCooldown(ctx context.Context, country string, cooldown time.Duration) (bool, error)
	InsertAlert(ctx context.Context, alert contracts.AlertRecord) error
}

const (
	OutcomeCreated  = "created"
	OutcomeCooldown = "cooldown"
	OutcomeBelow    = "below_threshold"
)

type Engine struct {
	store     Store
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger
	observe   func(outcome string)
}

func NewEngine(store Store, threshold int, cooldown time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
		observe:   func(string) {},
	}
}

// OnDecision registers a hook called with the outcome of every country evaluated.
func (e *Engine) OnDecision(fn func(outcome string)) {
	if fn != nil {
		e.observe = fn
	}
}

// Evaluate opens an alert for every country in the event at or above the
// threshold that has no open or acknowledged alert inside the cooldown.
// Countries are visited in name order.
func (e *Engine) Evaluate(ctx context.Context, event contracts.ReportEvent) ([]contracts.AlertRecord, error) {
	countries := make([]string, 0, len(event.CountryRisk))
	for country := range event.CountryRisk {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	created := make([]contracts.AlertRecord, 0)
	var errs []error
	for _, country := range countries {
		cr := event.CountryRisk[country]
		if cr.RiskLevel < e.threshold {
			e.observe(OutcomeBelow)
			continue
		}

		exists, err := e.store.HasOpenAlertInCooldown(ctx, country, e.cooldown)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exists {
			e.observe(OutcomeCooldown)
			continue
		}

		alert := NewAlert(event, country, cr)
		if err := e.store.InsertAlert(ctx, alert); err != nil {
			errs = append(errs, err)
			continue
		}
		e.observe(OutcomeCreated)
		e.logger.Info("alert created",
			zap.String("id", alert.ID),
			zap.String("country", country),
			zap.Int("risk_level", alert.RiskLevel),
			zap.String("severity", alert.Severity),
			zap.String("report_id", event.ReportID))
		created = append(created, alert)
	}
	return created, errors.Join(errs...)
}

func NewAlert(event contracts.ReportEvent, country string, cr contracts.CountryRisk) contracts.AlertRecord {
	factors := "no specific factors recorded"
	if len(cr.RiskFactors) > 0 {
		factors = strings.Join(cr.RiskFactors, ", ")
	}
	return contracts.AlertRecord{
		ID:          uuid.NewString(),
		ReportID:    event.ReportID,
		Country:     country,
		Title:       fmt.Sprintf("High supply-chain risk in %s", country),
		Description: fmt.Sprintf("%s report rated %s at level %d/5: %s.", titleType(event.ReportType), country, cr.RiskLevel, factors),
		RiskLevel:   cr.RiskLevel,
		Severity:    risk.Severity(cr.RiskLevel),
		Status:      storage.AlertOpen,
	}
}

func titleType(t contracts.ReportType) string {
	s := string(t)
	if s == "" {
		return "Risk"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Reader is satisfied by *kafka.Reader.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Consumer struct {
	reader     Reader
	engine     *Engine
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewConsumer(reader Reader, engine *Engine, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: reader, engine: engine, logger: logger, retryDelay: 500 * time.Millisecond}
}

// Run consumes report events until ctx is done. Read, decode and store errors
// are logged and the loop carries on.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("read report event", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.Handle(ctx, msg)
	}
}

func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) {
	event, err := mq.ParseMessageJSON[contracts.ReportEvent](msg)
	if err != nil {
		c.logger.Warn("decode report event", zap.Error(err), zap.ByteString("key", msg.Key))
		return
	}
	c.HandleEvent(ctx, event)
}

func (c *Consumer) HandleEvent(ctx context.Context, event contracts.ReportEvent) {
	if _, err := c.engine.Evaluate(ctx, event); err != nil {
		c.logger.Error("evaluate report event", zap.String("report_id", event.ReportID), zap.Error(err))
	}
}
