package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher delivers keyed JSON payloads to an event bus.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Nop drops every event. It is used when no bus is configured.
type Nop struct{}

func (Nop) Name() string { return "none" }

func (Nop) Publish(context.Context, string, any) error { return nil }

func (Nop) Close() error { return nil }

// KeyHeader carries the event key on NATS messages.
const KeyHeader = "Sentrix-Key"

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) Name() string { return "nats" }

// Publish checks ctx first; core NATS publishes do not take a context.
func (p *NATSPublisher) Publish(ctx context.Context, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set(KeyHeader, key)
	msg.Data = body
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to nats subject %s: %w", p.subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

// SubscribeNATS decodes every message on subject into T and hands it to fn.
// Undecodable messages are passed to onError and skipped.
func SubscribeNATS[T any](conn *nats.Conn, subject, queue string, fn func(key string, payload T), onError func(error)) (*nats.Subscription, error) {
	sub, err := conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var payload T
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			if onError != nil {
				onError(fmt.Errorf("decode nats message: %w", err))
			}
			return
		}
		key := ""
		if msg.Header != nil {
			key = msg.Header.Get(KeyHeader)
		}
		fn(key, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe nats subject %s: %w", subject, err)
	}
	return sub, nil
}
