package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/config"
)

// AnalysisEvent is published whenever an analysis reaches a final status.
type AnalysisEvent struct {
	AnalysisID       string    `json:"analysis_id,omitempty"`
	Mode             string    `json:"mode"`
	Status           string    `json:"status"`
	OriginalFilename string    `json:"original_filename"`
	MatchPercentage  *float64  `json:"match_percentage,omitempty"`
	FinishedAt       time.Time `json:"finished_at"`
}

type EventPublisher interface {
	PublishAnalysisEvent(ctx context.Context, event AnalysisEvent) error
	Close() error
}

// broker is the part of an AMQP connection the publisher needs.
type broker interface {
	publish(exchange, routingKey string, msg amqp.Publishing) error
	closed() <-chan *amqp.Error
	Close() error
}

type amqpBroker struct {
	conn   *amqp.Connection
	notify chan *amqp.Error
}

// dialBroker connects and declares the durable topic exchange.
func dialBroker(url, exchange string) (broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &amqpBroker{
		conn:   conn,
		notify: conn.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

func (b *amqpBroker) publish(exchange, routingKey string, msg amqp.Publishing) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(exchange, routingKey, false, false, msg)
}

func (b *amqpBroker) closed() <-chan *amqp.Error { return b.notify }

func (b *amqpBroker) Close() error { return b.conn.Close() }

type amqpPublisher struct {
	mu       sync.Mutex
	current  broker
	dial     func() (broker, error)
	exchange string
	log      *zap.Logger
}

func NewEventPublisher(cfg config.EventsConfig, log *zap.Logger) (EventPublisher, error) {
	if cfg.URL == "" {
		return noopPublisher{}, nil
	}

	publisher, err := newAMQPPublisher(func() (broker, error) {
		return dialBroker(cfg.URL, cfg.Exchange)
	}, cfg.Exchange, log)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

// newAMQPPublisher dials once up front so a bad URL fails at startup.
func newAMQPPublisher(dial func() (broker, error), exchange string, log *zap.Logger) (*amqpPublisher, error) {
	b, err := dial()
	if err != nil {
		return nil, err
	}

	return &amqpPublisher{
		current:  b,
		dial:     dial,
		exchange: exchange,
		log:      log,
	}, nil
}

// connection returns a live broker, redialing when the last one was closed.
// Callers hold p.mu.
func (p *amqpPublisher) connection() (broker, error) {
	if p.current != nil {
		select {
		case amqpErr := <-p.current.closed():
			p.log.Warn("rabbitmq connection lost, reconnecting", zap.Any("reason", amqpErr))
			p.current = nil
		default:
			return p.current, nil
		}
	}

	b, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.current = b
	p.log.Info("rabbitmq reconnected", zap.String("exchange", p.exchange))
	return b, nil
}

func (p *amqpPublisher) PublishAnalysisEvent(ctx context.Context, event AnalysisEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.connection()
	if err != nil {
		return err
	}

	routingKey := EventRoutingKey(event.Status)
	err = b.publish(p.exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.FinishedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	p.log.Debug("analysis event published", zap.String("routing_key", routingKey), zap.String("id", event.AnalysisID))
	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	err := p.current.Close()
	p.current = nil
	return err
}

func EventRoutingKey(status string) string {
	return fmt.Sprintf("analysis.%s", status)
}

type noopPublisher struct{}

func (noopPublisher) PublishAnalysisEvent(context.Context, AnalysisEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
