// Package notify publishes predictive HOS alerts to RabbitMQ so dispatch
// tooling can react without polling the API.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Declarer is the part of *amqp.Channel used to set up the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// AlertMessage is the JSON body of one published alert.
type AlertMessage struct {
	CompanyID uuid.UUID `json:"company_id"`
	domain.Alert
}

// AlertPublisher sends alerts to a topic exchange with routing key
// "<severity>.<kind>", e.g. "critical.break_required".
type AlertPublisher struct {
	ch       Channel
	exchange string
	timeout  time.Duration
	log      *slog.Logger
}

// NewAlertPublisher returns a publisher that bounds each publish by timeout.
func NewAlertPublisher(ch Channel, exchange string, timeout time.Duration, log *slog.Logger) *AlertPublisher {
	return &AlertPublisher{ch: ch, exchange: exchange, timeout: timeout, log: log}
}

// RoutingKey returns the key an alert is published under.
func RoutingKey(a domain.Alert) string {
	return string(a.Severity) + "." + a.Kind
}

// Publish sends alerts in order as persistent JSON messages and returns how
// many were published. It stops at the first failure.
func (p *AlertPublisher) Publish(ctx context.Context, tenant domain.Tenant, alerts []domain.Alert) (int, error) {
	if err := tenant.Validate(); err != nil {
		return 0, fmt.Errorf("notify.AlertPublisher.Publish: %w", err)
	}

	for i, a := range alerts {
		body, err := json.Marshal(AlertMessage{CompanyID: tenant.CompanyID, Alert: a})
		if err != nil {
			return i, fmt.Errorf("notify.AlertPublisher.Publish: encode: %w", err)
		}

		if err := p.publish(ctx, RoutingKey(a), amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    a.CreatedAt,
			Type:         "hos.alert",
			Headers:      amqp.Table{"company_id": tenant.CompanyID.String()},
			Body:         body,
		}); err != nil {
			return i, fmt.Errorf("notify.AlertPublisher.Publish: driver %s: %w", a.DriverID, err)
		}
	}

	p.log.InfoContext(ctx, "alerts published",
		"company_id", tenant.CompanyID, "exchange", p.exchange, "count", len(alerts))
	return len(alerts), nil
}

func (p *AlertPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

// DeclareTopology declares the durable topic exchange and a durable queue
// bound to every alert on it. The queue shares the exchange's name.
func DeclareTopology(ch Declarer, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("notify.DeclareTopology: exchange %q: %w", exchange, err)
	}
	q, err := ch.QueueDeclare(exchange, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("notify.DeclareTopology: queue %q: %w", exchange, err)
	}
	if err := ch.QueueBind(q.Name, "#", exchange, false, nil); err != nil {
		return fmt.Errorf("notify.DeclareTopology: bind %q: %w", q.Name, err)
	}
	return nil
}
