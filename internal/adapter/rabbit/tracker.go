package rabbit

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
	"github.com/Temutjin2k/tracker-admin/pkg/rabbit"
)

const (
	ExchangeTrackerTopic = "tracker_topic"

	// QueueDashboardEvents receives every tracker event for the admin service.
	QueueDashboardEvents = "dashboard_events"
	BindingAllEvents     = "#"
)

// RoutingKey returns e.g. "device.created.10" or "location.recorded.10".
func RoutingKey(e models.TrackerEvent) string {
	return fmt.Sprintf("%s.%s", e.Type.RoutingKey(), e.DeviceID)
}

type TrackerBroker struct {
	client      *rabbit.RabbitMQ
	serviceName string
	l           logger.Logger
}

func NewTrackerBroker(ctx context.Context, client *rabbit.RabbitMQ, serviceName string, l logger.Logger) (*TrackerBroker, error) {
	b := &TrackerBroker{
		client:      client,
		serviceName: serviceName,
		l:           l,
	}
	if err := b.declareExchange(); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return b, nil
}

func (b *TrackerBroker) declareExchange() error {
	if err := b.client.Ch().ExchangeDeclare(ExchangeTrackerTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeTrackerTopic, err)
	}
	return nil
}

// Publish sends a tracker event to the topic exchange.
func (b *TrackerBroker) Publish(ctx context.Context, event models.TrackerEvent) error {
	const op = "TrackerBroker.Publish"
	ctx = wrap.WithDeviceID(ctx, event.DeviceID.String())

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal: %w", op, err))
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Body:          body,
		Timestamp:     event.OccurredAt,
		CorrelationId: wrap.GetRequestID(ctx),
		Type:          event.Type.String(),
	}

	key := RoutingKey(event)
	err = retry(ctx, 3, time.Second, func() error {
		if err := b.client.EnsureConnection(ctx); err != nil {
			return err
		}
		return b.client.Ch().PublishWithContext(ctx, ExchangeTrackerTopic, key, false, false, pub)
	})
	metrics.RecordRabbitMQPublish(b.serviceName, key, err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: publish: %w", op, err))
	}

	return nil
}

type EventHandlerFunc func(ctx context.Context, event models.TrackerEvent) error

// ConsumeEvents binds queue to the exchange with bindingKey and passes every
// event to fn until ctx is cancelled. Lost connections are re-established.
func (b *TrackerBroker) ConsumeEvents(ctx context.Context, queue, bindingKey string, fn EventHandlerFunc) error {
	const op = "TrackerBroker.ConsumeEvents"

	for {
		if ctx.Err() != nil {
			b.l.Debug(ctx, "consumer stopped by context", "queue", queue)
			return nil
		}

		msgs, err := b.subscribe(ctx, queue, bindingKey)
		if err != nil {
			b.l.Error(ctx, "subscribe failed", err, "op", op)
			if !sleepCtx(ctx, 2*time.Second) {
				return nil
			}
			continue
		}

		b.l.Info(ctx, "start consuming tracker events", "queue", queue, "binding", bindingKey)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				b.l.Info(ctx, "tracker event consumer shutting down", "queue", queue)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					b.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					break consumeLoop
				}
				b.handleMessage(ctx, queue, fn, msg)
			}
		}
	}
}

func (b *TrackerBroker) subscribe(ctx context.Context, queue, bindingKey string) (<-chan amqp.Delivery, error) {
	if err := b.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	if err := b.declareExchange(); err != nil {
		return nil, err
	}

	ch := b.client.Ch()
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue failed: %w", err)
	}
	if err := ch.QueueBind(q.Name, bindingKey, ExchangeTrackerTopic, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue failed: %w", err)
	}
	return ch.Consume(q.Name, "", false, false, false, false, nil)
}

func (b *TrackerBroker) handleMessage(ctx context.Context, queue string, fn EventHandlerFunc, msg amqp.Delivery) {
	var event models.TrackerEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		metrics.RecordRabbitMQConsume(b.serviceName, queue, err)
		b.l.Error(ctx, "decode failed", err, "routing_key", msg.RoutingKey)
		_ = msg.Reject(false)
		return
	}

	ctx = wrap.WithRequestID(wrap.WithDeviceID(ctx, event.DeviceID.String()), msg.CorrelationId)

	err := fn(ctx, event)
	metrics.RecordRabbitMQConsume(b.serviceName, queue, err)
	if err != nil {
		b.l.Error(ctx, "failed to handle tracker event", err, "type", event.Type.String())
		_ = msg.Nack(false, isRecoverableError(err) && !msg.Redelivered)
		return
	}

	if err := msg.Ack(false); err != nil {
		b.l.Warn(ctx, "ack failed", "error", err.Error())
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
