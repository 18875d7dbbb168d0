package mqtt

import (
	"context"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
)

// RecordHandler stores a decoded record.
type RecordHandler func(ctx context.Context, r models.LocationRecord) error

const handleTimeout = 10 * time.Second

// Subscriber decodes broker messages and hands them to a RecordHandler.
type Subscriber struct {
	topic   string
	qos     byte
	handler RecordHandler
	now     func() time.Time

	ctx         context.Context
	serviceName string
	log         logger.Logger
}

func NewSubscriber(ctx context.Context, topic string, qos byte, handler RecordHandler, serviceName string, log logger.Logger) *Subscriber {
	return &Subscriber{
		topic:       topic,
		qos:         qos,
		handler:     handler,
		now:         time.Now,
		ctx:         ctx,
		serviceName: serviceName,
		log:         log,
	}
}

// Subscribe registers the message callback. It is meant to be used as the
// connect hook so the subscription survives reconnects.
func (s *Subscriber) Subscribe(c paho.Client) {
	ctx := wrap.WithAction(s.ctx, types.ActionMQTTConnected)

	token := c.Subscribe(s.topic, s.qos, s.onMessage)
	go func() {
		if token.WaitTimeout(10*time.Second) && token.Error() != nil {
			s.log.Error(ctx, "failed to subscribe", token.Error(), "topic", s.topic)
			return
		}
		s.log.Info(ctx, "subscribed", "topic", s.topic, "qos", s.qos)
	}()
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	s.Handle(msg.Topic(), msg.Payload())
}

// Handle processes one message. Bad payloads are logged and dropped.
func (s *Subscriber) Handle(topic string, payload []byte) {
	ctx, cancel := context.WithTimeout(wrap.WithAction(s.ctx, types.ActionMQTTMessage), handleTimeout)
	defer cancel()

	record, format, err := Decode(topic, payload, s.now())
	metrics.RecordMQTTMessage(s.serviceName, format, err)
	if err != nil {
		if errors.Is(err, types.ErrUnsupportedPayload) || errors.Is(err, types.ErrInvalidDeviceID) {
			s.log.Warn(ctx, "dropping mqtt message", "topic", topic, "error", err.Error())
			return
		}
		s.log.Error(ctx, "failed to decode mqtt message", err, "topic", topic)
		return
	}

	ctx = wrap.WithDeviceID(ctx, record.DeviceID.String())
	if err := s.handler(ctx, record); err != nil {
		s.log.Error(ctx, "failed to store location", err, "format", format)
		return
	}
	s.log.Debug(ctx, "location stored", "format", format, "timestamp", record.Timestamp)
}
