// Package mqtt connects to an MQTT broker with automatic reconnects.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// Client is the subset of paho.Client used by the application.
type Client interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

const connectTimeout = 15 * time.Second

// Connect dials the broker. onConnect runs after every (re)connect, which is
// where subscriptions belong: paho drops them when a clean session reconnects.
func Connect(ctx context.Context, cfg Config, onConnect func(paho.Client), log logger.Logger) (paho.Client, error) {
	ctx = wrap.WithAction(ctx, types.ActionMQTTConnected)

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(func(c paho.Client) {
		log.Info(ctx, "connected to mqtt broker", "broker", cfg.Broker)
		if onConnect != nil {
			onConnect(c)
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn(ctx, "mqtt connection lost", "error", err.Error())
	})

	client := paho.NewClient(opts)
	token := client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
		}
	case <-time.After(connectTimeout):
		// ConnectRetry keeps trying in the background
		log.Warn(ctx, "mqtt broker not reachable yet, retrying in background", "broker", cfg.Broker)
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, ctx.Err()
	}

	return client, nil
}
