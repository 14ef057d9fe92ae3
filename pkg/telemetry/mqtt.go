package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/gwillem/armguard/pkg/gateway"
)

// ErrNotConnected is returned while the broker connection is down.
var ErrNotConnected = errors.New("mqtt: not connected")

// MQTTConfig holds the broker settings for the event mirror.
type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string
}

// ConnectMQTT connects to the broker, retrying with exponential backoff.
func ConnectMQTT(ctx context.Context, cfg MQTTConfig, logger *log.Logger) (mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "armguard-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	maxRetries := 5

	client := mqtt.NewClient(opts)
	err := backoff.Retry(func() error {
		token := client.Connect()
		if token.Wait() && token.Error() != nil {
			logger.Warn("mqtt connect failed", "broker", cfg.Broker, "err", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, err
	}

	logger.Info("connected to mqtt broker", "broker", cfg.Broker, "client_id", clientID)
	return client, nil
}

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes every event line to <prefix>/events at QoS 0. Publish
// is not awaited so a slow broker never stalls the control loop.
type MQTTSink struct {
	client publisher
	topic  string
}

// NewMQTTSink creates a sink on client.
func NewMQTTSink(client mqtt.Client, topicPrefix string) *MQTTSink {
	return newMQTTSink(client, topicPrefix)
}

func newMQTTSink(client publisher, topicPrefix string) *MQTTSink {
	return &MQTTSink{client: client, topic: topicPrefix + "/events"}
}

// Emit implements gateway.Sink.
func (s *MQTTSink) Emit(ev gateway.Event) error {
	line, err := gateway.Encode(ev)
	if err != nil {
		return err
	}
	if !s.client.IsConnected() {
		return ErrNotConnected
	}
	s.client.Publish(s.topic, 0, false, line)
	return nil
}
