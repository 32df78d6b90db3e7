package telemetry

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vaishnavucv/droid-proctoring/internal/config"
)

// Emitter publishes proctoring telemetry fire-and-forget. Emission failures
// are logged and never surfaced to the session.
type Emitter interface {
	Emit(ctx context.Context, kind string, payload any)
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Emit(context.Context, string, any) {}

// MQTTEmitter publishes telemetry events to an MQTT broker.
type MQTTEmitter struct {
	client mqtt.Client
	topic  string
}

func NewMQTTEmitter(cfg config.MQTT) (*MQTTEmitter, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	// Unique suffix so restarted instances do not kick each other off the
	// broker's session.
	opts.SetClientID(cfg.ClientID + "-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.BrokerURL).Str("client_id", cfg.ClientID).Msg("MQTT connection established")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost, will auto-reconnect")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "failed to connect to MQTT broker")
	}

	return &MQTTEmitter{client: client, topic: cfg.Topic}, nil
}

func (e *MQTTEmitter) Emit(_ context.Context, kind string, payload any) {
	body, err := json.Marshal(map[string]any{
		"id":      uuid.NewString(),
		"kind":    kind,
		"payload": payload,
	})
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("Failed to marshal telemetry event")
		return
	}

	// QoS 0: losing a telemetry event is preferable to backpressure on the
	// session loop.
	token := e.client.Publish(e.topic, 0, false, body)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("kind", kind).Msg("Failed to publish telemetry event")
		}
	}()
}

func (e *MQTTEmitter) Close() {
	e.client.Disconnect(250)
}

// FromConfig returns an MQTT emitter when enabled, Noop otherwise.
func FromConfig(cfg config.MQTT) Emitter {
	if !cfg.Enabled {
		return Noop{}
	}
	emitter, err := NewMQTTEmitter(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry disabled, broker unreachable")
		return Noop{}
	}
	return emitter
}
