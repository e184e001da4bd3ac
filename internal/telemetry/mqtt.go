package telemetry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/util"
)

// MQTT topics
const (
	TopicStatus   = "veilgate/status"
	TopicSessions = "veilgate/sessions"
	TopicRejects  = "veilgate/rejects"
	TopicAdmin    = "veilgate/admin"
)

// MQTTHandler manages the MQTT connection and publishes gateway telemetry.
// Per-frame traffic stays off the broker; the periodic stats snapshot
// carries the totals, and only session churn and rejects publish as they
// happen.
type MQTTHandler struct {
	cfg    *config.Config
	bus    *events.Bus
	client mqtt.Client

	// Metadata included in every message
	metadata map[string]interface{}
}

// NewMQTTHandler creates an MQTT telemetry handler.
func NewMQTTHandler(cfg *config.Config, bus *events.Bus) (*MQTTHandler, error) {
	mqttCfg := cfg.GetApplication().MQTT

	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT is disabled")
	}

	sysInfo := util.GetSystemInfo()
	metadata := map[string]interface{}{
		"hostname":  sysInfo.Hostname,
		"os":        sysInfo.OS,
		"cpu_model": sysInfo.CPUModel,
		"cpu_cores": sysInfo.CPUCores,
		"memory_mb": sysInfo.TotalMemory,
	}

	handler := &MQTTHandler{
		cfg:      cfg,
		bus:      bus,
		metadata: metadata,
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if mqttCfg.UseTLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, mqttCfg.BrokerURL, mqttCfg.Port))

	if mqttCfg.ClientID != "" {
		opts.SetClientID(mqttCfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("veilgate-%s", sysInfo.Hostname))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	if mqttCfg.UseTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		if mqttCfg.CAFile != "" {
			pem, err := os.ReadFile(mqttCfg.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read MQTT CA file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates parsed from %s", mqttCfg.CAFile)
			}
			tlsConfig.RootCAs = pool
		}

		// mTLS: load client certificate
		if mqttCfg.CertFile != "" && mqttCfg.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(mqttCfg.CertFile, mqttCfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load MQTT TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Msg("MQTT connected")
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	handler.client = mqtt.NewClient(opts)

	return handler, nil
}

// Start connects to the MQTT broker and subscribes to bus events. Blocks
// until ctx is cancelled.
func (h *MQTTHandler) Start(ctx context.Context) error {
	mqttCfg := h.cfg.GetApplication().MQTT
	log.Info().
		Str("broker", mqttCfg.BrokerURL).
		Int("port", mqttCfg.Port).
		Msg("connecting to MQTT broker")

	token := h.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	h.subscribeEvents()

	<-ctx.Done()

	h.publishShutdown()
	h.client.Disconnect(5000)
	log.Info().Msg("MQTT disconnected")

	return nil
}

// subscribeEvents registers bus handlers for MQTT publishing.
func (h *MQTTHandler) subscribeEvents() {
	h.bus.Subscribe(events.EventStatsSnapshot, "mqtt.statsSnapshot", h.onStatsSnapshot)
	h.bus.Subscribe(events.EventSessionOpened, "mqtt.sessionOpened", h.onSessionOpened)
	h.bus.Subscribe(events.EventSessionClosed, "mqtt.sessionClosed", h.onSessionClosed)
	h.bus.Subscribe(events.EventFrameRejected, "mqtt.frameRejected", h.onFrameRejected)
	h.bus.Subscribe(events.EventCapturePurged, "mqtt.capturePurged", h.onCapturePurged)
	h.bus.Subscribe(events.EventConfigChanged, "mqtt.configChanged", h.onConfigChanged)
}

// publish sends a JSON message to an MQTT topic.
func (h *MQTTHandler) publish(topic string, payload interface{}) {
	if !h.client.IsConnected() {
		return
	}

	msg := h.buildMessage(payload)

	data, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to marshal MQTT message")
		return
	}

	token := h.client.Publish(topic, 1, false, data) // QoS 1
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// buildMessage combines metadata with the event payload.
func (h *MQTTHandler) buildMessage(payload interface{}) map[string]interface{} {
	msg := make(map[string]interface{})

	for k, v := range h.metadata {
		msg[k] = v
	}

	msg["payload"] = payload
	msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	return msg
}

// Event handlers

func (h *MQTTHandler) onStatsSnapshot(ctx context.Context, event events.Event) error {
	h.publish(TopicStatus, event.Payload)
	return nil
}

func (h *MQTTHandler) onSessionOpened(ctx context.Context, event events.Event) error {
	h.publish(TopicSessions, map[string]interface{}{
		"event":   "session_opened",
		"payload": event.Payload,
	})
	return nil
}

func (h *MQTTHandler) onSessionClosed(ctx context.Context, event events.Event) error {
	h.publish(TopicSessions, map[string]interface{}{
		"event":   "session_closed",
		"payload": event.Payload,
	})
	return nil
}

func (h *MQTTHandler) onFrameRejected(ctx context.Context, event events.Event) error {
	h.publish(TopicRejects, event.Payload)
	return nil
}

func (h *MQTTHandler) onCapturePurged(ctx context.Context, event events.Event) error {
	h.publish(TopicAdmin, map[string]interface{}{
		"event":   "retention_sweep",
		"payload": event.Payload,
	})
	return nil
}

func (h *MQTTHandler) onConfigChanged(ctx context.Context, event events.Event) error {
	h.publish(TopicAdmin, map[string]interface{}{
		"event":   "config_changed",
		"payload": event.Payload,
	})
	return nil
}

// publishShutdown announces an orderly stop.
func (h *MQTTHandler) publishShutdown() {
	h.publish(TopicAdmin, map[string]interface{}{
		"event":     "shutdown",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
