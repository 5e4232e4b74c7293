package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// LogSink writes events to the logger
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs every event at Info level
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Publish implements Sink
func (s *LogSink) Publish(_ context.Context, ev Event) error {
	fields := []zap.Field{zap.String("user_id", ev.UserID), zap.String("device_id", ev.DeviceID)}
	switch {
	case ev.Trip != nil:
		fields = append(fields,
			zap.String("kind", string(ev.Trip.Kind)),
			zap.Float64("latitude", ev.Trip.Latitude),
			zap.Float64("longitude", ev.Trip.Longitude),
			zap.Time("timestamp", ev.Trip.Timestamp))
	case ev.Region != nil:
		fields = append(fields,
			zap.String("kind", string(ev.Region.Kind)),
			zap.String("region_id", ev.Region.RegionID),
			zap.Time("timestamp", ev.Region.Timestamp))
	}
	s.logger.Info("Live event", fields...)
	return nil
}

// MQTTConfig holds broker settings for the MQTT sink
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

// DefaultMQTTConfig returns default MQTT settings
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		ClientID:    "trailglass",
		TopicPrefix: "trailglass",
		QoS:         1,
		Timeout:     5 * time.Second,
	}
}

// MQTTSink publishes events as JSON to {prefix}/{userId}/trips or
// {prefix}/{userId}/regions.
type MQTTSink struct {
	client mqtt.Client
	cfg    MQTTConfig
	logger *zap.Logger
}

// NewMQTTSink connects to the broker
func NewMQTTSink(cfg MQTTConfig, logger *zap.Logger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("MQTT connection lost", zap.Error(err))
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timeout", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.BrokerURL, err)
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", cfg.BrokerURL))
	return &MQTTSink{client: client, cfg: cfg, logger: logger}, nil
}

// Topic returns the topic an event is published on
func (s *MQTTSink) Topic(ev Event) string {
	kind := "trips"
	if ev.Region != nil {
		kind = "regions"
	}
	return fmt.Sprintf("%s/%s/%s", s.cfg.TopicPrefix, ev.UserID, kind)
}

// Publish implements Sink
func (s *MQTTSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := s.client.Publish(s.Topic(ev), s.cfg.QoS, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.Timeout):
		return fmt.Errorf("failed to publish event: timeout")
	}
}

// Close disconnects from the broker
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
