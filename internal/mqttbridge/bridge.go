// Package mqttbridge is an alternative ingestion path for deployments where
// the boards publish over MQTT instead of HTTP. Messages carry the same
// fields as the HTTP reading endpoint plus the device API key, and flow
// through the same ingestion service, so admission control and the threshold
// classifier behave identically on both paths.
package mqttbridge

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/config"
	"github.com/veinview/backend/internal/ingestion"
	"github.com/veinview/backend/internal/models"
)

type Bridge struct {
	client mqtt.Client
	db     *gorm.DB
	ingest *ingestion.Service
	log    *zap.Logger
	topic  string
}

// readingMessage mirrors the HTTP reading payload; the API key rides along
// because MQTT has no request headers to carry it.
type readingMessage struct {
	APIKey   string   `json:"api_key"`
	AccelX   float64  `json:"ax"`
	AccelY   float64  `json:"ay"`
	AccelZ   float64  `json:"az"`
	GyroX    float64  `json:"gx"`
	GyroY    float64  `json:"gy"`
	GyroZ    float64  `json:"gz"`
	Pitch    float64  `json:"pitch"`
	Roll     float64  `json:"roll"`
	Yaw      float64  `json:"yaw"`
	Force    float64  `json:"force"`
	Pressure *float64 `json:"pressure"`
}

// New connects to the broker and subscribes to the readings topic.
func New(cfg *config.Config, db *gorm.DB, ingest *ingestion.Service, log *zap.Logger) (*Bridge, error) {
	b := &Bridge{
		db:     db,
		ingest: ingest,
		log:    log,
		topic:  cfg.MQTTTopic,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", zap.Error(err))
	})

	b.client = mqtt.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	if token := b.client.Subscribe(b.topic, 1, b.handleReading); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.topic, token.Error())
	}
	log.Info("subscribed to readings topic", zap.String("topic", b.topic))
	return b, nil
}

func (b *Bridge) handleReading(_ mqtt.Client, msg mqtt.Message) {
	var in readingMessage
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		b.log.Warn("dropping malformed MQTT reading", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	var device models.Device
	if err := b.db.Where("api_key = ? AND active = ?", in.APIKey, true).First(&device).Error; err != nil {
		b.log.Warn("MQTT reading from unknown or inactive device", zap.String("topic", msg.Topic()))
		return
	}
	now := time.Now()
	device.LastSeenAt = &now
	b.db.Model(&device).Select("last_seen_at").Updates(&device)

	_, _, err := b.ingest.Submit(&device, ingestion.ReadingInput{
		AccelX:   in.AccelX,
		AccelY:   in.AccelY,
		AccelZ:   in.AccelZ,
		GyroX:    in.GyroX,
		GyroY:    in.GyroY,
		GyroZ:    in.GyroZ,
		Pitch:    in.Pitch,
		Roll:     in.Roll,
		Yaw:      in.Yaw,
		Force:    in.Force,
		Pressure: in.Pressure,
	}, "")
	if err != nil {
		// Includes readings sent while the practice is paused; the device
		// will learn the state on its next status poll.
		b.log.Debug("MQTT reading rejected", zap.String("device", device.MACAddress), zap.Error(err))
	}
}

func (b *Bridge) Close() {
	b.client.Disconnect(250)
}
