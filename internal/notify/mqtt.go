package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/icondo/parcel-service/internal/config"
)

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes messages to <prefix>/<room> so lobby displays and
// intercoms subscribed to a room can pick them up.
type MQTTNotifier struct {
	client mqttPublisher
	prefix string
}

// DialMQTT connects to the configured broker.
func DialMQTT(cfg config.NotificationConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(cfg.Timeout())

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout()) {
		return nil, fmt.Errorf("connect mqtt broker %s: timed out", cfg.MQTTBroker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt broker: %w", err)
	}
	return client, nil
}

// NewMQTTNotifier returns a notifier publishing through client.
func NewMQTTNotifier(client mqttPublisher, topicPrefix string) *MQTTNotifier {
	return &MQTTNotifier{client: client, prefix: strings.TrimRight(topicPrefix, "/")}
}

func (n *MQTTNotifier) Name() string { return "mqtt" }

// Topic returns the per-room topic for msg.
func (n *MQTTNotifier) Topic(msg Message) string {
	room := msg.RoomNumber
	if room == "" {
		room = "unknown"
	}
	return n.prefix + "/" + room
}

func (n *MQTTNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := n.Topic(msg)
	token := n.client.Publish(topic, 1, false, body)

	wait := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
