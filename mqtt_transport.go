package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTTransport publishes events to an MQTT broker at QoS 1 on
// smartwaste/<bin_id>/events. Connection management is left to the paho
// client: it retries the initial connect and reconnects in the background,
// while Send reports a failure whenever the link is down so the dispatcher
// keeps the event queued.
type MQTTTransport struct {
	client mqtt.Client
	topic  string
}

// NewMQTTTransport creates a transport and starts connecting to the broker.
// It does not wait for the connection; the dispatcher's retry loop covers the
// window until the link is up.
func NewMQTTTransport(broker, username, password, binID string) (*MQTTTransport, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:1883", broker))
	opts.SetClientID(fmt.Sprintf("binwatch-%s-%s", binID, uuid.NewString()[:8]))
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetAutoReconnect(true)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v\n", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Printf("Connected to MQTT broker at %s\n", broker)
	})

	client := mqtt.NewClient(opts)
	client.Connect()

	return &MQTTTransport{
		client: client,
		topic:  fmt.Sprintf("smartwaste/%s/events", binID),
	}, nil
}

// Send publishes one event and waits for the broker acknowledgment or
// context cancellation, whichever comes first.
func (t *MQTTTransport) Send(ctx context.Context, ev Event) error {
	if !t.client.IsConnectionOpen() {
		return fmt.Errorf("mqtt: not connected")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("mqtt: marshal event %d: %w", ev.SequenceID, err)
	}

	token := t.client.Publish(t.topic, 1, false, payload)
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("mqtt: publish to %s: %w", t.topic, token.Error())
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (t *MQTTTransport) Close() error {
	t.client.Disconnect(250)
	return nil
}
