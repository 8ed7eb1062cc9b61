package rabbitmq

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes messages to the broker.
type IPublisher interface {
	PublishMessage(message string) error
	PublishToQos(topic string, qos byte, retained bool, message string) error
	Close()
}

// Publisher binds a shared MQTT client to a default topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher creates a Publisher on the shared MQTT client.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishMessage publishes to the default topic at QoS 0.
func (p *Publisher) PublishMessage(message string) error {
	return p.PublishToQos(p.topic, 0, false, message)
}

// PublishToQos publishes to an explicit topic at the given QoS. Decision and
// anomaly events go out at QoS 1 so the event service sees them at least once.
func (p *Publisher) PublishToQos(topic string, qos byte, retained bool, message string) error {
	token := p.client.Publish(topic, qos, retained, message)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}
	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Println("mqtt: publisher disconnected")
	}
}
