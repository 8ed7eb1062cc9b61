package rabbitmq

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IConsumer consumes messages of type T from the broker.
type IConsumer[T any] interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler func(topic string, message mqtt.Message) error)
}

// Consumer subscribes to a single topic filter on a shared MQTT client.
type Consumer struct {
	client  mqtt.Client
	handler func(topic string, message mqtt.Message) error
	topic   string
}

// NewConsumer creates a Consumer for a topic filter.
func NewConsumer(client mqtt.Client, topic string, handler func(topic string, message mqtt.Message) error) *Consumer {
	return &Consumer{client: client, topic: topic, handler: handler}
}

// SetHandler replaces the message handler.
func (c *Consumer) SetHandler(handler func(topic string, message mqtt.Message) error) {
	c.handler = handler
}

// qosFor selects QoS 1 for topics that must not be lost: aggregated sensor
// data feeding decisions, and the decision/anomaly events themselves.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "sensor/aggregated") ||
		strings.HasPrefix(t, "event/irrigationRecommendation") ||
		strings.HasPrefix(t, "event/moistureAnomaly") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes and processes messages with the handler. It
// blocks until ctx is cancelled, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(c.topic, qosFor(c.topic), func(_ mqtt.Client, message mqtt.Message) {
		if c.handler == nil {
			log.Printf("mqtt: no handler set for topic %s", c.topic)
			return
		}
		if err := c.handler(c.topic, message); err != nil {
			log.Printf("mqtt: error handling message on %s: %v", c.topic, err)
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("mqtt: error subscribing to topic %s: %v", c.topic, token.Error())
		return
	}
	log.Printf("mqtt: subscribed to topic %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}

// MultiConsumer subscribes to several topic filters with one handler.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler func(topic string, message mqtt.Message) error
}

// NewMultiConsumer creates a MultiConsumer over the given topic filters.
func NewMultiConsumer(client mqtt.Client, topics []string, handler func(topic string, message mqtt.Message) error) *MultiConsumer {
	return &MultiConsumer{client: client, topics: topics, handler: handler}
}

// SetHandler replaces the message handler.
func (m *MultiConsumer) SetHandler(handler func(topic string, message mqtt.Message) error) {
	m.handler = handler
}

// ConsumeMessage subscribes to every topic and blocks until ctx is cancelled.
func (m *MultiConsumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if m.handler == nil {
				log.Printf("mqtt: no handler set for topic %s", topic)
				return
			}
			if err := m.handler(topic, msg); err != nil {
				log.Printf("mqtt: error handling message on %s: %v", topic, err)
			}
		})
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqtt: error subscribing to topic %s: %v", topic, token.Error())
		} else {
			log.Printf("mqtt: subscribed to topic %s", topic)
		}
	}

	<-ctx.Done()

	for _, topic := range m.topics {
		m.client.Unsubscribe(topic)
	}
}
