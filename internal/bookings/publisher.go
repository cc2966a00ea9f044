package bookings

import (
	"context"
	"fmt"
	"strings"

	"github.com/piyushmishra0/Modex-System/internal/shared/config"
)

// Publisher delivers booking events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher drops every event
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event *BookingEvent) error { return nil }
func (noopPublisher) Close() error                                         { return nil }

// NewPublisherFromConfig picks the broker named by EVENTS_BROKER
func NewPublisherFromConfig(cfg config.EventsConfig) (Publisher, error) {
	switch strings.ToLower(cfg.Broker) {
	case "", "none":
		return NewNoopPublisher(), nil
	case "kafka":
		kafkaCfg := DefaultKafkaPublisherConfig()
		kafkaCfg.Brokers = cfg.KafkaBrokers
		kafkaCfg.Topic = cfg.KafkaTopic
		publisher, err := NewKafkaPublisher(kafkaCfg)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "rabbitmq", "amqp":
		publisher, err := NewRabbitMQPublisher(&RabbitMQPublisherConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}
