package events

import (
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const orderEventsTopic = "order-events"

type KafkaProducer struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

func NewKafkaProducer(brokers string, logger *zap.Logger) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           10,
	})
	if err != nil {
		return nil, err
	}

	kp := &KafkaProducer{producer: p, logger: logger}

	// Delivery reports arrive asynchronously.
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					logger.Error("Failed to deliver message",
						zap.String("topic", *ev.TopicPartition.Topic),
						zap.Error(ev.TopicPartition.Error))
				}
			}
		}
	}()

	return kp, nil
}

func (p *KafkaProducer) PublishOrderCreated(event OrderCreatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := orderEventsTopic
	orderIDKey := fmt.Sprintf("ORDER#%s", event.OrderID)

	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(orderIDKey),
		Value: data,
	}, nil)
}

func (p *KafkaProducer) HealthCheck() error {
	if p.producer == nil {
		return fmt.Errorf("producer not initialized")
	}
	if _, err := p.producer.GetMetadata(nil, true, 2000); err != nil {
		return fmt.Errorf("kafka unreachable: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
