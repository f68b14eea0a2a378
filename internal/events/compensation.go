package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CompensationProducer publishes stock-restore and low-stock events on a
// separate topic consumed by inventory tooling.
type CompensationProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewCompensationProducer(brokers string, logger *zap.Logger) *CompensationProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers),
		Topic:    "inventory-events",
		Balancer: &kafka.LeastBytes{},
	}

	return &CompensationProducer{
		writer: writer,
		logger: logger,
	}
}

func (p *CompensationProducer) PublishStockRestored(event StockRestoredEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal stock restored event", zap.Error(err))
		return err
	}

	if err := p.publish(event.EventID, eventBytes); err != nil {
		p.logger.Error("Failed to publish stock restored event",
			zap.String("event_id", event.EventID),
			zap.String("product_id", event.ProductID),
			zap.Error(err))
		return err
	}

	p.logger.Info("Stock restored event published",
		zap.String("event_id", event.EventID),
		zap.String("product_id", event.ProductID),
		zap.Int("quantity", event.Quantity))
	return nil
}

func (p *CompensationProducer) PublishLowStock(event LowStockEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal low stock event", zap.Error(err))
		return err
	}

	if err := p.publish(event.EventID, eventBytes); err != nil {
		p.logger.Error("Failed to publish low stock event",
			zap.String("event_id", event.EventID),
			zap.String("product_id", event.ProductID),
			zap.Error(err))
		return err
	}

	p.logger.Info("Low stock event published",
		zap.String("product_id", event.ProductID),
		zap.Int("in_stock", event.InStock))
	return nil
}

func (p *CompensationProducer) publish(key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, msg)
}

func (p *CompensationProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
