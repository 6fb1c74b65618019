package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventhub/internal/inventory"
	"eventhub/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher emits booking lifecycle messages and operator alerts
type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
	PublishAlert(ctx context.Context, alert inventory.Alert) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka producer
type KafkaProducerConfig struct {
	Brokers          []string
	BookingTopic     string
	AlertTopic       string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig(brokers []string, bookingTopic, alertTopic string) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          brokers,
		BookingTopic:     bookingTopic,
		AlertTopic:       alertTopic,
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000,
	}
}

// SaramaConfig builds the sarama producer settings
func (c *KafkaProducerConfig) SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = c.RequiredAcks
	cfg.Producer.Compression = c.CompressionType
	cfg.Producer.Retry.Max = c.RetryMax
	cfg.Producer.Timeout = c.Timeout
	cfg.Producer.Idempotent = c.IdempotentWrites
	cfg.Producer.MaxMessageBytes = c.MaxMessageBytes
	if c.IdempotentWrites {
		cfg.Net.MaxOpenRequests = 1
	}
	// same event id -> same partition
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

func NewKafkaProducer(config *KafkaProducerConfig, log *logger.Logger) (*KafkaProducer, error) {
	producer, err := sarama.NewSyncProducer(config.Brokers, config.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaProducerWithClient(producer, config, log), nil
}

// NewKafkaProducerWithClient wraps an existing sarama producer
func NewKafkaProducerWithClient(producer sarama.SyncProducer, config *KafkaProducerConfig, log *logger.Logger) *KafkaProducer {
	return &KafkaProducer{producer: producer, config: config, log: log.WithComponent("kafka-producer")}
}

func (p *KafkaProducer) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.config.BookingTopic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers(string(event.Type), event.ID.String()),
		Timestamp: event.OccurredAt,
	}
	return p.send(ctx, msg)
}

func (p *KafkaProducer) PublishAlert(ctx context.Context, alert inventory.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.config.AlertTopic,
		Key:       sarama.StringEncoder(alert.Reference),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers(alert.Kind, alert.Reference),
		Timestamp: alert.RaisedAt,
	}
	return p.send(ctx, msg)
}

func (p *KafkaProducer) send(ctx context.Context, msg *sarama.ProducerMessage) error {
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", msg.Topic, err)
	}
	p.log.DebugContext(ctx, "Message published",
		"topic", msg.Topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func headers(messageType, id string) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("message_type"), Value: []byte(messageType)},
		{Key: []byte("message_id"), Value: []byte(id)},
		{Key: []byte("source"), Value: []byte("eventhub")},
	}
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// LogPublisher records messages in the log instead of Kafka. Used when Kafka is disabled.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.WithComponent("notifications")}
}

func (p *LogPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	p.log.InfoContext(ctx, "Booking event",
		"type", event.Type,
		"booking_id", event.BookingID,
		"event_id", event.EventID,
	)
	return nil
}

func (p *LogPublisher) PublishAlert(ctx context.Context, alert inventory.Alert) error {
	p.log.ErrorContext(ctx, "Operator alert",
		"kind", alert.Kind,
		"reference", alert.Reference,
		"event_id", alert.EventID,
		"error", alert.Error,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
