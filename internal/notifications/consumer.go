package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"eventhub/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig(brokers []string, groupID, topic string) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              brokers,
		GroupID:              groupID,
		Topics:               []string{topic},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    5 * time.Minute,
		OffsetOldest:         true,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// BookingMailer turns booking lifecycle messages into emails
type BookingMailer struct {
	directory  Directory
	email      EmailService
	log        *logger.Logger
	maxRetries int
	backoff    time.Duration
}

func NewBookingMailer(directory Directory, email EmailService, log *logger.Logger, maxRetries int, backoff time.Duration) *BookingMailer {
	return &BookingMailer{
		directory:  directory,
		email:      email,
		log:        log.WithComponent("booking-mailer"),
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Handle processes one message. A nil return means the offset can be committed.
func (m *BookingMailer) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event BookingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// poison message, retrying will not help
		m.log.ErrorContext(ctx, "Dropping malformed booking event",
			"topic", message.Topic,
			"partition", message.Partition,
			"offset", message.Offset,
			"error", err,
		)
		return nil
	}

	recipient, err := m.directory.Recipient(ctx, event.UserID, event.EventID)
	if err != nil {
		if errors.Is(err, ErrRecipientNotFound) {
			m.log.WarnContext(ctx, "No recipient for booking event", "booking_id", event.BookingID, "user_id", event.UserID)
			return nil
		}
		return err
	}

	email, err := RenderBookingEmail(event, recipient)
	if err != nil {
		return err
	}
	return m.executeWithRetry(ctx, email)
}

func (m *BookingMailer) executeWithRetry(ctx context.Context, email Email) error {
	for attempt := 0; ; attempt++ {
		err := m.email.Send(ctx, email)
		if err == nil {
			if attempt > 0 {
				m.log.InfoContext(ctx, "Email sent after retries", "attempts", attempt+1)
			}
			return nil
		}

		if attempt >= m.maxRetries {
			return fmt.Errorf("send email after %d attempts: %w", attempt+1, err)
		}

		delay := m.backoff * time.Duration(1<<attempt)
		m.log.WarnContext(ctx, "Retrying email", "attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// KafkaBookingConsumer runs a consumer group feeding booking messages to a BookingMailer
type KafkaBookingConsumer struct {
	group  sarama.ConsumerGroup
	config *ConsumerConfig
	mailer *BookingMailer
	log    *logger.Logger
}

func NewKafkaBookingConsumer(config *ConsumerConfig, mailer *BookingMailer, log *logger.Logger) (*KafkaBookingConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaBookingConsumer{
		group:  group,
		config: config,
		mailer: mailer,
		log:    log.WithComponent("kafka-consumer"),
	}, nil
}

// Run consumes until ctx is cancelled
func (c *KafkaBookingConsumer) Run(ctx context.Context, numWorkers int) {
	c.log.Info("Starting booking consumers", "workers", numWorkers, "topics", c.config.Topics)

	go func() {
		for err := range c.group.Errors() {
			c.log.Error("Consumer group error", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			handler := &consumerGroupHandler{mailer: c.mailer, log: &logger.Logger{Logger: c.log.With("worker", workerID)}}
			for ctx.Err() == nil {
				if err := c.group.Consume(ctx, c.config.Topics, handler); err != nil {
					if errors.Is(err, sarama.ErrClosedConsumerGroup) {
						return
					}
					c.log.Error("Error consuming messages", "worker", workerID, "error", err)
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

func (c *KafkaBookingConsumer) Close() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type consumerGroupHandler struct {
	mailer *BookingMailer
	log    *logger.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.mailer.Handle(session.Context(), message); err != nil {
				h.log.Error("Error processing booking event", "offset", message.Offset, "error", err)
				continue
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
