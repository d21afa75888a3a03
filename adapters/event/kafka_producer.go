package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/config"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
)

const TopicProfileEvents = "profile.events"

type KafkaProducerClient struct {
	ProfileEventsWriter *kafka.Writer
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicProfileEvents
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log.Info("Initialize Kafka producer successfully.", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaProducerClient{ProfileEventsWriter: writer, logger: log}, nil
}

// PublishProfileEvent writes evt keyed by profile id so one profile's events
// stay ordered within a partition.
func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, evt profile.Event) error {
	msg, err := EncodeProfileEvent(evt)
	if err != nil {
		return err
	}
	if err := c.ProfileEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write profile event: %w", err)
	}
	c.logger.Debug("Published profile event",
		zap.String("event_type", string(evt.EventType)), zap.Uint64("version", evt.Version))
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		if err := c.ProfileEventsWriter.Close(); err != nil {
			c.logger.Warn("Closing Kafka producer failed", zap.Error(err))
			return
		}
	}
	c.logger.Info("Closed Kafka producer")
}

func EncodeProfileEvent(evt profile.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal profile event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.ProfileID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
		Time: evt.OccurredAt,
	}, nil
}

func DecodeProfileEvent(msg kafka.Message) (profile.Event, error) {
	var evt profile.Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return profile.Event{}, fmt.Errorf("unmarshal profile event: %w", err)
	}
	if evt.EventType == "" {
		return profile.Event{}, fmt.Errorf("profile event without event_type")
	}
	return evt, nil
}
