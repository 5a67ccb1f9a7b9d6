package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
)

// NewKafkaProducer creates a synchronous producer that waits for all replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return producer, nil
}

// KafkaNotifier publishes changes to a topic keyed by profile so that one
// profile's changes stay ordered within a partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaNotifier creates a Kafka notifier.
func NewKafkaNotifier(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		topic:    topic,
		logger:   logger.Named("kafka-notifier"),
	}
}

// Notify sends the whole batch in one request.
func (k *KafkaNotifier) Notify(ctx context.Context, batch domain.ChangeBatch) error {
	envs := Envelopes(batch)
	if len(envs) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, len(envs))
	for i, env := range envs {
		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshaling change: %w", err)
		}
		msgs[i] = &sarama.ProducerMessage{
			Topic: k.topic,
			Key:   sarama.StringEncoder(strconv.FormatInt(batch.ProfileID, 10)),
			Value: sarama.ByteEncoder(data),
			Headers: []sarama.RecordHeader{
				{Key: []byte("change_id"), Value: []byte(env.Change.ID.String())},
				{Key: []byte("entity_type"), Value: []byte(env.Change.EntityType)},
				{Key: []byte("operation"), Value: []byte(batch.Operation)},
			},
		}
	}

	if err := k.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("sending changes: %w", err)
	}

	k.logger.Debug("changes published",
		zap.String("topic", k.topic),
		zap.Int64("profile_id", batch.ProfileID),
		zap.Int("count", len(msgs)),
	)
	return nil
}

// Close closes the underlying producer.
func (k *KafkaNotifier) Close() error {
	return k.producer.Close()
}
