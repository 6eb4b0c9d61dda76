package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

const (
	maxRetries = 10
	retryDelay = 3 * time.Second
)

func waitForKafka(brokers []string, log zerolog.Logger) error {
	for i := 0; i < maxRetries; i++ {
		config := sarama.NewConfig()
		config.Net.DialTimeout = 1 * time.Second
		client, err := sarama.NewClient(brokers, config)
		if err == nil {
			client.Close()
			return nil
		}
		log.Info().Int("attempt", i+1).Msg("Waiting for Kafka to be ready...")
		time.Sleep(retryDelay)
	}
	return fmt.Errorf("kafka not available after %d attempts", maxRetries)
}

func NewProducer(broker string, retryMax int, retryBackoff time.Duration, log zerolog.Logger) (sarama.SyncProducer, error) {
	brokers := []string{broker}
	if err := waitForKafka(brokers, log); err != nil {
		return nil, err
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = retryMax
	config.Producer.Retry.Backoff = retryBackoff

	return sarama.NewSyncProducer(brokers, config)
}

func NewConsumer(broker, group string, log zerolog.Logger) (sarama.ConsumerGroup, error) {
	brokers := []string{broker}
	if err := waitForKafka(brokers, log); err != nil {
		return nil, err
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	return sarama.NewConsumerGroup(brokers, group, config)
}

// PublishJSON encodes value as JSON and sends it keyed by key, so events of
// the same process land on the same partition.
func PublishJSON(producer sarama.SyncProducer, topic, key string, value any) (int32, int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encode message: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return partition, offset, nil
}
