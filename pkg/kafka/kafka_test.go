package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]any
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		assert.Equal(t, "proceed", got["action"])
		return nil
	})

	_, _, err := PublishJSON(producer, "responses", "100", map[string]string{"action": "proceed"})
	require.NoError(t, err)
}

func TestPublishJSON_Error(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	_, _, err := PublishJSON(producer, "responses", "100", map[string]string{"action": "proceed"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestPublishJSON_EncodeError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	_, _, err := PublishJSON(producer, "responses", "100", make(chan int))
	assert.Error(t, err)
}
