package kafka

import (
	"testing"
	"time"

	"Fellowship/internal/api/config"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kafkaConfig() config.KafkaConfig {
	return config.KafkaConfig{
		Brokers: []string{"127.0.0.1:9092"},
		Consumer: config.ConsumerConfig{
			SessionTimeout:    30,
			HeartbeatInterval: 3,
			RebalanceTimeout:  60,
			MaxProcessingTime: 10,
		},
	}
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := kafkaConfig()
	cfg.Version = "3.6.0"
	cfg.Sasl = config.SaslConfig{Enable: true, Username: "chat", Password: "pw"}

	c, err := newSaramaConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, clientID, c.ClientID)
	assert.Equal(t, sarama.V3_6_0_0, c.Version)
	assert.True(t, c.Net.SASL.Enable)
	assert.Equal(t, "chat", c.Net.SASL.User)
	assert.Equal(t, 30*time.Second, c.Consumer.Group.Session.Timeout)
	assert.True(t, c.Consumer.Offsets.AutoCommit.Enable)
	assert.Equal(t, sarama.OffsetNewest, c.Consumer.Offsets.Initial)
}

func TestNewSaramaConfig_Invalid(t *testing.T) {
	cfg := kafkaConfig()
	cfg.Version = "banana"
	_, err := newSaramaConfig(cfg)
	assert.ErrorContains(t, err, "kafka version")

	cfg = kafkaConfig()
	cfg.Consumer.HeartbeatInterval = 60
	_, err = newSaramaConfig(cfg)
	assert.Error(t, err, "heartbeat must be shorter than the session timeout")
}
