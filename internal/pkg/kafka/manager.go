package kafka

import (
	"Fellowship/internal/api/config"
	"Fellowship/internal/pkg/directory"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	usersTopic    string
	usersConsumer sarama.ConsumerGroup
	usersHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, syncer UserSyncer, invalidator directory.Invalidator) (*ConsumerManager, error) {
	saramaCfg, err := newSaramaConfig(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	usersConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		usersTopic:    cfg.KafkaUserConsumer.Topic,
		usersConsumer: usersConsumer,
		usersHandler:  NewUsersHandler(syncer, invalidator),
	}, nil
}

// Start 阻塞消费直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.usersConsumer.Errors() {
			log.Error("users consumer error", "err", err)
		}
	}()

	go func() {
		log.Info("Users consumer started", "topic", m.usersTopic)
		for {
			err := m.usersConsumer.Consume(ctx, []string{m.usersTopic}, m.usersHandler)
			if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.usersConsumer.Close(); err != nil {
		log.Error("Failed to close users consumer", "err", err)
		return err
	}
	return nil
}
