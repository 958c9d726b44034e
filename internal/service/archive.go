package service

import (
	"context"
	"time"

	"gochat/internal/config"
	"gochat/internal/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonFast = jsoniter.ConfigFastest

// Archiver mirrors every created chat message to a Kafka topic so offline
// consumers (search indexing, analytics) can feed from it. It is optional:
// a nil Archiver is a no-op.
type Archiver struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
}

// NewArchiver returns nil when no Kafka brokers are configured.
func NewArchiver(cfg *config.Config, logger *zap.SugaredLogger) *Archiver {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Transport: &kafka.Transport{
			TLS: cfg.CreateKafkaTLSConfig(),
		},
	}

	logger.Infow("message archive enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return &Archiver{writer: writer, logger: logger}
}

// Archive writes the message in the background. The HTTP response never
// waits on Kafka; a failed write is logged and lost, the message itself is
// already persisted in Postgres.
func (a *Archiver) Archive(msg model.ChatMessage) {
	if a == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		value, err := jsonFast.Marshal(msg)
		if err != nil {
			a.logger.Errorw("failed to encode archive message", "messageId", msg.ID, "error", err)
			return
		}

		// Keyed by chat id so one chat's messages land on one partition in order.
		err = a.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(msg.ChatID),
			Value: value,
		})
		if err != nil {
			a.logger.Errorw("failed to archive message",
				"messageId", msg.ID, "chatId", msg.ChatID, "error", err)
		}
	}()
}

func (a *Archiver) Close() error {
	if a == nil {
		return nil
	}
	return a.writer.Close()
}
