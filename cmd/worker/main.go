package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/adapters/event"
	profileUC "github.com/khoahotran/provenpro/internal/application/usecase/profile"
	"github.com/khoahotran/provenpro/internal/bootstrap"
	"github.com/khoahotran/provenpro/internal/config"
	"github.com/khoahotran/provenpro/pkg/logger"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting ProvenPro history worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Cannot start worker", errors.New("KAFKA_BROKERS is required"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbPool, historyRepo, err := bootstrap.NewHistoryPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Worker Use Case
	archiveUC := profileUC.NewArchiveEventUseCase(historyRepo, appLogger)

	// Kafka Consumer
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = event.TopicProfileEvents
	}
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", topic), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		evt, err := event.DecodeProfileEvent(msg)
		if err != nil {
			appLogger.Warn("Skipping undecodable profile event", zap.Int64("offset", msg.Offset), zap.Error(err))
			commitMessage(consumer, msg, appLogger)
			continue
		}

		archived, err := archiveUntilDone(ctx, archiveUC.Execute, evt, time.Second, appLogger)
		if err != nil {
			appLogger.Info("Worker stopped before archiving", zap.Int64("offset", msg.Offset))
			return
		}
		if archived {
			appLogger.Info("Archived profile event",
				zap.String("event_type", string(evt.EventType)), zap.String("field", evt.Field), zap.Uint64("version", evt.Version))
		}

		commitMessage(consumer, msg, appLogger)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
