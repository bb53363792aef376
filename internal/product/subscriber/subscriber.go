// Package subscriber tails product change events from NATS JetStream.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	"github.com/abgdnv/productapi/pkg/telemetry"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// message is the part of jetstream.Msg the handler needs.
type message interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// Start creates or updates the durable consumer on stream and runs cfg.Workers workers until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, stream string, cfg config.SubscriberConfig, logger *slog.Logger) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles them one message at a time.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err == nil {
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, logger)
			}
			err = batch.Error()
		}
		if err == nil || errors.Is(err, nats.ErrTimeout) {
			continue
		}
		logger.Error("failed to fetch messages", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
}

// handleMessage logs a single product event. Undecodable payloads are negatively acknowledged.
func handleMessage(ctx context.Context, msg message, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	var event events.ProductEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	ctx = telemetry.ExtractCarrier(ctx, event.Carrier)
	logger.InfoContext(ctx, "received product event",
		slog.String("subject", msg.Subject()),
		slog.String("product_id", event.ProductID),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}
