package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/webhook"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook/dto"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of broker.KafkaConsumer the listener needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DeadLetterWriter parks envelopes that keep failing. broker.KafkaProducer implements it.
type DeadLetterWriter interface {
	Publish(ctx context.Context, key string, value []byte) error
}

const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	defaultMaxBackoff  = 30 * time.Second
)

// WebhookListener applies webhook envelopes relayed through Kafka. An offset
// is committed only once its message was applied, skipped as permanently
// unusable, or parked on the dead-letter topic. Transient failures block the
// partition and are retried.
type WebhookListener struct {
	consumer    MessageReader
	uc          webhook.UseCase
	deadLetter  DeadLetterWriter // optional
	logger      logger.ZapLogger
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

func NewWebhookListener(consumer MessageReader, uc webhook.UseCase, logger logger.ZapLogger) *WebhookListener {
	return &WebhookListener{
		consumer:    consumer,
		uc:          uc,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
}

// WithDeadLetter parks messages on w after maxAttempts failed dispatches
// instead of retrying them forever.
func (l *WebhookListener) WithDeadLetter(w DeadLetterWriter) *WebhookListener {
	l.deadLetter = w
	return l
}

func (l *WebhookListener) Start(ctx context.Context) {
	l.logger.Info("Starting Webhook Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Webhook Kafka Listener")
			return
		default:
			msg, err := l.consumer.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}

			if !l.processMessage(ctx, msg) {
				// Stopped mid-retry; the message is redelivered after restart.
				return
			}

			if err := l.consumer.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				l.logger.Error("Failed to commit kafka message", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}
}

// processMessage reports whether msg may be committed. It only returns false
// when ctx ends before the message could be handled.
func (l *WebhookListener) processMessage(ctx context.Context, msg kafka.Message) bool {
	var env dto.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		l.logger.Error("Failed to unmarshal webhook envelope", zap.Int64("offset", msg.Offset), zap.Error(err))
		return true
	}

	log := l.logger.With(
		zap.String("topic", env.Topic),
		zap.String("shop", env.ShopDomain),
		zap.String("webhook_id", env.WebhookID),
	)

	for attempt := 1; ; attempt++ {
		outcome, err := l.uc.Dispatch(ctx, env.EventMeta, env.Payload)
		if err == nil {
			log.Debug("Webhook envelope handled", zap.String("outcome", string(outcome)))
			return true
		}

		if errors.Is(err, webhook.ErrUnsupportedTopic) || errors.Is(err, webhook.ErrInvalidPayload) {
			log.Warn("Dropping webhook envelope", zap.Error(err))
			return true
		}

		log.Error("Failed to apply webhook envelope", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			return false
		}

		if l.deadLetter != nil && attempt >= l.maxAttempts {
			perr := l.deadLetter.Publish(ctx, string(msg.Key), msg.Value)
			if perr == nil {
				log.Warn("Parked webhook envelope on dead-letter topic", zap.Int64("offset", msg.Offset), zap.Error(err))
				return true
			}
			log.Error("Failed to park webhook envelope", zap.Error(perr))
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(l.retryDelay(attempt)):
		}
	}
}

func (l *WebhookListener) retryDelay(attempt int) time.Duration {
	d := l.backoff * time.Duration(attempt)
	if d > l.maxBackoff {
		return l.maxBackoff
	}
	return d
}
