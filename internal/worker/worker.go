package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
)

// NotificationStore persists the notifications produced from events.
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) error
}

type Worker struct {
	cfg      config.KafkaConfig
	consumer sarama.ConsumerGroup
	store    NotificationStore
	metrics  *metrics.Metrics
	log      zerolog.Logger
	ready    chan bool

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWorker(cfg config.KafkaConfig, consumer sarama.ConsumerGroup, store NotificationStore, m *metrics.Metrics, log zerolog.Logger) *Worker {
	return &Worker{
		cfg:      cfg,
		consumer: consumer,
		store:    store,
		metrics:  m,
		log:      log,
		ready:    make(chan bool),
		sleep:    sleepCtx,
	}
}

// Ready is closed once the first consumer group session is set up.
func (w *Worker) Ready() <-chan bool {
	return w.ready
}

// Start consumes the events topic until ctx is cancelled or the consumer
// group is closed.
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Topic}
	w.log.Info().Strs("topics", topics).Str("group", w.cfg.Group).Msg("starting worker")

	go func() {
		for err := range w.consumer.Errors() {
			w.log.Error().Err(err).Msg("kafka consumer error")
		}
	}()

	for {
		// Consume returns on every rebalance and must be called again.
		if err := w.consumer.Consume(ctx, topics, w); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			w.log.Error().Err(err).Msg("consume failed")
			if err := w.sleep(ctx, w.cfg.RetryBackoff); err != nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			w.log.Info().Msg("worker stopped")
			return nil
		}
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
	w.log.Debug().Msg("consumer group session set up")
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	w.log.Debug().Msg("consumer group session cleaned up")
	return nil
}

// ConsumeClaim handles messages in partition order. Every message is marked,
// including ones that could not be processed, so a bad record never blocks
// the partition.
func (w *Worker) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			ctx := w.log.With().
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Logger().WithContext(sess.Context())
			w.Process(ctx, msg.Value)
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}

// Process turns one event record into a notification. It never returns an
// error: outcomes are logged and counted.
func (w *Worker) Process(ctx context.Context, value []byte) {
	log := zerolog.Ctx(ctx)

	env, err := events.Decode(value)
	if err != nil {
		log.Warn().Err(err).Int("size", len(value)).Msg("dropping malformed event")
		w.metrics.Event("malformed", metrics.OutcomeSkipped)
		return
	}
	typ := string(env.Type)

	n, err := Notify(env)
	if err != nil {
		log.Warn().Err(err).Str("event_type", typ).Str("event_id", env.ID).Msg("dropping event")
		w.metrics.Event(typ, metrics.OutcomeSkipped)
		return
	}

	if err := w.withRetry(ctx, func() error { return w.store.Create(ctx, *n) }); err != nil {
		log.Error().Err(err).Str("event_type", typ).Str("event_id", env.ID).Msg("notification not stored")
		w.metrics.Event(typ, metrics.OutcomeError)
		return
	}
	log.Info().Str("event_type", typ).Str("event_id", env.ID).Str("user_id", env.UserID).Msg("notification stored")
	w.metrics.Event(typ, metrics.OutcomeSuccess)
}

// withRetry runs fn up to RetryMax times with a linear backoff.
func (w *Worker) withRetry(ctx context.Context, fn func() error) error {
	attempts := max(w.cfg.RetryMax, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		zerolog.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("attempt failed")
		if attempt == attempts {
			break
		}
		if serr := w.sleep(ctx, time.Duration(attempt)*w.cfg.RetryBackoff); serr != nil {
			return fmt.Errorf("%w (after %d attempts)", err, attempt)
		}
	}
	return fmt.Errorf("%w (after %d attempts)", err, attempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
