package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Handler processes one decoded event.  Returning an error triggers retries
// and, once exhausted, dead-lettering.  Returning a conflict-coded error
// defers the message instead; see ConsumerOptions.DeferBackoff.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerMetrics holds consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesDeferred     atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesDeadLettered atomic.Int64
}

// Consumer reads run events from a consumer group and dispatches them to
// per-topic handlers.
type Consumer struct {
	reader     ReaderInterface
	deadLetter *Producer
	logger     logging.Logger

	maxRetries   int
	retryBackoff time.Duration
	deferBackoff time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler

	running atomic.Bool
	metrics *ConsumerMetrics
}

// ConsumerOptions carries the optional consumer collaborators.
type ConsumerOptions struct {
	// Topics the group subscribes to.
	Topics []string

	// DeadLetter, when set, receives messages whose handler kept failing.
	DeadLetter *Producer

	MaxRetries   int
	RetryBackoff time.Duration

	// DeferBackoff is the wait between redeliveries of a deferred message.
	// A handler defers by returning a conflict-coded error, typically lock
	// contention on a resource another worker holds.  Deferrals never count
	// against MaxRetries and never dead-letter; the contended resource's TTL
	// bounds the wait.
	DeferBackoff time.Duration
}

// NewConsumer creates a consumer-group reader over the configured brokers.
func NewConsumer(cfg config.KafkaConfig, opts ConsumerOptions, logger logging.Logger) (*Consumer, error) {
	if logger == nil {
		return nil, errors.NewValidation("kafka Consumer requires Logger")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewValidation("kafka Consumer requires at least one broker")
	}
	if cfg.GroupID == "" {
		return nil, errors.NewValidation("kafka Consumer requires a group ID")
	}
	if len(opts.Topics) == 0 {
		return nil, errors.NewValidation("kafka Consumer requires at least one topic")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: opts.Topics,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
	})

	return newConsumerWithReader(reader, opts, logger), nil
}

func newConsumerWithReader(r ReaderInterface, opts ConsumerOptions, logger logging.Logger) *Consumer {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	deferBackoff := opts.DeferBackoff
	if deferBackoff <= 0 {
		deferBackoff = 10 * time.Second
	}
	return &Consumer{
		reader:       r,
		deadLetter:   opts.DeadLetter,
		logger:       logger,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
		deferBackoff: deferBackoff,
		handlers:     make(map[string]Handler),
		metrics:      &ConsumerMetrics{},
	}
}

// Register binds a handler to a topic.  Must be called before Run.
func (c *Consumer) Register(topic string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
}

// Run consumes messages until ctx is cancelled.  Offsets are committed only
// after a message is handled or dead-lettered, so a crashed worker replays
// its in-flight message.
func (c *Consumer) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to fetch message")
		}
		c.metrics.MessagesConsumed.Add(1)

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit offset",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
		}
	}
}

// process handles one message, retrying the handler before giving up.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	c.mu.RLock()
	handler, ok := c.handlers[msg.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for topic", logging.String("topic", msg.Topic))
		return
	}

	env, err := ParseEnvelope(msg.Value)
	if err != nil {
		c.logger.Error("undecodable message",
			logging.String("topic", msg.Topic),
			logging.Err(err),
		)
		c.sendToDeadLetter(ctx, msg)
		return
	}

	attempt := 0
	for {
		var handleErr error
		if handleErr = handler(ctx, env); handleErr == nil {
			c.metrics.MessagesProcessed.Add(1)
			return
		}

		// Conflict means the resource the handler needs is busy, not that
		// the message is bad.  Deferral waits out the holder on its own
		// backoff, does not consume a retry and never dead-letters.
		// Blocking here holds up the partition, which is intentional: the
		// next message for this group would hit the same contention.
		if errors.IsCode(handleErr, errors.ErrCodeConflict) {
			c.metrics.MessagesDeferred.Add(1)
			c.logger.Info("event deferred, resource busy",
				logging.String("topic", msg.Topic),
				logging.String("event_id", env.EventID),
				logging.Duration("backoff", c.deferBackoff),
				logging.Err(handleErr),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.deferBackoff):
			}
			continue
		}

		attempt++
		c.logger.Warn("event handler failed",
			logging.String("topic", msg.Topic),
			logging.String("event_id", env.EventID),
			logging.Int("attempt", attempt),
			logging.Err(handleErr),
		)
		if attempt >= c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryBackoff * time.Duration(attempt)):
		}
	}

	c.metrics.MessagesFailed.Add(1)
	c.sendToDeadLetter(ctx, msg)
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg kafka.Message) {
	if c.deadLetter == nil {
		return
	}
	if err := c.deadLetter.publishRaw(ctx, TopicDeadLetter, msg.Key, msg.Value); err != nil {
		c.logger.Error("dead-letter publish failed",
			logging.String("topic", msg.Topic),
			logging.Err(err),
		)
		return
	}
	c.metrics.MessagesDeadLettered.Add(1)
}

// Metrics returns a snapshot of the consumer counters.
func (c *Consumer) Metrics() (consumed, processed, failed, deadLettered int64) {
	return c.metrics.MessagesConsumed.Load(),
		c.metrics.MessagesProcessed.Load(),
		c.metrics.MessagesFailed.Load(),
		c.metrics.MessagesDeadLettered.Load()
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
