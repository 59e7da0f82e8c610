package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ScoreHandler processes one score event. Returning an error requeues the
// message for another delivery.
type ScoreHandler func(ctx context.Context, event *ScoreEvent) error

// Consumer consumes score events from the queue
type Consumer struct {
	conn       *Connection
	handler    ScoreHandler
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // Number of concurrent workers
	Prefetch int // Prefetch count per worker
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
	}
}

// NewConsumer creates a new score event consumer
func NewConsumer(conn *Connection, handler ScoreHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		ScoreQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting score queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	var event ScoreEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.Error("failed to unmarshal score event",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.handler(handleCtx, &event); err != nil {
		slog.Error("score event handling failed",
			"worker_id", workerID,
			"event_id", event.ID,
			"error", err,
			"duration", time.Since(start),
		)
		// Requeue once; redelivered messages that fail again are dropped
		// so a poison event cannot wedge the queue.
		_ = msg.Reject(!msg.Redelivered)
		return
	}

	slog.Info("score event processed",
		"worker_id", workerID,
		"event_id", event.ID,
		"player_id", event.PlayerID,
		"duration", time.Since(start),
	)

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"event_id", event.ID,
			"error", err,
		)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}
