package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/config"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const (
	TaskQueueName = "transcript_tasks"
	ExchangeName  = "ytscribe"
)

// Handler processes one task message. Returning an error schedules a retry.
type Handler func(ctx context.Context, msg models.TaskMessage) error

// Queue provides message queue operations
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logging.Logger
}

var _ task.Dispatcher = (*Queue)(nil)

// URL builds the AMQP connection URL for cfg
func URL(cfg config.QueueConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)
}

// New creates a new queue client and declares the task and dead letter topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &Queue{conn: conn, channel: channel, logger: logger}

	if err := q.declare(); err != nil {
		q.Close()
		return nil, err
	}
	if err := q.SetupDeadLetterQueue(); err != nil {
		q.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declare() error {
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		TaskQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = q.channel.QueueBind(
		TaskQueueName,
		TaskQueueName,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Ping reports whether the broker connection is still open
func (q *Queue) Ping() error {
	if q.conn == nil || q.conn.IsClosed() {
		return errors.New("queue connection closed")
	}
	return nil
}

// Dispatch publishes a created task for a worker to process
func (q *Queue) Dispatch(ctx context.Context, taskID string) error {
	return q.PublishTask(ctx, models.TaskMessage{TaskID: taskID})
}

// PublishTask publishes a task message to the queue
func (q *Queue) PublishTask(ctx context.Context, msg models.TaskMessage) error {
	return q.publish(ctx, ExchangeName, TaskQueueName, msg, amqp.Table{retryHeader: int32(0)}, "")
}

func (q *Queue) publish(ctx context.Context, exchange, key string, msg models.TaskMessage, headers amqp.Table, expiration string) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}

	err = q.channel.PublishWithContext(ctx,
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			Headers:      headers,
			Expiration:   expiration,
		},
	)
	if err != nil {
		metrics.RecordQueueMessage("publish_failed")
		return fmt.Errorf("failed to publish task: %w", err)
	}

	metrics.RecordQueueMessage("published")
	return nil
}

// ConsumeTasks starts consuming task messages from the queue. prefetch caps
// the number of unacknowledged messages this consumer holds.
func (q *Queue) ConsumeTasks(ctx context.Context, prefetch int, handler Handler) error {
	if prefetch < 1 {
		prefetch = 1
	}

	// Set QoS to limit concurrent processing
	err := q.channel.Qos(
		prefetch, // prefetch count
		0,        // prefetch size
		false,    // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		TaskQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c := &consumer{handler: handler, retrier: q, logger: q.logger}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, msg, msg.Body, msg.Headers)
			}
		}
	}()

	return nil
}

// Depth returns the number of messages in the queue
func (q *Queue) Depth() (int, error) {
	info, err := q.channel.QueueInspect(TaskQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type retrier interface {
	PublishToRetryQueue(ctx context.Context, msg models.TaskMessage, retryCount int) error
}

type consumer struct {
	handler Handler
	retrier retrier
	logger  *logging.Logger
}

// handle settles one delivery. Malformed bodies are dropped; tasks that no
// longer exist or were already claimed are acknowledged; other failures are
// republished through the retry queue before the original is acknowledged.
func (c *consumer) handle(ctx context.Context, ack acknowledger, body []byte, headers amqp.Table) {
	var msg models.TaskMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.TaskID == "" {
		c.logger.Warn("Dropping malformed task message")
		metrics.RecordQueueMessage("malformed")
		ack.Nack(false, false)
		return
	}

	err := c.handler(ctx, msg)
	switch {
	case err == nil:
		metrics.RecordQueueMessage("processed")
		ack.Ack(false)
	case errors.Is(err, task.ErrTaskNotFound), errors.Is(err, task.ErrAlreadyProcessed):
		c.logger.WithTaskID(msg.TaskID).WithError(err).Info("Skipping task message")
		metrics.RecordQueueMessage("skipped")
		ack.Ack(false)
	default:
		c.logger.WithTaskID(msg.TaskID).WithError(err).Warn("Task message failed")
		if rerr := c.retrier.PublishToRetryQueue(ctx, msg, retryCount(headers)); rerr != nil {
			c.logger.WithTaskID(msg.TaskID).WithError(rerr).Error("Failed to schedule retry")
			metrics.RecordQueueMessage("requeued")
			ack.Nack(false, true)
			return
		}
		metrics.RecordQueueMessage("retried")
		ack.Ack(false)
	}
}
