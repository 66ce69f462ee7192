package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const (
	DeadLetterQueueName    = "transcript_tasks_dlq"
	DeadLetterExchangeName = "ytscribe_dlq"
	RetryQueueName         = "transcript_tasks_retry"
	MaxRetries             = 5

	retryHeader = "x-retry-count"
)

// SetupDeadLetterQueue sets up the retry and dead letter queue infrastructure
func (q *Queue) SetupDeadLetterQueue() error {
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		DeadLetterQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	err = q.channel.QueueBind(
		DeadLetterQueueName,
		DeadLetterQueueName,
		DeadLetterExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Expired retry messages flow back into the task queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": TaskQueueName,
	}

	_, err = q.channel.QueueDeclare(
		RetryQueueName,
		true,
		false,
		false,
		false,
		retryArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	q.logger.Debug("Dead letter queue infrastructure set up")
	return nil
}

// PublishToRetryQueue parks a message until its backoff expires, or moves it
// to the dead letter queue once MaxRetries is reached
func (q *Queue) PublishToRetryQueue(ctx context.Context, msg models.TaskMessage, retryCount int) error {
	if retryCount >= MaxRetries {
		return q.PublishToDeadLetterQueue(ctx, msg, "max retries exceeded")
	}

	delay := calculateBackoffDelay(retryCount)
	headers := amqp.Table{retryHeader: int32(retryCount + 1)}

	if err := q.publish(ctx, "", RetryQueueName, msg, headers, fmt.Sprintf("%d", delay.Milliseconds())); err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	q.logger.WithTaskID(msg.TaskID).Infof("Task queued for retry #%d in %v", retryCount+1, delay)
	return nil
}

// PublishToDeadLetterQueue publishes a failed task message to the dead letter queue
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, msg models.TaskMessage, reason string) error {
	headers := amqp.Table{
		"x-failure-reason": reason,
		"x-failed-at":      time.Now().Format(time.RFC3339),
	}

	if err := q.publish(ctx, DeadLetterExchangeName, DeadLetterQueueName, msg, headers, ""); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	metrics.RecordQueueMessage("dead_lettered")
	q.logger.WithTaskID(msg.TaskID).Warnf("Task moved to dead letter queue: %s", reason)
	return nil
}

// DLQDepth returns the number of messages in the dead letter queue
func (q *Queue) DLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}

// calculateBackoffDelay calculates exponential backoff delay
func calculateBackoffDelay(retryCount int) time.Duration {
	// Exponential backoff: 5s, 10s, 20s, 40s, 80s
	baseDelay := 5 * time.Second
	delay := baseDelay * (1 << retryCount)

	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}

	return delay
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
