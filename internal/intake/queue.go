package intake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nyayasetu/legal-intake-platform/internal/events"
)

// queueMessage is one in-flight intake event as it travels through a queue.
type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// queueClient is the transport between the webhook handlers and the worker
// pool. Bodies are JSON-encoded events.Event values.
type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Publisher is the write side of the queue, handed to webhook handlers.
type Publisher struct {
	queue queueClient
}

func NewPublisher(q queueClient) *Publisher {
	if q == nil {
		panic("intake: publisher requires a queue")
	}
	return &Publisher{queue: q}
}

// Publish validates and enqueues one event for the worker pool.
func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	return Enqueue(ctx, p.queue, evt)
}

// Enqueue serializes an event onto the queue after a structural check, so a
// malformed event is rejected at ingestion instead of poisoning a worker.
func Enqueue(ctx context.Context, q queueClient, evt events.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("intake: encode event %s: %w", evt.ID, err)
	}
	if err := q.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("intake: enqueue event %s: %w", evt.ID, err)
	}
	return nil
}
