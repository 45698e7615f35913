package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// Worker drains the intake queue with a pool of goroutines. Terminal
// failures (malformed payloads, invalid transitions) delete the message;
// transient failures leave it for redelivery.
type Worker struct {
	service *Service
	queue   queueClient
	logger  *logging.Logger
	count   int
	wg      sync.WaitGroup
}

func NewWorker(service *Service, queue queueClient, logger *logging.Logger, count int) *Worker {
	if service == nil || queue == nil {
		panic("intake: worker requires service and queue")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if count <= 0 {
		count = 2
	}
	return &Worker{service: service, queue: queue, logger: logger, count: count}
}

// Start launches the pool. It returns immediately; use Wait for shutdown.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.loop(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker goroutine has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}
		messages, err := w.queue.Receive(ctx, 10, 20)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue receive failed", "worker", id, "error", err)
			continue
		}
		for _, msg := range messages {
			w.process(ctx, msg)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg queueMessage) {
	var evt events.Event
	if err := json.Unmarshal([]byte(msg.Body), &evt); err != nil {
		w.logger.Error("dropping undecodable queue message", "message_id", msg.ID, "error", err)
		w.deleteMessage(ctx, msg)
		return
	}

	err := w.service.Handle(ctx, evt)
	if err == nil || terminal(err) {
		if err != nil {
			w.logger.Warn("dropping event after terminal failure",
				"event_id", evt.ID,
				"kind", evt.Kind,
				"error", err,
			)
		}
		w.deleteMessage(ctx, msg)
		return
	}

	// Transient failure: leave the message for the queue to redeliver.
	w.logger.Error("event processing failed, leaving for redelivery",
		"event_id", evt.ID,
		"kind", evt.Kind,
		"error", err,
	)
}

func (w *Worker) deleteMessage(ctx context.Context, msg queueMessage) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("queue delete failed", "message_id", msg.ID, "error", err)
	}
}

// terminal reports whether retrying the event could ever succeed.
func terminal(err error) bool {
	return errors.Is(err, events.ErrMalformedEvent) ||
		errors.Is(err, bookings.ErrInvalidTransition) ||
		errors.Is(err, bookings.ErrAlreadyRated) ||
		errors.Is(err, bookings.ErrNotFound)
}
