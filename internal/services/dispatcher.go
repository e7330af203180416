package services

import (
	"context"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// MessageProcessor turns one inbound message into replies
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg models.InboundMessage) []string
}

// Dispatcher admits inbound messages: at most one message per user is being
// processed at any time, users are processed in parallel, and replies go to
// the outbox so their paced delivery never holds up the next message.
type Dispatcher struct {
	processor MessageProcessor
	outbox    Outbox
	lanes     *laneGroup
}

// NewDispatcher creates a dispatcher. Per-user lanes stop after idle time
// without messages.
func NewDispatcher(processor MessageProcessor, outbox Outbox, idle time.Duration, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{
		processor: processor,
		outbox:    outbox,
		lanes:     newLaneGroup("inbound", idle, clock),
	}
}

// Submit queues msg on its user's lane and returns immediately
func (d *Dispatcher) Submit(msg models.InboundMessage) error {
	return d.lanes.enqueue(msg.UserID, func() {
		// A cancel typed by the user never aborts a backend call in flight
		replies := d.processor.ProcessMessage(context.Background(), msg)
		for _, reply := range replies {
			if err := d.outbox.Enqueue(context.Background(), msg.From, reply); err != nil {
				log.Printf("❌ Could not queue reply for %s: %v", msg.UserID, err)
			}
		}
	})
}

// Process runs msg on its user's lane and returns the replies instead of
// sending them. It waits behind earlier messages of the same user.
func (d *Dispatcher) Process(ctx context.Context, msg models.InboundMessage) ([]string, error) {
	done := make(chan []string, 1)
	jobCtx := context.WithoutCancel(ctx)

	err := d.lanes.enqueue(msg.UserID, func() {
		done <- d.processor.ProcessMessage(jobCtx, msg)
	})
	if err != nil {
		return nil, err
	}

	select {
	case replies := <-done:
		return replies, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ActiveUsers returns the number of users with a live lane
func (d *Dispatcher) ActiveUsers() int {
	return d.lanes.size()
}

// Shutdown stops accepting messages and waits for queued ones
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	return d.lanes.close(ctx)
}
