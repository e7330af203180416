package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// Sender delivers a text message to a transport address
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// Outbox accepts replies and delivers them no earlier than the configured
// delay, in order per recipient
type Outbox interface {
	Enqueue(ctx context.Context, to, text string) error
	Shutdown(ctx context.Context) error
}

// PacingOptions configures reply delivery
type PacingOptions struct {
	Delay       time.Duration // minimum time between accepting and sending a reply
	RatePerSec  float64       // global sends per second across all recipients
	IdleTimeout time.Duration // per-recipient lane lifetime without replies
}

func newSendLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// MemoryOutbox paces replies in process. Pending replies are lost on restart.
type MemoryOutbox struct {
	sender  Sender
	delay   time.Duration
	limiter *rate.Limiter
	clock   clockwork.Clock
	lanes   *laneGroup

	ctx    context.Context
	cancel context.CancelFunc
}

var _ Outbox = (*MemoryOutbox)(nil)

// NewMemoryOutbox creates an in-process outbox
func NewMemoryOutbox(sender Sender, opts PacingOptions, clock clockwork.Clock) *MemoryOutbox {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryOutbox{
		sender:  sender,
		delay:   opts.Delay,
		limiter: newSendLimiter(opts.RatePerSec),
		clock:   clock,
		lanes:   newLaneGroup("outbound", opts.IdleTimeout, clock),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Enqueue schedules text for delivery to after the pacing delay
func (o *MemoryOutbox) Enqueue(_ context.Context, to, text string) error {
	msg := models.OutboundMessage{
		ID:        uuid.NewString(),
		To:        to,
		Text:      text,
		DeliverAt: o.clock.Now().Add(o.delay),
	}
	return o.lanes.enqueue(to, func() {
		o.deliver(msg)
	})
}

func (o *MemoryOutbox) deliver(msg models.OutboundMessage) {
	if wait := msg.DeliverAt.Sub(o.clock.Now()); wait > 0 {
		select {
		case <-o.clock.After(wait):
		case <-o.ctx.Done():
			metrics.RepliesTotal.WithLabelValues("dropped").Inc()
			log.Printf("⚠️  Reply %s to %s dropped on shutdown", msg.ID, msg.To)
			return
		}
	}
	send(o.ctx, o.sender, o.limiter, msg)
}

// Shutdown delivers what is queued until ctx expires, then drops the rest
func (o *MemoryOutbox) Shutdown(ctx context.Context) error {
	err := o.lanes.close(ctx)
	o.cancel()
	return err
}

func send(ctx context.Context, sender Sender, limiter *rate.Limiter, msg models.OutboundMessage) {
	if err := limiter.Wait(ctx); err != nil {
		metrics.RepliesTotal.WithLabelValues("dropped").Inc()
		log.Printf("⚠️  Reply %s to %s dropped: %v", msg.ID, msg.To, err)
		return
	}
	if err := sender.SendText(ctx, msg.To, msg.Text); err != nil {
		metrics.RepliesTotal.WithLabelValues("failed").Inc()
		log.Printf("❌ Failed to send reply %s to %s: %v", msg.ID, msg.To, err)
		return
	}
	metrics.RepliesTotal.WithLabelValues("sent").Inc()
}
