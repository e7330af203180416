package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

const (
	outboxKey          = "pvcollect:outbox"
	outboxPollInterval = 250 * time.Millisecond
	outboxBatchSize    = 50
)

// RedisOutbox keeps pending replies in a Redis sorted set scored by delivery
// time, so they survive a restart. Members are JSON messages whose ids are
// time-ordered, which keeps replies with the same score in enqueue order.
type RedisOutbox struct {
	rdb     *redis.Client
	sender  Sender
	delay   time.Duration
	limiter *rate.Limiter
	clock   clockwork.Clock

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Outbox = (*RedisOutbox)(nil)

// NewRedisClient connects to the Redis server at redisURL
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return rdb, nil
}

// NewRedisOutbox creates a durable outbox. Call Start to begin delivery.
func NewRedisOutbox(rdb *redis.Client, sender Sender, opts PacingOptions, clock clockwork.Clock) *RedisOutbox {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisOutbox{
		rdb:     rdb,
		sender:  sender,
		delay:   opts.Delay,
		limiter: newSendLimiter(opts.RatePerSec),
		clock:   clock,
	}
}

// Enqueue stores text for delivery to after the pacing delay
func (o *RedisOutbox) Enqueue(ctx context.Context, to, text string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate message id: %w", err)
	}
	msg := models.OutboundMessage{
		ID:        id.String(),
		To:        to,
		Text:      text,
		DeliverAt: o.clock.Now().Add(o.delay),
	}
	member, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	err = o.rdb.ZAdd(ctx, outboxKey, redis.Z{
		Score:  float64(msg.DeliverAt.UnixMilli()),
		Member: string(member),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to queue reply: %w", err)
	}
	return nil
}

// Start launches the delivery loop
func (o *RedisOutbox) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		log.Println("📮 Redis outbox started")
		for {
			o.drain(ctx)
			select {
			case <-ctx.Done():
				return
			case <-o.clock.After(outboxPollInterval):
			}
		}
	}()
}

// drain sends every reply that is due. ZREM claims a reply so that only one
// instance delivers it.
func (o *RedisOutbox) drain(ctx context.Context) {
	now := strconv.FormatInt(o.clock.Now().UnixMilli(), 10)
	members, err := o.rdb.ZRangeByScore(ctx, outboxKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: outboxBatchSize,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("❌ Redis outbox poll failed: %v", err)
		}
		return
	}

	for _, member := range members {
		removed, err := o.rdb.ZRem(ctx, outboxKey, member).Result()
		if err != nil || removed == 0 {
			continue
		}

		var msg models.OutboundMessage
		if err := json.Unmarshal([]byte(member), &msg); err != nil {
			log.Printf("❌ Dropping malformed outbox entry: %v", err)
			continue
		}
		send(ctx, o.sender, o.limiter, msg)
	}
}

// Shutdown stops the delivery loop. Pending replies stay in Redis.
func (o *RedisOutbox) Shutdown(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
