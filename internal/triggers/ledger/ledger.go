package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix = "sync:event:" // Hash per delivery: sync:event:{event_id}
	DefaultTTL     = 72 * time.Hour
)

var ErrRecordNotFound = errors.New("ledger record not found")

// Record is the stored delivery history of one event.
type Record struct {
	EventID   string    `json:"event_id"`
	Trigger   string    `json:"trigger"`
	Attempts  int64     `json:"attempts"`
	Outcome   string    `json:"outcome,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisLedger keeps per-event delivery records in Redis
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLedger{client: client, ttl: ttl}
}

// Begin counts a delivery and returns its attempt number, starting at 1.
func (l *RedisLedger) Begin(ctx context.Context, eventID, trigger string) (int64, error) {
	key := l.eventKey(eventID)

	pipe := l.client.TxPipeline()
	attempts := pipe.HIncrBy(ctx, key, "attempts", 1)
	pipe.HSet(ctx, key, "trigger", trigger, "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
	pipe.Expire(ctx, key, l.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record delivery: %w", err)
	}
	return attempts.Val(), nil
}

// Finish stores the outcome of the latest attempt.
func (l *RedisLedger) Finish(ctx context.Context, eventID, outcome string, handlerErr error) error {
	key := l.eventKey(eventID)

	lastErr := ""
	if handlerErr != nil {
		lastErr = handlerErr.Error()
	}

	pipe := l.client.TxPipeline()
	pipe.HSet(ctx, key,
		"outcome", outcome,
		"last_error", lastErr,
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, l.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Get returns the record for eventID.
func (l *RedisLedger) Get(ctx context.Context, eventID string) (*Record, error) {
	fields, err := l.client.HGetAll(ctx, l.eventKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger record: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrRecordNotFound
	}

	rec := &Record{
		EventID:   eventID,
		Trigger:   fields["trigger"],
		Outcome:   fields["outcome"],
		LastError: fields["last_error"],
	}
	if n, err := strconv.ParseInt(fields["attempts"], 10, 64); err == nil {
		rec.Attempts = n
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

// Ping reports whether Redis is reachable.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLedger) eventKey(eventID string) string {
	return fmt.Sprintf("%s%s", eventKeyPrefix, eventID)
}
