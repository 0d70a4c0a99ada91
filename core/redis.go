package core

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the response log.
const (
	ResponseLogKey    = "upfi:responses"
	ResponseCountsKey = "upfi:response_counts"
)

// ResponseEntry is one API answer as seen by the web client.
type ResponseEntry struct {
	RequestID  string          `json:"request_id,omitempty"`
	Endpoint   string          `json:"endpoint"`
	Username   string          `json:"username,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Outcome    Outcome         `json:"outcome"`
	Body       json.RawMessage `json:"body,omitempty"`
	Error      string          `json:"error,omitempty"`
	At         time.Time       `json:"at"`
}

// ResponseLog keeps the most recent API responses and per-outcome counters.
type ResponseLog interface {
	Record(ctx context.Context, e ResponseEntry) error
	Recent(ctx context.Context, n int) ([]ResponseEntry, error)
	Counts(ctx context.Context) (map[Outcome]int64, error)
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// RedisResponseLog stores entries in a capped list (LPUSH + LTRIM).
type RedisResponseLog struct {
	client *redis.Client
	limit  int64
}

func NewRedisResponseLog(client *redis.Client, limit int) *RedisResponseLog {
	if limit <= 0 {
		limit = 200
	}
	return &RedisResponseLog{client: client, limit: int64(limit)}
}

// Record pushes e to the head of the list and bumps its outcome counter in one transaction.
func (l *RedisResponseLog) Record(ctx context.Context, e ResponseEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, ResponseLogKey, data)
		pipe.LTrim(ctx, ResponseLogKey, 0, l.limit-1)
		pipe.HIncrBy(ctx, ResponseCountsKey, string(e.Outcome), 1)
		return nil
	})
	return err
}

// Recent returns up to n entries, newest first.
func (l *RedisResponseLog) Recent(ctx context.Context, n int) ([]ResponseEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := l.client.LRange(ctx, ResponseLogKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ResponseEntry, 0, len(vals))
	for _, v := range vals {
		var e ResponseEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (l *RedisResponseLog) Counts(ctx context.Context) (map[Outcome]int64, error) {
	raw, err := l.client.HGetAll(ctx, ResponseCountsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[Outcome]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[Outcome(k)] = n
	}
	return out, nil
}

// MemoryResponseLog is used when no Redis is configured.
type MemoryResponseLog struct {
	mu      sync.Mutex
	limit   int
	entries []ResponseEntry // newest first
	counts  map[Outcome]int64
}

func NewMemoryResponseLog(limit int) *MemoryResponseLog {
	if limit <= 0 {
		limit = 200
	}
	return &MemoryResponseLog{limit: limit, counts: map[Outcome]int64{}}
}

func (l *MemoryResponseLog) Record(_ context.Context, e ResponseEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]ResponseEntry{e}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
	l.counts[e.Outcome]++
	return nil
}

func (l *MemoryResponseLog) Recent(_ context.Context, n int) ([]ResponseEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]ResponseEntry, n)
	copy(out, l.entries[:n])
	return out, nil
}

func (l *MemoryResponseLog) Counts(_ context.Context) (map[Outcome]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Outcome]int64, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out, nil
}
