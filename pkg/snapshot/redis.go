package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultKeyPrefix  = "eventdash:snapshot"
	defaultTTL        = 24 * time.Hour
	defaultMaxHistory = 48
)

// Config configures the Redis connection and retention
type Config struct {
	URL        string        `yaml:"url"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	PoolSize   int           `yaml:"pool_size"`
	MaxRetries int           `yaml:"max_retries"`
	KeyPrefix  string        `yaml:"key_prefix"`
	TTL        time.Duration `yaml:"ttl"`
	MaxHistory int           `yaml:"max_history"`
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opts.DB = cfg.DB
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// Store saves and loads snapshots
type Store struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	maxHistory int64
}

// NewStore creates a store on an existing client
func NewStore(client *redis.Client, cfg Config) *Store {
	s := &Store{
		client:     client,
		prefix:     cfg.KeyPrefix,
		ttl:        cfg.TTL,
		maxHistory: int64(cfg.MaxHistory),
	}
	if s.prefix == "" {
		s.prefix = defaultKeyPrefix
	}
	if s.ttl <= 0 {
		s.ttl = defaultTTL
	}
	if s.maxHistory <= 0 {
		s.maxHistory = defaultMaxHistory
	}
	return s
}

func (s *Store) latestKey() string  { return s.prefix + ":latest" }
func (s *Store) historyKey() string { return s.prefix + ":history" }

// Save stores snap as the latest snapshot and prepends it to the history
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.latestKey(), data, s.ttl)
	pipe.LPush(ctx, s.historyKey(), data)
	pipe.LTrim(ctx, s.historyKey(), 0, s.maxHistory-1)
	pipe.Expire(ctx, s.historyKey(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save failed: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil when none is stored
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.latestKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.client.Del(ctx, s.latestKey())
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// History returns up to limit snapshots, newest first. Entries that no
// longer decode are skipped.
func (s *Store) History(ctx context.Context, limit int) ([]*Snapshot, error) {
	if limit <= 0 || int64(limit) > s.maxHistory {
		limit = int(s.maxHistory)
	}

	raw, err := s.client.LRange(ctx, s.historyKey(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	snaps := make([]*Snapshot, 0, len(raw))
	for _, data := range raw {
		var snap Snapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			continue
		}
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
