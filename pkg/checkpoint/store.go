// Package checkpoint records the most recent successfully imported rating
// period so operators can tell how fresh the data is.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// periodLayout is the wire format of a stored period.
const periodLayout = "2006-01-02"

// Store persists the last imported period.
type Store interface {
	// Save records the period of the last completed import.
	Save(ctx context.Context, period time.Time) error

	// Load returns the stored period. ok is false when nothing has been
	// saved yet.
	Load(ctx context.Context) (period time.Time, ok bool, err error)
}

// FileStore keeps the marker in a local file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(ctx context.Context, period time.Time) error {
	return os.WriteFile(s.path, []byte(period.Format(periodLayout)), 0o644)
}

func (s *FileStore) Load(ctx context.Context) (time.Time, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	period, err := time.Parse(periodLayout, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt checkpoint %s: %w", s.path, err)
	}
	return period, true, nil
}

// RedisStore keeps the marker under a redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, period time.Time) error {
	return s.client.Set(ctx, s.key, period.Format(periodLayout), 0).Err()
}

func (s *RedisStore) Load(ctx context.Context) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	period, err := time.Parse(periodLayout, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt checkpoint %s: %w", s.key, err)
	}
	return period, true, nil
}
