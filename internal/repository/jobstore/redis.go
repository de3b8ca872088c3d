package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/job"
)

// Compile-time check: RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

const keyPrefix = "studyvault:job:"

// RedisConfig holds connection parameters for the Redis job store.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore persists job records as JSON values via rueidis. Records expire
// after the configured TTL so abandoned jobs do not accumulate.
type RedisStore struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed job store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *RedisStore) Close() {
	s.client.Close()
}

// Create stores a new job record.
func (s *RedisStore) Create(ctx context.Context, j job.Job) error {
	return s.put(ctx, j)
}

// Get returns the job by id or domain.ErrJobNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (job.Job, error) {
	cmd := s.client.B().Get().Key(keyPrefix + id).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return job.Job{}, domain.ErrJobNotFound
		}
		return job.Job{}, fmt.Errorf("get job: %w", err)
	}

	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return job.Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}

// transitionScript moves a job to a terminal state atomically. A plain
// GET-then-SET would let two instances race and overwrite a terminal state;
// the script checks and writes in one server-side step.
var transitionScript = rueidis.NewLuaScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
local j = cjson.decode(v)
if j.status ~= 'processing' then
  return -1
end
j.status = ARGV[1]
if ARGV[1] == 'done' then
  j.result_path = ARGV[2]
else
  j.error = ARGV[2]
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], cjson.encode(j), 'EX', ARGV[3])
else
  redis.call('SET', KEYS[1], cjson.encode(j))
end
return 1
`)

// Complete transitions the job to done and records the result path.
func (s *RedisStore) Complete(ctx context.Context, id, resultPath string) error {
	return s.transition(ctx, id, job.StatusDone, resultPath)
}

// Fail transitions the job to error and records the failure message.
func (s *RedisStore) Fail(ctx context.Context, id, message string) error {
	return s.transition(ctx, id, job.StatusError, message)
}

func (s *RedisStore) transition(ctx context.Context, id string, status job.Status, value string) error {
	ttlSec := strconv.FormatInt(int64(s.ttl/time.Second), 10)
	res := transitionScript.Exec(ctx, s.client, []string{keyPrefix + id}, []string{string(status), value, ttlSec})
	n, err := res.AsInt64()
	if err != nil {
		return fmt.Errorf("transition job: %w", err)
	}
	switch n {
	case 0:
		return domain.ErrJobNotFound
	case -1:
		return domain.ErrJobTerminal
	}
	return nil
}

func (s *RedisStore) put(ctx context.Context, j job.Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	var cmd rueidis.Completed
	if s.ttl > 0 {
		cmd = s.client.B().Set().Key(keyPrefix + j.ID).Value(string(data)).Ex(s.ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(keyPrefix + j.ID).Value(string(data)).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set job: %w", err)
	}
	return nil
}
