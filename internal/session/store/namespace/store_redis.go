package namespace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"portalgate/internal/portal"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

var getDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "portalgate_namespace_store_get_duration_ms",
	Help:    "Latency of namespace session reads in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"namespace"})

// RedisStore backs durable namespaces. Keys are "<storage key>:<handle>" so
// two namespaces sharing one Redis never collide.
type RedisStore struct {
	client *redis.Client
	ns     portal.Namespace
}

// NewRedis builds a Redis-backed store for ns.
func NewRedis(client *redis.Client, ns portal.Namespace) *RedisStore {
	return &RedisStore{client: client, ns: ns}
}

func (s *RedisStore) Namespace() portal.Namespace { return s.ns }

func (s *RedisStore) key(handle id.HandleID) string {
	return s.ns.StorageKey + ":" + handle.String()
}

func (s *RedisStore) Put(ctx context.Context, session *models.AuthSession) error {
	if session.Namespace != s.ns.ID {
		return fmt.Errorf("session for %s written to %s store: %w", session.Namespace, s.ns.ID, sentinel.ErrInvalidState)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.Handle), payload, s.ns.SessionTTL).Err(); err != nil {
		return fmt.Errorf("store session: %w", errors.Join(err, sentinel.ErrUnavailable))
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, handle id.HandleID) (*models.AuthSession, error) {
	start := time.Now()
	defer func() {
		getDurationMs.WithLabelValues(s.ns.ID.String()).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.Get(ctx, s.key(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", errors.Join(err, sentinel.ErrUnavailable))
	}
	var sess models.AuthSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes the record, reporting ErrNotFound when nothing was stored.
func (s *RedisStore) Delete(ctx context.Context, handle id.HandleID) error {
	n, err := s.client.Del(ctx, s.key(handle)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", errors.Join(err, sentinel.ErrUnavailable))
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
