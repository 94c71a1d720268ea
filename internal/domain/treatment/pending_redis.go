package treatment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/platform/db"
)

const pendingKeyPrefix = "odonto:pending:"

// RedisPendingStore keeps pending payments in Redis with a TTL so every
// server instance sees the same confirmations. Each tooth has an index set
// of pending ids; ids whose entry expired are pruned on read.
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &RedisPendingStore{client: client, ttl: ttl}
}

func entryKey(tenant string, id uuid.UUID) string {
	return pendingKeyPrefix + tenant + ":" + id.String()
}

func toothKey(tenant string, patientID uuid.UUID, tooth int) string {
	return fmt.Sprintf("%s%s:tooth:%s:%d", pendingKeyPrefix, tenant, patientID, tooth)
}

func (s *RedisPendingStore) Put(ctx context.Context, p *Pending) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending payment: %w", err)
	}
	tenant := db.TenantFromContext(ctx)
	index := toothKey(tenant, p.PatientID, p.ToothNumber)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, entryKey(tenant, p.ID), data, s.ttl)
	pipe.SAdd(ctx, index, p.ID.String())
	pipe.Expire(ctx, index, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store pending payment: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) get(ctx context.Context, tenant string, id uuid.UUID) (*Pending, error) {
	data, err := s.client.Get(ctx, entryKey(tenant, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read pending payment: %w", err)
	}
	var p Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pending payment: %w", err)
	}
	return &p, nil
}

func (s *RedisPendingStore) Get(ctx context.Context, id uuid.UUID) (*Pending, error) {
	return s.get(ctx, db.TenantFromContext(ctx), id)
}

func (s *RedisPendingStore) Delete(ctx context.Context, id uuid.UUID) error {
	tenant := db.TenantFromContext(ctx)
	p, err := s.get(ctx, tenant, id)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, entryKey(tenant, id))
	pipe.SRem(ctx, toothKey(tenant, p.PatientID, p.ToothNumber), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete pending payment: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) ForTooth(ctx context.Context, patientID uuid.UUID, tooth int) ([]*Pending, error) {
	tenant := db.TenantFromContext(ctx)
	index := toothKey(tenant, patientID, tooth)
	members, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}

	var out []*Pending
	var stale []interface{}
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			stale = append(stale, m)
			continue
		}
		p, err := s.get(ctx, tenant, id)
		if errors.Is(err, ErrPendingNotFound) {
			stale = append(stale, m)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, index, stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune pending payments: %w", err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
