package treatment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/platform/db"
)

// DefaultPendingTTL is how long an unanswered payment confirmation is kept.
const DefaultPendingTTL = 30 * time.Minute

type pendingKey struct {
	tenant string
	id     uuid.UUID
}

type pendingEntry struct {
	p       Pending
	expires time.Time
}

// MemoryPendingStore keeps pending payments in process memory. It serves a
// single instance; use the Redis store when several instances share tenants.
type MemoryPendingStore struct {
	mu    sync.RWMutex
	items map[pendingKey]pendingEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &MemoryPendingStore{items: make(map[pendingKey]pendingEntry), ttl: ttl, now: time.Now}
}

func clonePending(p Pending) *Pending {
	p.Treatment = p.Treatment.Clone()
	return &p
}

func (s *MemoryPendingStore) Put(ctx context.Context, p *Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[pendingKey{db.TenantFromContext(ctx), p.ID}] = pendingEntry{p: *clonePending(*p), expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryPendingStore) Get(ctx context.Context, id uuid.UUID) (*Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[pendingKey{db.TenantFromContext(ctx), id}]
	if !ok || !s.now().Before(e.expires) {
		return nil, ErrPendingNotFound
	}
	return clonePending(e.p), nil
}

func (s *MemoryPendingStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pendingKey{db.TenantFromContext(ctx), id}
	e, ok := s.items[key]
	delete(s.items, key)
	if !ok || !s.now().Before(e.expires) {
		return ErrPendingNotFound
	}
	return nil
}

// ForTooth returns the live pending payments of one tooth, oldest first.
// Expired entries are dropped on the way.
func (s *MemoryPendingStore) ForTooth(ctx context.Context, patientID uuid.UUID, tooth int) ([]*Pending, error) {
	tenant := db.TenantFromContext(ctx)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Pending
	for key, e := range s.items {
		if !now.Before(e.expires) {
			delete(s.items, key)
			continue
		}
		if key.tenant == tenant && e.p.PatientID == patientID && e.p.ToothNumber == tooth {
			out = append(out, clonePending(e.p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
