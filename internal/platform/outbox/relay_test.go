package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Fake Store --

type fakeStore struct {
	tenants []string
	pending map[string][]Record
	drains  int
	fail    map[string]bool

	// publish times of already relayed events, per tenant
	published map[string][]time.Time
	cutoffs   []time.Time
}

func (f *fakeStore) Prune(_ context.Context, tenant string, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.fail[tenant] {
		return 0, errors.New("delete: connection reset")
	}
	if f.published == nil {
		return 0, nil
	}
	var kept []time.Time
	var n int64
	for _, at := range f.published[tenant] {
		if at.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, at)
	}
	f.published[tenant] = kept
	return n, nil
}

func (f *fakeStore) Tenants(context.Context) ([]string, error) { return f.tenants, nil }

func (f *fakeStore) Drain(ctx context.Context, tenant string, limit int, publish func(context.Context, []Record) error) (int, error) {
	f.drains++
	if f.fail[tenant] {
		return 0, errors.New("select pending: connection reset")
	}
	batch := f.pending[tenant]
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := publish(ctx, batch); err != nil {
		return 0, err
	}
	f.pending[tenant] = f.pending[tenant][len(batch):]
	return len(batch), nil
}

type recordingPublisher struct {
	got  []Record
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, records []Record) error {
	if p.fail {
		return errors.New("redis unavailable")
	}
	p.got = append(p.got, records...)
	return nil
}

func records(tenant string, n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{ID: int64(i + 1), Tenant: tenant, EventType: "treatment.concluded", AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	}
	return out
}

// -- Tests --

func TestRelayOnce(t *testing.T) {
	store := &fakeStore{
		tenants: []string{"sorriso", "vida"},
		pending: map[string][]Record{"sorriso": records("sorriso", 3), "vida": records("vida", 1)},
	}
	pub := &recordingPublisher{}
	r := NewRelay(store, pub, time.Second, zerolog.Nop())

	n, err := r.RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 || len(pub.got) != 4 {
		t.Errorf("expected 4 relayed, got %d (%d published)", n, len(pub.got))
	}
	if len(store.pending["sorriso"]) != 0 || len(store.pending["vida"]) != 0 {
		t.Error("expected every event marked published")
	}
}

func TestRelayOnce_DrainsInBatches(t *testing.T) {
	store := &fakeStore{tenants: []string{"sorriso"}, pending: map[string][]Record{"sorriso": records("sorriso", 5)}}
	r := NewRelay(store, &recordingPublisher{}, time.Second, zerolog.Nop())
	r.batch = 2

	n, _ := r.RelayOnce(context.Background())
	if n != 5 {
		t.Errorf("expected 5 relayed, got %d", n)
	}
	// 2 + 2 + 1
	if store.drains != 3 {
		t.Errorf("expected 3 drains, got %d", store.drains)
	}
}

func TestRelayOnce_PublishFailureKeepsEvents(t *testing.T) {
	store := &fakeStore{tenants: []string{"sorriso"}, pending: map[string][]Record{"sorriso": records("sorriso", 2)}}
	r := NewRelay(store, &recordingPublisher{fail: true}, time.Second, zerolog.Nop())

	n, err := r.RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("a failing tenant must not fail the pass: %v", err)
	}
	if n != 0 || len(store.pending["sorriso"]) != 2 {
		t.Errorf("expected events kept for redelivery, relayed %d", n)
	}
}

func TestRelayOnce_SkipsFailingTenant(t *testing.T) {
	store := &fakeStore{
		tenants: []string{"broken", "vida"},
		pending: map[string][]Record{"vida": records("vida", 1)},
		fail:    map[string]bool{"broken": true},
	}
	pub := &recordingPublisher{}
	n, _ := NewRelay(store, pub, time.Second, zerolog.Nop()).RelayOnce(context.Background())
	if n != 1 || pub.got[0].Tenant != "vida" {
		t.Errorf("expected vida relayed after broken tenant, got %d", n)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &fakeStore{pending: map[string][]Record{}}
	r := NewRelay(store, &recordingPublisher{}, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestPrune(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		tenants: []string{"sorriso", "broken", "vida"},
		fail:    map[string]bool{"broken": true},
		published: map[string][]time.Time{
			"sorriso": {now.Add(-10 * 24 * time.Hour), now.Add(-8 * 24 * time.Hour), now.Add(-time.Hour)},
			"vida":    {now.Add(-30 * 24 * time.Hour)},
		},
	}
	r := NewRelay(store, &recordingPublisher{}, time.Second, zerolog.Nop())
	r.now = func() time.Time { return now }

	n, err := r.Prune(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pruned, got %d", n)
	}
	if len(store.published["sorriso"]) != 1 || len(store.published["vida"]) != 0 {
		t.Errorf("unexpected remaining events %v", store.published)
	}
	if !store.cutoffs[0].Equal(now.Add(-DefaultRetention)) {
		t.Errorf("cutoff = %s", store.cutoffs[0])
	}
}

func TestPrune_Disabled(t *testing.T) {
	store := &fakeStore{tenants: []string{"sorriso"}, published: map[string][]time.Time{"sorriso": {time.Unix(0, 0)}}}
	r := NewRelay(store, &recordingPublisher{}, time.Second, zerolog.Nop())
	r.SetRetention(0)

	if n, _ := r.Prune(context.Background()); n != 0 || len(store.cutoffs) != 0 {
		t.Errorf("retention 0 must keep events, pruned %d", n)
	}
}
