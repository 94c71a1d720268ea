package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Store reads pending events per tenant. Drain hands at most limit pending
// events of one tenant to publish and marks them published only when publish
// succeeds. Prune deletes events of a tenant published before cutoff.
type Store interface {
	Tenants(ctx context.Context) ([]string, error)
	Drain(ctx context.Context, tenant string, limit int, publish func(context.Context, []Record) error) (int, error)
	Prune(ctx context.Context, tenant string, cutoff time.Time) (int64, error)
}

// DefaultRetention is how long published events are kept.
const DefaultRetention = 7 * 24 * time.Hour

const pruneEvery = time.Hour

type Publisher interface {
	Publish(ctx context.Context, records []Record) error
}

// Relay moves committed outbox events to a Publisher.
type Relay struct {
	store     Store
	publisher Publisher
	batch     int
	interval  time.Duration
	retention time.Duration
	lastPrune time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

func NewRelay(store Store, publisher Publisher, interval time.Duration, logger zerolog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		batch:     100,
		interval:  interval,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    logger.With().Str("component", "outbox-relay").Logger(),
	}
}

// SetRetention changes how long published events are kept. Zero or less
// keeps them forever.
func (r *Relay) SetRetention(d time.Duration) { r.retention = d }

// Prune deletes published events older than the retention from every
// tenant and returns how many were removed.
func (r *Relay) Prune(ctx context.Context) (int64, error) {
	if r.retention <= 0 {
		return 0, nil
	}
	tenants, err := r.store.Tenants(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := r.now().Add(-r.retention)
	var total int64
	for _, tenant := range tenants {
		n, err := r.store.Prune(ctx, tenant, cutoff)
		if err != nil {
			r.logger.Error().Err(err).Str("tenant", tenant).Msg("prune failed")
			continue
		}
		total += n
	}
	return total, nil
}

// RelayOnce drains every tenant once and returns the number of events
// published. A failing tenant is logged and skipped.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	tenants, err := r.store.Tenants(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, tenant := range tenants {
		for {
			n, err := r.store.Drain(ctx, tenant, r.batch, r.publisher.Publish)
			if err != nil {
				r.logger.Error().Err(err).Str("tenant", tenant).Msg("relay failed")
				break
			}
			total += n
			if n < r.batch {
				break
			}
		}
	}
	return total, nil
}

// Run relays on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("outbox relay started")
	for {
		n, err := r.RelayOnce(ctx)
		if err != nil {
			r.logger.Error().Err(err).Msg("list tenants")
		} else if n > 0 {
			r.logger.Debug().Int("events", n).Msg("relayed")
		}
		if now := r.now(); now.Sub(r.lastPrune) >= pruneEvery {
			r.lastPrune = now
			if n, err := r.Prune(ctx); err != nil {
				r.logger.Error().Err(err).Msg("prune outbox")
			} else if n > 0 {
				r.logger.Info().Int64("events", n).Msg("pruned published events")
			}
		}
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}
