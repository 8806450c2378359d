package geocode

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openmat/matdir/internal/domain"
	"github.com/openmat/matdir/internal/observability"
)

var zipKeyRe = regexp.MustCompile(`^\d{5}$`)

// Resolver implements domain.LocationResolver with three-tier resolution:
// the in-memory map (including terminal not-found entries), the durable
// store, then the network via the serialized queue. Normalized-equal keys
// in flight at the same time share one network call via singleflight.
type Resolver struct {
	locator Locator
	store   *Store // nil disables the durable tier
	queue   *Queue
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger

	mu  sync.Mutex
	mem map[string]memEntry
	sf  singleflight.Group
}

// memEntry is a settled lookup. found=false is terminal for the session:
// repeated misses do not re-trigger network calls.
type memEntry struct {
	coord domain.Coordinate
	found bool
}

// NewResolver wires the resolution tiers together. store may be nil.
func NewResolver(locator Locator, store *Store, queue *Queue, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		locator: locator,
		store:   store,
		queue:   queue,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		mem:     make(map[string]memEntry),
	}
}

// LookupZIP resolves a 5-digit ZIP. Anything else is NotFound immediately.
func (r *Resolver) LookupZIP(zip string, notify func()) (domain.Coordinate, domain.ResolveOutcome) {
	zip = strings.TrimSpace(zip)
	if !zipKeyRe.MatchString(zip) {
		return domain.Coordinate{}, domain.ResolveNotFound
	}
	return r.lookup(zip, func(ctx context.Context) (domain.Coordinate, bool, error) {
		return r.locator.LocateZIP(ctx, zip)
	}, notify)
}

// LookupCity resolves a city plus two-letter state.
func (r *Resolver) LookupCity(city, state string, notify func()) (domain.Coordinate, domain.ResolveOutcome) {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	if city == "" || state == "" {
		return domain.Coordinate{}, domain.ResolveNotFound
	}
	key := strings.ToLower(city) + "|" + strings.ToUpper(state)
	return r.lookup(key, func(ctx context.Context) (domain.Coordinate, bool, error) {
		return r.locator.LocateCity(ctx, city, state)
	}, notify)
}

type fetchFunc func(ctx context.Context) (domain.Coordinate, bool, error)

func (r *Resolver) lookup(key string, fetch fetchFunc, notify func()) (domain.Coordinate, domain.ResolveOutcome) {
	// Tier 1: memory.
	r.mu.Lock()
	e, ok := r.mem[key]
	r.mu.Unlock()
	if ok {
		r.metrics.GeocodeCache.WithLabelValues("memory", "hit").Inc()
		return e.outcome()
	}
	r.metrics.GeocodeCache.WithLabelValues("memory", "miss").Inc()

	// Tier 2: durable store. Only successful resolutions live here.
	if r.store != nil {
		c, found, err := r.store.Get(key)
		if err != nil {
			r.logger.Warn("durable geocode cache read failed", "key", key, "error", err)
		}
		if found {
			r.metrics.GeocodeCache.WithLabelValues("durable", "hit").Inc()
			r.mu.Lock()
			r.mem[key] = memEntry{coord: c, found: true}
			r.mu.Unlock()
			return c, domain.ResolveFound
		}
		r.metrics.GeocodeCache.WithLabelValues("durable", "miss").Inc()
	}

	// Tier 3: network, via the serialized queue. The caller gets Pending
	// now and its notify once the lookup settles.
	go r.resolveAsync(key, fetch, notify)
	return domain.Coordinate{}, domain.ResolvePending
}

// resolveAsync performs the network fetch for key exactly once across all
// concurrent callers and records the settled result in the memory map (and,
// on success, the durable store). Every caller's notify still fires.
func (r *Resolver) resolveAsync(key string, fetch fetchFunc, notify func()) {
	// Do's return values are irrelevant; the settled result lands in r.mem.
	r.sf.Do(key, func() (any, error) {
		// A caller can race past the memory tier just as a previous
		// flight settles; don't refetch what is already resolved.
		r.mu.Lock()
		_, done := r.mem[key]
		r.mu.Unlock()
		if done {
			return nil, nil
		}

		var (
			coord domain.Coordinate
			found bool
		)
		err := r.queue.Submit(context.Background(), func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()

			c, ok, ferr := fetch(ctx)
			if ferr != nil {
				// Failures become not-found, never errors: the
				// worst a broken geocoder does is hide rows.
				r.logger.Warn("geocode lookup failed", "key", key, "error", ferr)
				ok = false
			}
			coord, found = c, ok
		})
		if err != nil {
			// Queue shut down mid-lookup. Leave the key unresolved;
			// nothing to notify a caller about on the way down.
			return nil, nil
		}

		r.mu.Lock()
		r.mem[key] = memEntry{coord: coord, found: found}
		r.mu.Unlock()

		if found && r.store != nil {
			if perr := r.store.Put(key, coord); perr != nil {
				r.logger.Warn("persist geocode result failed", "key", key, "error", perr)
			}
		}
		return nil, nil
	})

	if notify != nil {
		notify()
	}
}

func (e memEntry) outcome() (domain.Coordinate, domain.ResolveOutcome) {
	if e.found {
		return e.coord, domain.ResolveFound
	}
	return domain.Coordinate{}, domain.ResolveNotFound
}
