// Package cache holds derived read results keyed by class, owner and
// parameters, with per-class freshness and explicit invalidation.
package cache

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const refreshTimeout = 30 * time.Second

// Key identifies one cached result. Owner is the user the data belongs to
// ("" for shared data); Params encodes the remaining inputs.
type Key struct {
	Class  Class
	Owner  string
	Params string
}

func NewKey(class Class, owner string, params ...any) Key {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return Key{Class: class, Owner: owner, Params: strings.Join(parts, "|")}
}

func (k Key) String() string {
	return string(k.Class) + "/" + k.Owner + "/" + k.Params
}

// Observer receives cache events; the metrics package implements it.
type Observer interface {
	CacheHit(class string)
	CacheStale(class string)
	CacheMiss(class string)
	CacheInvalidated(class string)
}

type entry struct {
	value   any
	fetched time.Time
}

type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	gens     map[Class]uint64
	policies map[Class]Policy
	group    singleflight.Group
	now      func() time.Time
	observer Observer
	logger   zerolog.Logger
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func WithObserver(o Observer) Option { return func(c *Cache) { c.observer = o } }

func WithLogger(l zerolog.Logger) Option { return func(c *Cache) { c.logger = l } }

func WithPolicies(p map[Class]Policy) Option { return func(c *Cache) { c.policies = p } }

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[Key]*entry),
		gens:     make(map[Class]uint64),
		policies: DefaultPolicies,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fetchFunc func(ctx context.Context) (any, error)

// Fetch returns the cached value for key or loads it with fetch.
// A nil cache always calls fetch.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}
	v, err := c.get(ctx, key, func(ctx context.Context) (any, error) { return fetch(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// FetchSlice is Fetch for slices; every caller gets its own copy.
func FetchSlice[E any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) ([]E, error)) ([]E, error) {
	v, err := Fetch(ctx, c, key, fetch)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(v)
	if out == nil {
		out = []E{}
	}
	return out, nil
}

func (c *Cache) get(ctx context.Context, key Key, fetch fetchFunc) (any, error) {
	pol := c.policy(key.Class)
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		age := now.Sub(e.fetched)
		switch {
		case age < pol.Fresh:
			c.mu.Unlock()
			c.observe(key.Class, "hit")
			return e.value, nil
		case age < pol.Retained:
			gen := c.gens[key.Class]
			c.mu.Unlock()
			c.observe(key.Class, "stale")
			if pol.Revalidate {
				go c.refresh(key, gen, fetch)
			}
			return e.value, nil
		default:
			delete(c.entries, key)
		}
	}
	gen := c.gens[key.Class]
	c.mu.Unlock()

	c.observe(key.Class, "miss")
	// The flight is shared, so it must outlive the caller that started it.
	// Each caller still stops waiting when its own ctx is done.
	ch := c.group.DoChan(flightKey(key, gen), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, v)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) refresh(key Key, gen uint64, fetch fetchFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	_, err, _ := c.group.Do(flightKey(key, gen), func() (any, error) {
		if c.fresh(key) {
			return nil, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, v)
		return v, nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("background refresh failed")
	}
}

func (c *Cache) fresh(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && c.now().Sub(e.fetched) < c.policy(key.Class).Fresh
}

// store keeps v unless the class was invalidated after the fetch started.
func (c *Cache) store(key Key, gen uint64, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key.Class] != gen {
		return
	}
	c.entries[key] = &entry{value: v, fetched: c.now()}
}

// Invalidate drops every entry of the given classes, whatever the owner or
// parameters, and discards fetches already in flight for them.
func (c *Cache) Invalidate(classes ...Class) {
	if c == nil {
		return
	}
	c.mu.Lock()
	for _, cls := range classes {
		c.gens[cls]++
	}
	for k := range c.entries {
		if slices.Contains(classes, k.Class) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()

	for _, cls := range classes {
		c.observe(cls, "invalidate")
	}
}

// Apply invalidates the classes a mutation is declared to affect.
func (c *Cache) Apply(m Mutation) {
	if c == nil {
		return
	}
	classes, ok := Invalidations[m]
	if !ok {
		c.logger.Warn().Str("mutation", string(m)).Msg("mutation has no invalidation entry")
		return
	}
	c.Invalidate(classes...)
}

// Prune removes entries past their retention window.
func (c *Cache) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.fetched) >= c.policy(k.Class).Retained {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Run prunes periodically until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Prune(); n > 0 {
				c.logger.Debug().Int("removed", n).Msg("pruned cache entries")
			}
		}
	}
}

// Len reports the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) policy(cls Class) Policy {
	if p, ok := c.policies[cls]; ok {
		return p
	}
	return ownerScoped
}

func (c *Cache) observe(cls Class, event string) {
	if c.observer == nil {
		return
	}
	switch event {
	case "hit":
		c.observer.CacheHit(string(cls))
	case "stale":
		c.observer.CacheStale(string(cls))
	case "miss":
		c.observer.CacheMiss(string(cls))
	case "invalidate":
		c.observer.CacheInvalidated(string(cls))
	}
}

func flightKey(k Key, gen uint64) string {
	return fmt.Sprintf("%s#%d", k.String(), gen)
}
