// Package duplicate detects camps a participant is already registered for,
// matched by last name and birth date. Lookups are debounced per wizard
// session so partially-typed fields never cause a request storm, and late
// responses are discarded by sequence number rather than arrival order.
package duplicate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"campreg/internal/catalog/models"
)

// Store answers which cohorts a participant already holds registrations for.
type Store interface {
	FindCohorts(ctx context.Context, lastName string, dateOfBirth time.Time) ([]models.Cohort, error)
}

const (
	defaultQuietPeriod  = 400 * time.Millisecond
	defaultFetchTimeout = 5 * time.Second
)

// Checker debounces existing-registration lookups keyed by wizard session.
type Checker struct {
	store  Store
	quiet  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	timer   *time.Timer
	issued  uint64 // highest sequence handed to a lookup; only its result may land
	cohorts []models.Cohort
	ready   bool
}

type Option func(*Checker)

// WithQuietPeriod overrides how long inputs must be stable before a lookup
// fires. Mostly for tests.
func WithQuietPeriod(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.quiet = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(store Store, opts ...Option) *Checker {
	c := &Checker{
		store:   store,
		quiet:   defaultQuietPeriod,
		logger:  slog.Default(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule (re)arms the debounced lookup for one session. Each call bumps the
// sequence; a pending timer is rewound, and a result is applied only if its
// sequence is still the highest issued, so an in-flight lookup for superseded
// inputs is discarded when it returns. Empty inputs clear the cached cohorts
// instead of querying.
func (c *Checker) Schedule(sessionKey, lastName string, dateOfBirth time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sessionKey]
	if !ok {
		e = &entry{}
		c.entries[sessionKey] = e
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.issued++
	seq := e.issued

	if lastName == "" || dateOfBirth.IsZero() {
		e.cohorts = nil
		e.ready = false
		return
	}

	e.timer = time.AfterFunc(c.quiet, func() {
		c.fetch(sessionKey, seq, lastName, dateOfBirth)
	})
}

func (c *Checker) fetch(sessionKey string, seq uint64, lastName string, dateOfBirth time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
	defer cancel()

	cohorts, err := c.store.FindCohorts(ctx, lastName, dateOfBirth)
	if err != nil {
		// A failed lookup keeps the previous result; prerequisite checks fall
		// back to the current selection only.
		c.logger.Warn("existing-registration lookup failed",
			"session", sessionKey,
			"error", err,
		)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionKey]
	if !ok || seq != e.issued {
		return // session torn down or the inputs were superseded meanwhile
	}
	e.cohorts = cohorts
	e.ready = true
}

// Cohorts returns the cached lookup result for a session. ready is false when
// no lookup has completed yet (or inputs were cleared); callers treat that as
// "no existing registrations known".
func (c *Checker) Cohorts(sessionKey string) (cohorts []models.Cohort, ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionKey]
	if !ok {
		return nil, false
	}
	return e.cohorts, e.ready
}

// Forget drops all state for a session, cancelling any pending lookup.
func (c *Checker) Forget(sessionKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[sessionKey]; ok && e.timer != nil {
		e.timer.Stop()
	}
	delete(c.entries, sessionKey)
}
