// Package session owns the per-visitor state: one cart and one checkout
// pipeline per session id, loaded from the session store on first use.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"florist-storefront/internal/kv"
	"florist-storefront/internal/service/cart"
	"florist-storefront/internal/service/checkout"
)

var ErrInvalidSession = errors.New("invalid session")

const DefaultIdleTimeout = 30 * time.Minute

type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Pipeline
}

type Options struct {
	Logger              *log.Logger
	NotificationTimeout time.Duration
	IdleTimeout         time.Duration
	Checkout            checkout.Deps
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

type Manager struct {
	store  kv.Store
	opts   Options
	logger *log.Logger
	now    func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(store kv.Store, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Checkout.Logger == nil {
		opts.Checkout.Logger = opts.Logger
	}
	return &Manager{
		store:    store,
		opts:     opts,
		logger:   opts.Logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Issue mints a new session id. Nothing is loaded until the id is used.
func (m *Manager) Issue() string {
	return uuid.NewString()
}

// Get returns the session for id, loading its cart from the store the
// first time it is seen. Concurrent first requests share one load.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidSession
	}
	id = parsed.String()

	if s := m.cached(id); s != nil {
		return s, nil
	}

	v, err, _ := m.group.Do(id, func() (any, error) {
		if s := m.cached(id); s != nil {
			return s, nil
		}
		s := m.load(context.WithoutCancel(ctx), id)
		m.mu.Lock()
		m.sessions[id] = &entry{session: s, lastSeen: m.now()}
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *Manager) cached(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil
	}
	e.lastSeen = m.now()
	return e.session
}

func (m *Manager) load(ctx context.Context, id string) *Session {
	scoped := kv.SessionScope(m.store, id)
	c := cart.Load(ctx, scoped, cart.Options{
		Logger:              m.logger,
		NotificationTimeout: m.opts.NotificationTimeout,
	})
	m.logger.Printf("session: loaded id=%s items=%d", id, c.ItemCount())
	return &Session{
		ID:       id,
		Cart:     c,
		Checkout: checkout.New(scoped, c, m.opts.Checkout),
	}
}

// Sweep drops sessions idle for longer than the idle timeout. Their state
// stays in the store and is reloaded on the next request.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.opts.IdleTimeout)
	var evicted []*Session

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Cart.Close()
	}
	if len(evicted) > 0 {
		m.logger.Printf("session: evicted %d idle sessions", len(evicted))
	}
	return len(evicted)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops every cart timer and forgets all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.session.Cart.Close()
	}
}
