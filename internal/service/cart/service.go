// Package cart holds the shopping cart of one browser session.
package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/kv"
	"github.com/shopspring/decimal"
)

// StorageKey is the session key holding the serialized item list.
const StorageKey = "cart"

// DefaultNotificationTimeout is how long the "item added" notice stays up.
const DefaultNotificationTimeout = 5 * time.Second

// MaxQuantity bounds the quantity of a single line.
const MaxQuantity = 999

var ErrInvalidItem = errors.New("invalid cart item")

type Options struct {
	Logger              *log.Logger
	NotificationTimeout time.Duration
}

// Store is the cart of a single session. The in-memory item list is
// authoritative; every mutation is mirrored to the key-value store and
// write failures are logged rather than returned.
type Store struct {
	mu          sync.Mutex
	kv          kv.Store
	logger      *log.Logger
	notifyAfter time.Duration

	items      []domain.CartLineItem
	lastAdded  *domain.CartLineItem
	notifyGen  uint64
	timer      *time.Timer
	open       bool
	persistErr error
}

// Snapshot is a consistent read of the cart state.
type Snapshot struct {
	Items     []domain.CartLineItem
	Total     decimal.Decimal
	ItemCount int
	LastAdded *domain.CartLineItem
	Open      bool
	Warning   error
}

// Load restores the cart stored for the session. An unreadable stored cart
// is logged and replaced by an empty one.
func Load(ctx context.Context, store kv.Store, opts Options) *Store {
	s := &Store{
		kv:          store,
		logger:      opts.Logger,
		notifyAfter: opts.NotificationTimeout,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.notifyAfter <= 0 {
		s.notifyAfter = DefaultNotificationTimeout
	}

	var items []domain.CartLineItem
	err := kv.GetJSON(ctx, store, StorageKey, &items)
	switch {
	case err == nil:
		s.items = sanitize(items)
	case errors.Is(err, kv.ErrNotFound):
	default:
		s.logger.Printf("cart: load error=%v", err)
	}
	return s
}

// AddItem merges candidate into the cart: an existing line with the same id
// gains candidate's quantity, otherwise candidate is appended. The candidate
// becomes the "last added" notification either way. A line may not exceed
// MaxQuantity; such an add leaves the cart unchanged.
func (s *Store) AddItem(ctx context.Context, candidate domain.CartLineItem) error {
	if strings.TrimSpace(candidate.ID) == "" || candidate.Price.IsNegative() || candidate.Quantity > MaxQuantity {
		return ErrInvalidItem
	}
	if candidate.Quantity <= 0 {
		candidate.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(candidate.ID); idx >= 0 {
		if s.items[idx].Quantity > MaxQuantity-candidate.Quantity {
			return ErrInvalidItem
		}
		s.items[idx].Quantity += candidate.Quantity
	} else {
		s.items = append(s.items, candidate)
	}
	s.notify(candidate)
	s.persist(ctx)
	return nil
}

// UpdateQuantity sets the quantity of line id; a quantity <= 0 removes it.
// Unknown ids are ignored. Quantities above MaxQuantity are rejected.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity > MaxQuantity {
		return ErrInvalidItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	if quantity <= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	} else {
		s.items[idx].Quantity = quantity
	}
	s.persist(ctx)
	return nil
}

// RemoveItem drops line id if present.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist(ctx)
}

// Clear empties the cart and removes it from durable storage.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		s.logger.Printf("cart: clear error=%v", err)
		s.persistErr = err
		return
	}
	s.persistErr = nil
}

// Total is the exact sum of price*quantity; rounding is a display concern.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total()
}

// ItemCount is the sum of quantities across lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

// LastAdded returns the pending "item added" notification, if any.
func (s *Store) LastAdded() *domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastAdded == nil {
		return nil
	}
	item := *s.lastAdded
	return &item
}

// DismissNotification clears the "item added" notification early.
func (s *Store) DismissNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismiss()
}

// ViewCart opens the cart panel from the notification.
func (s *Store) ViewCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.dismiss()
}

// SetOpen shows or hides the cart panel.
func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
}

// IsOpen reports whether the cart panel is shown.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// LastPersistError reports the most recent storage failure, nil once a later
// write succeeds.
func (s *Store) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// Snapshot reads the whole cart state under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Items:     s.copyItems(),
		Total:     s.total(),
		ItemCount: s.count(),
		Open:      s.open,
		Warning:   s.persistErr,
	}
	if s.lastAdded != nil {
		item := *s.lastAdded
		snap.LastAdded = &item
	}
	return snap
}

// Close stops the notification timer.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismiss()
}

func (s *Store) notify(item domain.CartLineItem) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.notifyGen++
	gen := s.notifyGen
	s.lastAdded = &item
	s.timer = time.AfterFunc(s.notifyAfter, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.notifyGen == gen {
			s.lastAdded = nil
			s.timer = nil
		}
	})
}

func (s *Store) dismiss() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.notifyGen++
	s.lastAdded = nil
}

func (s *Store) persist(ctx context.Context) {
	if err := kv.SetJSON(ctx, s.kv, StorageKey, s.items); err != nil {
		s.logger.Printf("cart: persist items=%d error=%v", len(s.items), err)
		s.persistErr = err
		return
	}
	s.persistErr = nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s *Store) count() int {
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) copyItems() []domain.CartLineItem {
	out := make([]domain.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// sanitize enforces cart invariants on data read back from storage.
func sanitize(items []domain.CartLineItem) []domain.CartLineItem {
	out := make([]domain.CartLineItem, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		if item.Quantity > MaxQuantity {
			item.Quantity = MaxQuantity
		}
		if idx, ok := seen[item.ID]; ok {
			out[idx].Quantity = min(out[idx].Quantity+item.Quantity, MaxQuantity)
			continue
		}
		seen[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}
