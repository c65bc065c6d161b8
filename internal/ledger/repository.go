// Package ledger owns the subscription collection and its persistence.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"

	"github.com/google/uuid"
)

// StorageKey is the fixed key the collection is persisted under.
const StorageKey = "subscriptions"

var (
	// ErrNotFound indicates no subscription matches the given id.
	ErrNotFound = errors.New("ledger: subscription not found")
	// ErrAmbiguousID indicates an id prefix matches more than one subscription.
	ErrAmbiguousID = errors.New("ledger: id prefix matches several subscriptions")
	// ErrTokenUsed indicates a delete token was already confirmed or cancelled.
	ErrTokenUsed = errors.New("ledger: delete request already settled")
	// ErrDuplicateID indicates two records share an id.
	ErrDuplicateID = errors.New("ledger: duplicate subscription id")
	// ErrCorrupt indicates stored state that cannot be decoded into valid records.
	ErrCorrupt = errors.New("ledger: stored subscriptions are corrupt")
)

// Options configures a Repository.
type Options struct {
	Logger *slog.Logger
	// NewID overrides id generation. Tests use it for deterministic ids.
	NewID func() string
}

// Repository holds the ordered subscription collection and mirrors every
// change to a key-value store.
type Repository struct {
	kv    store.KV
	log   *slog.Logger
	newID func() string

	mu      sync.RWMutex
	subs    []model.Subscription
	version uint64
	pending map[string]string // delete token -> subscription id
}

// Open rehydrates a repository from kv. Missing or unreadable state yields
// an empty collection rather than an error.
func Open(ctx context.Context, kv store.KV, opts Options) *Repository {
	r := &Repository{
		kv:      kv,
		log:     opts.Logger,
		newID:   opts.NewID,
		pending: make(map[string]string),
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "ledger")
	if r.newID == nil {
		r.newID = func() string { return uuid.New().String() }
	}

	subs, err := Load(ctx, kv)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.log.Debug("no stored subscriptions, starting empty")
	case errors.Is(err, ErrCorrupt):
		r.log.Warn("stored subscriptions corrupt, starting empty", "error", err)
	case err != nil:
		r.log.Error("reading stored subscriptions failed, starting empty", "error", err)
	default:
		r.subs = subs
		r.log.Debug("loaded subscriptions", "count", len(subs))
	}
	return r
}

// Load decodes the persisted collection without building a repository.
// It returns store.ErrNotFound when nothing has been stored yet.
func Load(ctx context.Context, kv store.KV) ([]model.Subscription, error) {
	data, err := kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, err
	}
	var subs []model.Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := checkCollection(subs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return subs, nil
}

func checkCollection(subs []model.Subscription) error {
	seen := make(map[string]struct{}, len(subs))
	for i, s := range subs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("ledger: record %d: %w", i, err)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// List returns a snapshot of the collection in insertion order.
func (r *Repository) List() []model.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

// Len returns the number of stored subscriptions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Version increases by one on every effective mutation.
func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Resolve finds the single subscription whose id equals or starts with prefix.
func (r *Repository) Resolve(prefix string) (model.Subscription, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return model.Subscription{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(prefix); i >= 0 {
		return r.subs[i], nil
	}
	var (
		match model.Subscription
		n     int
	)
	for _, s := range r.subs {
		if strings.HasPrefix(s.ID, prefix) {
			match = s
			n++
		}
	}
	switch n {
	case 0:
		return model.Subscription{}, ErrNotFound
	case 1:
		return match, nil
	}
	return model.Subscription{}, fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
}

// Add validates d, assigns a fresh id, appends and persists. A validation
// or persistence failure leaves the collection unchanged.
func (r *Repository) Add(ctx context.Context, d model.Draft) (model.Subscription, error) {
	if err := d.Validate(); err != nil {
		return model.Subscription{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub := model.Subscription{
		ID:         r.newID(),
		Name:       strings.TrimSpace(d.Name),
		Price:      d.Price,
		DayOfMonth: d.DayOfMonth,
		Category:   d.Category,
		Color:      d.Color,
	}
	if r.indexOf(sub.ID) >= 0 {
		return model.Subscription{}, fmt.Errorf("%w: %s", ErrDuplicateID, sub.ID)
	}

	next := append(r.snapshotLocked(), sub)
	if err := r.persistLocked(ctx, next); err != nil {
		return model.Subscription{}, err
	}
	r.subs = next
	r.version++
	r.log.Info("subscription added", "id", sub.ID, "name", sub.Name, "price", sub.Price.String())
	return sub, nil
}

// AddAll adds every draft in order with a single persist. If any draft is
// invalid nothing is added; the error names the first bad draft.
func (r *Repository) AddAll(ctx context.Context, drafts []model.Draft) ([]model.Subscription, error) {
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("ledger: draft %d (%s): %w", i+1, strings.TrimSpace(d.Name), err)
		}
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.snapshotLocked()
	added := make([]model.Subscription, 0, len(drafts))
	seen := make(map[string]struct{}, len(drafts))
	for _, d := range drafts {
		sub := model.Subscription{
			ID:         r.newID(),
			Name:       strings.TrimSpace(d.Name),
			Price:      d.Price,
			DayOfMonth: d.DayOfMonth,
			Category:   d.Category,
			Color:      d.Color,
		}
		if _, dup := seen[sub.ID]; dup || r.indexOf(sub.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, sub.ID)
		}
		seen[sub.ID] = struct{}{}
		next = append(next, sub)
		added = append(added, sub)
	}

	if err := r.persistLocked(ctx, next); err != nil {
		return nil, err
	}
	r.subs = next
	r.version++
	r.log.Info("subscriptions added", "count", len(added))
	return added, nil
}

// Remove deletes the subscription with id. Removing an absent id is a no-op.
func (r *Repository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(ctx, id)
}

func (r *Repository) removeLocked(ctx context.Context, id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return nil
	}

	next := make([]model.Subscription, 0, len(r.subs)-1)
	next = append(next, r.subs[:i]...)
	next = append(next, r.subs[i+1:]...)
	if err := r.persistLocked(ctx, next); err != nil {
		return err
	}
	r.subs = next
	r.version++
	r.log.Info("subscription removed", "id", id)
	return nil
}

// Replace swaps the whole collection, keeping the records' ids. Every record
// must be valid and ids must be unique.
func (r *Repository) Replace(ctx context.Context, subs []model.Subscription) error {
	if err := checkCollection(subs); err != nil {
		return err
	}
	next := make([]model.Subscription, len(subs))
	copy(next, subs)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.persistLocked(ctx, next); err != nil {
		return err
	}
	r.subs = next
	r.version++
	r.pending = make(map[string]string)
	r.log.Info("subscriptions replaced", "count", len(next))
	return nil
}

func (r *Repository) indexOf(id string) int {
	for i, s := range r.subs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) snapshotLocked() []model.Subscription {
	out := make([]model.Subscription, len(r.subs), len(r.subs)+1)
	copy(out, r.subs)
	return out
}

func (r *Repository) persistLocked(ctx context.Context, subs []model.Subscription) error {
	if subs == nil {
		subs = []model.Subscription{}
	}
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("ledger: encoding subscriptions: %w", err)
	}
	if err := r.kv.Put(ctx, StorageKey, data); err != nil {
		r.log.Error("persisting subscriptions failed", "error", err)
		return fmt.Errorf("ledger: persisting subscriptions: %w", err)
	}
	return nil
}
