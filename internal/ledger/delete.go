package ledger

import (
	"context"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/google/uuid"
)

// PendingDelete is an unconfirmed delete request.
type PendingDelete struct {
	Token        string
	Subscription model.Subscription
}

// RequestDelete starts a delete. Nothing is removed until Confirm.
func (r *Repository) RequestDelete(id string) (PendingDelete, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return PendingDelete{}, ErrNotFound
	}
	token := uuid.New().String()
	r.pending[token] = id
	return PendingDelete{Token: token, Subscription: r.subs[i]}, nil
}

// Confirm settles a delete request by removing the subscription. If the
// subscription is already gone the confirm is a no-op.
func (r *Repository) Confirm(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.pending[token]
	if !ok {
		return ErrTokenUsed
	}
	if err := r.removeLocked(ctx, id); err != nil {
		return err
	}
	delete(r.pending, token)
	return nil
}

// Cancel settles a delete request without removing anything.
func (r *Repository) Cancel(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[token]; !ok {
		return ErrTokenUsed
	}
	delete(r.pending, token)
	return nil
}
