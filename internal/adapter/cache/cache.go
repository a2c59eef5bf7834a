// Package cache provides an in-memory read-through decorator for the
// profile repository. Reads are served from memory when possible; writes
// pass through and invalidate. Refresh drops every cached entry so the
// next read observes the durable store.
package cache

import (
	"context"
	"sync"

	"github.com/pairprep/pairprep/internal/domain"
)

// Compile-time checks: ReadThrough is both a repository decorator and the
// cache the submission pipeline refreshes.
var (
	_ domain.ProfileRepository = (*ReadThrough)(nil)
	_ domain.ProfileCache      = (*ReadThrough)(nil)
)

// ReadThrough caches profiles by user ID in front of another repository.
type ReadThrough struct {
	next domain.ProfileRepository

	mu     sync.RWMutex
	byUser map[string]domain.Profile
}

// New creates a read-through cache around the given repository.
func New(next domain.ProfileRepository) *ReadThrough {
	return &ReadThrough{
		next:   next,
		byUser: make(map[string]domain.Profile),
	}
}

func (c *ReadThrough) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	c.mu.RLock()
	p, ok := c.byUser[userID]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := c.next.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	c.mu.Lock()
	c.byUser[userID] = p
	c.mu.Unlock()
	return p, nil
}

func (c *ReadThrough) Update(ctx context.Context, p domain.Profile) error {
	err := c.next.Update(ctx, p)
	c.invalidate(p.UserID)
	return err
}

func (c *ReadThrough) Insert(ctx context.Context, p domain.Profile) error {
	err := c.next.Insert(ctx, p)
	c.invalidate(p.UserID)
	return err
}

func (c *ReadThrough) Upsert(ctx context.Context, p domain.Profile) error {
	err := c.next.Upsert(ctx, p)
	c.invalidate(p.UserID)
	return err
}

// GetPartnerID is never cached; partner links are written externally.
func (c *ReadThrough) GetPartnerID(ctx context.Context, userID string) (string, error) {
	return c.next.GetPartnerID(ctx, userID)
}

// Refresh drops all cached entries.
func (c *ReadThrough) Refresh(_ context.Context) error {
	c.mu.Lock()
	c.byUser = make(map[string]domain.Profile)
	c.mu.Unlock()
	return nil
}

func (c *ReadThrough) invalidate(userID string) {
	c.mu.Lock()
	delete(c.byUser, userID)
	c.mu.Unlock()
}
