package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pairprep/pairprep/internal/adapter/cache"
	"github.com/pairprep/pairprep/internal/domain"
)

// countingRepo tracks how often each repository method is hit.
type countingRepo struct {
	profile domain.Profile
	getErr  error

	gets    int
	updates int
}

func (r *countingRepo) GetByUserID(_ context.Context, userID string) (domain.Profile, error) {
	r.gets++
	if r.getErr != nil {
		return domain.Profile{}, r.getErr
	}
	p := r.profile
	p.UserID = userID
	return p, nil
}

func (r *countingRepo) Update(_ context.Context, _ domain.Profile) error {
	r.updates++
	return nil
}

func (r *countingRepo) Insert(_ context.Context, _ domain.Profile) error { return nil }
func (r *countingRepo) Upsert(_ context.Context, _ domain.Profile) error { return nil }
func (r *countingRepo) GetPartnerID(_ context.Context, _ string) (string, error) {
	return "", nil
}

func TestReadThrough_CachesReads(t *testing.T) {
	repo := &countingRepo{profile: domain.Profile{FirstName: "Ada"}}
	c := cache.New(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.GetByUserID(ctx, "u-1")
		if err != nil {
			t.Fatalf("GetByUserID: %v", err)
		}
		if p.FirstName != "Ada" {
			t.Errorf("FirstName = %q, want Ada", p.FirstName)
		}
	}

	if repo.gets != 1 {
		t.Errorf("backing gets = %d, want 1", repo.gets)
	}
}

func TestReadThrough_ErrorsAreNotCached(t *testing.T) {
	repo := &countingRepo{getErr: domain.ErrProfileNotFound}
	c := cache.New(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.GetByUserID(ctx, "u-1"); !errors.Is(err, domain.ErrProfileNotFound) {
			t.Fatalf("err = %v, want ErrProfileNotFound", err)
		}
	}
	if repo.gets != 2 {
		t.Errorf("backing gets = %d, want 2 (misses never cached)", repo.gets)
	}

	// Once the profile exists the next read goes through.
	repo.getErr = nil
	if _, err := c.GetByUserID(ctx, "u-1"); err != nil {
		t.Fatalf("GetByUserID after create: %v", err)
	}
}

func TestReadThrough_WriteInvalidates(t *testing.T) {
	repo := &countingRepo{profile: domain.Profile{FirstName: "Ada"}}
	c := cache.New(repo)
	ctx := context.Background()

	if _, err := c.GetByUserID(ctx, "u-1"); err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}

	repo.profile.FirstName = "Adeline"
	if err := c.Update(ctx, domain.Profile{UserID: "u-1"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.updates != 1 {
		t.Errorf("updates = %d, want pass-through", repo.updates)
	}

	p, err := c.GetByUserID(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if p.FirstName != "Adeline" {
		t.Errorf("FirstName = %q, want the post-update value", p.FirstName)
	}
}

func TestReadThrough_RefreshDropsAllEntries(t *testing.T) {
	repo := &countingRepo{profile: domain.Profile{FirstName: "Ada"}}
	c := cache.New(repo)
	ctx := context.Background()

	if _, err := c.GetByUserID(ctx, "u-1"); err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if _, err := c.GetByUserID(ctx, "u-2"); err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, err := c.GetByUserID(ctx, "u-1"); err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if repo.gets != 3 {
		t.Errorf("backing gets = %d, want 3 (refresh dropped the entry)", repo.gets)
	}
}

func TestReadThrough_PartnerIDNeverCached(t *testing.T) {
	repo := &countingRepo{}
	c := cache.New(repo)

	if _, err := c.GetPartnerID(context.Background(), "u-1"); err != nil {
		t.Fatalf("GetPartnerID: %v", err)
	}
}
