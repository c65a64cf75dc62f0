// TrustGuardianHub | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/media"
)

// fakeFollowRepo backs the follow graph only; the embedded interface panics
// on anything else so tests fail loudly on unexpected calls.
type fakeFollowRepo struct {
	Repository
	users map[string]*User
	edges map[string]bool
}

func newFakeFollowRepo(users ...*User) *fakeFollowRepo {
	f := &fakeFollowRepo{
		users: make(map[string]*User),
		edges: make(map[string]bool),
	}
	for _, u := range users {
		f.users[u.Username] = u
	}
	return f
}

func (f *fakeFollowRepo) GetByUsername(
	_ context.Context,
	username string,
) (*User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (f *fakeFollowRepo) Follow(
	_ context.Context,
	followerID, followingID string,
) error {
	key := followerID + ">" + followingID
	if f.edges[key] {
		return fmt.Errorf("follow: %w", core.ErrDuplicateKey)
	}
	f.edges[key] = true
	return nil
}

func (f *fakeFollowRepo) Unfollow(
	_ context.Context,
	followerID, followingID string,
) error {
	key := followerID + ">" + followingID
	if !f.edges[key] {
		return fmt.Errorf("unfollow: %w", core.ErrNotFound)
	}
	delete(f.edges, key)
	return nil
}

func newFollowService(t *testing.T, repo Repository) *Service {
	t.Helper()

	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)

	return NewService(repo, store)
}

func TestFollowTwiceSurfacesDuplicate(t *testing.T) {
	repo := newFakeFollowRepo(&User{ID: "u2", Username: "jane"})
	svc := newFollowService(t, repo)

	require.NoError(t, svc.Follow(context.Background(), "u1", "jane"))

	err := svc.Follow(context.Background(), "u1", "jane")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.Len(t, repo.edges, 1)
}

func TestFollowUnknownUser(t *testing.T) {
	repo := newFakeFollowRepo()
	svc := newFollowService(t, repo)

	err := svc.Follow(context.Background(), "u1", "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, repo.edges)
}

func TestUnfollowWhenNotFollowing(t *testing.T) {
	repo := newFakeFollowRepo(&User{ID: "u2", Username: "jane"})
	svc := newFollowService(t, repo)

	err := svc.Unfollow(context.Background(), "u1", "jane")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, repo.edges)
}

func TestUnfollowUnknownUserStaysNotFound(t *testing.T) {
	repo := newFakeFollowRepo()
	svc := newFollowService(t, repo)

	err := svc.Unfollow(context.Background(), "u1", "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NotErrorIs(t, err, core.ErrInvalidInput)
}

func TestFollowThenUnfollow(t *testing.T) {
	repo := newFakeFollowRepo(&User{ID: "u2", Username: "jane"})
	svc := newFollowService(t, repo)

	require.NoError(t, svc.Follow(context.Background(), "u1", "jane"))
	require.NoError(t, svc.Unfollow(context.Background(), "u1", "jane"))
	assert.Empty(t, repo.edges)
}
