// TrustGuardianHub | 2026
// search_test.go

package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/core"
)

type fakeRepo struct {
	results []Result
	history []HistoryEntry
}

func (f *fakeRepo) Search(_ context.Context, query string) ([]Result, error) {
	var matched []Result
	for _, r := range f.results {
		if r.Label == query {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (f *fakeRepo) AppendHistory(
	_ context.Context,
	entry *HistoryEntry,
) error {
	entry.CreatedAt = time.Now()
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeRepo) History(
	_ context.Context,
	userID string,
	limit int,
) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for i := len(f.history) - 1; i >= 0 && len(entries) < limit; i-- {
		if f.history[i].UserID == userID {
			entries = append(entries, f.history[i])
		}
	}
	return entries, nil
}

func (f *fakeRepo) DeleteHistoryEntry(
	_ context.Context,
	userID, entryID string,
) error {
	for i, e := range f.history {
		if e.ID == entryID && e.UserID == userID {
			f.history = append(f.history[:i], f.history[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeRepo) ClearHistory(
	_ context.Context,
	userID string,
) (int64, error) {
	var kept []HistoryEntry
	var removed int64
	for _, e := range f.history {
		if e.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.history = kept
	return removed, nil
}

func TestSearchAppendsExactlyOneHistoryRow(t *testing.T) {
	repo := &fakeRepo{
		results: []Result{
			{Kind: "user", ID: "u1", Label: "flood"},
			{Kind: "report", ID: "r1", Label: "flood"},
			{Kind: "tag", ID: "t1", Label: "flood"},
		},
	}
	svc := NewService(repo)

	results, err := svc.Search(context.Background(), "user-1", "flood")
	require.NoError(t, err)
	assert.Len(t, results, 3)
	require.Len(t, repo.history, 1)
	assert.Equal(t, "flood", repo.history[0].Query)
	assert.Equal(t, "user-1", repo.history[0].UserID)
	assert.Len(t, repo.history[0].ID, 10)
}

func TestSearchWithNoMatchesStillLogsHistory(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	results, err := svc.Search(context.Background(), "user-1", "nothing")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Len(t, repo.history, 1)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.Search(context.Background(), "user-1", "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, repo.history)
}

func TestSearchTrimsQueryBeforeLogging(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.Search(context.Background(), "user-1", "  fire  ")
	require.NoError(t, err)
	require.Len(t, repo.history, 1)
	assert.Equal(t, "fire", repo.history[0].Query)
}

func TestHistoryScopedToUser(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.Search(context.Background(), "user-1", "one")
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "user-2", "two")
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "one", entries[0].Query)
}

func TestClearHistory(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	for _, q := range []string{"a", "b", "c"} {
		_, err := svc.Search(context.Background(), "user-1", q)
		require.NoError(t, err)
	}

	removed, err := svc.ClearHistory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	entries, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEscapeLikePatterns(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
}
