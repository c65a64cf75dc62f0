// TrustGuardianHub | 2026
// service_test.go

package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/media"
)

type fakeRepo struct {
	reports  map[string]*Report
	comments map[string]*Comment
	likes    map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		reports:  make(map[string]*Report),
		comments: make(map[string]*Comment),
		likes:    make(map[string]bool),
	}
}

func (f *fakeRepo) Create(_ context.Context, report *Report) error {
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	clone := *report
	f.reports[report.ID] = &clone
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, fmt.Errorf("get report: %w", core.ErrNotFound)
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRepo) GetWithAuthor(
	ctx context.Context,
	id string,
) (*ReportWithAuthor, error) {
	r, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReportWithAuthor{Report: *r, AuthorUsername: "author"}, nil
}

func (f *fakeRepo) List(_ context.Context) ([]ReportWithAuthor, error) {
	var out []ReportWithAuthor
	for _, r := range f.reports {
		out = append(out, ReportWithAuthor{Report: *r})
	}
	return out, nil
}

func (f *fakeRepo) Update(
	_ context.Context,
	id string,
	patch ReportPatch,
) error {
	r, ok := f.reports[id]
	if !ok {
		return fmt.Errorf("update report: %w", core.ErrNotFound)
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.ImageList != nil {
		r.ImageList = *patch.ImageList
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.reports[id]; !ok {
		return fmt.Errorf("delete report: %w", core.ErrNotFound)
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeRepo) CreateComment(_ context.Context, c *Comment) error {
	c.CreatedAt = time.Now()
	clone := *c
	f.comments[c.ID] = &clone
	return nil
}

func (f *fakeRepo) CommentsForReport(
	_ context.Context,
	reportID string,
) ([]CommentWithAuthor, error) {
	var out []CommentWithAuthor
	for _, c := range f.comments {
		if c.ReportID == reportID {
			out = append(out, CommentWithAuthor{Comment: *c})
		}
	}
	return out, nil
}

func (f *fakeRepo) GetComment(
	_ context.Context,
	id string,
) (*Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	clone := *c
	return &clone, nil
}

func (f *fakeRepo) DeleteComment(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return fmt.Errorf("delete comment: %w", core.ErrNotFound)
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeRepo) Like(_ context.Context, reportID, userID string) error {
	key := reportID + ":" + userID
	if f.likes[key] {
		return fmt.Errorf("like report: %w", core.ErrDuplicateKey)
	}
	f.likes[key] = true
	return nil
}

func (f *fakeRepo) Unlike(_ context.Context, reportID, userID string) error {
	key := reportID + ":" + userID
	if !f.likes[key] {
		return fmt.Errorf("unlike report: %w", core.ErrNotFound)
	}
	delete(f.likes, key)
	return nil
}

func (f *fakeRepo) LikeCount(
	_ context.Context,
	reportID string,
) (int, error) {
	count := 0
	for key := range f.likes {
		if key[:len(reportID)] == reportID {
			count++
		}
	}
	return count, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *media.Store) {
	t.Helper()

	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)

	repo := newFakeRepo()
	return NewService(repo, store), repo, store
}

func writeStored(t *testing.T, store *media.Store, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(store.Dir(), name)
		require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	}
}

func TestCreateRequiresAtLeastOneImage(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "user-1", CreateReportRequest{
		Title:       "Pothole on Moi Avenue",
		Description: "Deep pothole near the junction",
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, repo.reports)
}

func TestCreateRejectsMoreThanFiveImages(t *testing.T) {
	svc, _, _ := newTestService(t)

	names := []string{"a", "b", "c", "d", "e", "f"}
	_, err := svc.Create(context.Background(), "user-1", CreateReportRequest{
		Title:       "Too many",
		Description: "images",
	}, names)

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateStoresDelimitedImageList(t *testing.T) {
	svc, repo, _ := newTestService(t)

	report, err := svc.Create(context.Background(), "user-1",
		CreateReportRequest{
			Title:       "Burst pipe",
			Description: "Water flooding the street",
		},
		[]string{"report-1.png", "report-2.png"},
	)
	require.NoError(t, err)
	assert.Len(t, report.ID, 10)
	assert.Equal(t, "report-1.png,report-2.png", report.ImageList)
	assert.Contains(t, repo.reports, report.ID)
}

func TestDeleteRemovesRowAndFiles(t *testing.T) {
	svc, repo, store := newTestService(t)

	writeStored(t, store, "report-1.png", "report-2.png")

	report, err := svc.Create(context.Background(), "user-1",
		CreateReportRequest{Title: "Fire", Description: "Market stall fire"},
		[]string{"report-1.png", "report-2.png"},
	)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "user-1", false, report.ID)
	require.NoError(t, err)

	assert.Empty(t, repo.reports)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteSucceedsWhenFilesAlreadyGone(t *testing.T) {
	svc, repo, _ := newTestService(t)

	report, err := svc.Create(context.Background(), "user-1",
		CreateReportRequest{Title: "Fire", Description: "Stall fire"},
		[]string{"ghost.png"},
	)
	require.NoError(t, err)

	// File was never on disk; the row delete must still be visible.
	err = svc.Delete(context.Background(), "user-1", false, report.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.reports)
}

func TestDeleteForbiddenForNonOwner(t *testing.T) {
	svc, repo, _ := newTestService(t)

	report, err := svc.Create(context.Background(), "user-1",
		CreateReportRequest{Title: "Fire", Description: "Stall fire"},
		[]string{"a.png"},
	)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "user-2", false, report.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Len(t, repo.reports, 1)

	// Admins may delete anyone's report.
	err = svc.Delete(context.Background(), "user-2", true, report.ID)
	require.NoError(t, err)
}

func TestUpdateReplacingImagesRemovesOldFiles(t *testing.T) {
	svc, _, store := newTestService(t)

	writeStored(t, store, "old.png")

	report, err := svc.Create(context.Background(), "user-1",
		CreateReportRequest{Title: "Flood", Description: "Rising water"},
		[]string{"old.png"},
	)
	require.NoError(t, err)

	newList := "new.png"
	updated, err := svc.Update(context.Background(), "user-1", false,
		report.ID, ReportPatch{ImageList: &newList})
	require.NoError(t, err)
	assert.Equal(t, "new.png", updated.ImageList)

	_, err = os.Stat(filepath.Join(store.Dir(), "old.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpdateEmptyPatchRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(
		context.Background(),
		"user-1",
		false,
		"r123456789",
		ReportPatch{},
	)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestDuplicateLikeRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.Like(context.Background(), "r1", "user-1"))

	err := svc.Like(context.Background(), "r1", "user-1")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestUnlikeWithoutLikeIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Unlike(context.Background(), "r1", "user-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteCommentOwnership(t *testing.T) {
	svc, repo, _ := newTestService(t)

	comment, err := svc.AddComment(
		context.Background(),
		"r1",
		"user-1",
		"stay safe",
	)
	require.NoError(t, err)
	assert.Len(t, comment.ID, 10)

	err = svc.DeleteComment(context.Background(), "user-2", false, comment.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.DeleteComment(context.Background(), "user-1", false, comment.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.comments)
}
