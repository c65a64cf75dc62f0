// TrustGuardianHub | 2026
// service.go

package report

import (
	"context"
	"fmt"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/media"
)

const (
	reportIDLength  = 10
	commentIDLength = 10

	MinImages = 1
	MaxImages = 5
)

type Service struct {
	repo  Repository
	media *media.Store
}

func NewService(repo Repository, mediaStore *media.Store) *Service {
	return &Service{repo: repo, media: mediaStore}
}

// Detail bundles a report with its comments and like count.
type Detail struct {
	Report   *ReportWithAuthor
	Comments []CommentWithAuthor
	Likes    int
}

// Create persists a new report. imageNames are already-stored filenames; the
// handler saves uploads before calling here and cleans them up on failure.
func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateReportRequest,
	imageNames []string,
) (*Report, error) {
	if len(imageNames) < MinImages || len(imageNames) > MaxImages {
		return nil, fmt.Errorf(
			"report requires %d to %d images, got %d: %w",
			MinImages,
			MaxImages,
			len(imageNames),
			core.ErrInvalidInput,
		)
	}

	id, err := core.NewShortID(reportIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate report id: %w", err)
	}

	report := &Report{
		ID:          id,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		ImageList:   media.JoinImageList(imageNames),
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *Service) List(ctx context.Context) ([]ReportWithAuthor, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	report, err := s.repo.GetWithAuthor(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.CommentsForReport(ctx, id)
	if err != nil {
		return nil, err
	}

	likes, err := s.repo.LikeCount(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Detail{Report: report, Comments: comments, Likes: likes}, nil
}

// Update applies the patch after an ownership check. When the patch replaces
// the image list the previous files are removed best-effort afterwards.
func (s *Service) Update(
	ctx context.Context,
	callerID string,
	callerIsAdmin bool,
	id string,
	patch ReportPatch,
) (*Report, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf(
			"update report: no fields to update: %w",
			core.ErrInvalidInput,
		)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.UserID != callerID && !callerIsAdmin {
		return nil, fmt.Errorf("update report: %w", core.ErrForbidden)
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	if patch.ImageList != nil {
		s.media.RemoveAll(current.ImageList)
	}

	return s.repo.GetByID(ctx, id)
}

// Delete removes the row first so the deletion is always visible to callers,
// then clears the image files best-effort.
func (s *Service) Delete(
	ctx context.Context,
	callerID string,
	callerIsAdmin bool,
	id string,
) error {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if report.UserID != callerID && !callerIsAdmin {
		return fmt.Errorf("delete report: %w", core.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.media.RemoveAll(report.ImageList)

	return nil
}

func (s *Service) AddComment(
	ctx context.Context,
	reportID, userID, content string,
) (*Comment, error) {
	id, err := core.NewShortID(commentIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate comment id: %w", err)
	}

	comment := &Comment{
		ID:       id,
		ReportID: reportID,
		UserID:   userID,
		Content:  content,
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *Service) DeleteComment(
	ctx context.Context,
	callerID string,
	callerIsAdmin bool,
	commentID string,
) error {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != callerID && !callerIsAdmin {
		return fmt.Errorf("delete comment: %w", core.ErrForbidden)
	}

	return s.repo.DeleteComment(ctx, commentID)
}

func (s *Service) Like(ctx context.Context, reportID, userID string) error {
	return s.repo.Like(ctx, reportID, userID)
}

func (s *Service) Unlike(ctx context.Context, reportID, userID string) error {
	return s.repo.Unlike(ctx, reportID, userID)
}
