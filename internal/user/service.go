// TrustGuardianHub | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trustguardianhub/backend/internal/auth"
	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/media"
)

const userIDLength = 10

type Service struct {
	repo  Repository
	media *media.Store
}

func NewService(repo Repository, mediaStore *media.Store) *Service {
	return &Service{repo: repo, media: mediaStore}
}

// Profile is the assembled public profile view before URL shaping.
type Profile struct {
	User           *User
	FollowersCount int
	FollowingCount int
	IsFollowing    bool
	Reports        []ProfileReport
}

// GetProfile loads a user's public profile by username. viewerID may be
// empty for anonymous viewers; IsFollowing is false in that case.
func (s *Service) GetProfile(
	ctx context.Context,
	username, viewerID string,
) (*Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	followers, following, err := s.repo.FollowCounts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != "" && viewerID != user.ID {
		isFollowing, err = s.repo.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}

	reports, err := s.repo.ReportsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:           user,
		FollowersCount: followers,
		FollowingCount: following,
		IsFollowing:    isFollowing,
		Reports:        reports,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies the patch and removes any replaced images from disk
// after the row update succeeds.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	patch ProfilePatch,
) (*User, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf(
			"update profile: no fields to update: %w",
			core.ErrInvalidInput,
		)
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		lowered := strings.ToLower(*patch.Email)
		patch.Email = &lowered
	}

	if err := s.repo.UpdateProfile(ctx, userID, patch); err != nil {
		return nil, err
	}

	if patch.ProfileImage != nil && current.ProfileImage != "" {
		s.media.Remove(current.ProfileImage)
	}
	if patch.CoverImage != nil && current.CoverImage != "" {
		s.media.Remove(current.CoverImage)
	}

	return s.repo.GetByID(ctx, userID)
}

// DeleteAccount removes the user row (report rows cascade) and then clears
// the user's images from disk. Disk cleanup is best-effort; the account is
// gone once the row delete commits.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	reports, err := s.repo.ReportsForUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	s.media.Remove(user.ProfileImage)
	s.media.Remove(user.CoverImage)
	for _, report := range reports {
		s.media.RemoveAll(report.ImageList)
	}

	return nil
}

func (s *Service) Follow(
	ctx context.Context,
	followerID, targetUsername string,
) error {
	target, err := s.repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	return s.repo.Follow(ctx, followerID, target.ID)
}

func (s *Service) Unfollow(
	ctx context.Context,
	followerID, targetUsername string,
) error {
	target, err := s.repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	if err := s.repo.Unfollow(ctx, followerID, target.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf(
				"not following %s: %w",
				targetUsername,
				core.ErrInvalidInput,
			)
		}
		return err
	}
	return nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) UpdateUserTier(
	ctx context.Context,
	id, tier string,
) (*User, error) {
	if !ValidTier(tier) {
		return nil, fmt.Errorf(
			"update tier: invalid tier %q: %w",
			tier,
			core.ErrInvalidInput,
		)
	}

	if err := s.repo.UpdateTier(ctx, id, tier); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.repo.ClearExpiredResetTokens(ctx)
}

// The methods below satisfy auth.UserProvider.

func (s *Service) GetByLogin(
	ctx context.Context,
	login string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	params auth.CreateUserParams,
) (*auth.UserInfo, error) {
	id, err := core.NewShortID(userIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user := &User{
		ID:           id,
		Username:     params.Username,
		Email:        strings.ToLower(params.Email),
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		Role:         RoleUser,
		Tier:         TierFree,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) SetResetToken(
	ctx context.Context,
	email, token string,
	expiry time.Time,
) error {
	return s.repo.SetResetToken(ctx, strings.ToLower(email), token, expiry)
}

func (s *Service) GetByResetToken(
	ctx context.Context,
	token string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.ResetPassword(ctx, userID, passwordHash)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName(),
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Tier:         u.Tier,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
