// TrustGuardianHub | 2026
// entity.go

package user

import (
	"strings"
	"time"
)

type User struct {
	ID               string     `db:"user_id"`
	Username         string     `db:"username"`
	Email            string     `db:"email"`
	PasswordHash     string     `db:"password_hash"`
	FirstName        string     `db:"firstname"`
	LastName         string     `db:"lastname"`
	Phone            string     `db:"phone"`
	Bio              string     `db:"bio"`
	Location         string     `db:"location"`
	ProfileImage     string     `db:"profile_url"`
	CoverImage       string     `db:"cover_url"`
	Role             string     `db:"role"`
	Tier             string     `db:"tier"`
	Points           int        `db:"points"`
	Ranking          int        `db:"ranking"`
	TokenVersion     int        `db:"token_version"`
	ResetToken       *string    `db:"reset_token"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TierFree     = "FREE"
	TierBasic    = "BASIC"
	TierStandard = "STANDARD"
	TierPremium  = "PREMIUM"
)

func ValidTier(tier string) bool {
	switch tier {
	case TierFree, TierBasic, TierStandard, TierPremium:
		return true
	}
	return false
}
