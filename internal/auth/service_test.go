// TrustGuardianHub | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/core"
)

type fakeTokenRepo struct {
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *RefreshToken) error {
	token.CreatedAt = time.Now()
	clone := *token
	f.tokens[token.ID] = &clone
	return nil
}

func (f *fakeTokenRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash {
			clone := *t
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("find token: %w", core.ErrNotFound)
}

func (f *fakeTokenRepo) FindByID(
	_ context.Context,
	id string,
) (*RefreshToken, error) {
	t, ok := f.tokens[id]
	if !ok {
		return nil, fmt.Errorf("find token: %w", core.ErrNotFound)
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTokenRepo) MarkAsUsed(
	_ context.Context,
	id, replacedByID string,
) error {
	t, ok := f.tokens[id]
	if !ok {
		return fmt.Errorf("mark used: %w", core.ErrNotFound)
	}
	t.IsUsed = true
	t.ReplacedByID = &replacedByID
	return nil
}

func (f *fakeTokenRepo) RevokeByID(_ context.Context, id string) error {
	t, ok := f.tokens[id]
	if !ok {
		return fmt.Errorf("revoke: %w", core.ErrNotFound)
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (f *fakeTokenRepo) RevokeByFamilyID(
	_ context.Context,
	familyID string,
) error {
	now := time.Now()
	for _, t := range f.tokens {
		if t.FamilyID == familyID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(
	_ context.Context,
	userID string,
) error {
	now := time.Now()
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]RefreshToken, error) {
	var out []RefreshToken
	for _, t := range f.tokens {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeUserProvider struct {
	users  map[string]*UserInfo
	nextID int
}

func newFakeUserProvider() *fakeUserProvider {
	return &fakeUserProvider{users: make(map[string]*UserInfo)}
}

func (f *fakeUserProvider) GetByLogin(
	_ context.Context,
	login string,
) (*UserInfo, error) {
	for _, u := range f.users {
		if u.Username == login || u.Email == strings.ToLower(login) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("get user by login: %w", core.ErrNotFound)
}

func (f *fakeUserProvider) GetByID(
	_ context.Context,
	id string,
) (*UserInfo, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("get user by id: %w", core.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserProvider) Create(
	_ context.Context,
	params CreateUserParams,
) (*UserInfo, error) {
	for _, u := range f.users {
		if u.Username == params.Username ||
			u.Email == strings.ToLower(params.Email) {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	f.nextID++
	user := &UserInfo{
		ID:           fmt.Sprintf("user-%04d", f.nextID),
		Username:     params.Username,
		Email:        strings.ToLower(params.Email),
		FullName:     params.FirstName + " " + params.LastName,
		PasswordHash: params.PasswordHash,
		Role:         "user",
		Tier:         "FREE",
	}
	f.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (f *fakeUserProvider) IncrementTokenVersion(
	_ context.Context,
	userID string,
) error {
	u, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	u.TokenVersion++
	return nil
}

func (f *fakeUserProvider) UpdatePassword(
	_ context.Context,
	userID, passwordHash string,
) error {
	u, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserProvider) SetResetToken(
	_ context.Context,
	_, _ string,
	_ time.Time,
) error {
	return nil
}

func (f *fakeUserProvider) GetByResetToken(
	_ context.Context,
	_ string,
) (*UserInfo, error) {
	return nil, fmt.Errorf("get user by reset token: %w", core.ErrNotFound)
}

func (f *fakeUserProvider) ResetPassword(
	_ context.Context,
	userID, passwordHash string,
) error {
	return f.UpdatePassword(context.Background(), userID, passwordHash)
}

func newTestAuthService(t *testing.T) (*Service, *JWTManager) {
	t.Helper()

	jwtManager := newTestJWTManager(t)
	svc := NewService(
		newFakeTokenRepo(),
		jwtManager,
		newFakeUserProvider(),
		nil,
		nil,
		"https://app.example.com",
	)
	return svc, jwtManager
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Username:  "janem",
		Email:     "Jane@Example.com",
		Password:  "correct horse battery",
		FirstName: "Jane",
		LastName:  "Mwangi",
		Phone:     "+254712345678",
	}
}

func TestRegisterThenLoginDecodesToSameUser(t *testing.T) {
	svc, jwtManager := newTestAuthService(t)

	registered, err := svc.Register(
		context.Background(),
		registerRequest(),
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)
	require.NotEmpty(t, registered.User.ID)

	claims, err := jwtManager.VerifyAccessToken(
		context.Background(),
		registered.Tokens.AccessToken,
	)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	loggedIn, err := svc.Login(context.Background(), LoginRequest{
		Login:    "janem",
		Password: "correct horse battery",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	claims, err = jwtManager.VerifyAccessToken(
		context.Background(),
		loggedIn.Tokens.AccessToken,
	)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "janem", claims.Username)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "FREE", claims.Tier)
}

func TestLoginByEmail(t *testing.T) {
	svc, jwtManager := newTestAuthService(t)

	registered, err := svc.Register(
		context.Background(),
		registerRequest(),
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)

	loggedIn, err := svc.Login(context.Background(), LoginRequest{
		Login:    "jane@example.com",
		Password: "correct horse battery",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	claims, err := jwtManager.VerifyAccessToken(
		context.Background(),
		loggedIn.Tokens.AccessToken,
	)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
}

func TestRegisterDuplicateAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(
		context.Background(),
		registerRequest(),
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)

	_, err = svc.Register(
		context.Background(),
		registerRequest(),
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(
		context.Background(),
		registerRequest(),
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Login:    "janem",
		Password: "wrong password",
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Login:    "nobody",
		Password: "whatever else",
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
