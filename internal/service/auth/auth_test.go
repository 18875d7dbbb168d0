package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	"github.com/Temutjin2k/tracker-admin/pkg/passhash"
)

type memUsers struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	logins int
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins++
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]models.RefreshToken
}

func (m *memTokens) Save(_ context.Context, t models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.ID] = t
	return nil
}

func (m *memTokens) GetForUpdate(_ context.Context, id uuid.UUID) (models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return models.RefreshToken{}, types.ErrInvalidToken
	}
	return t, nil
}

func (m *memTokens) Revoke(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tokens[id]
	now := time.Now()
	t.RevokedAt = &now
	m.tokens[id] = t
	return nil
}

type inlineTx struct{}

func (inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc    *AuthService
	tokens *TokenService
	users  *memUsers
	store  *memTokens
	user   *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	hash, err := passhash.HashPasswordWithCost("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{ID: uuid.New(), Username: "admin", Role: types.RoleAdmin, IsActive: true}
	u.SetPassword(hash)

	users := &memUsers{users: map[uuid.UUID]*models.User{u.ID: u}}
	store := &memTokens{tokens: map[uuid.UUID]models.RefreshToken{}}
	tokens := NewTokenService("test-secret", store, 15*time.Minute, time.Hour)

	return fixture{
		svc:    NewAuthService(users, store, tokens, inlineTx{}, logger.Nop()),
		tokens: tokens,
		users:  users,
		store:  store,
		user:   u,
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Len(t, f.store.tokens, 1)
	assert.Equal(t, 1, f.users.logins)

	claims, err := f.svc.Authorize(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, claims.UserID)
	assert.Equal(t, types.RoleAdmin, claims.Role)
	assert.Equal(t, "admin", claims.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "admin", "wrong-pass")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)

	assert.Empty(t, f.store.tokens)
}

func TestRefresh_RotatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.Len(t, f.store.tokens, 2)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, types.ErrInvalidToken)

	_, err = f.svc.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, types.ErrInvalidToken)
}

func TestAuthorize_RejectsRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	_, err = f.svc.Authorize(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, types.ErrInvalidToken)
}

func TestAuthorize_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	f.tokens.now = func() time.Time { return issued }
	pair, err := f.tokens.Issue(ctx, f.user)
	require.NoError(t, err)

	f.tokens.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = f.svc.Authorize(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, types.ErrExpiredToken)
}

func TestAuthorize_WrongSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := NewTokenService("another-secret", f.store, time.Minute, time.Hour)
	pair, err := other.Issue(ctx, f.user)
	require.NoError(t, err)

	_, err = f.svc.Authorize(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, types.ErrInvalidToken)

	_, err = f.svc.Authorize(ctx, "garbage")
	assert.ErrorIs(t, err, types.ErrInvalidToken)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Me(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)

	_, err = f.svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, types.ErrUserNotFound)
}
