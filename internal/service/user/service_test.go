package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

type repoMock struct {
	mock.Mock
}

func (m *repoMock) Create(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *repoMock) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *repoMock) List(ctx context.Context, filters models.Filters) ([]models.User, int, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]models.User), args.Int(1), args.Error(2)
}

func (m *repoMock) Update(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *repoMock) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *repoMock) CountAdmins(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type revokerMock struct {
	mock.Mock
}

func (m *revokerMock) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type inlineTx struct{}

func (inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newService(repo *repoMock, revoker *revokerMock) *Service {
	s := NewService(repo, revoker, inlineTx{}, logger.Nop())
	s.hash = func(p string) (string, error) { return "hashed:" + p, nil }
	return s
}

func TestCreate_DefaultsToViewer(t *testing.T) {
	repo := &repoMock{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "ops" && u.Role == types.RoleViewer && u.GetPassword() == "hashed:password1"
	})).Return(nil)

	u, err := newService(repo, &revokerMock{}).Create(context.Background(), models.UserCreateRequest{
		Username: "ops",
		Password: "password1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	repo.AssertExpectations(t)
}

func TestCreate_UsernameTaken(t *testing.T) {
	repo := &repoMock{}
	repo.On("Create", mock.Anything, mock.Anything).Return(types.ErrUsernameTaken)

	_, err := newService(repo, &revokerMock{}).Create(context.Background(), models.UserCreateRequest{
		Username: "admin",
		Password: "password1",
		Role:     types.RoleAdmin,
	})
	assert.ErrorIs(t, err, types.ErrUsernameTaken)
}

func TestList_BuildsMetadata(t *testing.T) {
	repo := &repoMock{}
	filters := models.NewUserFilters(1, 2, "")
	repo.On("List", mock.Anything, filters).Return([]models.User{{Username: "a"}, {Username: "b"}}, 5, nil)

	page, err := newService(repo, &revokerMock{}).List(context.Background(), filters)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, 3, page.Metadata.LastPage)
	assert.Equal(t, 5, page.Metadata.TotalRecords)
}

func TestUpdate_EmptyPatchReturnsCurrent(t *testing.T) {
	id := uuid.New()
	repo := &repoMock{}
	repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Username: "ops", Role: types.RoleViewer}, nil)

	u, err := newService(repo, &revokerMock{}).Update(context.Background(), id, models.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "ops", u.Username)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdate_PasswordRevokesTokens(t *testing.T) {
	id := uuid.New()
	repo := &repoMock{}
	revoker := &revokerMock{}
	repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Username: "ops", Role: types.RoleViewer}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.GetPassword() == "hashed:new-password"
	})).Return(nil)
	revoker.On("RevokeAllForUser", mock.Anything, id).Return(nil)

	pw := "new-password"
	_, err := newService(repo, revoker).Update(context.Background(), id, models.UserPatch{Password: &pw})
	require.NoError(t, err)
	repo.AssertExpectations(t)
	revoker.AssertExpectations(t)
}

func TestUpdate_CannotDemoteLastAdmin(t *testing.T) {
	id := uuid.New()
	repo := &repoMock{}
	repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Username: "admin", Role: types.RoleAdmin}, nil)
	repo.On("CountAdmins", mock.Anything).Return(1, nil)

	role := types.RoleViewer
	_, err := newService(repo, &revokerMock{}).Update(context.Background(), id, models.UserPatch{Role: &role})
	assert.ErrorIs(t, err, types.ErrLastAdmin)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDelete(t *testing.T) {
	id := uuid.New()
	repo := &repoMock{}
	revoker := &revokerMock{}
	repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Role: types.RoleAdmin}, nil)
	repo.On("CountAdmins", mock.Anything).Return(2, nil)
	repo.On("SoftDelete", mock.Anything, id).Return(nil)
	revoker.On("RevokeAllForUser", mock.Anything, id).Return(nil)

	require.NoError(t, newService(repo, revoker).Delete(context.Background(), id))
	repo.AssertExpectations(t)
	revoker.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	id := uuid.New()
	repo := &repoMock{}
	repo.On("GetByID", mock.Anything, id).Return(nil, types.ErrUserNotFound)

	err := newService(repo, &revokerMock{}).Delete(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrUserNotFound)
}
