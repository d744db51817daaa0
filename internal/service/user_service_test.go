package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/udacchi/attendance-management-sub000/internal/models"
	appErrors "github.com/udacchi/attendance-management-sub000/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	createErr error
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	list := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		list = append(list, *u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.EmailVerified = verified
	return nil
}

func newUserFixture(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceCreateHashesAndNormalises(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserFixture(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "  Tarou@Example.com ",
		FullName: " Tarou Yamada ",
		Role:     models.RoleEmployee,
		Password: "secret12",
	})
	require.NoError(t, err)
	assert.Equal(t, "tarou@example.com", user.Email)
	assert.Equal(t, "Tarou Yamada", user.FullName)
	assert.True(t, user.Active)
	assert.False(t, user.EmailVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret12")))
}

func TestUserServiceCreateRejectsBadRole(t *testing.T) {
	svc := newUserFixture(&mockUserRepo{})

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "tarou@example.com",
		FullName: "Tarou Yamada",
		Role:     "MANAGER",
		Password: "secret12",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newUserFixture(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "tarou@example.com",
		FullName: "Tarou Yamada",
		Role:     models.RoleEmployee,
		Password: "secret12",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already registered")
}

func TestUserServiceVerifyEmail(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "tarou@example.com"},
	}}
	svc := newUserFixture(repo)

	require.NoError(t, svc.VerifyEmail(context.Background(), "user-1"))
	assert.True(t, repo.users["user-1"].EmailVerified)

	err := svc.VerifyEmail(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetMissing(t *testing.T) {
	svc := newUserFixture(&mockUserRepo{})

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceListPagination(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1"},
		"user-2": {ID: "user-2"},
	}}
	svc := newUserFixture(repo)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}
