package auth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/store"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	m.Run()
}

func newTestService() (*Service, *store.MemoryStore) {
	users := store.NewMemoryStore()
	return NewService(users, nil), users
}

func registerReq(username string) models.RegisterRequest {
	return models.RegisterRequest{
		Username: username,
		Password: "hunter2",
		Email:    username + "@example.com",
		FullName: "Test " + username,
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()

	for _, req := range []models.RegisterRequest{
		{Password: "p", Email: "e", FullName: "f"},
		{Username: "u", Email: "e", FullName: "f"},
		{Username: "u", Password: "p", FullName: "f"},
		{Username: "u", Password: "p", Email: "e", FullName: "   "},
	} {
		_, err := svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, common.ErrValidation)
	}
}

func TestRegister_TwiceConflicts(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, registerReq("maria"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistered, u.Status)
	assert.NotNil(t, u.JoinDate)
	assert.NotEqual(t, "hunter2", u.PasswordHash)

	_, err = svc.Register(ctx, registerReq("maria"))
	assert.ErrorIs(t, err, common.ErrConflict)

	// Same email, different username.
	req := registerReq("other")
	req.Email = "maria@example.com"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 1, users.UserCount())
}

func TestRegister_PromotesPlaceholder(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Username: "joao", Password: "whatever"})
	require.NoError(t, err)
	require.Equal(t, OutcomeNeedsRegistration, res.Outcome)
	placeholderID := res.User.ID

	u, err := svc.Register(ctx, registerReq("joao"))
	require.NoError(t, err)
	assert.Equal(t, placeholderID, u.ID)
	assert.Equal(t, models.StatusRegistered, u.Status)
	assert.Equal(t, "Test joao", u.FullName)
	require.NotNil(t, u.Email)
	assert.Equal(t, "joao@example.com", *u.Email)
	assert.NotNil(t, u.JoinDate)
	assert.Equal(t, 1, users.UserCount())

	res, err = svc.Login(ctx, models.LoginRequest{Username: "joao", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, res.Outcome)
}

func TestLogin_UnknownUsernameCreatesOnePlaceholder(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Username: "ghost", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNeedsRegistration, res.Outcome)
	assert.Equal(t, RegisterRedirect, res.Redirect)
	assert.True(t, res.User.Status.IsPlaceholder())
	assert.Equal(t, 1, users.UserCount())

	_, err = svc.Login(ctx, models.LoginRequest{Username: "ghost", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 1, users.UserCount())
}

func TestLogin_Validation(t *testing.T) {
	svc, users := newTestService()

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "x"})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Login(context.Background(), models.LoginRequest{Password: "x"})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, users.UserCount())
}

func TestLogin_Authenticated(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("ana"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Username: "ana", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	res, err := svc.Login(ctx, models.LoginRequest{Username: "ana", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, res.Outcome)

	raw, err := json.Marshal(res.User)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "passwordHash")
	assert.NotContains(t, fields, "PasswordHash")
	assert.Equal(t, false, fields["isPlaceholder"])
}

// racingStore reports a conflict on the first CreateUser, as if another
// request had inserted the same username first.
type racingStore struct {
	*store.MemoryStore
	raced bool
}

func (s *racingStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if !s.raced {
		s.raced = true
		if _, err := s.MemoryStore.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		return nil, common.ErrConflict
	}
	return s.MemoryStore.CreateUser(ctx, u)
}

func TestLogin_PlaceholderRace(t *testing.T) {
	users := &racingStore{MemoryStore: store.NewMemoryStore()}
	svc := NewService(users, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "twin", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNeedsRegistration, res.Outcome)
	assert.Equal(t, "twin", res.User.Username)
	assert.Equal(t, 1, users.UserCount())
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Username: "pat", Password: "pw"})
	require.NoError(t, err)
	id := res.User.ID

	u, err := svc.UpdateUser(ctx, id, models.UserPatch{
		Location: models.Some("Porto"),
		Email:    models.Some[*string](nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "Porto", u.Location)
	assert.Equal(t, models.StatusRegistered, u.Status)
	assert.NotNil(t, u.JoinDate)
	assert.Equal(t, "pat", u.Username)

	empty := ""
	u, err = svc.UpdateUser(ctx, id, models.UserPatch{Email: models.Some(&empty)})
	require.NoError(t, err)
	assert.Nil(t, u.Email)

	_, err = svc.UpdateUser(ctx, id, models.UserPatch{Username: models.Some(" ")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.UpdateUser(ctx, "missing", models.UserPatch{Bio: models.Some("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.Register(ctx, registerReq("taken"))
	require.NoError(t, err)
	_, err = svc.UpdateUser(ctx, id, models.UserPatch{Username: models.Some("taken")})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestGetUser(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Register(context.Background(), registerReq("lee"))
	require.NoError(t, err)

	got, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "lee", got.Username)

	_, err = svc.GetUser(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
