package service

import (
	"context"
	"testing"
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, f *fixture, username, role string) *UserResponse {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), testActor, CreateUserRequest{
		Username: username,
		Email:    username + "@rotuprinters.test",
		Password: "s3cret-pass",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestLogin_IssuesSignedTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "maria", model.RoleSeller)

	res, err := f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, u.ID, res.User.ID)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleSeller, claims["role"])

	byEmail, err := f.users.Login(ctx, LoginUserRequest{Username: "maria@rotuprinters.test", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.User.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedUser(t, f, "maria", model.RoleSeller)

	_, err := f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "wrong"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.users.Login(ctx, LoginUserRequest{Username: "nobody", Password: "s3cret-pass"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "maria", model.RoleSeller)

	inactive := false
	_, err := f.users.UpdateUser(ctx, testActor, u.ID.String(), UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "s3cret-pass"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshToken_RotatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedUser(t, f, "maria", model.RoleSeller)

	login, err := f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)

	rotated, err := f.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = f.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, f.users.Logout(ctx, rotated.RefreshToken))
	_, err = f.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: rotated.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshToken_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedUser(t, f, "maria", model.RoleSeller)

	login, err := f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)

	f.users.(*userService).now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = f.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "maria", model.RoleSeller)

	login, err := f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)

	err = f.users.ChangePassword(ctx, u.ID.String(), ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "another-pass"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.users.ChangePassword(ctx, u.ID.String(), ChangePasswordRequest{CurrentPassword: "s3cret-pass", NewPassword: "another-pass"}))

	_, err = f.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.users.Login(ctx, LoginUserRequest{Username: "maria", Password: "another-pass"})
	require.NoError(t, err)
}

func TestCreateUser_Conflicts(t *testing.T) {
	f := newFixture(t)
	seedUser(t, f, "maria", model.RoleSeller)

	_, err := f.users.CreateUser(context.Background(), testActor, CreateUserRequest{
		Username: "maria",
		Email:    "other@rotuprinters.test",
		Password: "s3cret-pass",
		Role:     model.RoleDesigner,
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDeleteUser_NotSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := seedUser(t, f, "boss", model.RoleAdmin)
	other := seedUser(t, f, "maria", model.RoleSeller)

	err := f.users.DeleteUser(ctx, admin.ID.String(), admin.ID.String())
	require.ErrorIs(t, err, apperr.ErrValidation)

	inactive := false
	_, err = f.users.UpdateUser(ctx, admin.ID.String(), admin.ID.String(), UpdateUserRequest{IsActive: &inactive})
	require.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.users.DeleteUser(ctx, admin.ID.String(), other.ID.String()))
	_, err = f.users.GetUserByID(ctx, other.ID.String())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureAdmin(ctx, "admin", "", ""))
	_, total, err := f.users.ListUsers(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total, "an empty password skips seeding")

	require.NoError(t, f.users.EnsureAdmin(ctx, "admin", "", "initial-pass"))
	require.NoError(t, f.users.EnsureAdmin(ctx, "admin", "", "initial-pass"))
	users, total, err := f.users.ListUsers(ctx, "", 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.Equal(t, "admin@rotuprinters.local", users[0].Email)
}

func TestGetMe_IncludesPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.roles.SeedDefaultRolesAndPermissions(ctx))
	u := seedUser(t, f, "dani", model.RoleDesigner)

	me, err := f.users.GetMe(ctx, u.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, DefaultRoles[model.RoleDesigner].PermCodes, me.Permissions)
}
