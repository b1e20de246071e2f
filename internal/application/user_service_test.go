package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourplaces/api/pkg/helpers"
)

func newUserFixture() (*UserService, *memStore) {
	store := newMemStore()
	svc := &UserService{
		Repo: &memUserRepo{s: store},
		JWT:  helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
	}
	return svc, store
}

func TestSignup(t *testing.T) {
	svc, store := newUserFixture()

	u, pair, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "supersecret", u.Password, "password must be stored hashed")
	assert.True(t, helpers.CompareHashAndPassword(u.Password, "supersecret"))
	assert.Empty(t, u.PlaceIDs)
	assert.Len(t, store.users, 1)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, store := newUserFixture()

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@example.com", Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	_, _, err = svc.Signup(context.Background(), SignupInput{
		Name: "Impostor", Email: "alice@example.com", Password: "othersecret",
	}, nil, "", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, store.users, 1, "failed signup must leave the store unchanged")
}

func TestLogin(t *testing.T) {
	svc, _ := newUserFixture()

	created, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@example.com", Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	u, pair, err := svc.Login(context.Background(), "alice@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	svc, _ := newUserFixture()

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@example.com", Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	_, wrongPass := svc.Authenticate(context.Background(), "alice@example.com", "wrongpassword")
	_, unknownEmail := svc.Authenticate(context.Background(), "nobody@example.com", "supersecret")

	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	// A caller probing for registered emails learns nothing from the error.
	assert.Equal(t, wrongPass.Error(), unknownEmail.Error())
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _ := newUserFixture()

	created, pair, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@example.com", Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	u, fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	claims, err := svc.JWT.ParseAccessToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newUserFixture()

	_, pair, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@example.com", Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetProfileMissing(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.GetProfile(context.Background(), "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListHidesPasswordHashes(t *testing.T) {
	svc, _ := newUserFixture()

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@example.com", Password: "supersecret",
	}, nil, "", "")
	require.NoError(t, err)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].Password)
}
