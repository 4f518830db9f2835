package services

import (
	"commerce_server/lib"
	"commerce_server/structs"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()
	_, token, err := env.sm.AuthService.Register(context.Background(), &structs.RegisterRequest{
		Name:                 "Test User",
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
	require.NoError(t, err)
	return token
}

func TestAuthService_RegisterIssuesUsableToken(t *testing.T) {
	env := newTestEnv(t, false)

	user, token, err := env.sm.AuthService.Register(context.Background(), &structs.RegisterRequest{
		Name:                 "Jane",
		Email:                "Jane@Example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	require.NotEmpty(t, token)

	authed, claims, err := env.sm.AuthService.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.Id, authed.Id)
	assert.Equal(t, user.Id, claims.Sub)

	stored, err := env.store.Tokens().FindByID(context.Background(), claims.Jti)
	require.NoError(t, err)
	assert.Equal(t, user.Id, stored.UserId)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, false)
	register(t, env, "dup@example.com", "secret1")

	// past validation, the unique constraint still answers
	_, _, err := env.sm.AuthService.Register(context.Background(), &structs.RegisterRequest{
		Name:                 "Again",
		Email:                "dup@example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})

	var verr *lib.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The email has already been taken."}, verr.Errors["email"])
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, false)
	register(t, env, "taken@example.com", "secret1")

	err := env.sm.Validator.Validate(context.Background(), &structs.RegisterRequest{
		Name:                 "X",
		Email:                "taken@example.com",
		Password:             "secret1",
		PasswordConfirmation: "different",
	})

	var verr *lib.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The email has already been taken."}, verr.Errors["email"])
	assert.Equal(t, []string{"The password field confirmation does not match."}, verr.Errors["password"])
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, false)
	register(t, env, "known@example.com", "secret1")

	_, _, wrongPassword := env.sm.AuthService.Login(context.Background(), &structs.LoginRequest{
		Email: "known@example.com", Password: "nope",
	})
	_, _, unknownEmail := env.sm.AuthService.Login(context.Background(), &structs.LoginRequest{
		Email: "ghost@example.com", Password: "nope",
	})

	var a, b *lib.AuthenticationError
	require.ErrorAs(t, wrongPassword, &a)
	require.ErrorAs(t, unknownEmail, &b)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.Fields, b.Fields)
	assert.Equal(t, "The provided credentials are incorrect.", a.Message)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.sm.Metrics.AuthFailures.WithLabelValues("invalid_credentials")))
}

func TestAuthService_LoginIssuesAdditionalToken(t *testing.T) {
	env := newTestEnv(t, false)
	first := register(t, env, "multi@example.com", "secret1")

	_, second, err := env.sm.AuthService.Login(context.Background(), &structs.LoginRequest{
		Email: "MULTI@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, token := range []string{first, second} {
		_, _, err := env.sm.AuthService.Authenticate(context.Background(), token)
		assert.NoError(t, err)
	}
}

func TestAuthService_LogoutRevokesEveryToken(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		name := "store"
		if withCache {
			name = "cached"
		}
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, withCache)
			first := register(t, env, "out@example.com", "secret1")
			_, second, err := env.sm.AuthService.Login(context.Background(), &structs.LoginRequest{
				Email: "out@example.com", Password: "secret1",
			})
			require.NoError(t, err)

			// warm the token cache
			user, _, err := env.sm.AuthService.Authenticate(context.Background(), second)
			require.NoError(t, err)

			require.NoError(t, env.sm.AuthService.Logout(context.Background(), user))

			for _, token := range []string{first, second} {
				_, _, err := env.sm.AuthService.Authenticate(context.Background(), token)
				var aerr *lib.AuthenticationError
				require.ErrorAs(t, err, &aerr)
				assert.Equal(t, "Unauthenticated.", aerr.Message)
			}
		})
	}
}

func TestAuthService_AuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, false)

	_, _, err := env.sm.AuthService.Authenticate(context.Background(), "not-a-jwt")
	var aerr *lib.AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.sm.Metrics.AuthFailures.WithLabelValues("invalid_token")))

	env.sm.AuthService.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	expired := register(t, env, "old@example.com", "secret1")
	env.sm.AuthService.now = time.Now

	_, _, err = env.sm.AuthService.Authenticate(context.Background(), expired)
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.sm.Metrics.AuthFailures.WithLabelValues("expired_token")))
}

func TestAuthService_CurrentAndLogoutRequireUser(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.sm.AuthService.Current(nil)
	var aerr *lib.AuthenticationError
	require.ErrorAs(t, err, &aerr)

	require.ErrorAs(t, env.sm.AuthService.Logout(context.Background(), nil), &aerr)
}

func TestAuthService_EnsureUserIsIdempotent(t *testing.T) {
	env := newTestEnv(t, false)

	created, err := env.sm.AuthService.EnsureUser(context.Background(), "Admin", "admin@example.com", "password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.sm.AuthService.EnsureUser(context.Background(), "Admin", "admin@example.com", "password")
	require.NoError(t, err)
	assert.False(t, created)

	_, token, err := env.sm.AuthService.Login(context.Background(), &structs.LoginRequest{
		Email: "admin@example.com", Password: "password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
