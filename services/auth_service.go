package services

import (
	"commerce_server/lib"
	"commerce_server/repository"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "The provided credentials are incorrect."
	msgUnauthenticated    = "Unauthenticated."
	msgEmailTaken         = "The email has already been taken."
)

type AuthService struct {
	logger  *gecho.Logger
	cfg     *structs.Config
	store   repository.Store
	cache   *CacheService
	metrics *Metrics
	params  *structs.ArgonParams
	now     func() time.Time

	// dummyHash is verified against when the email is unknown, so both login
	// failures take the same time
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(cfg *structs.Config, logger *gecho.Logger, store repository.Store, cache *CacheService, metrics *Metrics, val *lib.Validator) *AuthService {
	as := &AuthService{
		logger:  logger,
		cfg:     cfg,
		store:   store,
		cache:   cache,
		metrics: metrics,
		params:  lib.DefaultArgonParams,
		now:     time.Now,
	}

	val.RegisterRule("unique_email", func(ctx context.Context, value any) (bool, error) {
		email, _ := value.(string)
		if email == "" {
			return true, nil
		}
		exists, err := as.store.Users().EmailExists(ctx, email)
		return !exists, err
	})

	return as
}

// invalidCredentials is returned for an unknown email and a wrong password alike
func invalidCredentials() error {
	return &lib.AuthenticationError{
		Message: msgInvalidCredentials,
		Fields:  map[string][]string{"email": {msgInvalidCredentials}},
	}
}

func unauthenticated() error {
	return &lib.AuthenticationError{Message: msgUnauthenticated}
}

// Register creates the user and its first token in one transaction
func (as *AuthService) Register(ctx context.Context, req *structs.RegisterRequest) (*tables.User, string, error) {
	startTime := as.now()

	passwordHash, err := lib.HashPassword(req.Password, as.params)
	if err != nil {
		as.logger.Error("Failed to hash password", gecho.Field("error", err))
		return nil, "", lib.Internal("Failed to register user.", err)
	}

	user := &tables.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	var token string
	err = as.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		token, err = as.issueToken(ctx, tx, user)
		return err
	})
	if err != nil {
		// a concurrent registration won the race past validation
		if lib.IsUniqueViolation(err) {
			as.logger.Warn("Registration failed - duplicate email", gecho.Field("email", req.Email))
			verr := lib.NewValidationError()
			verr.Add("email", msgEmailTaken)
			return nil, "", verr
		}
		as.logger.Error("Database error during registration", gecho.Field("error", err))
		return nil, "", lib.Internal("Failed to register user.", err)
	}

	as.logger.Debug("User registered successfully",
		gecho.Field("user_id", user.Id),
		gecho.Field("elapsed_time_ms", as.now().Sub(startTime).Milliseconds()),
	)

	return user, token, nil
}

// Login verifies the credentials and issues a new token. Earlier tokens stay valid.
func (as *AuthService) Login(ctx context.Context, req *structs.LoginRequest) (*tables.User, string, error) {
	user, err := as.store.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		if !lib.IsNotFound(err) {
			as.logger.Error("Unexpected database error during login", gecho.Field("error", err))
			return nil, "", lib.Internal("Failed to log in.", err)
		}
		as.logger.Debug("User not found during login attempt", gecho.Field("identifier", req.Email))
		_, _ = lib.VerifyPassword(req.Password, as.getDummyHash())
		as.metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return nil, "", invalidCredentials()
	}

	valid, err := lib.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		as.logger.Error("Failed to verify password hash", gecho.Field("error", err), gecho.Field("user_id", user.Id))
		return nil, "", lib.Internal("Failed to log in.", err)
	}
	if !valid {
		as.logger.Debug("Invalid password attempt", gecho.Field("user_id", user.Id))
		as.metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return nil, "", invalidCredentials()
	}

	token, err := as.issueToken(ctx, as.store, user)
	if err != nil {
		as.logger.Error("Failed to issue token", gecho.Field("error", err), gecho.Field("user_id", user.Id))
		return nil, "", lib.Internal("Failed to log in.", err)
	}

	if err := as.cache.SetUserInCache(ctx, user); err != nil {
		as.logger.Warn("Failed to set user in cache after login", gecho.Field("error", err), gecho.Field("user_id", user.Id))
	}

	return user, token, nil
}

// Logout revokes every token of the user
func (as *AuthService) Logout(ctx context.Context, user *tables.User) error {
	if user == nil {
		return unauthenticated()
	}

	jtis, err := as.store.Tokens().DeleteByUser(ctx, user.Id)
	if err != nil {
		as.logger.Error("Failed to revoke tokens", gecho.Field("error", err), gecho.Field("user_id", user.Id))
		return lib.Internal("Failed to log out.", err)
	}

	if err := as.cache.DeleteTokens(ctx, jtis); err != nil {
		as.logger.Warn("Failed to evict revoked tokens from cache", gecho.Field("error", err), gecho.Field("user_id", user.Id))
	}
	if err := as.cache.InvalidateUserCache(ctx, user.Id); err != nil {
		as.logger.Warn("Failed to evict user from cache", gecho.Field("error", err), gecho.Field("user_id", user.Id))
	}

	as.logger.Info("User logged out", gecho.Field("user_id", user.Id), gecho.Field("revoked_tokens", len(jtis)))
	return nil
}

// Current returns the authenticated caller
func (as *AuthService) Current(user *tables.User) (*tables.User, error) {
	if user == nil {
		return nil, unauthenticated()
	}
	return user, nil
}

// Authenticate resolves a bearer token to its user. The token must carry a
// valid signature, be unexpired and still be stored server-side.
func (as *AuthService) Authenticate(ctx context.Context, token string) (*tables.User, *structs.AuthClaims, error) {
	claims, err := lib.ParseToken(token, as.cfg.Auth.TokenIssuer, as.cfg.Auth.TokenSecret)
	if err != nil {
		reason := "invalid_token"
		if errors.Is(err, lib.ErrExpiredToken) {
			reason = "expired_token"
		}
		as.metrics.AuthFailures.WithLabelValues(reason).Inc()
		return nil, nil, unauthenticated()
	}

	owner, err := as.tokenOwner(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	if owner != claims.Sub {
		as.metrics.AuthFailures.WithLabelValues("revoked_token").Inc()
		return nil, nil, unauthenticated()
	}

	user, err := as.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if lib.IsNotFound(err) {
			as.metrics.AuthFailures.WithLabelValues("unknown_user").Inc()
			return nil, nil, unauthenticated()
		}
		return nil, nil, lib.Internal("Failed to authenticate.", err)
	}

	return user, claims, nil
}

// tokenOwner returns the user a stored token belongs to, or uuid.Nil when the token was revoked
func (as *AuthService) tokenOwner(ctx context.Context, claims *structs.AuthClaims) (uuid.UUID, error) {
	owner, err := as.cache.GetTokenOwner(ctx, claims.Jti)
	if err != nil {
		as.logger.Warn("Failed to get token from cache", gecho.Field("error", err), gecho.Field("jti", claims.Jti))
	} else if owner != uuid.Nil {
		return owner, nil
	}

	stored, err := as.store.Tokens().FindByID(ctx, claims.Jti)
	if err != nil {
		if lib.IsNotFound(err) {
			return uuid.Nil, nil
		}
		as.logger.Error("Failed to find access token", gecho.Field("error", err), gecho.Field("jti", claims.Jti))
		return uuid.Nil, lib.Internal("Failed to authenticate.", err)
	}
	if !stored.ExpiresAt.After(as.now()) {
		return uuid.Nil, nil
	}

	ttl := min(stored.ExpiresAt.Sub(as.now()), as.cfg.Auth.CacheUserTTL)
	if err := as.cache.SetTokenOwner(ctx, claims.Jti, stored.UserId, ttl); err != nil {
		as.logger.Warn("Failed to cache token", gecho.Field("error", err), gecho.Field("jti", claims.Jti))
	}

	return stored.UserId, nil
}

func (as *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*tables.User, error) {
	// Try to get user from cache first
	cachedUser, err := as.cache.GetUserFromCache(ctx, userID)
	if err != nil {
		as.logger.Warn("Failed to get user from cache", gecho.Field("error", err), gecho.Field("user_id", userID))
	} else if cachedUser != nil {
		return cachedUser, nil
	}

	// Cache miss - fetch user from database
	user, err := as.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := as.cache.SetUserInCache(ctx, user); err != nil {
		as.logger.Warn("Failed to cache user after DB fetch", gecho.Field("error", err), gecho.Field("user_id", userID))
	}

	return user, nil
}

// issueToken stores a new jti for the user and signs a token carrying it
func (as *AuthService) issueToken(ctx context.Context, tx repository.Tx, user *tables.User) (string, error) {
	now := as.now()
	claims := &structs.AuthClaims{
		Sub: user.Id,
		Iat: now,
		Exp: now.Add(as.cfg.Auth.TokenExpiry),
		Jti: uuid.New(),
	}

	err := tx.Tokens().Create(ctx, &tables.AccessToken{
		Id:        claims.Jti,
		UserId:    user.Id,
		Name:      "authToken",
		ExpiresAt: claims.Exp,
	})
	if err != nil {
		return "", err
	}

	return lib.SignToken(claims, as.cfg.Auth.TokenIssuer, as.cfg.Auth.TokenSecret)
}

func (as *AuthService) getDummyHash() string {
	as.dummyOnce.Do(func() {
		as.dummyHash, _ = lib.HashPassword(uuid.NewString(), as.params)
	})
	return as.dummyHash
}

// EnsureUser creates the user unless the email is already registered. It
// reports whether a user was created.
func (as *AuthService) EnsureUser(ctx context.Context, name, email, password string) (bool, error) {
	exists, err := as.store.Users().EmailExists(ctx, email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	passwordHash, err := lib.HashPassword(password, as.params)
	if err != nil {
		return false, err
	}

	err = as.store.Users().Create(ctx, &tables.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if lib.IsUniqueViolation(err) {
		return false, nil
	}
	return err == nil, err
}
