package services

import (
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheService provides Redis caching with retry logic. With caching disabled
// every read is a miss and every write is dropped.
type CacheService struct {
	logger *gecho.Logger
	config *structs.Config
	client *redis.Client
}

func NewCacheService(logger *gecho.Logger, cfg *structs.Config, client *redis.Client) *CacheService {
	return &CacheService{
		logger: logger,
		config: cfg,
		client: client,
	}
}

// NewRedisClient builds a pooled client from configuration, or nil when caching is disabled
func NewRedisClient(cfg *structs.CacheConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,

		// Connection pool settings
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.IdleTimeout,

		// Timeouts
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		// Retry settings
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
	})
}

// Enabled reports whether a Redis client is configured
func (cs *CacheService) Enabled() bool {
	return cs.client != nil
}

// Close closes the Redis connection pool
func (cs *CacheService) Close() error {
	if cs.client != nil {
		return cs.client.Close()
	}
	return nil
}

// withRetry executes a Redis operation with exponential backoff retry logic
func (cs *CacheService) withRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on the last attempt
		if attempt == maxRetries {
			break
		}

		// Only retry on network/connection errors, not on logical errors like key not found
		if !isRetryableError(err) {
			return err
		}

		backoff := min(100*(1<<attempt), 2000) // ms

		// add jitter up to +50%
		jitterBytes := make([]byte, 4)
		if _, err := rand.Read(jitterBytes); err == nil {
			jitter := uint32(jitterBytes[0])<<24 | uint32(jitterBytes[1])<<16 | uint32(jitterBytes[2])<<8 | uint32(jitterBytes[3])
			backoff = backoff/2 + int(jitter%uint32(backoff/2+1))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(backoff) * time.Millisecond):
		}
	}

	return fmt.Errorf("redis operation failed after %d retries: %w", maxRetries, lastErr)
}

// isRetryableError determines if an error is worth retrying
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}

	errStr := err.Error()
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}

	for _, retryableErr := range retryableErrors {
		if strings.Contains(errStr, retryableErr) {
			return true
		}
	}

	return false
}

// Set sets a key with TTL and automatic retry logic
func (cs *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if cs.client == nil {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.Set(ctx, key, value, ttl).Err()
	}, 3)
}

// Get retrieves a key; a missing key yields ""
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	if cs.client == nil {
		return "", nil
	}

	var result string
	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			result = ""
			return nil // Don't retry on key not found
		}
		if err != nil {
			return err
		}
		result = val
		return nil
	}, 3)
	if err != nil {
		return "", err
	}

	return result, nil
}

// Delete removes keys with automatic retry logic
func (cs *CacheService) Delete(ctx context.Context, keys ...string) error {
	if cs.client == nil || len(keys) == 0 {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.Del(ctx, keys...).Err()
	}, 3)
}

func tokenKey(jti uuid.UUID) string  { return fmt.Sprintf("token:%s", jti) }
func userKey(id uuid.UUID) string    { return fmt.Sprintf("user:%s", id) }
func productKey(id uuid.UUID) string { return fmt.Sprintf("product:id:%s", id) }

// SetTokenOwner caches the owner of an access token
func (cs *CacheService) SetTokenOwner(ctx context.Context, jti, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return cs.Set(ctx, tokenKey(jti), userID.String(), ttl)
}

// GetTokenOwner returns the cached owner of a token, or uuid.Nil on a miss
func (cs *CacheService) GetTokenOwner(ctx context.Context, jti uuid.UUID) (uuid.UUID, error) {
	val, err := cs.Get(ctx, tokenKey(jti))
	if err != nil || val == "" {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

// DeleteTokens evicts revoked tokens
func (cs *CacheService) DeleteTokens(ctx context.Context, jtis []uuid.UUID) error {
	keys := make([]string, 0, len(jtis))
	for _, jti := range jtis {
		keys = append(keys, tokenKey(jti))
	}
	return cs.Delete(ctx, keys...)
}

// GetUserFromCache retrieves a user object from cache using userID
func (cs *CacheService) GetUserFromCache(ctx context.Context, userID uuid.UUID) (*tables.User, error) {
	return getJSON[tables.User](ctx, cs, userKey(userID))
}

// SetUserInCache stores a user object in cache with TTL
func (cs *CacheService) SetUserInCache(ctx context.Context, user *tables.User) error {
	if user == nil {
		// Nothing to cache
		return nil
	}
	return setJSON(ctx, cs, userKey(user.Id), user, cs.config.Auth.CacheUserTTL)
}

// InvalidateUserCache removes a user from cache
func (cs *CacheService) InvalidateUserCache(ctx context.Context, userID uuid.UUID) error {
	return cs.Delete(ctx, userKey(userID))
}

// GetProductByID retrieves a cached product by ID
func (cs *CacheService) GetProductByID(ctx context.Context, id uuid.UUID) (*tables.Product, error) {
	product, err := getJSON[tables.Product](ctx, cs, productKey(id))
	if err != nil {
		cs.logger.Warn("Failed to get product from cache", gecho.Field("error", err), gecho.Field("id", id))
		return nil, err
	}
	return product, nil
}

// SetProductByID caches a product by ID
func (cs *CacheService) SetProductByID(ctx context.Context, product *tables.Product) error {
	return setJSON(ctx, cs, productKey(product.ID), product, cs.getProductTTL())
}

// InvalidateProduct removes a cached product
func (cs *CacheService) InvalidateProduct(ctx context.Context, id uuid.UUID) error {
	return cs.Delete(ctx, productKey(id))
}

// IncrementRateLimit atomically increments a rate limit counter and returns
// the count within the current window
func (cs *CacheService) IncrementRateLimit(ctx context.Context, ip, endpoint string, ttl time.Duration) (int, error) {
	if cs.client == nil {
		return 0, nil
	}
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)

	var result int64
	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Incr(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val

		// Set expiration only on first increment
		if val == 1 {
			return cs.client.Expire(ctx, key, ttl).Err()
		}

		return nil
	}, 3)

	return int(result), err
}

// DeletePattern removes all keys matching a pattern using SCAN
func (cs *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	if cs.client == nil {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		var cursor uint64
		for {
			keys, nextCursor, err := cs.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if len(keys) > 0 {
				if err := cs.client.Del(ctx, keys...).Err(); err != nil {
					return fmt.Errorf("delete failed: %w", err)
				}
			}

			cursor = nextCursor
			if cursor == 0 {
				return nil
			}
		}
	}, 3)
}

// Ping tests the Redis connection
func (cs *CacheService) Ping(ctx context.Context) error {
	if cs.client == nil {
		return errors.New("cache is disabled")
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.Ping(ctx).Err()
	}, 3)
}

// GetConnectionStats returns Redis connection pool statistics
func (cs *CacheService) GetConnectionStats() map[string]any {
	if cs.client == nil {
		return map[string]any{}
	}
	stats := cs.client.PoolStats()

	return map[string]any{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

// getProductTTL returns the TTL for cached products from config
func (cs *CacheService) getProductTTL() time.Duration {
	if cs.config.Cache.ProductTTL > 0 {
		return cs.config.Cache.ProductTTL
	}
	return 5 * time.Minute // fallback default
}

func setJSON[T any](ctx context.Context, cs *CacheService, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cs.Set(ctx, key, data, ttl)
}

func getJSON[T any](ctx context.Context, cs *CacheService, key string) (*T, error) {
	val, err := cs.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if val == "" {
		return nil, nil // not found in cache
	}

	var result T
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, err
	}

	return &result, nil
}
