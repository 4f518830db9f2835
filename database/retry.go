package database

import (
	"commerce_server/lib"
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	EnableRetry  bool
}

// DefaultRetryConfig returns the policy used for connecting and for reads
// outside a transaction
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		EnableRetry:  true,
	}
}

// NoRetry runs operations exactly once.
func NoRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.EnableRetry = false
	return cfg
}

// retryableClasses are the SQLSTATE classes worth another attempt:
// transaction rollback (40), connection exception (08) and insufficient
// resources (53)
var retryableClasses = map[string]bool{
	"40": true,
	"08": true,
	"53": true,
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"eof",
	"connection closed",
	"bad connection",
	"too many clients",
	"server is not accepting",
	"connection pool exhausted",
	"temporary failure",
}

// isRetryableError reports whether err is transient. Constraint, syntax and
// data errors never are.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, sql.ErrNoRows) {
		return false
	}

	if code := lib.SQLState(err); len(code) == 5 {
		// cannot_connect_now is raised while the server starts up
		return retryableClasses[code[:2]] || code == "57P03"
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// RetryWithBackoff runs operation until it succeeds, fails permanently or
// runs out of attempts, doubling the delay between attempts
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	if !config.EnableRetry {
		return operation()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) || attempt >= config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = min(time.Duration(float64(delay)*config.Multiplier), config.MaxDelay)
		}
	}

	return lastErr
}
