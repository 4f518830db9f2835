package services

import (
	"commerce_server/config"
	"commerce_server/repository/memory"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// cheapArgon keeps password hashing fast in tests
var cheapArgon = &structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type testEnv struct {
	store *memory.Store
	sm    *ServiceManager
	redis *miniredis.Miniredis
}

func testConfig() *structs.Config {
	cfg := config.Load()
	cfg.Auth.TokenSecret = "test-secret"
	return cfg
}

// newTestEnv wires every service against an in-memory store. With withCache
// the services talk to a miniredis instance.
func newTestEnv(t *testing.T, withCache bool) *testEnv {
	t.Helper()

	env := &testEnv{store: memory.NewStore()}

	var client *redis.Client
	if withCache {
		env.redis = miniredis.RunT(t)
		client = redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
		t.Cleanup(func() { _ = client.Close() })
	}

	env.sm = NewServiceManager(config.NewLogger(false), testConfig(), env.store, fakePinger{}, client, prometheus.NewRegistry())
	env.sm.AuthService.params = cheapArgon
	return env
}

func (env *testEnv) user(t *testing.T, name, email string) *tables.User {
	t.Helper()
	user := &tables.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, env.store.Users().Create(context.Background(), user))
	return user
}

func (env *testEnv) product(t *testing.T, name, price string) *tables.Product {
	t.Helper()
	product := &tables.Product{Name: name, Description: name, Price: decimal.RequireFromString(price), Stock: 5}
	require.NoError(t, env.store.Products().Create(context.Background(), product))
	return product
}

func ptr[T any](v T) *T { return &v }

func line(id uuid.UUID, qty int) structs.OrderLineRequest {
	return structs.OrderLineRequest{Id: ptr(id), Quantity: ptr(qty)}
}
