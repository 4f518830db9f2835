package database

import (
	"commerce_server/config"
	"commerce_server/structs"
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/MonkyMars/gecho"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DB wraps the bun database handle with additional functionality
type DB struct {
	*bun.DB
}

var instance *DB

// Connect opens a pool with the configured driver and pings it, retrying
// while the server is still starting up.
func Connect(ctx context.Context, dbCfg *structs.DatabaseConfig, logger *gecho.Logger) (*DB, error) {
	sqldb, err := openSQL(dbCfg)
	if err != nil {
		return nil, err
	}

	// Apply pool settings from configuration
	sqldb.SetMaxOpenConns(dbCfg.MaxConns)
	sqldb.SetMaxIdleConns(dbCfg.MinConns)
	sqldb.SetConnMaxLifetime(dbCfg.MaxLifetime)
	sqldb.SetConnMaxIdleTime(dbCfg.MaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(&connectionHealthHook{logger: logger, slow: dbCfg.SlowQuery})

	pingCfg := DefaultRetryConfig()
	pingCfg.MaxAttempts = 5
	err = RetryWithBackoff(ctx, pingCfg, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully", gecho.Field("driver", dbCfg.Driver), gecho.Field("host", dbCfg.Host))

	return &DB{db}, nil
}

func openSQL(dbCfg *structs.DatabaseConfig) (*sql.DB, error) {
	addr := net.JoinHostPort(dbCfg.Host, strconv.Itoa(dbCfg.Port))

	switch dbCfg.Driver {
	case "pgx":
		dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", dbCfg.User, dbCfg.Password, addr, dbCfg.Name, dbCfg.SSLMode)
		return sql.Open("pgx", dsn)
	case "pgdriver", "":
		connector := pgdriver.NewConnector(
			pgdriver.WithAddr(addr),
			pgdriver.WithUser(dbCfg.User),
			pgdriver.WithPassword(dbCfg.Password),
			pgdriver.WithDatabase(dbCfg.Name),
			pgdriver.WithInsecure(dbCfg.SSLMode == "disable"),
			pgdriver.WithReadTimeout(dbCfg.ReadTimeout),
			pgdriver.WithWriteTimeout(dbCfg.WriteTimeout),
			pgdriver.WithApplicationName(config.GetConfig().Server.AppName),
		)
		return sql.OpenDB(connector), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}
}

// Initialize sets up the global database instance using centralized configuration
func Initialize() error {
	db, err := Connect(context.Background(), config.GetConfig().Database, config.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	instance = db
	return nil
}

// GetInstance returns the global database instance
func GetInstance() *DB {
	if instance == nil {
		config.GetLogger().Fatal("Database instance is not initialized. Call Initialize() first.")
	}
	return instance
}

// CloseInstance closes the global database instance
func CloseInstance() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

// connectionHealthHook implements bun.QueryHook to log slow and failed queries
type connectionHealthHook struct {
	logger *gecho.Logger
	slow   time.Duration
}

func (h *connectionHealthHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *connectionHealthHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	if h.slow > 0 && duration > h.slow {
		h.logger.Warn("Slow database query detected",
			gecho.Field("query", event.Query),
			gecho.Field("duration", duration),
		)
	}

	if event.Err != nil && isRetryableError(event.Err) {
		h.logger.Error("Database connection error",
			gecho.Field("error", event.Err),
			gecho.Field("operation", event.Operation()),
		)
	}
}
