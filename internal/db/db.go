package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	applog "blogpost/internal/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations
var migrations embed.FS

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidPost    = errors.New("post title and content must not be blank")
	ErrPageOutOfRange = errors.New("page out of range")
)

type Config struct {
	Driver string // "sqlite3" or "pgx"
	DSN    string
}

type Store struct {
	db  *gorm.DB
	sql *sql.DB
}

// Open connects to the configured database, applies pending migrations and
// returns a Store backed by gorm.
func Open(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (*Store, error) {
	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite3" {
		// sqlite serializes writers; a single connection also keeps
		// :memory: databases alive across queries
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	if err := Migrate(ctx, sqlDB, cfg.Driver, "up", logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	gdb, err := gorm.Open(dialector(cfg.Driver, sqlDB), &gorm.Config{
		Logger: gormlogger.New(applog.PrintfLogger{SugaredLogger: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	return &Store{db: gdb, sql: sqlDB}, nil
}

func dialector(driver string, conn *sql.DB) gorm.Dialector {
	if driver == "pgx" {
		return postgres.New(postgres.Config{Conn: conn})
	}
	return &sqlite.Dialector{DriverName: "sqlite3", Conn: conn}
}

// Migrate runs a goose command ("up", "down" or "status") against the
// embedded migrations for driver.
func Migrate(ctx context.Context, sqlDB *sql.DB, driver, command string, logger *zap.SugaredLogger) error {
	dialect, dir := "sqlite3", "migrations/sqlite3"
	if driver == "pgx" {
		dialect, dir = "postgres", "migrations/postgres"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(applog.PrintfLogger{SugaredLogger: logger})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, sqlDB, dir)
	case "down":
		err = goose.DownContext(ctx, sqlDB, dir)
	case "status":
		err = goose.StatusContext(ctx, sqlDB, dir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sql.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.sql.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
