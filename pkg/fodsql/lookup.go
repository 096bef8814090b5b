// Package fodsql reads ids straight from the product database of a QA stage
// when the UI and API offer no lookup for them.
package fodsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const (
	queryTenantID      = `SELECT id FROM tenants WHERE name = ?`
	queryTenantIDCode  = `SELECT id FROM tenants WHERE code = ?`
	queryApplicationID = `SELECT id FROM applications WHERE tenant_id = ? AND name = ?`
	queryUserID        = `SELECT id FROM users WHERE tenant_id = ? AND user_name = ?`
	queryReleaseID     = `SELECT id FROM releases WHERE application_id = ? AND name = ?`
	queryReleases      = `SELECT id, name, application_id FROM releases WHERE application_id = ? ORDER BY id`
)

type Lookup struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

// Release is a row of the releases table.
type Release struct {
	ID            int    `db:"id"`
	Name          string `db:"name"`
	ApplicationID int    `db:"application_id"`
}

// Open connects with driver "postgres" or "sqlite3".
func Open(driver, dsn string, log *zap.SugaredLogger) (*Lookup, error) {
	if driver == "" || dsn == "" {
		return nil, errors.New("database driver and dsn are required")
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)
	return New(db, log), nil
}

// OpenFromConfig opens the database configured for the stage.
func OpenFromConfig(cfg config.Database, log *zap.SugaredLogger) (*Lookup, error) {
	return Open(cfg.Driver, cfg.DSN, log)
}

func New(db *sqlx.DB, log *zap.SugaredLogger) *Lookup {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Lookup{db: db, log: log}
}

func (l *Lookup) Close() error { return l.db.Close() }

// DB exposes the handle for ad-hoc assertions.
func (l *Lookup) DB() *sqlx.DB { return l.db }

func (l *Lookup) id(ctx context.Context, what, query string, args ...interface{}) (int, error) {
	var id int
	err := l.db.GetContext(ctx, &id, l.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s %v: %w", what, args, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up %s: %w", what, err)
	}
	l.log.Debugw("Database lookup", "what", what, "args", args, "id", id)
	return id, nil
}

func (l *Lookup) TenantIDByName(ctx context.Context, name string) (int, error) {
	return l.id(ctx, "tenant", queryTenantID, name)
}

func (l *Lookup) TenantIDByCode(ctx context.Context, code string) (int, error) {
	return l.id(ctx, "tenant", queryTenantIDCode, code)
}

func (l *Lookup) ApplicationIDByName(ctx context.Context, tenantID int, name string) (int, error) {
	return l.id(ctx, "application", queryApplicationID, tenantID, name)
}

func (l *Lookup) UserIDByUserName(ctx context.Context, tenantID int, userName string) (int, error) {
	return l.id(ctx, "user", queryUserID, tenantID, userName)
}

func (l *Lookup) ReleaseIDByName(ctx context.Context, applicationID int, name string) (int, error) {
	return l.id(ctx, "release", queryReleaseID, applicationID, name)
}

// Releases lists the releases of an application in creation order.
func (l *Lookup) Releases(ctx context.Context, applicationID int) ([]Release, error) {
	var out []Release
	if err := l.db.SelectContext(ctx, &out, l.db.Rebind(queryReleases), applicationID); err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	return out, nil
}
