// Package migrations embeds the schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Runner applies embedded migrations to one database.
type Runner struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// New opens a migration runner for the database at url (postgres://...).
func New(url string, logger *slog.Logger) (*Runner, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("open migration target: %w", err)
	}
	m.Log = &migrateLogger{logger: logger}

	return &Runner{m: m, logger: logger.With("system", "migrations")}, nil
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	return r.result(r.m.Up())
}

// Down rolls back every migration.
func (r *Runner) Down() error {
	return r.result(r.m.Down())
}

// Steps applies n migrations, rolling back when n is negative.
func (r *Runner) Steps(n int) error {
	return r.result(r.m.Steps(n))
}

// Version reports the applied version and whether the schema is dirty.
// A database with no migrations applied reports version 0.
func (r *Runner) Version() (uint, bool, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the source and database handles.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (r *Runner) result(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("schema up to date")
		return nil
	}
	return err
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
