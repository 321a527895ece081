package pgstore

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func (s *Storage) withProvider(ctx context.Context, fn func(p *goose.Provider) error) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "migrations fs")
	}

	db := stdlib.OpenDBFromPool(s.db)
	defer db.Close()

	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return errors.Wrap(err, "goose provider")
	}
	return fn(p)
}

// MigrateUp applies every pending migration and returns the resulting version.
func (s *Storage) MigrateUp(ctx context.Context) (int64, error) {
	var version int64
	err := s.withProvider(ctx, func(p *goose.Provider) error {
		if _, err := p.Up(ctx); err != nil {
			return errors.Wrap(err, "migrate up")
		}
		v, err := p.GetDBVersion(ctx)
		version = v
		return errors.Wrap(err, "db version")
	})
	return version, err
}

// MigrateDown rolls back the most recent migration.
func (s *Storage) MigrateDown(ctx context.Context) (int64, error) {
	var version int64
	err := s.withProvider(ctx, func(p *goose.Provider) error {
		if _, err := p.Down(ctx); err != nil {
			return errors.Wrap(err, "migrate down")
		}
		v, err := p.GetDBVersion(ctx)
		version = v
		return errors.Wrap(err, "db version")
	})
	return version, err
}

type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

func (s *Storage) MigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	var out []MigrationStatus
	err := s.withProvider(ctx, func(p *goose.Provider) error {
		st, err := p.Status(ctx)
		if err != nil {
			return errors.Wrap(err, "migrate status")
		}
		for _, m := range st {
			out = append(out, MigrationStatus{
				Version: m.Source.Version,
				Path:    m.Source.Path,
				Applied: m.State == goose.StateApplied,
			})
		}
		return nil
	})
	return out, err
}
