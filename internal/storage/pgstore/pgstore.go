package pgstore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var ErrDuplicate = errors.New("duplicate row")

type Storage struct {
	db *pgxpool.Pool
}

type options struct {
	migrate     bool
	connectWait time.Duration
}

type Option func(*options)

// WithoutMigrations skips applying pending migrations on start-up.
func WithoutMigrations() Option {
	return func(o *options) { o.migrate = false }
}

// WithConnectWait bounds how long New keeps retrying the first ping.
func WithConnectWait(d time.Duration) Option {
	return func(o *options) { o.connectWait = d }
}

func New(ctx context.Context, connString string, opts ...Option) (*Storage, error) {
	o := options{migrate: true, connectWait: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, db.Ping(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(o.connectWait))
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping pg")
	}

	s := &Storage{db: db}
	if o.migrate {
		if _, err := s.MigrateUp(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.Ping(ctx), "ping pg")
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
