package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

const (
	SerializationFailureCode = "40001"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS listings_id_seq;
CREATE TABLE IF NOT EXISTS listings (
	id INT8 PRIMARY KEY DEFAULT nextval('listings_id_seq'),
	owner_identity TEXT NOT NULL,
	title TEXT NOT NULL,
	category TEXT NOT NULL,
	price NUMERIC NOT NULL CHECK (price >= 0),
	event_date TIMESTAMPTZ NOT NULL,
	settled BOOL NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS listings_owner_idx ON listings (owner_identity);
CREATE SEQUENCE IF NOT EXISTS offers_id_seq;
CREATE TABLE IF NOT EXISTS offers (
	id INT8 PRIMARY KEY DEFAULT nextval('offers_id_seq'),
	listing_id INT8 NOT NULL,
	buyer_name TEXT NOT NULL,
	buyer_phone TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS offers_listing_idx ON offers (listing_id);
`

// Repository implements both the listing and the offer store on CockroachDB
// (or PostgreSQL). Ids come from sequences, so they are unique and increase
// in insertion order.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the tables and sequences if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return domain.StorageFailure(err, "migrate")
}

func (r *Repository) Ping(ctx context.Context) error {
	return domain.StorageFailure(r.pool.Ping(ctx), "ping")
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	return tx.Commit(ctx)
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		observability.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
