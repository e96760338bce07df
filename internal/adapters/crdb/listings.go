package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

const listingColumns = `id, owner_identity, title, category, price::TEXT, event_date, settled, created_at`

func (r *Repository) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	defer observe("listing.create")()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO listings (owner_identity, title, category, price, event_date, settled)
		VALUES ($1, $2, $3, $4::TEXT::NUMERIC, $5, $6)
		RETURNING id, created_at
	`, l.OwnerIdentity, l.Title, string(l.Category), l.Price.String(), l.EventDate, l.Settled).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return domain.Listing{}, domain.StorageFailure(err, "create listing")
	}
	return l, nil
}

func (r *Repository) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	defer observe("listing.get")()
	row := r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, domain.StorageFailure(err, "get listing")
	}
	return l, nil
}

func (r *Repository) AllListings(ctx context.Context) ([]domain.Listing, error) {
	defer observe("listing.all")()
	return r.queryListings(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
}

func (r *Repository) ListingsByOwner(ctx context.Context, identity string) ([]domain.Listing, error) {
	defer observe("listing.by_owner")()
	return r.queryListings(ctx, `SELECT `+listingColumns+` FROM listings WHERE owner_identity = $1 ORDER BY id`, identity)
}

// DeleteListing removes the listing and every offer pointing at it in one
// transaction.
func (r *Repository) DeleteListing(ctx context.Context, id int64) (bool, error) {
	defer observe("listing.delete")()
	var deleted bool
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM offers WHERE listing_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = result.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, domain.StorageFailure(err, "delete listing")
	}
	return deleted, nil
}

func (r *Repository) SetSettled(ctx context.Context, id int64, settled bool) (bool, error) {
	defer observe("listing.settle")()
	result, err := r.pool.Exec(ctx, `UPDATE listings SET settled = $2 WHERE id = $1`, id, settled)
	if err != nil {
		return false, domain.StorageFailure(err, "settle listing")
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repository) queryListings(ctx context.Context, sql string, args ...interface{}) ([]domain.Listing, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.StorageFailure(err, "query listings")
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, domain.StorageFailure(err, "scan listing")
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageFailure(err, "query listings")
	}
	return listings, nil
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		l        domain.Listing
		category string
		price    string
	)
	if err := row.Scan(&l.ID, &l.OwnerIdentity, &l.Title, &category, &price, &l.EventDate, &l.Settled, &l.CreatedAt); err != nil {
		return domain.Listing{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Listing{}, errors.Wrapf(err, "listing %d price", l.ID)
	}
	l.Category = domain.CategoryFromStorage(category)
	l.Price = p
	return l, nil
}
