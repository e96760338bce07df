package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
)

func (r *Repository) CreateOffer(ctx context.Context, o domain.Offer) (domain.Offer, error) {
	defer observe("offer.create")()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO offers (listing_id, buyer_name, buyer_phone)
		VALUES ($1, $2, $3)
		RETURNING id, submitted_at
	`, o.ListingID, o.BuyerName, o.BuyerPhone).Scan(&o.ID, &o.SubmittedAt)
	if err != nil {
		return domain.Offer{}, domain.StorageFailure(err, "create offer")
	}
	return o, nil
}

func (r *Repository) GetOffer(ctx context.Context, id int64) (domain.Offer, error) {
	defer observe("offer.get")()
	var o domain.Offer
	err := r.pool.QueryRow(ctx, `
		SELECT id, listing_id, buyer_name, buyer_phone, submitted_at
		FROM offers WHERE id = $1
	`, id).Scan(&o.ID, &o.ListingID, &o.BuyerName, &o.BuyerPhone, &o.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Offer{}, domain.StorageFailure(err, "get offer")
	}
	return o, nil
}

func (r *Repository) OffersByListing(ctx context.Context, listingID int64) ([]domain.Offer, error) {
	defer observe("offer.by_listing")()
	rows, err := r.pool.Query(ctx, `
		SELECT id, listing_id, buyer_name, buyer_phone, submitted_at
		FROM offers WHERE listing_id = $1 ORDER BY id
	`, listingID)
	if err != nil {
		return nil, domain.StorageFailure(err, "query offers")
	}
	defer rows.Close()

	offers := []domain.Offer{}
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(&o.ID, &o.ListingID, &o.BuyerName, &o.BuyerPhone, &o.SubmittedAt); err != nil {
			return nil, domain.StorageFailure(err, "scan offer")
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageFailure(err, "query offers")
	}
	return offers, nil
}

func (r *Repository) DeleteOffer(ctx context.Context, id int64) (bool, error) {
	defer observe("offer.delete")()
	result, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return false, domain.StorageFailure(err, "delete offer")
	}
	return result.RowsAffected() > 0, nil
}
