package marketplace

import (
	"context"

	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
)

// ListingStore persists listings. Create assigns ID and CreatedAt. Delete and
// SetSettled report false when no row matched. Deleting a listing also
// removes its offers.
type ListingStore interface {
	CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error)
	GetListing(ctx context.Context, id int64) (domain.Listing, error)
	AllListings(ctx context.Context) ([]domain.Listing, error)
	ListingsByOwner(ctx context.Context, identity string) ([]domain.Listing, error)
	DeleteListing(ctx context.Context, id int64) (bool, error)
	SetSettled(ctx context.Context, id int64, settled bool) (bool, error)
}

// OfferStore persists offers. It does not check that ListingID exists.
type OfferStore interface {
	CreateOffer(ctx context.Context, o domain.Offer) (domain.Offer, error)
	GetOffer(ctx context.Context, id int64) (domain.Offer, error)
	OffersByListing(ctx context.Context, listingID int64) ([]domain.Offer, error)
	DeleteOffer(ctx context.Context, id int64) (bool, error)
}

// Notifier tells a seller about a new offer. Delivery is best-effort.
type Notifier interface {
	NotifyOffer(ctx context.Context, n domain.OfferNotice) error
}

// Auditor records marketplace actions. Failures are logged and ignored.
type Auditor interface {
	Record(ctx context.Context, action, actor string, data map[string]interface{}) error
}
