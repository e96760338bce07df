package domain

import (
	"strings"
	"time"
)

type Offer struct {
	ID          int64     `json:"id"`
	ListingID   int64     `json:"listing_id"`
	BuyerName   string    `json:"buyer_name"`
	BuyerPhone  string    `json:"buyer_phone"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SellerOffer is an offer decorated with its parent listing, as shown on the
// seller's "my offers" page.
type SellerOffer struct {
	Offer
	ListingTitle string `json:"listing_title"`
}

// NewOffer validates buyer contact details and returns the offer to persist.
func NewOffer(listingID int64, buyerName, buyerPhone string) (Offer, error) {
	buyerName = strings.TrimSpace(buyerName)
	buyerPhone = strings.TrimSpace(buyerPhone)
	if buyerName == "" {
		return Offer{}, invalid("buyer_name", "must not be empty")
	}
	if buyerPhone == "" {
		return Offer{}, invalid("buyer_phone", "must not be empty")
	}
	return Offer{ListingID: listingID, BuyerName: buyerName, BuyerPhone: buyerPhone}, nil
}
