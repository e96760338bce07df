package domain

import "time"

// OfferNotice is what the seller is told when a buyer submits an offer.
type OfferNotice struct {
	Recipient    string    `json:"recipient"`
	ListingID    int64     `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	OfferID      int64     `json:"offer_id"`
	BuyerName    string    `json:"buyer_name"`
	BuyerPhone   string    `json:"buyer_phone"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

func NoticeFor(l Listing, o Offer) OfferNotice {
	return OfferNotice{
		Recipient:    l.OwnerIdentity,
		ListingID:    l.ID,
		ListingTitle: l.Title,
		OfferID:      o.ID,
		BuyerName:    o.BuyerName,
		BuyerPhone:   o.BuyerPhone,
		SubmittedAt:  o.SubmittedAt,
	}
}
