// Package memory is an in-process listing and offer store. It honours the
// same contract as the CockroachDB repository and backs unit tests and
// STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	listings      map[int64]domain.Listing
	offers        map[int64]domain.Offer
	nextListingID int64
	nextOfferID   int64
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		now:      now,
		listings: make(map[int64]domain.Listing),
		offers:   make(map[int64]domain.Offer),
	}
}

func (s *Store) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListingID++
	l.ID = s.nextListingID
	l.CreatedAt = s.now().UTC()
	s.listings[l.ID] = l
	return l, nil
}

func (s *Store) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *Store) AllListings(ctx context.Context) ([]domain.Listing, error) {
	return s.selectListings(ctx, func(domain.Listing) bool { return true })
}

func (s *Store) ListingsByOwner(ctx context.Context, identity string) ([]domain.Listing, error) {
	return s.selectListings(ctx, func(l domain.Listing) bool { return l.OwnerIdentity == identity })
}

func (s *Store) selectListings(ctx context.Context, keep func(domain.Listing) bool) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []domain.Listing{}
	for _, l := range s.listings {
		if keep(l) {
			out = append(out, l)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteListing(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return false, nil
	}
	delete(s.listings, id)
	for oid, o := range s.offers {
		if o.ListingID == id {
			delete(s.offers, oid)
		}
	}
	return true, nil
}

func (s *Store) SetSettled(ctx context.Context, id int64, settled bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return false, nil
	}
	l.Settled = settled
	s.listings[id] = l
	return true, nil
}

func (s *Store) CreateOffer(ctx context.Context, o domain.Offer) (domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Offer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOfferID++
	o.ID = s.nextOfferID
	o.SubmittedAt = s.now().UTC()
	s.offers[o.ID] = o
	return o, nil
}

func (s *Store) GetOffer(ctx context.Context, id int64) (domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Offer{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[id]
	if !ok {
		return domain.Offer{}, domain.ErrNotFound
	}
	return o, nil
}

func (s *Store) OffersByListing(ctx context.Context, listingID int64) ([]domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []domain.Offer{}
	for _, o := range s.offers {
		if o.ListingID == listingID {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteOffer(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[id]; !ok {
		return false, nil
	}
	delete(s.offers, id)
	return true, nil
}
