package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// fakeRepo is an in-memory ListingRepository with the same filter semantics
// as the MongoDB adapter: only published listings match, minimum price is
// always applied, pagination is fixed at domain.PageSize.
type fakeRepo struct {
	mu        sync.Mutex
	listings  map[string]*domain.Listing
	seq       int
	createErr error
	updateErr error
	findErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{listings: map[string]*domain.Listing{}}
}

func (r *fakeRepo) Create(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	listing.ID = fmt.Sprintf("listing-%d", r.seq)
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.listings[listing.ID]; !ok {
		return domain.ErrListingNotFound
	}
	listing.Version++
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	listing, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return cloneListing(listing), nil
}

func (r *fakeRepo) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []*domain.Listing
	for _, l := range r.listings {
		if !l.Published() {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if l.Price < filter.MinPrice {
			continue
		}
		if filter.HasMaxPrice && l.Price > filter.MaxPrice {
			continue
		}
		matches = append(matches, cloneListing(l))
	}

	switch filter.Sort {
	case domain.SortPriceAsc:
		sort.Slice(matches, func(i, j int) bool { return matches[i].Price < matches[j].Price })
	case domain.SortPriceDesc:
		sort.Slice(matches, func(i, j int) bool { return matches[i].Price > matches[j].Price })
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	}

	count := int64(len(matches))
	start := int(filter.Skip())
	if start > len(matches) {
		start = len(matches)
	}
	end := start + domain.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], count, nil
}

func (r *fakeRepo) stored(id string) *domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneListing(r.listings[id])
}

func (r *fakeRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listings)
}

func cloneListing(l *domain.Listing) *domain.Listing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Details = append(domain.Details(nil), l.Details...)
	clone.Pictures = append([]domain.ImageRef(nil), l.Pictures...)
	if l.Image != nil {
		img := *l.Image
		clone.Image = &img
	}
	return &clone
}

type uploadCall struct {
	folder   string
	publicID string
	size     int
}

// fakeStorage records uploads and deletions; uploadErr fails every upload.
type fakeStorage struct {
	mu        sync.Mutex
	uploads   []uploadCall
	deleted   []string
	uploadErr error
	deleteErr error
}

func (s *fakeStorage) Upload(ctx context.Context, folder, publicID string, data []byte) (domain.ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return domain.ImageRef{}, s.uploadErr
	}
	s.uploads = append(s.uploads, uploadCall{folder: folder, publicID: publicID, size: len(data)})
	return domain.ImageRef{
		URL:      "http://media.local/" + folder + "/" + publicID,
		PublicID: publicID,
	}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, publicID)
	return nil
}

func (s *fakeStorage) uploadedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.uploads))
	for _, u := range s.uploads {
		ids = append(ids, u.publicID)
	}
	sort.Strings(ids)
	return ids
}

// fakePublisher records emitted events.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

// fakeCache is a plain map cache that counts invalidations.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Listing
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*domain.Listing{}}
}

func (c *fakeCache) Get(ctx context.Context, id string) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneListing(c.entries[id]), nil
}

func (c *fakeCache) Set(ctx context.Context, listing *domain.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[listing.ID] = cloneListing(listing)
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// fakeDirectory resolves owners from a fixed map.
type fakeDirectory struct {
	accounts map[string]*domain.Account
}

func (d *fakeDirectory) FindAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := d.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	return account, nil
}
