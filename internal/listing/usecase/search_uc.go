package usecase

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// SearchQuery carries the raw query parameters of a search request. All
// values are strings straight from the URL; translation into a Filter is
// this usecase's job.
type SearchQuery struct {
	Title    string
	PriceMin string
	PriceMax string
	Sort     string
	Page     string
}

// OfferSummary is one row of a search result page. The owner is expanded to
// id and username only and secondary images are never included in list view.
type OfferSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Details     domain.Details `json:"details"`
	ImageURL    string         `json:"image_url"`
	Owner       OwnerRef       `json:"owner"`
	Version     int64          `json:"version"`
}

type OwnerRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SearchResult is a page of offers plus the pre-pagination match count.
type SearchResult struct {
	Count  int64          `json:"count"`
	Offers []OfferSummary `json:"offers"`
}

// OfferView is the single-listing projection: the full record with the
// owner reduced to a username.
type OfferView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Details     domain.Details    `json:"details"`
	Image       *domain.ImageRef  `json:"image"`
	Pictures    []domain.ImageRef `json:"pictures"`
	Owner       OwnerUsername     `json:"owner"`
	Version     int64             `json:"version"`
}

// SearchUsecase translates query parameters into a filter specification,
// executes it and projects the results. It also serves single-listing
// lookups through the cache.
type SearchUsecase struct {
	repo     domain.ListingRepository
	cache    domain.ListingCache
	accounts domain.AccountDirectory
	logger   *zap.Logger
}

func NewSearchUsecase(repo domain.ListingRepository, cache domain.ListingCache, accounts domain.AccountDirectory, logger *zap.Logger) *SearchUsecase {
	return &SearchUsecase{
		repo:     repo,
		cache:    cache,
		accounts: accounts,
		logger:   logger.Named("SearchUsecase"),
	}
}

// Search executes a filtered, sorted, paginated listing query.
func (uc *SearchUsecase) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	filter := translateQuery(q)

	listings, count, err := uc.repo.FindByFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("failed to search listings", zap.Error(err))
		return nil, domain.Upstreamf("search listings: %v", err)
	}

	offers := make([]OfferSummary, 0, len(listings))
	owners := map[string]*domain.Account{}
	for _, l := range listings {
		owner, ok := owners[l.OwnerID]
		if !ok {
			owner, err = uc.accounts.FindAccount(ctx, l.OwnerID)
			if err != nil {
				uc.logger.Warn("failed to expand listing owner",
					zap.String("listing_id", l.ID), zap.String("owner_id", l.OwnerID), zap.Error(err))
				owner = &domain.Account{ID: l.OwnerID}
			}
			owners[l.OwnerID] = owner
		}

		var imageURL string
		if l.Image != nil {
			imageURL = l.Image.URL
		}
		offers = append(offers, OfferSummary{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Price:       l.Price,
			Details:     l.Details,
			ImageURL:    imageURL,
			Owner:       OwnerRef{ID: owner.ID, Username: owner.Username},
			Version:     l.Version,
		})
	}
	return &SearchResult{Count: count, Offers: offers}, nil
}

// Get returns a single listing by identifier, cache first. A malformed
// identifier surfaces the same way as an unknown one.
func (uc *SearchUsecase) Get(ctx context.Context, id string) (*OfferView, error) {
	listing, err := uc.cache.Get(ctx, id)
	if err != nil {
		uc.logger.Warn("listing cache read failed", zap.String("listing_id", id), zap.Error(err))
	}
	if listing == nil {
		listing, err = uc.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrListingNotFound) {
				return nil, err
			}
			uc.logger.Error("failed to load listing", zap.String("listing_id", id), zap.Error(err))
			return nil, domain.Upstreamf("load listing: %v", err)
		}
		if err := uc.cache.Set(ctx, listing); err != nil {
			uc.logger.Warn("listing cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}

	owner, err := uc.accounts.FindAccount(ctx, listing.OwnerID)
	if err != nil {
		uc.logger.Warn("failed to expand listing owner",
			zap.String("listing_id", listing.ID), zap.String("owner_id", listing.OwnerID), zap.Error(err))
		owner = &domain.Account{ID: listing.OwnerID}
	}

	return &OfferView{
		ID:          listing.ID,
		Name:        listing.Name,
		Description: listing.Description,
		Price:       listing.Price,
		Details:     listing.Details,
		Image:       listing.Image,
		Pictures:    listing.Pictures,
		Owner:       OwnerUsername{Username: owner.Username},
		Version:     listing.Version,
	}, nil
}

// translateQuery normalizes raw query parameters: an unusable priceMin
// falls back to 0, priceMax applies only when valid and positive, an
// unusable page falls back to 1 and unknown sort values mean unsorted.
func translateQuery(q SearchQuery) domain.Filter {
	filter := domain.Filter{Name: q.Title, Page: 1}

	if min, err := strconv.ParseFloat(q.PriceMin, 64); err == nil && min > 0 {
		filter.MinPrice = min
	}
	if max, err := strconv.ParseFloat(q.PriceMax, 64); err == nil && max > 0 {
		filter.MaxPrice = max
		filter.HasMaxPrice = true
	}
	if page, err := strconv.Atoi(q.Page); err == nil && page > 0 {
		filter.Page = page
	}
	switch domain.SortMode(q.Sort) {
	case domain.SortPriceAsc:
		filter.Sort = domain.SortPriceAsc
	case domain.SortPriceDesc:
		filter.Sort = domain.SortPriceDesc
	}
	return filter
}
