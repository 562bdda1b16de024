package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// ModifyInput carries the partial update of a modify request. Every field is
// tri-state: a nil pointer means "not supplied, leave untouched", a non-nil
// pointer is applied even when it points at an empty value. Details carries
// only the attribute fields actually present in the form.
type ModifyInput struct {
	Name        *string
	Description *string
	Price       *float64
	Details     map[string]string
	NewImage    []byte
}

// ModifyUsecase applies partial updates to an existing listing and
// optionally replaces its primary image.
type ModifyUsecase struct {
	repo    domain.ListingRepository
	storage domain.MediaStorage
	cache   domain.ListingCache
	folder  string
	logger  *zap.Logger
}

func NewModifyUsecase(repo domain.ListingRepository, storage domain.MediaStorage, cache domain.ListingCache, folder string, logger *zap.Logger) *ModifyUsecase {
	return &ModifyUsecase{
		repo:    repo,
		storage: storage,
		cache:   cache,
		folder:  folder,
		logger:  logger.Named("ModifyUsecase"),
	}
}

// Modify loads the listing, overwrites the supplied fields and persists the
// record. Attribute labels not already present on the record are ignored,
// never added. A supplied image replaces the primary image reference under
// the same public identifier. Returns only success or failure; callers get
// no updated payload.
func (uc *ModifyUsecase) Modify(ctx context.Context, id string, in ModifyInput) error {
	if id == "" {
		return domain.Validationf("missing offer id")
	}
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return err
		}
		uc.logger.Error("failed to load listing", zap.String("listing_id", id), zap.Error(err))
		return domain.Upstreamf("load listing: %v", err)
	}

	if err := validateModifyInput(in); err != nil {
		return err
	}

	if in.Name != nil {
		listing.Name = *in.Name
	}
	if in.Description != nil {
		listing.Description = *in.Description
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	for label, value := range in.Details {
		// Set is in-place only: labels the record never had stay absent.
		listing.Details.Set(label, value)
	}

	if len(in.NewImage) > 0 {
		ref, err := uc.storage.Upload(ctx, uc.folder, listing.ID, in.NewImage)
		if err != nil {
			uc.logger.Error("failed to upload replacement image",
				zap.String("listing_id", listing.ID), zap.Error(err))
			return domain.Upstreamf("upload image: %v", err)
		}
		listing.Image = &ref
	}

	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("failed to update listing", zap.String("listing_id", listing.ID), zap.Error(err))
		return domain.Upstreamf("update listing: %v", err)
	}
	if err := uc.cache.Invalidate(ctx, listing.ID); err != nil {
		uc.logger.Warn("failed to invalidate listing cache",
			zap.String("listing_id", listing.ID), zap.Error(err))
	}

	uc.logger.Info("listing modified", zap.String("listing_id", listing.ID))
	return nil
}

func validateModifyInput(in ModifyInput) error {
	// An explicitly supplied empty name or non-positive price is rejected
	// rather than skipped; an empty description is a legitimate clear.
	if in.Name != nil && (*in.Name == "" || len(*in.Name) > maxNameLen) {
		return domain.Validationf("price, title or description is invalid")
	}
	if in.Description != nil && len(*in.Description) > maxDescriptionLen {
		return domain.Validationf("price, title or description is invalid")
	}
	if in.Price != nil && (*in.Price <= 0 || *in.Price > maxPrice) {
		return domain.Validationf("price, title or description is invalid")
	}
	return nil
}
