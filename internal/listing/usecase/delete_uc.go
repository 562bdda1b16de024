package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// DeleteUsecase removes a listing's primary image from the media store and
// then the listing record itself.
type DeleteUsecase struct {
	repo      domain.ListingRepository
	storage   domain.MediaStorage
	cache     domain.ListingCache
	publisher domain.EventPublisher
	logger    *zap.Logger
}

func NewDeleteUsecase(repo domain.ListingRepository, storage domain.MediaStorage, cache domain.ListingCache, publisher domain.EventPublisher, logger *zap.Logger) *DeleteUsecase {
	return &DeleteUsecase{
		repo:      repo,
		storage:   storage,
		cache:     cache,
		publisher: publisher,
		logger:    logger.Named("DeleteUsecase"),
	}
}

// Delete removes the primary image, then the record. A listing that never
// finished publishing has no primary image reference to delete and is
// rejected. Secondary images are not removed here; they stay behind in the
// media store.
func (uc *DeleteUsecase) Delete(ctx context.Context, id string) error {
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
	if listing.Image == nil {
		return domain.Validationf("offer has no primary image")
	}

	if err := uc.storage.Delete(ctx, listing.Image.PublicID); err != nil {
		uc.logger.Error("failed to delete primary image",
			zap.String("listing_id", id), zap.String("public_id", listing.Image.PublicID), zap.Error(err))
		return domain.Upstreamf("delete image: %v", err)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("failed to delete listing record", zap.String("listing_id", id), zap.Error(err))
		return domain.Upstreamf("delete listing: %v", err)
	}
	if err := uc.cache.Invalidate(ctx, id); err != nil {
		uc.logger.Warn("failed to invalidate listing cache", zap.String("listing_id", id), zap.Error(err))
	}

	if err := uc.publisher.Publish(ctx, "listing.deleted", map[string]any{
		"listing_id": id,
		"owner_id":   listing.OwnerID,
	}); err != nil {
		uc.logger.Warn("failed to publish listing.deleted event",
			zap.String("listing_id", id), zap.Error(err))
	}

	uc.logger.Info("listing deleted", zap.String("listing_id", id))
	return nil
}
