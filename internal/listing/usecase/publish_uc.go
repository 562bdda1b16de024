package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

const (
	maxPrice          = 10000
	maxNameLen        = 50
	maxDescriptionLen = 500

	// Upload fan-out bounds. Every image of a request is uploaded
	// concurrently, but never more than maxConcurrentUploads at a time and
	// never longer than uploadTimeout each.
	maxConcurrentUploads = 4
	uploadTimeout        = 30 * time.Second
)

// Detail labels, in display order.
const (
	LabelBrand     = "brand"
	LabelSize      = "size"
	LabelCondition = "condition"
	LabelColor     = "color"
	LabelLocation  = "location"
)

// PublishInput carries the decoded multipart form of a publish request.
// Pictures holds the raw payloads in submission order; the handler already
// coerced a single file into a one-element slice.
type PublishInput struct {
	Title       string
	Description string
	Price       float64
	Condition   string
	City        string
	Brand       string
	Color       string
	Size        string
	Pictures    [][]byte
}

// PublishedOffer is the response projection of a successful publish: owner
// is reduced to the username, secondary images are not echoed back.
type PublishedOffer struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Details     domain.Details   `json:"details"`
	Owner       OwnerUsername    `json:"owner"`
	Image       *domain.ImageRef `json:"image"`
}

type OwnerUsername struct {
	Username string `json:"username"`
}

// PublishUsecase creates the listing record, coordinates the image uploads
// and finalizes the record with the stored references.
type PublishUsecase struct {
	repo      domain.ListingRepository
	storage   domain.MediaStorage
	publisher domain.EventPublisher
	folder    string
	logger    *zap.Logger
}

func NewPublishUsecase(repo domain.ListingRepository, storage domain.MediaStorage, publisher domain.EventPublisher, folder string, logger *zap.Logger) *PublishUsecase {
	return &PublishUsecase{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		folder:    folder,
		logger:    logger.Named("PublishUsecase"),
	}
}

// Publish validates the input, persists a draft record, uploads all images
// and re-persists the record with the image references. The draft write
// happens before any upload: a failed upload leaves the record behind with
// status upload_failed and no image references, and no rollback is
// attempted.
func (uc *PublishUsecase) Publish(ctx context.Context, in PublishInput, owner *domain.Account) (*PublishedOffer, error) {
	if err := validatePublishInput(in); err != nil {
		return nil, err
	}

	listing := &domain.Listing{
		OwnerID:     owner.ID,
		Name:        in.Title,
		Description: in.Description,
		Price:       in.Price,
		Details: domain.Details{
			{Label: LabelBrand, Value: in.Brand},
			{Label: LabelSize, Value: in.Size},
			{Label: LabelCondition, Value: in.Condition},
			{Label: LabelColor, Value: in.Color},
			{Label: LabelLocation, Value: in.City},
		},
		Status: domain.StatusDraft,
	}
	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("failed to create draft listing", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, domain.Upstreamf("create listing: %v", err)
	}

	listing.Status = domain.StatusUploading
	refs, err := uc.uploadAll(ctx, listing.ID, in.Pictures)
	if err != nil {
		// The draft record stays behind without image references; only its
		// status records the failed upload phase.
		listing.Status = domain.StatusUploadFailed
		if updErr := uc.repo.Update(ctx, listing); updErr != nil {
			uc.logger.Error("failed to mark listing upload_failed",
				zap.String("listing_id", listing.ID), zap.Error(updErr))
		}
		uc.logger.Error("image upload failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return nil, domain.Upstreamf("upload images: %v", err)
	}

	listing.Image = &refs[0]
	listing.Pictures = refs[1:]
	listing.Status = domain.StatusPublished
	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("failed to finalize listing", zap.String("listing_id", listing.ID), zap.Error(err))
		return nil, domain.Upstreamf("finalize listing: %v", err)
	}

	if err := uc.publisher.Publish(ctx, "listing.published", map[string]any{
		"listing_id": listing.ID,
		"owner_id":   listing.OwnerID,
		"price":      listing.Price,
	}); err != nil {
		uc.logger.Warn("failed to publish listing.published event",
			zap.String("listing_id", listing.ID), zap.Error(err))
	}

	uc.logger.Info("listing published",
		zap.String("listing_id", listing.ID),
		zap.String("owner_id", owner.ID),
		zap.Int("pictures", len(in.Pictures)))

	return &PublishedOffer{
		ID:          listing.ID,
		Name:        listing.Name,
		Description: listing.Description,
		Price:       listing.Price,
		Details:     listing.Details,
		Owner:       OwnerUsername{Username: owner.Username},
		Image:       listing.Image,
	}, nil
}

// uploadAll fans the uploads out and waits for all of them. The public
// identifier is the listing id for the first image and "<id>_<i>" for the
// rest, so the media store can later be cleaned by listing id. The first
// failure cancels the remaining uploads and fails the whole batch.
func (uc *PublishUsecase) uploadAll(ctx context.Context, listingID string, pictures [][]byte) ([]domain.ImageRef, error) {
	refs := make([]domain.ImageRef, len(pictures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i, data := range pictures {
		publicID := listingID
		if i > 0 {
			publicID = fmt.Sprintf("%s_%d", listingID, i)
		}
		g.Go(func() error {
			uctx, cancel := context.WithTimeout(gctx, uploadTimeout)
			defer cancel()

			ref, err := uc.storage.Upload(uctx, uc.folder, publicID, data)
			if err != nil {
				return fmt.Errorf("picture %s: %w", publicID, err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func validatePublishInput(in PublishInput) error {
	// Price <= 0 counts as missing, matching the falsy check of the wire
	// format this API replaces.
	if in.Title == "" || in.Price <= 0 || in.Condition == "" || in.City == "" || in.Brand == "" || in.Size == "" {
		return domain.Validationf("missing one important field: please mention title, price, condition, city, brand and size")
	}
	if in.Price > maxPrice || len(in.Title) > maxNameLen || len(in.Description) > maxDescriptionLen {
		return domain.Validationf("price, title or description is invalid")
	}
	if len(in.Pictures) == 0 {
		return domain.Validationf("missing one important field: need to send an image")
	}
	return nil
}
