package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// listingDocument is the MongoDB shape of a listing. Details are stored as
// an array of single-label documents so their display order survives the
// round trip.
type listingDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID   `bson:"owner_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       float64              `bson:"price"`
	Details     []detailDocument     `bson:"details"`
	Status      domain.ListingStatus `bson:"status"`
	Image       *imageDocument       `bson:"image,omitempty"`
	Pictures    []imageDocument      `bson:"pictures,omitempty"`
	Version     int64                `bson:"version"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

type detailDocument struct {
	Label string `bson:"label"`
	Value string `bson:"value"`
}

type imageDocument struct {
	URL      string `bson:"url"`
	PublicID string `bson:"public_id"`
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	if l == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if l.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("toListingDocument: invalid listing id %q: %w", l.ID, err)
		}
	}
	ownerID, err := primitive.ObjectIDFromHex(l.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("toListingDocument: invalid owner id %q: %w", l.OwnerID, err)
	}

	details := make([]detailDocument, 0, len(l.Details))
	for _, d := range l.Details {
		details = append(details, detailDocument{Label: d.Label, Value: d.Value})
	}
	pictures := make([]imageDocument, 0, len(l.Pictures))
	for _, p := range l.Pictures {
		pictures = append(pictures, imageDocument(p))
	}

	doc := &listingDocument{
		ID:          docID,
		OwnerID:     ownerID,
		Name:        l.Name,
		Description: l.Description,
		Price:       l.Price,
		Details:     details,
		Status:      l.Status,
		Pictures:    pictures,
		Version:     l.Version,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.Image != nil {
		img := imageDocument(*l.Image)
		doc.Image = &img
	}
	return doc, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	if d == nil {
		return nil
	}

	details := make(domain.Details, 0, len(d.Details))
	for _, dd := range d.Details {
		details = append(details, domain.Detail{Label: dd.Label, Value: dd.Value})
	}
	pictures := make([]domain.ImageRef, 0, len(d.Pictures))
	for _, p := range d.Pictures {
		pictures = append(pictures, domain.ImageRef(p))
	}

	l := &domain.Listing{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Details:     details,
		Status:      d.Status,
		Pictures:    pictures,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Image != nil {
		img := domain.ImageRef(*d.Image)
		l.Image = &img
	}
	return l
}
