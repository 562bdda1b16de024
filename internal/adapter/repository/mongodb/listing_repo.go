package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

type ListingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{collection: db.Collection("listings")}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	listing.ID = primitive.NewObjectID().Hex()
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt

	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return err
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	listing.UpdatedAt = time.Now()
	listing.Version++

	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: not valid id %q", domain.ErrListingNotFound, id)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed identifier can never match a record; callers see the
		// same not-found error either way.
		return nil, fmt.Errorf("%w: not valid id %q", domain.ErrListingNotFound, id)
	}

	var doc listingDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, int64, error) {
	query := buildListingQuery(filter)

	count, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, query, buildFindOptions(filter))
	if err != nil {
		return nil, 0, err
	}
	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	listings := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, toDomainListing(doc))
	}
	return listings, count, nil
}

// buildListingQuery translates a filter into a MongoDB query. Only
// published listings are visible to search; the minimum price bound is
// always present (0 by default) and the maximum only when requested.
func buildListingQuery(filter domain.Filter) bson.M {
	query := bson.M{"status": domain.StatusPublished}

	if filter.Name != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Name), Options: "i"}
	}
	price := bson.M{"$gte": filter.MinPrice}
	if filter.HasMaxPrice {
		price["$lte"] = filter.MaxPrice
	}
	query["price"] = price
	return query
}

func buildFindOptions(filter domain.Filter) *options.FindOptions {
	opts := options.Find().
		SetSkip(filter.Skip()).
		SetLimit(domain.PageSize)

	switch filter.Sort {
	case domain.SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case domain.SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	}
	return opts
}
