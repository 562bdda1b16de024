package domain

import "context"

// ListingRepository persists listing records. FindByFilter returns the
// requested page together with the pre-pagination match count.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByFilter(ctx context.Context, filter Filter) ([]*Listing, int64, error)
}

// MediaStorage is the opaque blob sink for listing images. Upload places the
// payload under folder/publicID and returns the stored-object descriptor;
// Delete removes an object by its public identifier.
type MediaStorage interface {
	Upload(ctx context.Context, folder, publicID string, data []byte) (ImageRef, error)
	Delete(ctx context.Context, publicID string) error
}

// ListingCache is a read-through cache for single-listing lookups. Get
// returns (nil, nil) on a miss.
type ListingCache interface {
	Get(ctx context.Context, id string) (*Listing, error)
	Set(ctx context.Context, listing *Listing) error
	Invalidate(ctx context.Context, id string) error
}

// EventPublisher emits fire-and-forget lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// AccountDirectory resolves listing owners for projection expansion.
type AccountDirectory interface {
	FindAccount(ctx context.Context, id string) (*Account, error)
}
