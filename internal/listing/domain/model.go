package domain

import "time"

type ListingStatus string

// Lifecycle of a listing. The record is created as draft before any media
// upload starts, so an upload failure always leaves a record whose status
// says what happened.
const (
	StatusDraft        ListingStatus = "draft"
	StatusUploading    ListingStatus = "uploading"
	StatusPublished    ListingStatus = "published"
	StatusUploadFailed ListingStatus = "upload_failed"
)

// ImageRef is the descriptor returned by the media store. It is stored and
// forwarded as-is; the core never parses it.
type ImageRef struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Detail is one labeled attribute of a listing (brand, size, ...).
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Details keeps attributes as an ordered sequence: display order matters,
// so this is not a map. Lookup and in-place update go through Get/Set.
type Details []Detail

func (d Details) Get(label string) (string, bool) {
	for i := range d {
		if d[i].Label == label {
			return d[i].Value, true
		}
	}
	return "", false
}

// Set overwrites the value of an existing label in place and reports
// whether the label was present. It never adds new labels.
func (d Details) Set(label, value string) bool {
	for i := range d {
		if d[i].Label == label {
			d[i].Value = value
			return true
		}
	}
	return false
}

type Listing struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Price       float64
	Details     Details
	Status      ListingStatus
	Image       *ImageRef  // primary image, nil until published
	Pictures    []ImageRef // secondary images, submission order
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Published reports whether the listing completed its upload phase and is
// visible to search.
func (l *Listing) Published() bool {
	return l.Status == StatusPublished && l.Image != nil
}

type SortMode string

const (
	SortNone      SortMode = ""
	SortPriceAsc  SortMode = "price-asc"
	SortPriceDesc SortMode = "price-des"
)

// PageSize is the fixed number of search results per page.
const PageSize = 4

// Filter is the normalized search specification executed by the repository.
type Filter struct {
	Name     string
	MinPrice float64
	MaxPrice float64
	// HasMaxPrice distinguishes "no upper bound" from MaxPrice == 0.
	HasMaxPrice bool
	Sort        SortMode
	Page        int
}

func (f Filter) Skip() int64 {
	return int64((f.Page - 1) * PageSize)
}

// Account is the slice of the user record the listing core needs for owner
// expansion. The user module owns the full entity.
type Account struct {
	ID       string
	Username string
	Avatar   *ImageRef
}
