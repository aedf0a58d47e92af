package model

import "time"

// Product is a game listed in the catalog.
//
// The `json` tags match what the storefront consumes: lower-camel for most
// fields but "imageurl"/"videourl" kept lowercase for compatibility with the
// existing frontend.
//
// Price is a float64 so it always serializes as a JSON number, never a
// string — the frontend does arithmetic on it directly.
//
// ImageURL and VideoURL are pointers: a product without media serializes the
// field as null rather than "".
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ReleaseDate string    `json:"releaseDate"` // YYYY-MM-DD, set by the server at creation
	ImageURL    *string   `json:"imageurl"`
	VideoURL    *string   `json:"videourl,omitempty"`
	CreatedAt   time.Time `json:"-"`
}

// Platform is a console or storefront a game can be sold for
// (e.g. "PlayStation 5", "PC").
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductPlatform is one entry in a product's platform list: the platform
// plus whether that particular copy is pre-owned.
//
// It flattens the platforms ↔ products join for the detail response:
// {"id": 1, "name": "PlayStation 5", "used": false}
type ProductPlatform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Used bool   `json:"used"`
}

// ProductDetail is the full detail-view payload: the product plus every
// platform association it has. Platforms is always non-nil so an empty list
// serializes as [] instead of null.
//
// VideoURL shadows the embedded field: the detail body always carries an
// explicit "videourl" (null when the product has no video), while list rows
// omit the key entirely.
type ProductDetail struct {
	Product
	VideoURL  *string           `json:"videourl"`
	Platforms []ProductPlatform `json:"platforms"`
}
