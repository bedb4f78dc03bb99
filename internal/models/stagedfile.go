// Package models defines the data types shared across the upload pipeline.
package models

// Coordinates is a WGS84 position extracted from EXIF GPS tags.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// StagedFile is an image picked up from disk and prepared for upload.
// Name is the cross-reference key with server-issued upload URLs, so it must
// stay exactly the original filename.
type StagedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`

	// DateTime is the EXIF capture timestamp normalized to ISO-8601
	// (YYYY-MM-DDTHH:MM:SS), or "" when the tag is absent.
	DateTime string `json:"date_time"`

	// Coordinates is nil when either GPS latitude or longitude is absent or
	// malformed. A partial pair is never produced.
	Coordinates *Coordinates `json:"coordinates"`
}
