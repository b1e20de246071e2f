package entity

import (
	"time"
)

// Place is a user-submitted point of interest. Address, Lat/Lng, ImageURL
// and CreatorID are immutable after creation; only Title and Description
// may change.
type Place struct {
	ID          string
	Title       string
	Description string
	Address     string // canonical formatted address from the geocoder
	Lat         float64
	Lng         float64
	ImageURL    string
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
