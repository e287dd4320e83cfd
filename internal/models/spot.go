package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HiddenReportThreshold is the report count at which a spot drops out of
// listings.
const HiddenReportThreshold = 20

// Image is a remotely hosted asset. PublicID is the key used to delete it
// from the image host.
type Image struct {
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url"       bson:"url"`
}

// Location is a GeoJSON point; Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type"        bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewPoint builds a GeoJSON point from a longitude and latitude.
func NewPoint(longitude, latitude float64) Location {
	return Location{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

// Spot is a document in the spots collection. AverageRating and
// TotalRatings are derived from the spotRatings collection and are never
// written by callers directly.
type Spot struct {
	ID            primitive.ObjectID `json:"id"            bson:"_id,omitempty"`
	Name          string             `json:"name"          bson:"name"`
	Location      Location           `json:"location"      bson:"location"`
	Address       string             `json:"address"       bson:"address"`
	Description   string             `json:"description"   bson:"description"`
	Accessibility string             `json:"accessibility" bson:"accessibility"`
	BestTimes     []string           `json:"bestTimes"     bson:"bestTimes"`
	Images        []Image            `json:"images"        bson:"images"`
	Tags          []string           `json:"tags"          bson:"tags"`
	PosterID      primitive.ObjectID `json:"posterId"      bson:"posterId"`
	CreatedAt     time.Time          `json:"createdAt"     bson:"createdAt"`
	ReportCount   int                `json:"reportCount"   bson:"reportCount"`
	AverageRating float64            `json:"averageRating" bson:"averageRating"`
	TotalRatings  int                `json:"totalRatings"  bson:"totalRatings"`
}

// SpotRequest is the JSON body for creating (POST /api/spots) or patching
// (PATCH /api/spots/{id}) a spot. On a patch, nil fields are left untouched.
type SpotRequest struct {
	Name          any `json:"name"`
	Longitude     any `json:"longitude"`
	Latitude      any `json:"latitude"`
	Address       any `json:"address"`
	Description   any `json:"description"`
	Accessibility any `json:"accessibility"`
	BestTimes     any `json:"bestTimes"`
	Images        any `json:"images"`
	Tags          any `json:"tags"`
	CreatedAt     any `json:"createdAt"`
}

// SpotQuery holds the raw search parameters for listing spots.
type SpotQuery struct {
	Keyword   any
	Tags      any
	MinRating any
	FromDate  any
	ToDate    any
}

// SpotFilter is a validated SpotQuery. Zero values mean "no constraint".
type SpotFilter struct {
	Keyword   string
	Tags      []string
	MinRating *float64
	FromDate  *time.Time
	ToDate    *time.Time
	// ToExclusive makes ToDate an exclusive bound. A date-only toDate is
	// stored as the start of the following day with this set.
	ToExclusive bool
}

// SpotUpdate carries the validated fields of a patch. Nil fields are not
// written.
type SpotUpdate struct {
	Name          *string
	Location      *Location
	Address       *string
	Description   *string
	Accessibility *string
	BestTimes     []string
	Images        []Image
	Tags          []string
	// SetTags distinguishes "clear all tags" from "leave tags alone".
	SetTags bool
}

// Empty reports whether the update writes nothing.
func (u SpotUpdate) Empty() bool {
	return u.Name == nil && u.Location == nil && u.Address == nil &&
		u.Description == nil && u.Accessibility == nil &&
		u.BestTimes == nil && u.Images == nil && !u.SetTags
}
