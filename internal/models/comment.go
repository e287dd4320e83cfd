package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a document in the comments collection.
type Comment struct {
	ID          primitive.ObjectID `json:"id"              bson:"_id,omitempty"`
	SpotID      primitive.ObjectID `json:"spotId"          bson:"spotId"`
	PosterID    primitive.ObjectID `json:"posterId"        bson:"posterId"`
	Message     string             `json:"message"         bson:"message"`
	Image       *Image             `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"       bson:"createdAt"`
	ReportCount int                `json:"reportCount"     bson:"reportCount"`
}

// CommentRequest is the JSON body for adding or editing a comment.
// RemoveImage detaches the current image on an edit.
type CommentRequest struct {
	Message     any  `json:"message"`
	Image       any  `json:"image"`
	RemoveImage bool `json:"removeImage"`
}

// Rating is a document in the spotRatings collection. At most one exists per
// (SpotID, PosterID).
type Rating struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	SpotID      primitive.ObjectID `json:"spotId"      bson:"spotId"`
	PosterID    primitive.ObjectID `json:"posterId"    bson:"posterId"`
	Rating      float64            `json:"rating"      bson:"rating"`
	CreatedAt   time.Time          `json:"createdAt"   bson:"createdAt"`
	ReportCount int                `json:"reportCount" bson:"reportCount"`
}

// RatingRequest is the JSON body for PUT /api/spots/{id}/rating.
type RatingRequest struct {
	Rating any `json:"rating"`
}

// Flag records one user reporting one piece of content.
type Flag struct {
	ID         int64     `json:"id"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	ReporterID string    `json:"reporterId"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	FlagTargetSpot    = "spot"
	FlagTargetComment = "comment"
)

// ReportRequest is the JSON body for flagging content.
type ReportRequest struct {
	Reason any `json:"reason"`
}
