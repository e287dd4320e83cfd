package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/spot-finder/backend/internal/models"
)

func (s *MongoStore) InsertComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error) {
	oid, err := insertOne(ctx, s.col(ColComments), c)
	if err != nil {
		return oid, fmt.Errorf("mongo insert comment: %w", err)
	}
	return oid, nil
}

func (s *MongoStore) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	return findOne[models.Comment](ctx, s.col(ColComments), bson.D{{Key: "_id", Value: id}})
}

// ListComments returns the comments on a spot, oldest first.
func (s *MongoStore) ListComments(ctx context.Context, spotID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findMany[models.Comment](ctx, s.col(ColComments), bson.D{{Key: "spotId", Value: spotID}}, opts)
}

func (s *MongoStore) ListReportedComments(ctx context.Context, minReports int) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reportCount", Value: -1}})
	filter := bson.D{{Key: "reportCount", Value: bson.D{{Key: "$gte", Value: minReports}}}}
	return findMany[models.Comment](ctx, s.col(ColComments), filter, opts)
}

// UpdateComment replaces the message, and the image when one is given.
// removeImage unsets the stored image instead.
func (s *MongoStore) UpdateComment(ctx context.Context, id primitive.ObjectID, message string, image *models.Image, removeImage bool) error {
	set := bson.D{{Key: "message", Value: message}}
	if image != nil {
		set = append(set, bson.E{Key: "image", Value: *image})
	}
	update := bson.D{{Key: "$set", Value: set}}
	if removeImage {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "image", Value: ""}}})
	}
	return updateByID(ctx, s.col(ColComments), id, update)
}

func (s *MongoStore) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.col(ColComments), id)
}

func (s *MongoStore) DeleteCommentsBySpot(ctx context.Context, spotID primitive.ObjectID) (int64, error) {
	res, err := s.col(ColComments).DeleteMany(ctx, bson.D{{Key: "spotId", Value: spotID}})
	if err != nil {
		return 0, fmt.Errorf("mongo delete comments: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) IncrementCommentReports(ctx context.Context, id primitive.ObjectID) error {
	return incrementReports(ctx, s.col(ColComments), id)
}

// ReferencedImageIDs returns the public ids of every image attached to a
// live spot or comment.
func (s *MongoStore) ReferencedImageIDs(ctx context.Context) (map[string]struct{}, error) {
	refs := make(map[string]struct{})

	spotIDs, err := s.col(ColSpots).Distinct(ctx, "images.public_id", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo distinct spot images: %w", err)
	}
	commentIDs, err := s.col(ColComments).Distinct(ctx, "image.public_id", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo distinct comment images: %w", err)
	}
	for _, v := range append(spotIDs, commentIDs...) {
		if id, ok := v.(string); ok {
			refs[id] = struct{}{}
		}
	}
	return refs, nil
}
