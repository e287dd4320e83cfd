package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/spot-finder/backend/internal/models"
)

// UpsertRating writes the single rating a poster holds for a spot.
func (s *MongoStore) UpsertRating(ctx context.Context, spotID, posterID primitive.ObjectID, rating float64, at time.Time) error {
	filter := bson.D{{Key: "spotId", Value: spotID}, {Key: "posterId", Value: posterID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "rating", Value: rating},
			{Key: "createdAt", Value: at},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "reportCount", Value: 0}}},
	}
	_, err := s.col(ColSpotRatings).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert rating: %w", wrapError(err))
	}
	return nil
}

func (s *MongoStore) GetRating(ctx context.Context, id primitive.ObjectID) (*models.Rating, error) {
	return findOne[models.Rating](ctx, s.col(ColSpotRatings), bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) GetRatingBy(ctx context.Context, spotID, posterID primitive.ObjectID) (*models.Rating, error) {
	return findOne[models.Rating](ctx, s.col(ColSpotRatings), bson.D{
		{Key: "spotId", Value: spotID},
		{Key: "posterId", Value: posterID},
	})
}

func (s *MongoStore) ListRatings(ctx context.Context, spotID primitive.ObjectID) ([]models.Rating, error) {
	return findMany[models.Rating](ctx, s.col(ColSpotRatings), bson.D{{Key: "spotId", Value: spotID}}, newestFirst)
}

func (s *MongoStore) DeleteRating(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.col(ColSpotRatings), id)
}

func (s *MongoStore) DeleteRatingsBySpot(ctx context.Context, spotID primitive.ObjectID) (int64, error) {
	res, err := s.col(ColSpotRatings).DeleteMany(ctx, bson.D{{Key: "spotId", Value: spotID}})
	if err != nil {
		return 0, fmt.Errorf("mongo delete ratings: %w", err)
	}
	return res.DeletedCount, nil
}

// aggregatePipeline averages and counts the live ratings of one spot.
func aggregatePipeline(spotID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "spotId", Value: spotID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

// RecomputeAggregate rescans the spot's ratings and stores averageRating and
// totalRatings on the spot. A spot with no ratings gets 0 and 0.
func (s *MongoStore) RecomputeAggregate(ctx context.Context, spotID primitive.ObjectID) error {
	cur, err := s.col(ColSpotRatings).Aggregate(ctx, aggregatePipeline(spotID))
	if err != nil {
		return fmt.Errorf("mongo aggregate ratings: %w", err)
	}
	var rows []struct {
		Average float64 `bson:"average"`
		Total   int     `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return fmt.Errorf("mongo aggregate ratings: %w", err)
	}

	var average float64
	var total int
	if len(rows) > 0 {
		average, total = rows[0].Average, rows[0].Total
	}
	return updateByID(ctx, s.col(ColSpots), spotID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "averageRating", Value: average},
		{Key: "totalRatings", Value: total},
	}}})
}
