package store

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/spot-finder/backend/internal/models"
)

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (s *MongoStore) InsertSpot(ctx context.Context, spot *models.Spot) (primitive.ObjectID, error) {
	oid, err := insertOne(ctx, s.col(ColSpots), spot)
	if err != nil {
		return oid, fmt.Errorf("mongo insert spot: %w", err)
	}
	return oid, nil
}

func (s *MongoStore) GetSpot(ctx context.Context, id primitive.ObjectID) (*models.Spot, error) {
	return findOne[models.Spot](ctx, s.col(ColSpots), bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) ListSpots(ctx context.Context, f models.SpotFilter) ([]models.Spot, error) {
	return findMany[models.Spot](ctx, s.col(ColSpots), spotFilter(f), newestFirst)
}

func (s *MongoStore) ListSpotsByPoster(ctx context.Context, posterID primitive.ObjectID) ([]models.Spot, error) {
	return findMany[models.Spot](ctx, s.col(ColSpots), bson.D{{Key: "posterId", Value: posterID}}, newestFirst)
}

// ListReportedSpots returns spots with at least minReports reports, most
// reported first. Hidden spots are included.
func (s *MongoStore) ListReportedSpots(ctx context.Context, minReports int) ([]models.Spot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reportCount", Value: -1}})
	filter := bson.D{{Key: "reportCount", Value: bson.D{{Key: "$gte", Value: minReports}}}}
	return findMany[models.Spot](ctx, s.col(ColSpots), filter, opts)
}

func (s *MongoStore) UpdateSpot(ctx context.Context, id primitive.ObjectID, u models.SpotUpdate) error {
	set := spotUpdateFields(u)
	if len(set) == 0 {
		return nil
	}
	return updateByID(ctx, s.col(ColSpots), id, bson.D{{Key: "$set", Value: set}})
}

func (s *MongoStore) DeleteSpot(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.col(ColSpots), id)
}

func (s *MongoStore) IncrementSpotReports(ctx context.Context, id primitive.ObjectID) error {
	return incrementReports(ctx, s.col(ColSpots), id)
}

// spotFilter builds the listing query. Spots at or above the hidden report
// threshold are always excluded.
func spotFilter(f models.SpotFilter) bson.D {
	filter := bson.D{{Key: "reportCount", Value: bson.D{{Key: "$lt", Value: models.HiddenReportThreshold}}}}

	if f.Keyword != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "accessibility", Value: re}},
			bson.D{{Key: "bestTimes", Value: re}},
		}})
	}
	if len(f.Tags) > 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$all", Value: f.Tags}}})
	}
	if f.MinRating != nil {
		filter = append(filter, bson.E{Key: "averageRating", Value: bson.D{{Key: "$gte", Value: *f.MinRating}}})
	}

	created := bson.D{}
	if f.FromDate != nil {
		created = append(created, bson.E{Key: "$gte", Value: *f.FromDate})
	}
	if f.ToDate != nil {
		op := "$lte"
		if f.ToExclusive {
			op = "$lt"
		}
		created = append(created, bson.E{Key: op, Value: *f.ToDate})
	}
	if len(created) > 0 {
		filter = append(filter, bson.E{Key: "createdAt", Value: created})
	}
	return filter
}

func spotUpdateFields(u models.SpotUpdate) bson.D {
	set := bson.D{}
	if u.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *u.Name})
	}
	if u.Location != nil {
		set = append(set, bson.E{Key: "location", Value: *u.Location})
	}
	if u.Address != nil {
		set = append(set, bson.E{Key: "address", Value: *u.Address})
	}
	if u.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *u.Description})
	}
	if u.Accessibility != nil {
		set = append(set, bson.E{Key: "accessibility", Value: *u.Accessibility})
	}
	if u.BestTimes != nil {
		set = append(set, bson.E{Key: "bestTimes", Value: u.BestTimes})
	}
	if u.Images != nil {
		set = append(set, bson.E{Key: "images", Value: u.Images})
	}
	if u.SetTags {
		tags := u.Tags
		if tags == nil {
			tags = []string{}
		}
		set = append(set, bson.E{Key: "tags", Value: tags})
	}
	return set
}
