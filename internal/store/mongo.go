package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ColUsers       = "users"
	ColSpots       = "spots"
	ColComments    = "comments"
	ColSpotRatings = "spotRatings"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// MongoStore handles users, spots, comments and ratings in MongoDB.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// NewMongoStore wraps db. When transactions is set, WithTransaction runs its
// callback in a multi-document transaction, which needs a replica set.
func NewMongoStore(db *mongo.Database, transactions bool) *MongoStore {
	return &MongoStore{client: db.Client(), db: db, transactions: transactions}
}

// Connect dials uri and pings the server.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// indexes back the username and one-rating-per-user rules.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "username", Value: 1}}, true},

		{ColSpots, bson.D{{Key: "posterId", Value: 1}}, false},
		{ColSpots, bson.D{{Key: "createdAt", Value: -1}}, false},
		{ColSpots, bson.D{{Key: "tags", Value: 1}}, false},
		{ColSpots, bson.D{{Key: "reportCount", Value: 1}}, false},

		{ColComments, bson.D{{Key: "spotId", Value: 1}}, false},

		{ColSpotRatings, bson.D{{Key: "spotId", Value: 1}, {Key: "posterId", Value: 1}}, true},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

// WithTransaction runs fn inside a session transaction when enabled, and
// directly otherwise.
func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		log.Warn().Err(err).Msg("mongo transaction aborted")
	}
	return err
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// findOne returns (nil, nil) when no document matches.
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...*options.FindOneOptions) (*T, error) {
	var result T
	if err := col.FindOne(ctx, filter, opts...).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(err)
	}
	return &result, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cur.Close(ctx)

	results := []T{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, wrapError(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id %T", res.InsertedID)
	}
	return oid, nil
}

// updateByID applies update to the document with _id id. ErrNotFound when
// nothing matched.
func updateByID(ctx context.Context, col *mongo.Collection, id primitive.ObjectID, update bson.D) error {
	res, err := col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) error {
	res, err := col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func incrementReports(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) error {
	return updateByID(ctx, col, id, bson.D{{Key: "$inc", Value: bson.D{{Key: "reportCount", Value: 1}}}})
}
