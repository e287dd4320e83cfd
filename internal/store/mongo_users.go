package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/spot-finder/backend/internal/models"
)

var withoutCredentials = options.FindOne().SetProjection(bson.D{
	{Key: "password", Value: 0},
	{Key: "otp", Value: 0},
	{Key: "otpExpiration", Value: 0},
})

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	oid, err := insertOne(ctx, s.col(ColUsers), user)
	if err != nil {
		return oid, fmt.Errorf("mongo insert user: %w", err)
	}
	return oid, nil
}

// GetUserByID never returns the password hash.
func (s *MongoStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}}, withoutCredentials)
}

// GetUserWithSecrets returns the full document, including the otp fields.
func (s *MongoStore) GetUserWithSecrets(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// GetUserByUsername looks up an already lower-cased username. The password
// hash is only loaded when includePassword is set.
func (s *MongoStore) GetUserByUsername(ctx context.Context, username string, includePassword bool) (*models.User, error) {
	filter := bson.D{{Key: "username", Value: username}}
	if includePassword {
		return findOne[models.User](ctx, s.col(ColUsers), filter)
	}
	return findOne[models.User](ctx, s.col(ColUsers), filter, withoutCredentials)
}

func (s *MongoStore) UpdateUser(ctx context.Context, id primitive.ObjectID, u models.UserUpdate) error {
	set := bson.D{}
	if u.FirstName != nil {
		set = append(set, bson.E{Key: "firstName", Value: *u.FirstName})
	}
	if u.LastName != nil {
		set = append(set, bson.E{Key: "lastName", Value: *u.LastName})
	}
	if u.Bio != nil {
		set = append(set, bson.E{Key: "bio", Value: *u.Bio})
	}
	if u.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *u.Email})
	}
	if u.EmailVerified != nil {
		set = append(set, bson.E{Key: "emailVerified", Value: *u.EmailVerified})
	}
	if u.OTP != nil {
		set = append(set, bson.E{Key: "otp", Value: *u.OTP})
	}
	if u.OTPExpiration != nil {
		set = append(set, bson.E{Key: "otpExpiration", Value: *u.OTPExpiration})
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if u.ClearOTP {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{
			{Key: "otp", Value: ""},
			{Key: "otpExpiration", Value: ""},
		}})
	}
	if len(update) == 0 {
		return nil
	}
	return updateByID(ctx, s.col(ColUsers), id, update)
}
