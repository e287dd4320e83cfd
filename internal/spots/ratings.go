package spots

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/observability"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

// recompute rebuilds the spot's averageRating and totalRatings from its
// full rating set.
func (s *Service) recompute(ctx context.Context, spotID primitive.ObjectID) error {
	err := s.store.RecomputeAggregate(ctx, spotID)
	observability.RatingRecomputes.WithLabelValues(observability.Result(err)).Inc()
	return err
}

// PutSpotRating records the user's rating of a spot, replacing any earlier
// one, and recomputes the spot's aggregate in the same transaction. A nil
// date means now.
func (s *Service) PutSpotRating(ctx context.Context, spotID, userID string, rating, date any) (*models.Rating, error) {
	var errs validation.Errors
	sid := validation.Pick(validation.ObjectID(spotID, "Spot id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	score := validation.Pick(validation.RatingScore(rating)).Into(&errs)
	at := s.now()
	if date != nil {
		at = validation.Pick(validation.DateBefore(date, "Date", at)).Into(&errs)
	}
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	if err := s.requireUser(ctx, uid); err != nil {
		return nil, err
	}
	if _, err := s.loadSpot(ctx, sid); err != nil {
		return nil, err
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.UpsertRating(ctx, sid, uid, score, at); err != nil {
			return err
		}
		return s.recompute(ctx, sid)
	})
	if err != nil {
		log.Error().Err(err).Str("spot_id", sid.Hex()).Msg("rating update failed")
		return nil, apperr.Persistence("Rating update failed!", err)
	}

	r, err := s.store.GetRatingBy(ctx, sid, uid)
	if err != nil || r == nil {
		return nil, apperr.Persistence("Rating update failed!", err)
	}
	return r, nil
}

// GetSpotRatings lists the ratings on a spot. A deleted spot has none.
func (s *Service) GetSpotRatings(ctx context.Context, spotID string) ([]models.Rating, error) {
	sid, err := validation.ObjectID(spotID, "Spot id")
	if err != nil {
		return nil, apperr.Validation(err)
	}
	ratings, err := s.store.ListRatings(ctx, sid)
	if err != nil {
		return nil, apperr.Persistence("Could not get ratings", err)
	}
	return ratings, nil
}

// GetUserRating returns the rating a user gave a spot.
func (s *Service) GetUserRating(ctx context.Context, spotID, userID string) (*models.Rating, error) {
	var errs validation.Errors
	sid := validation.Pick(validation.ObjectID(spotID, "Spot id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	r, err := s.store.GetRatingBy(ctx, sid, uid)
	if err != nil {
		return nil, apperr.Persistence("Could not get rating", err)
	}
	if r == nil {
		return nil, apperr.NotFound(fmt.Sprintf("No rating for spot %s by user %s", sid.Hex(), uid.Hex()))
	}
	return r, nil
}

// DeleteSpotRating removes a rating and recomputes its spot's aggregate.
// Only the rating's poster may delete it.
func (s *Service) DeleteSpotRating(ctx context.Context, ratingID, userID string) error {
	var errs validation.Errors
	rid := validation.Pick(validation.ObjectID(ratingID, "Rating id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	if err := errs.Err(); err != nil {
		return apperr.Validation(err)
	}

	r, err := s.store.GetRating(ctx, rid)
	if err != nil {
		return apperr.Persistence("Could not get rating", err)
	}
	if r == nil {
		return apperr.NotFound(fmt.Sprintf("No rating with id of %s", rid.Hex()))
	}
	if r.PosterID != uid {
		return apperr.Forbidden(notOwner)
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteRating(ctx, rid); err != nil {
			return err
		}
		return s.recompute(ctx, r.SpotID)
	})
	if err != nil {
		log.Error().Err(err).Str("rating_id", rid.Hex()).Msg("rating deletion failed")
		return apperr.Persistence("Rating deletion failed!", err)
	}
	return nil
}
