// Package spots implements spots, their comments and ratings. It keeps each
// spot's rating aggregate in step with its ratings and removes dependent
// documents and hosted images when a spot is deleted.
package spots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/observability"
)

const (
	MinImages   = 1
	MaxImages   = 3
	MaxTags     = 5
	MinBestTime = 1

	maxNameLength          = 100
	maxAddressLength       = 200
	maxDescriptionLength   = 1000
	maxAccessibilityLength = 200
	maxMessageLength       = 500

	imageCleanupTimeout = 30 * time.Second
)

const notOwner = "User is not the original poster"

// SpotStore persists spots.
type SpotStore interface {
	InsertSpot(ctx context.Context, spot *models.Spot) (primitive.ObjectID, error)
	GetSpot(ctx context.Context, id primitive.ObjectID) (*models.Spot, error)
	ListSpots(ctx context.Context, f models.SpotFilter) ([]models.Spot, error)
	ListSpotsByPoster(ctx context.Context, posterID primitive.ObjectID) ([]models.Spot, error)
	ListReportedSpots(ctx context.Context, minReports int) ([]models.Spot, error)
	UpdateSpot(ctx context.Context, id primitive.ObjectID, u models.SpotUpdate) error
	DeleteSpot(ctx context.Context, id primitive.ObjectID) error
	IncrementSpotReports(ctx context.Context, id primitive.ObjectID) error
}

// CommentStore persists comments.
type CommentStore interface {
	InsertComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error)
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListComments(ctx context.Context, spotID primitive.ObjectID) ([]models.Comment, error)
	ListReportedComments(ctx context.Context, minReports int) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id primitive.ObjectID, message string, image *models.Image, removeImage bool) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	DeleteCommentsBySpot(ctx context.Context, spotID primitive.ObjectID) (int64, error)
	IncrementCommentReports(ctx context.Context, id primitive.ObjectID) error
}

// RatingStore persists ratings and the aggregate derived from them.
type RatingStore interface {
	UpsertRating(ctx context.Context, spotID, posterID primitive.ObjectID, rating float64, at time.Time) error
	GetRating(ctx context.Context, id primitive.ObjectID) (*models.Rating, error)
	GetRatingBy(ctx context.Context, spotID, posterID primitive.ObjectID) (*models.Rating, error)
	ListRatings(ctx context.Context, spotID primitive.ObjectID) ([]models.Rating, error)
	DeleteRating(ctx context.Context, id primitive.ObjectID) error
	DeleteRatingsBySpot(ctx context.Context, spotID primitive.ObjectID) (int64, error)
	RecomputeAggregate(ctx context.Context, spotID primitive.ObjectID) error
}

// Store is everything the service needs from the document store.
type Store interface {
	SpotStore
	CommentStore
	RatingStore
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserLookup resolves posters and raters.
type UserLookup interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ImageRemover deletes hosted images by public id.
type ImageRemover interface {
	Remove(ctx context.Context, key string) error
}

// Service holds spot, comment and rating business logic.
type Service struct {
	store  Store
	users  UserLookup
	images ImageRemover
	now    func() time.Time

	cleanup sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps written by the service.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, users UserLookup, images ImageRemover, opts ...Option) *Service {
	s := &Service{store: store, users: users, images: images, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close waits for scheduled image removals to finish.
func (s *Service) Close() {
	s.cleanup.Wait()
}

// requireUser checks that id names an existing user.
func (s *Service) requireUser(ctx context.Context, id primitive.ObjectID) error {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return apperr.Persistence("Could not get user", err)
	}
	if u == nil {
		return apperr.NotFound(fmt.Sprintf("No user with id of %s", id.Hex()))
	}
	return nil
}

func (s *Service) loadSpot(ctx context.Context, id primitive.ObjectID) (*models.Spot, error) {
	spot, err := s.store.GetSpot(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("Could not get spot", err)
	}
	if spot == nil {
		return nil, apperr.NotFound(fmt.Sprintf("No spot with id of %s", id.Hex()))
	}
	return spot, nil
}

// removeImages deletes hosted images in the background. Failures are logged
// and counted, never returned.
func (s *Service) removeImages(reason string, images ...models.Image) {
	if s.images == nil || len(images) == 0 {
		return
	}
	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		ctx, cancel := context.WithTimeout(context.Background(), imageCleanupTimeout)
		defer cancel()

		for _, img := range images {
			if img.PublicID == "" {
				continue
			}
			err := s.images.Remove(ctx, img.PublicID)
			observability.ImageCleanups.WithLabelValues(observability.Result(err)).Inc()
			if err != nil {
				log.Error().Err(err).Str("public_id", img.PublicID).Str("reason", reason).Msg("image cleanup failed")
			}
		}
	}()
}
