package spots

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/observability"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

func boundedString(v any, label string, n int) (string, error) {
	s, err := validation.String(v, label)
	if err != nil {
		return "", err
	}
	return s, validation.MaxLength(s, label, n)
}

func bestTimes(v any) ([]string, error) {
	times, err := validation.StringArray(v, "Best times", true)
	if err != nil {
		return nil, err
	}
	if len(times) < MinBestTime {
		return nil, validation.Errors{fmt.Sprintf("Best times must contain at least %d entry", MinBestTime)}
	}
	return times, nil
}

// tags treats a missing value as no tags.
func tags(v any) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	t, err := validation.StringArray(v, "Tags", true)
	if err != nil {
		return nil, err
	}
	if len(t) > MaxTags {
		return nil, validation.Errors{fmt.Sprintf("Tags cannot contain more than %d tags", MaxTags)}
	}
	return t, nil
}

func images(v any) ([]models.Image, error) {
	return validation.Images(v, "Images", MinImages, MaxImages)
}

func location(lon, lat any) (models.Location, error) {
	longitude, latitude, err := validation.Coordinates(lon, lat)
	return models.NewPoint(longitude, latitude), err
}

// CreateSpot validates every field, checks the poster exists and stores a
// new spot with zeroed report and rating counters. The stored document is
// read back and returned.
func (s *Service) CreateSpot(ctx context.Context, req models.SpotRequest, posterID string) (*models.Spot, error) {
	var errs validation.Errors
	spot := &models.Spot{
		Name:          validation.Pick(boundedString(req.Name, "Name", maxNameLength)).Into(&errs),
		Location:      validation.Pick(location(req.Longitude, req.Latitude)).Into(&errs),
		Address:       validation.Pick(boundedString(req.Address, "Address", maxAddressLength)).Into(&errs),
		Description:   validation.Pick(boundedString(req.Description, "Description", maxDescriptionLength)).Into(&errs),
		Accessibility: validation.Pick(boundedString(req.Accessibility, "Accessibility", maxAccessibilityLength)).Into(&errs),
		BestTimes:     validation.Pick(bestTimes(req.BestTimes)).Into(&errs),
		Images:        validation.Pick(images(req.Images)).Into(&errs),
		Tags:          validation.Pick(tags(req.Tags)).Into(&errs),
		PosterID:      validation.Pick(validation.ObjectID(posterID, "Poster id")).Into(&errs),
	}
	if req.CreatedAt != nil {
		spot.CreatedAt = validation.Pick(validation.DateBefore(req.CreatedAt, "Created at", s.now())).Into(&errs)
	} else {
		spot.CreatedAt = s.now()
	}
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	if err := s.requireUser(ctx, spot.PosterID); err != nil {
		return nil, err
	}

	id, err := s.store.InsertSpot(ctx, spot)
	if err != nil {
		return nil, apperr.Persistence("Could not add spot", err)
	}
	log.Info().Str("spot_id", id.Hex()).Str("poster_id", posterID).Msg("spot created")
	return s.loadSpot(ctx, id)
}

// GetSpotByID returns one spot, hidden or not.
func (s *Service) GetSpotByID(ctx context.Context, id string) (*models.Spot, error) {
	oid, err := validation.ObjectID(id, "Spot id")
	if err != nil {
		return nil, apperr.Validation(err)
	}
	return s.loadSpot(ctx, oid)
}

func present(v any) bool {
	if v == nil {
		return false
	}
	if str, ok := v.(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return true
}

// filter validates a search query. Absent or blank parameters add no
// constraint.
func filter(q models.SpotQuery) (models.SpotFilter, error) {
	var errs validation.Errors
	var f models.SpotFilter

	if present(q.Keyword) {
		f.Keyword = validation.Pick(validation.String(q.Keyword, "Keyword")).Into(&errs)
	}
	if q.Tags != nil {
		f.Tags = validation.Pick(validation.StringArray(q.Tags, "Tags", true)).Into(&errs)
	}
	if present(q.MinRating) {
		minRating, err := validation.Float(q.MinRating, "Minimum rating")
		if err == nil && (minRating < 0 || minRating > validation.MaxRating) {
			err = validation.Errors{fmt.Sprintf("Minimum rating must be between 0 and %d", validation.MaxRating)}
		}
		validation.Check(&errs, err)
		if err == nil {
			f.MinRating = &minRating
		}
	}
	if present(q.FromDate) {
		if from, err := validation.ParseDate(q.FromDate, "fromDate"); err != nil {
			errs.Merge(err)
		} else {
			f.FromDate = &from
		}
	}
	if present(q.ToDate) {
		to, err := validation.ParseDate(q.ToDate, "toDate")
		if err == nil && f.FromDate != nil {
			err = validation.DateRange(*f.FromDate, to)
		}
		switch {
		case err != nil:
			errs.Merge(err)
		case validation.DateOnly(q.ToDate):
			end := to.AddDate(0, 0, 1)
			f.ToDate, f.ToExclusive = &end, true
		default:
			f.ToDate = &to
		}
	}
	return f, errs.Err()
}

// GetAllSpots lists the visible spots matching q, newest first. Spots with
// HiddenReportThreshold or more reports are never listed.
func (s *Service) GetAllSpots(ctx context.Context, q models.SpotQuery) ([]models.Spot, error) {
	f, err := filter(q)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	spots, err := s.store.ListSpots(ctx, f)
	if err != nil {
		return nil, apperr.Persistence("Could not get spots", err)
	}
	return spots, nil
}

// GetSpotsByUser lists every spot a user posted.
func (s *Service) GetSpotsByUser(ctx context.Context, userID string) ([]models.Spot, error) {
	oid, err := validation.ObjectID(userID, "User id")
	if err != nil {
		return nil, apperr.Validation(err)
	}
	if err := s.requireUser(ctx, oid); err != nil {
		return nil, err
	}
	spots, err := s.store.ListSpotsByPoster(ctx, oid)
	if err != nil {
		return nil, apperr.Persistence("Could not get spots", err)
	}
	return spots, nil
}

func spotUpdate(req models.SpotRequest) (models.SpotUpdate, error) {
	var errs validation.Errors
	var u models.SpotUpdate

	if req.Name != nil {
		v := validation.Pick(boundedString(req.Name, "Name", maxNameLength)).Into(&errs)
		u.Name = &v
	}
	if req.Longitude != nil || req.Latitude != nil {
		v := validation.Pick(location(req.Longitude, req.Latitude)).Into(&errs)
		u.Location = &v
	}
	if req.Address != nil {
		v := validation.Pick(boundedString(req.Address, "Address", maxAddressLength)).Into(&errs)
		u.Address = &v
	}
	if req.Description != nil {
		v := validation.Pick(boundedString(req.Description, "Description", maxDescriptionLength)).Into(&errs)
		u.Description = &v
	}
	if req.Accessibility != nil {
		v := validation.Pick(boundedString(req.Accessibility, "Accessibility", maxAccessibilityLength)).Into(&errs)
		u.Accessibility = &v
	}
	if req.BestTimes != nil {
		u.BestTimes = validation.Pick(bestTimes(req.BestTimes)).Into(&errs)
	}
	if req.Images != nil {
		u.Images = validation.Pick(images(req.Images)).Into(&errs)
	}
	if req.Tags != nil {
		u.Tags = validation.Pick(tags(req.Tags)).Into(&errs)
		u.SetTags = true
	}
	if err := errs.Err(); err != nil {
		return u, err
	}
	if u.Empty() {
		return u, validation.Errors{"No fields provided to update"}
	}
	return u, nil
}

// UpdateSpot applies the fields present in req. Only the original poster
// may update a spot. Images dropped by the update are removed from the
// image host afterwards.
func (s *Service) UpdateSpot(ctx context.Context, spotID, userID string, req models.SpotRequest) (*models.Spot, error) {
	var errs validation.Errors
	sid := validation.Pick(validation.ObjectID(spotID, "Spot id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	u, err := spotUpdate(req)
	errs.Merge(err)
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	spot, err := s.loadSpot(ctx, sid)
	if err != nil {
		return nil, err
	}
	if spot.PosterID != uid {
		return nil, apperr.Forbidden(notOwner)
	}

	if err := s.store.UpdateSpot(ctx, sid, u); err != nil {
		return nil, apperr.Persistence("Spot update failed!", err)
	}
	if u.Images != nil {
		s.removeImages("spot images replaced", droppedImages(spot.Images, u.Images)...)
	}
	return s.loadSpot(ctx, sid)
}

// droppedImages returns the images in before whose public id is not in after.
func droppedImages(before, after []models.Image) []models.Image {
	kept := make(map[string]struct{}, len(after))
	for _, img := range after {
		kept[img.PublicID] = struct{}{}
	}
	var dropped []models.Image
	for _, img := range before {
		if _, ok := kept[img.PublicID]; !ok {
			dropped = append(dropped, img)
		}
	}
	return dropped
}

// DeleteSpot removes a spot with its comments and ratings, then schedules
// removal of the spot's and its comments' images. Dependents are deleted
// before the spot itself.
func (s *Service) DeleteSpot(ctx context.Context, spotID, userID string) error {
	var errs validation.Errors
	sid := validation.Pick(validation.ObjectID(spotID, "Spot id")).Into(&errs)
	uid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	if err := errs.Err(); err != nil {
		return apperr.Validation(err)
	}

	spot, err := s.loadSpot(ctx, sid)
	if err != nil {
		return err
	}
	if spot.PosterID != uid {
		return apperr.Forbidden(notOwner)
	}

	var orphaned []models.Image
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		orphaned = orphaned[:0]
		comments, err := s.store.ListComments(ctx, sid)
		if err != nil {
			return err
		}
		for _, c := range comments {
			if c.Image != nil {
				orphaned = append(orphaned, *c.Image)
			}
		}

		n, err := s.store.DeleteCommentsBySpot(ctx, sid)
		if err != nil {
			return err
		}
		observability.CascadeDeletes.WithLabelValues("comments").Add(float64(n))

		n, err = s.store.DeleteRatingsBySpot(ctx, sid)
		if err != nil {
			return err
		}
		observability.CascadeDeletes.WithLabelValues("ratings").Add(float64(n))

		return s.store.DeleteSpot(ctx, sid)
	})
	if err != nil {
		log.Error().Err(err).Str("spot_id", sid.Hex()).Msg("spot deletion failed")
		return apperr.Persistence("Spot deletion failed!", err)
	}

	s.removeImages("spot deleted", append(orphaned, spot.Images...)...)
	log.Info().Str("spot_id", sid.Hex()).Int("comment_images", len(orphaned)).Msg("spot deleted")
	return nil
}

// ReportSpot adds one report to a spot. Repeat reports by the same user are
// not detected here.
func (s *Service) ReportSpot(ctx context.Context, spotID, reporterID string) error {
	sid, rid, err := reportIDs(spotID, "Spot id", reporterID)
	if err != nil {
		return err
	}
	if err := s.requireUser(ctx, rid); err != nil {
		return err
	}
	if _, err := s.loadSpot(ctx, sid); err != nil {
		return err
	}
	if err := s.store.IncrementSpotReports(ctx, sid); err != nil {
		return apperr.Persistence("Could not report spot", err)
	}
	observability.Reports.WithLabelValues(models.FlagTargetSpot).Inc()
	return nil
}

func reportIDs(targetID, label, reporterID string) (primitive.ObjectID, primitive.ObjectID, error) {
	var errs validation.Errors
	tid := validation.Pick(validation.ObjectID(targetID, label)).Into(&errs)
	rid := validation.Pick(validation.ObjectID(reporterID, "Reporter id")).Into(&errs)
	return tid, rid, apperr.Validation(errs.Err())
}

// ListReportedSpots returns spots with at least minReports reports,
// including hidden ones.
func (s *Service) ListReportedSpots(ctx context.Context, minReports int) ([]models.Spot, error) {
	if minReports < 1 {
		minReports = 1
	}
	spots, err := s.store.ListReportedSpots(ctx, minReports)
	if err != nil {
		return nil, apperr.Persistence("Could not get reported spots", err)
	}
	return spots, nil
}
