package spots_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/spots"
)

var now = time.Date(2025, 5, 10, 18, 30, 0, 0, time.UTC)

type fixture struct {
	svc    *spots.Service
	store  *memStore
	images *memImages
	alice  primitive.ObjectID
	bob    primitive.ObjectID
	carol  primitive.ObjectID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newMemStore(),
		images: &memImages{},
		alice:  primitive.NewObjectID(),
		bob:    primitive.NewObjectID(),
		carol:  primitive.NewObjectID(),
	}
	users := memUsers{f.alice: true, f.bob: true, f.carol: true}
	f.svc = spots.NewService(f.store, users, f.images, spots.WithClock(func() time.Time { return now }))
	t.Cleanup(f.svc.Close)
	return f
}

func image(id string) map[string]any {
	return map[string]any{"public_id": id, "url": "http://localhost:8080/api/images/" + id}
}

func spotRequest() models.SpotRequest {
	return models.SpotRequest{
		Name:          "Battery Spencer",
		Longitude:     37.8324,
		Latitude:      -122.4795,
		Address:       "Conzelman Rd, Sausalito, CA",
		Description:   "Classic view of the bridge towers above the fog.",
		Accessibility: "Short walk from the parking lot",
		BestTimes:     []any{"Sunrise", "Blue Hour"},
		Images:        []any{image("img-1"), image("img-2")},
		Tags:          []any{"Bridge", "Fog"},
	}
}

func (f *fixture) createSpot(t *testing.T, owner primitive.ObjectID) *models.Spot {
	t.Helper()
	spot, err := f.svc.CreateSpot(context.Background(), spotRequest(), owner.Hex())
	require.NoError(t, err)
	return spot
}

func TestCreateSpot_DefaultsAndLowercasing(t *testing.T) {
	f := setup(t)
	spot := f.createSpot(t, f.alice)

	assert.False(t, spot.ID.IsZero())
	assert.Equal(t, "Battery Spencer", spot.Name)
	assert.Equal(t, []string{"sunrise", "blue hour"}, spot.BestTimes)
	assert.Equal(t, []string{"bridge", "fog"}, spot.Tags)
	assert.Equal(t, models.NewPoint(37.8324, -122.4795), spot.Location)
	assert.Equal(t, f.alice, spot.PosterID)
	assert.Equal(t, now, spot.CreatedAt)
	assert.Zero(t, spot.ReportCount)
	assert.Zero(t, spot.AverageRating)
	assert.Zero(t, spot.TotalRatings)
}

func TestCreateSpot_ImageCount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		images []any
		ok     bool
	}{
		{"none", []any{}, false},
		{"one", []any{image("a")}, true},
		{"three", []any{image("a"), image("b"), image("c")}, true},
		{"four", []any{image("a"), image("b"), image("c"), image("d")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := spotRequest()
			req.Images = tc.images
			_, err := f.svc.CreateSpot(ctx, req, f.alice.Hex())
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{"Images must contain between 1 and 3 images"}, apperr.Messages(err))
		})
	}
}

func TestCreateSpot_TagAndBestTimeCounts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := spotRequest()
	req.Tags = nil
	spot, err := f.svc.CreateSpot(ctx, req, f.alice.Hex())
	require.NoError(t, err)
	assert.Empty(t, spot.Tags)

	req.Tags = []any{"a", "b", "c", "d", "e"}
	_, err = f.svc.CreateSpot(ctx, req, f.alice.Hex())
	assert.NoError(t, err)

	req.Tags = []any{"a", "b", "c", "d", "e", "f"}
	_, err = f.svc.CreateSpot(ctx, req, f.alice.Hex())
	assert.Equal(t, []string{"Tags cannot contain more than 5 tags"}, apperr.Messages(err))

	req = spotRequest()
	req.BestTimes = []any{}
	_, err = f.svc.CreateSpot(ctx, req, f.alice.Hex())
	assert.Equal(t, []string{"Best times must contain at least 1 entry"}, apperr.Messages(err))
}

func TestCreateSpot_ReportsEveryInvalidField(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateSpot(context.Background(), models.SpotRequest{}, f.alice.Hex())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, []string{
		"Name not provided",
		"Longitude must be a number",
		"Latitude must be a number",
		"Address not provided",
		"Description not provided",
		"Accessibility not provided",
		"Best times not provided",
		"Images not provided",
	}, apperr.Messages(err))
	assert.Empty(t, f.store.spots)
}

func TestCreateSpot_RejectsBadCoordinatesAndDates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := spotRequest()
	req.Longitude = 120.0
	req.Latitude = "north"
	_, err := f.svc.CreateSpot(ctx, req, f.alice.Hex())
	assert.Equal(t, []string{"Latitude must be a number", "Longitude must be between -90 and 90"}, apperr.Messages(err))

	req = spotRequest()
	req.CreatedAt = time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	_, err = f.svc.CreateSpot(ctx, req, f.alice.Hex())
	assert.Equal(t, []string{"Created at cannot be in the future"}, apperr.Messages(err))

	req.CreatedAt = "2024-01-15"
	spot, err := f.svc.CreateSpot(ctx, req, f.alice.Hex())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), spot.CreatedAt)
}

func TestCreateSpot_UnknownPoster(t *testing.T) {
	f := setup(t)
	stranger := primitive.NewObjectID()

	_, err := f.svc.CreateSpot(context.Background(), spotRequest(), stranger.Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, []string{"No user with id of " + stranger.Hex()}, apperr.Messages(err))
	assert.Empty(t, f.store.spots)
}

func TestGetSpotByID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	first, err := f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	second, err := f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, spot, first)

	missing := primitive.NewObjectID().Hex()
	_, err = f.svc.GetSpotByID(ctx, missing)
	assert.Equal(t, []string{"No spot with id of " + missing}, apperr.Messages(err))

	_, err = f.svc.GetSpotByID(ctx, "not-an-id")
	assert.Equal(t, []string{"Spot id is not a valid id"}, apperr.Messages(err))
}

func TestGetAllSpots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	visible := f.createSpot(t, f.alice)

	req := spotRequest()
	req.Name = "Twin Peaks"
	req.Tags = []any{"city"}
	req.BestTimes = []any{"night"}
	req.CreatedAt = "2024-03-01"
	other, err := f.svc.CreateSpot(ctx, req, f.bob.Hex())
	require.NoError(t, err)

	hidden := f.createSpot(t, f.alice)
	h := f.store.spots[hidden.ID]
	h.ReportCount = models.HiddenReportThreshold
	f.store.spots[hidden.ID] = h

	all, err := f.svc.GetAllSpots(ctx, models.SpotQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byKeyword, err := f.svc.GetAllSpots(ctx, models.SpotQuery{Keyword: "PEAKS"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, other.ID, byKeyword[0].ID)

	byBestTime, err := f.svc.GetAllSpots(ctx, models.SpotQuery{Keyword: "blue"})
	require.NoError(t, err)
	require.Len(t, byBestTime, 1)
	assert.Equal(t, visible.ID, byBestTime[0].ID)

	byTags, err := f.svc.GetAllSpots(ctx, models.SpotQuery{Tags: []any{"FOG", "bridge"}})
	require.NoError(t, err)
	require.Len(t, byTags, 1)
	assert.Equal(t, visible.ID, byTags[0].ID)

	byDate, err := f.svc.GetAllSpots(ctx, models.SpotQuery{FromDate: "2024-01-01", ToDate: "2024-12-31"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, other.ID, byDate[0].ID)

	_, err = f.svc.PutSpotRating(ctx, visible.ID.Hex(), f.bob.Hex(), 8.0, now)
	require.NoError(t, err)
	byRating, err := f.svc.GetAllSpots(ctx, models.SpotQuery{MinRating: "7"})
	require.NoError(t, err)
	require.Len(t, byRating, 1)
	assert.Equal(t, visible.ID, byRating[0].ID)
}

func TestGetAllSpots_InvalidQuery(t *testing.T) {
	f := setup(t)

	_, err := f.svc.GetAllSpots(context.Background(), models.SpotQuery{
		MinRating: "lots",
		FromDate:  "2024-06-01",
		ToDate:    "2024-01-01",
	})
	assert.Equal(t, []string{
		"Minimum rating must be a number",
		"fromDate must be on or before toDate",
	}, apperr.Messages(err))

	_, err = f.svc.GetAllSpots(context.Background(), models.SpotQuery{MinRating: 11.0})
	assert.Equal(t, []string{"Minimum rating must be between 0 and 10"}, apperr.Messages(err))
}

func TestUpdateSpot_PartialUpdateAndImageCleanup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	updated, err := f.svc.UpdateSpot(ctx, spot.ID.Hex(), f.alice.Hex(), models.SpotRequest{
		Description: "Fog rolls in after 4pm.",
		Images:      []any{image("img-2"), image("img-3")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Fog rolls in after 4pm.", updated.Description)
	assert.Equal(t, spot.Name, updated.Name)
	assert.Equal(t, spot.Tags, updated.Tags)
	assert.Len(t, updated.Images, 2)

	f.svc.Close()
	assert.Equal(t, []string{"img-1"}, f.images.Removed())
}

func TestUpdateSpot_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	_, err := f.svc.UpdateSpot(ctx, spot.ID.Hex(), f.alice.Hex(), models.SpotRequest{})
	assert.Equal(t, []string{"No fields provided to update"}, apperr.Messages(err))

	_, err = f.svc.UpdateSpot(ctx, spot.ID.Hex(), f.alice.Hex(), models.SpotRequest{
		Images: []any{image("a"), image("b"), image("c"), image("d")},
		Tags:   []any{"a", "b", "c", "d", "e", "f"},
	})
	assert.Equal(t, []string{
		"Images must contain between 1 and 3 images",
		"Tags cannot contain more than 5 tags",
	}, apperr.Messages(err))

	stored, err := f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, spot, stored)
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)
	comment, err := f.svc.AddComment(ctx, spot.ID.Hex(), f.alice.Hex(), models.CommentRequest{Message: "Go early."})
	require.NoError(t, err)
	rating, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.alice.Hex(), 9.0, now)
	require.NoError(t, err)

	before := f.store.spots[spot.ID]

	_, err = f.svc.UpdateSpot(ctx, spot.ID.Hex(), f.bob.Hex(), models.SpotRequest{Name: "Mine now"})
	assertForbidden(t, err)
	assertForbidden(t, f.svc.DeleteSpot(ctx, spot.ID.Hex(), f.bob.Hex()))
	_, err = f.svc.UpdateComment(ctx, comment.ID.Hex(), f.bob.Hex(), models.CommentRequest{Message: "edited"})
	assertForbidden(t, err)
	assertForbidden(t, f.svc.DeleteComment(ctx, comment.ID.Hex(), f.bob.Hex()))
	assertForbidden(t, f.svc.DeleteSpotRating(ctx, rating.ID.Hex(), f.bob.Hex()))

	assert.Equal(t, before, f.store.spots[spot.ID])
	assert.Equal(t, "Go early.", f.store.comments[comment.ID].Message)
	assert.Contains(t, f.store.ratings, rating.ID)
	f.svc.Close()
	assert.Empty(t, f.images.Removed())
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Equal(t, []string{"User is not the original poster"}, apperr.Messages(err))
}

func TestRatingAggregate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	_, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 5.5, now.Add(-2*time.Hour))
	require.NoError(t, err)
	second, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.carol.Hex(), 6.923, now.Add(-time.Hour))
	require.NoError(t, err)

	got, err := f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, (5.5+6.923)/2, got.AverageRating)
	assert.Equal(t, 2, got.TotalRatings)

	require.NoError(t, f.svc.DeleteSpotRating(ctx, second.ID.Hex(), f.carol.Hex()))
	got, err = f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 5.5, got.AverageRating)
	assert.Equal(t, 1, got.TotalRatings)
}

func TestPutSpotRating_OnePerUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	_, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 3.0, now)
	require.NoError(t, err)
	r, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 9.0, now)
	require.NoError(t, err)
	assert.Equal(t, 9.0, r.Rating)

	ratings, err := f.svc.GetSpotRatings(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, ratings, 1)

	got, err := f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.AverageRating)
	assert.Equal(t, 1, got.TotalRatings)
	assert.Equal(t, 2, f.store.transactions)

	mine, err := f.svc.GetUserRating(ctx, spot.ID.Hex(), f.bob.Hex())
	require.NoError(t, err)
	assert.Equal(t, r.ID, mine.ID)
}

func TestPutSpotRating_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	_, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 11.0, now)
	assert.Equal(t, []string{"Rating must be between 1 and 10"}, apperr.Messages(err))

	_, err = f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), "7", time.Now().Add(time.Hour))
	assert.Equal(t, []string{"Rating must be a number, got string", "Date cannot be in the future"}, apperr.Messages(err))

	missing := primitive.NewObjectID().Hex()
	_, err = f.svc.PutSpotRating(ctx, missing, f.bob.Hex(), 7.0, now)
	assert.Equal(t, []string{"No spot with id of " + missing}, apperr.Messages(err))
	assert.Empty(t, f.store.ratings)
}

func TestDeleteSpot_Cascade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	spot := f.createSpot(t, f.alice)
	_, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 7.0, now)
	require.NoError(t, err)

	got, err := f.svc.GetSpotByID(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.AverageRating)
	assert.Equal(t, 1, got.TotalRatings)

	_, err = f.svc.AddComment(ctx, spot.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message: "Shot this at dawn",
		Image:   image("comment-img"),
	})
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, spot.ID.Hex(), f.carol.Hex(), models.CommentRequest{Message: "Windy!"})
	require.NoError(t, err)

	other := f.createSpot(t, f.bob)
	_, err = f.svc.AddComment(ctx, other.ID.Hex(), f.alice.Hex(), models.CommentRequest{Message: "Nice"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSpot(ctx, spot.ID.Hex(), f.alice.Hex()))

	_, err = f.svc.GetSpotByID(ctx, spot.ID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	ratings, err := f.svc.GetSpotRatings(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, ratings)

	assert.Len(t, f.store.comments, 1)
	remaining, err := f.svc.GetComments(ctx, other.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	f.svc.Close()
	assert.Equal(t, []string{"comment-img", "img-1", "img-2"}, f.images.Removed())
}

func TestDeleteSpot_ImageFailuresAreSwallowed(t *testing.T) {
	f := setup(t)
	f.images.fail = true
	spot := f.createSpot(t, f.alice)

	require.NoError(t, f.svc.DeleteSpot(context.Background(), spot.ID.Hex(), f.alice.Hex()))
	f.svc.Close()
	assert.Empty(t, f.store.spots)
	assert.Empty(t, f.images.Removed())
}

func TestDeleteSpot_StoreFailure(t *testing.T) {
	f := setup(t)
	spot := f.createSpot(t, f.alice)
	f.store.failDeleteSpot = errors.New("connection reset")

	err := f.svc.DeleteSpot(context.Background(), spot.ID.Hex(), f.alice.Hex())
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
	assert.Equal(t, []string{"Spot deletion failed!"}, apperr.Messages(err))

	f.svc.Close()
	assert.Empty(t, f.images.Removed())
}

func TestComments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	_, err := f.svc.AddComment(ctx, spot.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message: "  ",
		Image:   map[string]any{"public_id": "x"},
	})
	assert.Equal(t, []string{
		"Message cannot be empty or just spaces",
		"Image url not provided",
	}, apperr.Messages(err))

	c, err := f.svc.AddComment(ctx, spot.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message: "Tripod recommended",
		Image:   image("c-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.bob, c.PosterID)
	assert.Equal(t, "c-1", c.Image.PublicID)

	edited, err := f.svc.UpdateComment(ctx, c.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message: "Tripod required",
		Image:   image("c-2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tripod required", edited.Message)
	assert.Equal(t, "c-2", edited.Image.PublicID)

	list, err := f.svc.GetComments(ctx, spot.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.DeleteComment(ctx, c.ID.Hex(), f.bob.Hex()))
	err = f.svc.DeleteComment(ctx, c.ID.Hex(), f.bob.Hex())
	assert.Equal(t, []string{"No comment with id of " + c.ID.Hex()}, apperr.Messages(err))

	f.svc.Close()
	assert.Equal(t, []string{"c-1", "c-2"}, f.images.Removed())
}

func TestReports(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)
	c, err := f.svc.AddComment(ctx, spot.ID.Hex(), f.alice.Hex(), models.CommentRequest{Message: "hi"})
	require.NoError(t, err)

	for i := 0; i < models.HiddenReportThreshold; i++ {
		require.NoError(t, f.svc.ReportSpot(ctx, spot.ID.Hex(), f.bob.Hex()))
	}
	require.NoError(t, f.svc.ReportComment(ctx, c.ID.Hex(), f.bob.Hex()))

	visible, err := f.svc.GetAllSpots(ctx, models.SpotQuery{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	reported, err := f.svc.ListReportedSpots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, models.HiddenReportThreshold, reported[0].ReportCount)

	reportedComments, err := f.svc.ListReportedComments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, reportedComments, 1)

	err = f.svc.ReportSpot(ctx, spot.ID.Hex(), primitive.NewObjectID().Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetSpotsByUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createSpot(t, f.alice)
	f.createSpot(t, f.alice)
	f.createSpot(t, f.bob)

	mine, err := f.svc.GetSpotsByUser(ctx, f.alice.Hex())
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.GetSpotsByUser(ctx, primitive.NewObjectID().Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetAllSpots_DateOnlyRangeCoversWholeDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	sameDay, err := f.svc.GetAllSpots(ctx, models.SpotQuery{FromDate: "2025-05-10", ToDate: "2025-05-10"})
	require.NoError(t, err)
	require.Len(t, sameDay, 1)
	assert.Equal(t, spot.ID, sameDay[0].ID)

	untilDay, err := f.svc.GetAllSpots(ctx, models.SpotQuery{ToDate: "2025-05-10"})
	require.NoError(t, err)
	assert.Len(t, untilDay, 1)

	dayBefore, err := f.svc.GetAllSpots(ctx, models.SpotQuery{FromDate: "2025-05-09", ToDate: "2025-05-09"})
	require.NoError(t, err)
	assert.Empty(t, dayBefore)

	beforeCreation, err := f.svc.GetAllSpots(ctx, models.SpotQuery{ToDate: "2025-05-10T18:00:00Z"})
	require.NoError(t, err)
	assert.Empty(t, beforeCreation)
}

func TestFutureDatesFollowServiceClock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// After the fixture clock but already past on the wall clock.
	req := spotRequest()
	req.CreatedAt = "2025-06-01"
	_, err := f.svc.CreateSpot(ctx, req, f.alice.Hex())
	assert.Equal(t, []string{"Created at cannot be in the future"}, apperr.Messages(err))

	spot := f.createSpot(t, f.alice)
	_, err = f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 7.0, now.Add(time.Minute))
	assert.Equal(t, []string{"Date cannot be in the future"}, apperr.Messages(err))

	rating, err := f.svc.PutSpotRating(ctx, spot.ID.Hex(), f.bob.Hex(), 7.0, nil)
	require.NoError(t, err)
	assert.Equal(t, now, rating.CreatedAt)
}

func TestUpdateComment_RemoveImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	spot := f.createSpot(t, f.alice)

	c, err := f.svc.AddComment(ctx, spot.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message: "Golden hour from the pier",
		Image:   image("pier-1"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateComment(ctx, c.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message:     "Golden hour from the pier",
		Image:       image("pier-2"),
		RemoveImage: true,
	})
	assert.Equal(t, []string{"Image cannot be given together with removeImage"}, apperr.Messages(err))

	edited, err := f.svc.UpdateComment(ctx, c.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message:     "Golden hour from the pier",
		RemoveImage: true,
	})
	require.NoError(t, err)
	assert.Nil(t, edited.Image)

	// Removing again is a no-op for the image host.
	_, err = f.svc.UpdateComment(ctx, c.ID.Hex(), f.bob.Hex(), models.CommentRequest{
		Message:     "Sunset too",
		RemoveImage: true,
	})
	require.NoError(t, err)

	f.svc.Close()
	assert.Equal(t, []string{"pier-1"}, f.images.Removed())
}
