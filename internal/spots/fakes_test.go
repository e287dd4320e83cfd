package spots_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/store"
)

// memStore is an in-memory spots.Store.
type memStore struct {
	mu       sync.Mutex
	spots    map[primitive.ObjectID]models.Spot
	comments map[primitive.ObjectID]models.Comment
	ratings  map[primitive.ObjectID]models.Rating

	// failDeleteSpot makes DeleteSpot fail, to exercise error paths.
	failDeleteSpot error
	transactions   int
}

func newMemStore() *memStore {
	return &memStore{
		spots:    make(map[primitive.ObjectID]models.Spot),
		comments: make(map[primitive.ObjectID]models.Comment),
		ratings:  make(map[primitive.ObjectID]models.Rating),
	}
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.transactions++
	m.mu.Unlock()
	return fn(ctx)
}

func (m *memStore) InsertSpot(_ context.Context, spot *models.Spot) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := *spot
	doc.ID = primitive.NewObjectID()
	m.spots[doc.ID] = doc
	return doc.ID, nil
}

func (m *memStore) GetSpot(_ context.Context, id primitive.ObjectID) (*models.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) ListSpots(_ context.Context, f models.SpotFilter) ([]models.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Spot{}
	for _, s := range m.spots {
		if s.ReportCount >= models.HiddenReportThreshold {
			continue
		}
		if f.Keyword != "" && !matchesKeyword(s, f.Keyword) {
			continue
		}
		if !hasAll(s.Tags, f.Tags) {
			continue
		}
		if f.MinRating != nil && s.AverageRating < *f.MinRating {
			continue
		}
		if f.FromDate != nil && s.CreatedAt.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && (s.CreatedAt.After(*f.ToDate) || f.ToExclusive && !s.CreatedAt.Before(*f.ToDate)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesKeyword(s models.Spot, kw string) bool {
	kw = strings.ToLower(kw)
	fields := append([]string{s.Name, s.Accessibility}, s.BestTimes...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), kw) {
			return true
		}
	}
	return false
}

func hasAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}

func (m *memStore) ListSpotsByPoster(_ context.Context, posterID primitive.ObjectID) ([]models.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Spot{}
	for _, s := range m.spots {
		if s.PosterID == posterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListReportedSpots(_ context.Context, minReports int) ([]models.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Spot{}
	for _, s := range m.spots {
		if s.ReportCount >= minReports {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportCount > out[j].ReportCount })
	return out, nil
}

func (m *memStore) UpdateSpot(_ context.Context, id primitive.ObjectID, u models.SpotUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Location != nil {
		s.Location = *u.Location
	}
	if u.Address != nil {
		s.Address = *u.Address
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Accessibility != nil {
		s.Accessibility = *u.Accessibility
	}
	if u.BestTimes != nil {
		s.BestTimes = u.BestTimes
	}
	if u.Images != nil {
		s.Images = u.Images
	}
	if u.SetTags {
		s.Tags = u.Tags
	}
	m.spots[id] = s
	return nil
}

func (m *memStore) DeleteSpot(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeleteSpot != nil {
		return m.failDeleteSpot
	}
	if _, ok := m.spots[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.spots, id)
	return nil
}

func (m *memStore) IncrementSpotReports(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return store.ErrNotFound
	}
	s.ReportCount++
	m.spots[id] = s
	return nil
}

func (m *memStore) InsertComment(_ context.Context, c *models.Comment) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := *c
	doc.ID = primitive.NewObjectID()
	m.comments[doc.ID] = doc
	return doc.ID, nil
}

func (m *memStore) GetComment(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memStore) ListComments(_ context.Context, spotID primitive.ObjectID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.SpotID == spotID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListReportedComments(_ context.Context, minReports int) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.ReportCount >= minReports {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) UpdateComment(_ context.Context, id primitive.ObjectID, message string, image *models.Image, removeImage bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Message = message
	if image != nil {
		c.Image = image
	}
	if removeImage {
		c.Image = nil
	}
	m.comments[id] = c
	return nil
}

func (m *memStore) DeleteComment(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *memStore) DeleteCommentsBySpot(_ context.Context, spotID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.comments {
		if c.SpotID == spotID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) IncrementCommentReports(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return store.ErrNotFound
	}
	c.ReportCount++
	m.comments[id] = c
	return nil
}

func (m *memStore) UpsertRating(_ context.Context, spotID, posterID primitive.ObjectID, rating float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.ratings {
		if r.SpotID == spotID && r.PosterID == posterID {
			r.Rating, r.CreatedAt = rating, at
			m.ratings[id] = r
			return nil
		}
	}
	id := primitive.NewObjectID()
	m.ratings[id] = models.Rating{ID: id, SpotID: spotID, PosterID: posterID, Rating: rating, CreatedAt: at}
	return nil
}

func (m *memStore) GetRating(_ context.Context, id primitive.ObjectID) (*models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) GetRatingBy(_ context.Context, spotID, posterID primitive.ObjectID) (*models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.SpotID == spotID && r.PosterID == posterID {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListRatings(_ context.Context, spotID primitive.ObjectID) ([]models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Rating{}
	for _, r := range m.ratings {
		if r.SpotID == spotID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteRating(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ratings[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.ratings, id)
	return nil
}

func (m *memStore) DeleteRatingsBySpot(_ context.Context, spotID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.ratings {
		if r.SpotID == spotID {
			delete(m.ratings, id)
			n++
		}
	}
	return n, nil
}

// RecomputeAggregate mirrors the $group pipeline: the mean and count of the
// spot's ratings, summed in insertion order.
func (m *memStore) RecomputeAggregate(_ context.Context, spotID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[spotID]
	if !ok {
		return store.ErrNotFound
	}
	var rs []models.Rating
	for _, r := range m.ratings {
		if r.SpotID == spotID {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.Before(rs[j].CreatedAt) })

	var sum float64
	for _, r := range rs {
		sum += r.Rating
	}
	s.TotalRatings = len(rs)
	s.AverageRating = 0
	if len(rs) > 0 {
		s.AverageRating = sum / float64(len(rs))
	}
	m.spots[spotID] = s
	return nil
}

// memUsers is a spots.UserLookup over a fixed set of ids.
type memUsers map[primitive.ObjectID]bool

func (u memUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if !u[id] {
		return nil, nil
	}
	return &models.User{ID: id, Username: "user" + id.Hex()[18:]}, nil
}

// memImages records removals and can be told to fail.
type memImages struct {
	mu      sync.Mutex
	removed []string
	fail    bool
}

func (m *memImages) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("image host unavailable")
	}
	m.removed = append(m.removed, key)
	return nil
}

func (m *memImages) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.removed...)
	sort.Strings(out)
	return out
}
