package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ayush/spot-finder/backend/internal/models"
)

const (
	MinRating = 1
	MaxRating = 10
)

// Coordinates parses a longitude/latitude pair. Longitude is accepted in
// [-90, 90] and latitude in [-180, 180].
// TODO: these bounds are the reverse of WGS84; widen longitude and narrow
// latitude once existing spots have been audited against the real ranges.
func Coordinates(longitude, latitude any) (float64, float64, error) {
	var errs Errors
	lon, lonOK := parseFloat(longitude)
	lat, latOK := parseFloat(latitude)
	if !lonOK {
		errs.Add("Longitude must be a number")
	}
	if !latOK {
		errs.Add("Latitude must be a number")
	}
	if lonOK && (lon < -90 || lon > 90) {
		errs.Add("Longitude must be between -90 and 90")
	}
	if latOK && (lat < -180 || lat > 180) {
		errs.Add("Latitude must be between -180 and 180")
	}
	return lon, lat, errs.Err()
}

func ratingNumber(v any) (float64, error) {
	if isNil(v) {
		return 0, Errors{"Rating not provided"}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, Errors{fmt.Sprintf("Rating must be a number, got %s", typeName(v))}
	}
	if math.IsNaN(f) {
		return 0, Errors{"Rating cannot be NaN"}
	}
	if math.IsInf(f, 0) {
		return 0, Errors{"Rating must be a finite number"}
	}
	return f, nil
}

// Rating validates a rating submitted through the rating form: a whole
// number from 1 to 10.
func Rating(v any) (float64, error) {
	f, err := ratingNumber(v)
	if err != nil {
		return 0, err
	}
	var errs Errors
	if f != math.Trunc(f) {
		errs.Add("Rating must be a whole number")
	}
	if f < MinRating || f > MaxRating {
		errs.Add(fmt.Sprintf("Rating must be between %d and %d", MinRating, MaxRating))
	}
	return f, errs.Err()
}

// RatingScore is Rating without the whole-number rule. Stored ratings may
// be fractional.
func RatingScore(v any) (float64, error) {
	f, err := ratingNumber(v)
	if err != nil {
		return 0, err
	}
	if f < MinRating || f > MaxRating {
		return 0, Errors{fmt.Sprintf("Rating must be between %d and %d", MinRating, MaxRating)}
	}
	return f, nil
}

// Image validates an {public_id, url} object. Both attributes are required.
func Image(v any, label string) (models.Image, error) {
	if isNil(v) {
		return models.Image{}, Errors{fmt.Sprintf("%s not provided", label)}
	}
	var publicID, url any
	switch x := deref(v).(type) {
	case models.Image:
		publicID, url = x.PublicID, x.URL
	case map[string]any:
		publicID, url = x["public_id"], x["url"]
	default:
		return models.Image{}, Errors{fmt.Sprintf("%s must be an object, got %s", label, typeName(v))}
	}
	var errs Errors
	img := models.Image{
		PublicID: Pick(String(publicID, label+" public_id")).Into(&errs),
		URL:      Pick(String(url, label+" url")).Into(&errs),
	}
	return img, errs.Err()
}

// OptionalImage returns (nil, nil) when v is nil, otherwise Image.
func OptionalImage(v any, label string) (*models.Image, error) {
	if isNil(v) {
		return nil, nil
	}
	img, err := Image(v, label)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Images validates an array of images holding between min and max entries.
func Images(v any, label string, min, max int) ([]models.Image, error) {
	items, err := Array(v, label)
	if err != nil {
		return nil, err
	}
	var errs Errors
	if len(items) < min || len(items) > max {
		errs.Add(fmt.Sprintf("%s must contain between %d and %d images", label, min, max))
	}
	out := make([]models.Image, 0, len(items))
	for i, item := range items {
		out = append(out, Pick(Image(item, fmt.Sprintf("%s[%d]", label, i))).Into(&errs))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseDate accepts a time.Time or an RFC 3339 / YYYY-MM-DD string.
func ParseDate(v any, label string) (time.Time, error) {
	if isNil(v) {
		return time.Time{}, Errors{fmt.Sprintf("%s not provided", label)}
	}
	switch x := deref(v).(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, Errors{fmt.Sprintf("%s must be a valid date", label)}
		}
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, Errors{fmt.Sprintf("%s must be a valid date", label)}
	}
	return time.Time{}, Errors{fmt.Sprintf("%s must be a valid date, got %s", label, typeName(v))}
}

// DateOnly reports whether v is a YYYY-MM-DD string with no time part.
func DateOnly(v any) bool {
	s, ok := deref(v).(string)
	if !ok {
		return false
	}
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}

// Date is ParseDate plus a check that the date is not in the future.
func Date(v any, label string) (time.Time, error) {
	return DateBefore(v, label, time.Now())
}

// DateBefore is Date measured against now instead of the wall clock.
func DateBefore(v any, label string, now time.Time) (time.Time, error) {
	t, err := ParseDate(v, label)
	if err != nil {
		return t, err
	}
	if t.After(now) {
		return time.Time{}, Errors{fmt.Sprintf("%s cannot be in the future", label)}
	}
	return t, nil
}

// DateRange fails when from is after to.
func DateRange(from, to time.Time) error {
	if from.After(to) {
		return Errors{"fromDate must be on or before toDate"}
	}
	return nil
}
