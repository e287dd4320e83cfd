package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	otpRegex   = regexp.MustCompile(`^[0-9]{6}$`)
	nameRegex  = regexp.MustCompile(`^[A-Za-z][A-Za-z '\-]*$`)
)

// typeName describes v the way a form user would: string, number, boolean,
// array, object or null.
func typeName(v any) string {
	if v == nil {
		return "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return typeName(rv.Elem().Interface())
	}
	return "object"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}

// toFloat converts any Go numeric value to float64.
func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(deref(v))
	switch {
	case rv.CanFloat():
		return rv.Float(), true
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	}
	return 0, false
}

// parseFloat accepts numbers and numeric strings, like a form field would.
func parseFloat(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, !math.IsNaN(f)
	}
	s, ok := deref(v).(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// String checks that v is a non-blank string and returns it trimmed.
func String(v any, label string) (string, error) {
	var errs Errors
	switch {
	case isNil(v):
		errs.Add(fmt.Sprintf("%s not provided", label))
	case typeName(v) == "array":
		errs.Add(fmt.Sprintf("%s cannot be an array", label))
	default:
		s, ok := deref(v).(string)
		if !ok {
			errs.Add(fmt.Sprintf("%s must be a string, got %s", label, typeName(v)))
			break
		}
		s = strings.TrimSpace(s)
		if s == "" {
			errs.Add(fmt.Sprintf("%s cannot be empty or just spaces", label))
			break
		}
		return s, nil
	}
	return "", errs.Err()
}

// ID checks that v is a string holding a 24 character hex object id.
func ID(v any, label string) (string, error) {
	s, err := String(v, label)
	if err != nil {
		return "", err
	}
	if !primitive.IsValidObjectID(s) {
		return "", Errors{fmt.Sprintf("%s is not a valid id", label)}
	}
	return s, nil
}

// ObjectID is ID followed by the conversion to the store's native id.
func ObjectID(v any, label string) (primitive.ObjectID, error) {
	s, err := ID(v, label)
	if err != nil {
		return primitive.NilObjectID, err
	}
	oid, _ := primitive.ObjectIDFromHex(s)
	return oid, nil
}

// OptionalString returns ("", nil) when v is nil, otherwise String.
func OptionalString(v any, label string) (string, error) {
	if isNil(v) {
		return "", nil
	}
	return String(v, label)
}

// MaxLength fails when s is longer than n runes.
func MaxLength(s, label string, n int) error {
	if len([]rune(s)) > n {
		return Errors{fmt.Sprintf("%s cannot be longer than %d characters", label, n)}
	}
	return nil
}

// Name validates a first or last name.
func Name(v any, label string) (string, error) {
	s, err := String(v, label)
	if err != nil {
		return "", err
	}
	var errs Errors
	if n := len([]rune(s)); n < 2 || n > 25 {
		errs.Add(fmt.Sprintf("%s must be between 2 and 25 characters", label))
	}
	if !nameRegex.MatchString(s) {
		errs.Add(fmt.Sprintf("%s may only contain letters, spaces, hyphens or apostrophes", label))
	}
	return s, errs.Err()
}

// Number checks that v is a Go numeric value and not NaN. Strings are
// rejected.
func Number(v any, label string) (float64, error) {
	if isNil(v) {
		return 0, Errors{fmt.Sprintf("%s not provided", label)}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, Errors{fmt.Sprintf("%s must be a number, got %s", label, typeName(v))}
	}
	if math.IsNaN(f) {
		return 0, Errors{fmt.Sprintf("%s cannot be NaN", label)}
	}
	return f, nil
}

// Float is Number but also accepts numeric strings, as sent by query strings
// and forms.
func Float(v any, label string) (float64, error) {
	if isNil(v) {
		return 0, Errors{fmt.Sprintf("%s not provided", label)}
	}
	f, ok := parseFloat(v)
	if !ok {
		return 0, Errors{fmt.Sprintf("%s must be a number", label)}
	}
	return f, nil
}

// Boolean checks that v is a bool.
func Boolean(v any, label string) (bool, error) {
	if isNil(v) {
		return false, Errors{fmt.Sprintf("%s not provided", label)}
	}
	b, ok := deref(v).(bool)
	if !ok {
		return false, Errors{fmt.Sprintf("%s must be a boolean, got %s", label, typeName(v))}
	}
	return b, nil
}

// Object checks that v is a JSON object.
func Object(v any, label string) (map[string]any, error) {
	if isNil(v) {
		return nil, Errors{fmt.Sprintf("%s not provided", label)}
	}
	m, ok := deref(v).(map[string]any)
	if !ok {
		return nil, Errors{fmt.Sprintf("%s must be an object, got %s", label, typeName(v))}
	}
	return m, nil
}

// Array checks that v is a slice or array and returns its elements.
func Array(v any, label string) ([]any, error) {
	if isNil(v) {
		return nil, Errors{fmt.Sprintf("%s not provided", label)}
	}
	rv := reflect.ValueOf(deref(v))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, Errors{fmt.Sprintf("%s must be an array, got %s", label, typeName(v))}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// StringArray checks every element of an array with String, reporting each
// failing element by index. When lower is set the values are lower-cased.
func StringArray(v any, label string, lower bool) ([]string, error) {
	items, err := Array(v, label)
	if err != nil {
		return nil, err
	}
	var errs Errors
	out := make([]string, 0, len(items))
	for i, item := range items {
		s := Pick(String(item, fmt.Sprintf("%s[%d]", label, i))).Into(&errs)
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Email validates an address and returns it lower-cased.
func Email(v any, label string) (string, error) {
	s, err := String(v, label)
	if err != nil {
		return "", err
	}
	if len(s) > 200 || !emailRegex.MatchString(s) {
		return "", Errors{fmt.Sprintf("%s is not a valid email address", label)}
	}
	return strings.ToLower(s), nil
}

// OTP validates a six digit one-time code.
func OTP(v any, label string) (string, error) {
	s, err := String(v, label)
	if err != nil {
		return "", err
	}
	if !otpRegex.MatchString(s) {
		return "", Errors{fmt.Sprintf("%s must be a 6 digit code", label)}
	}
	return s, nil
}
