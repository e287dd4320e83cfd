package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Policy is one independent rule of a policy list. Message is a format
// string receiving the field label.
type Policy struct {
	Message string
	Holds   func(string) bool
}

// UsernamePolicies are checked in order; every failing rule is reported.
var UsernamePolicies = []Policy{
	{"%s must be at least 6 characters long", func(s string) bool { return utf8.RuneCountInString(s) >= 6 }},
	{"%s cannot be longer than 20 characters", func(s string) bool { return utf8.RuneCountInString(s) <= 20 }},
	{"%s may only contain letters and numbers", func(s string) bool {
		for _, r := range s {
			if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return false
			}
		}
		return s != ""
	}},
}

// PasswordPolicies are checked in order; every failing rule is reported.
var PasswordPolicies = []Policy{
	{"%s must be at least 8 characters long", func(s string) bool { return utf8.RuneCountInString(s) >= 8 }},
	{"%s must contain at least one lowercase letter", func(s string) bool { return strings.IndexFunc(s, unicode.IsLower) >= 0 }},
	{"%s must contain at least one uppercase letter", func(s string) bool { return strings.IndexFunc(s, unicode.IsUpper) >= 0 }},
	{"%s must contain at least one number", func(s string) bool { return strings.IndexFunc(s, unicode.IsDigit) >= 0 }},
	{"%s must contain at least one special character", func(s string) bool {
		return strings.IndexFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
		}) >= 0
	}},
}

// ApplyPolicies appends the message of every policy that value fails.
func ApplyPolicies(errs *Errors, value, label string, policies []Policy) {
	for _, p := range policies {
		if !p.Holds(value) {
			errs.Add(fmt.Sprintf(p.Message, label))
		}
	}
}

// coerce gives the policy checks something to look at when the base string
// check failed.
func coerce(v any) string {
	if isNil(v) {
		return ""
	}
	switch x := deref(v).(type) {
	case string:
		return x
	case []any, map[string]any:
		return ""
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// Username runs the base string check and the username policy list and
// reports the union of their failures. The returned value is lower-cased.
func Username(v any, label string) (string, error) {
	var errs Errors
	s, err := String(v, label)
	errs.Merge(err)
	candidate := s
	if err != nil {
		candidate = strings.TrimSpace(coerce(v))
	}
	ApplyPolicies(&errs, candidate, label, UsernamePolicies)
	if err := errs.Err(); err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

// Password runs the base string check and the password policy list and
// reports the union of their failures. Passwords are never normalized, so
// the policies see the raw value.
func Password(v any, label string) error {
	var errs Errors
	_, err := String(v, label)
	errs.Merge(err)
	ApplyPolicies(&errs, coerce(v), label, PasswordPolicies)
	return errs.Err()
}

// LoginPassword only checks that a password was supplied. Policies are not
// enforced at login so accounts created under older rules can still sign in.
func LoginPassword(v any, label string) (string, error) {
	if _, err := String(v, label); err != nil {
		return "", err
	}
	return coerce(v), nil
}
