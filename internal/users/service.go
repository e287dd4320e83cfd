// Package users implements account creation, authentication and profile
// maintenance on top of the users collection.
package users

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/store"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

const (
	maxBioLength = 255
	// OTPTTL is how long an issued one-time code stays valid.
	OTPTTL = 10 * time.Minute
)

// Store defines the user persistence the service needs.
type Store interface {
	InsertUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserWithSecrets(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string, includePassword bool) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, u models.UserUpdate) error
}

// Service holds user business logic.
type Service struct {
	store    Store
	hashCost int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost sets the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, hashCost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser validates the signup fields, checks the username is free,
// stores a bcrypt hash of the password and returns the public profile.
func (s *Service) CreateUser(ctx context.Context, firstName, lastName, username, password any) (*models.User, error) {
	var errs validation.Errors
	first := validation.Pick(validation.Name(firstName, "First name")).Into(&errs)
	last := validation.Pick(validation.Name(lastName, "Last name")).Into(&errs)
	uname := validation.Pick(validation.Username(username, "Username")).Into(&errs)
	validation.Check(&errs, validation.Password(password, "Password"))
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	if err := s.VerifyNewUsername(ctx, uname); err != nil {
		return nil, err
	}

	raw, _ := validation.LoginPassword(password, "Password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), s.hashCost)
	if err != nil {
		return nil, apperr.Persistence("Could not add user", err)
	}

	user := &models.User{
		FirstName: first,
		LastName:  last,
		Username:  uname,
		Password:  string(hashed),
		Role:      models.RoleUser,
		CreatedAt: s.now(),
	}
	id, err := s.store.InsertUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, usernameTaken(uname)
	}
	if err != nil {
		return nil, apperr.Persistence("Could not add user", err)
	}

	created, err := s.store.GetUserByID(ctx, id)
	if err != nil || created == nil {
		return nil, apperr.Persistence("Could not add user", err)
	}
	log.Info().Str("user_id", id.Hex()).Str("username", uname).Msg("user created")
	return created.Public(), nil
}

func usernameTaken(username string) error {
	return apperr.Conflict(fmt.Sprintf("Another user is already using username (%s)", username))
}

// VerifyNewUsername fails when the (lower-cased) username is already taken.
func (s *Service) VerifyNewUsername(ctx context.Context, username any) error {
	uname, err := validation.Username(username, "Username")
	if err != nil {
		return apperr.Validation(err)
	}
	existing, err := s.store.GetUserByUsername(ctx, uname, false)
	if err != nil {
		return apperr.Persistence("Could not check username", err)
	}
	if existing != nil {
		return usernameTaken(uname)
	}
	return nil
}

// AuthenticateUser checks a username and password and returns the public
// profile. Password policies are not applied here.
func (s *Service) AuthenticateUser(ctx context.Context, username, password any) (*models.User, error) {
	var errs validation.Errors
	uname := validation.Pick(validation.Username(username, "Username")).Into(&errs)
	pw := validation.Pick(validation.LoginPassword(password, "Password")).Into(&errs)
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	user, err := s.store.GetUserByUsername(ctx, uname, true)
	if err != nil {
		return nil, apperr.Persistence("Could not log in", err)
	}
	if user == nil {
		return nil, apperr.NotFound(fmt.Sprintf("Could not find user with username (%s)", uname))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pw)); err != nil {
		return nil, apperr.Unauthenticated(fmt.Sprintf("Invalid password for user %s!", uname))
	}
	return user.Public(), nil
}

// GetUserByUsername loads a user. The password hash is only included when
// includePassword is set.
func (s *Service) GetUserByUsername(ctx context.Context, username any, includePassword bool) (*models.User, error) {
	uname, err := validation.Username(username, "Username")
	if err != nil {
		return nil, apperr.Validation(err)
	}
	user, err := s.store.GetUserByUsername(ctx, uname, includePassword)
	if err != nil {
		return nil, apperr.Persistence("Could not get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound(fmt.Sprintf("Could not find user with username (%s)", uname))
	}
	return user, nil
}

// GetUserByID loads a user's public profile.
func (s *Service) GetUserByID(ctx context.Context, id any) (*models.User, error) {
	oid, err := validation.ObjectID(id, "User id")
	if err != nil {
		return nil, apperr.Validation(err)
	}
	user, err := s.store.GetUserByID(ctx, oid)
	if err != nil {
		return nil, apperr.Persistence("Could not get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound(fmt.Sprintf("No user with id of %s", oid.Hex()))
	}
	return user.Public(), nil
}

// UpdateProfile applies the fields present in req. Changing the email
// clears its verified flag.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error) {
	var errs validation.Errors
	oid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)

	var u models.UserUpdate
	if req.FirstName != nil {
		v := validation.Pick(validation.Name(req.FirstName, "First name")).Into(&errs)
		u.FirstName = &v
	}
	if req.LastName != nil {
		v := validation.Pick(validation.Name(req.LastName, "Last name")).Into(&errs)
		u.LastName = &v
	}
	if req.Bio != nil {
		var bio string
		if str, ok := req.Bio.(string); !ok || strings.TrimSpace(str) != "" {
			bio = validation.Pick(validation.String(req.Bio, "Bio")).Into(&errs)
			validation.Check(&errs, validation.MaxLength(bio, "Bio", maxBioLength))
		}
		u.Bio = &bio
	}
	if req.Email != nil {
		v := validation.Pick(validation.Email(req.Email, "Email")).Into(&errs)
		verified := false
		u.Email, u.EmailVerified = &v, &verified
	}
	if req.FirstName == nil && req.LastName == nil && req.Bio == nil && req.Email == nil {
		errs.Add("No fields provided to update")
	}
	if err := errs.Err(); err != nil {
		return nil, apperr.Validation(err)
	}

	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUser(ctx, oid, u); err != nil {
		return nil, apperr.Persistence("User update failed!", err)
	}
	return s.GetUserByID(ctx, userID)
}

// IssueOTP generates a six digit code, stores it with an expiry and returns
// it for delivery.
func (s *Service) IssueOTP(ctx context.Context, userID string) (string, error) {
	oid, err := validation.ObjectID(userID, "User id")
	if err != nil {
		return "", apperr.Validation(err)
	}
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", apperr.Persistence("Could not issue code", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	expires := s.now().Add(OTPTTL)
	if err := s.store.UpdateUser(ctx, oid, models.UserUpdate{OTP: &code, OTPExpiration: &expires}); err != nil {
		return "", apperr.Persistence("Could not issue code", err)
	}
	return code, nil
}

// VerifyOTP checks a submitted code against the stored one. On success the
// code is cleared and the email marked verified.
func (s *Service) VerifyOTP(ctx context.Context, userID string, otp any) error {
	var errs validation.Errors
	oid := validation.Pick(validation.ObjectID(userID, "User id")).Into(&errs)
	code := validation.Pick(validation.OTP(otp, "OTP")).Into(&errs)
	if err := errs.Err(); err != nil {
		return apperr.Validation(err)
	}

	user, err := s.store.GetUserWithSecrets(ctx, oid)
	if err != nil {
		return apperr.Persistence("Could not verify code", err)
	}
	if user == nil {
		return apperr.NotFound(fmt.Sprintf("No user with id of %s", oid.Hex()))
	}
	if user.OTP == "" || user.OTPExpiration == nil || s.now().After(*user.OTPExpiration) {
		return apperr.Unauthenticated("Code has expired, request a new one")
	}
	if subtle.ConstantTimeCompare([]byte(user.OTP), []byte(code)) != 1 {
		return apperr.Unauthenticated("Invalid code")
	}

	verified := true
	if err := s.store.UpdateUser(ctx, oid, models.UserUpdate{ClearOTP: true, EmailVerified: &verified}); err != nil {
		return apperr.Persistence("Could not verify code", err)
	}
	return nil
}
