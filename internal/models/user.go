package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a document in the users collection. Username is always stored
// lower-cased.
type User struct {
	ID            primitive.ObjectID `json:"id"                      bson:"_id,omitempty"`
	FirstName     string             `json:"firstName"               bson:"firstName"`
	LastName      string             `json:"lastName"                bson:"lastName"`
	Username      string             `json:"username"                bson:"username"`
	Password      string             `json:"-"                       bson:"password,omitempty"` // never serialize
	Bio           string             `json:"bio,omitempty"           bson:"bio,omitempty"`
	Email         string             `json:"email,omitempty"         bson:"email,omitempty"`
	EmailVerified bool               `json:"emailVerified"           bson:"emailVerified"`
	Role          string             `json:"role"                    bson:"role"`
	OTP           string             `json:"-"                       bson:"otp,omitempty"`
	OTPExpiration *time.Time         `json:"-"                       bson:"otpExpiration,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"               bson:"createdAt"`
}

// Public returns a copy of the user with credential fields cleared.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	p := *u
	p.Password = ""
	p.OTP = ""
	p.OTPExpiration = nil
	return &p
}

// IsAdmin reports whether the user may moderate reported content.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// SignupRequest is the JSON body for POST /api/auth/signup.
type SignupRequest struct {
	FirstName any `json:"firstName"`
	LastName  any `json:"lastName"`
	Username  any `json:"username"`
	Password  any `json:"password"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username any `json:"username"`
	Password any `json:"password"`
}

// ProfileRequest is the JSON body for PATCH /api/auth/me. Nil fields are left
// untouched.
type ProfileRequest struct {
	FirstName any `json:"firstName"`
	LastName  any `json:"lastName"`
	Bio       any `json:"bio"`
	Email     any `json:"email"`
}

// OTPRequest is the JSON body for POST /api/auth/otp/verify.
type OTPRequest struct {
	OTP any `json:"otp"`
}

// UserUpdate carries the validated fields of a profile change. Nil fields
// are not written.
type UserUpdate struct {
	FirstName     *string
	LastName      *string
	Bio           *string
	Email         *string
	EmailVerified *bool
	OTP           *string
	OTPExpiration *time.Time
	// ClearOTP removes the otp fields.
	ClearOTP bool
}
