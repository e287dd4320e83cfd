package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/respond"
)

// Users is the account logic the handlers call.
type Users interface {
	CreateUser(ctx context.Context, firstName, lastName, username, password any) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password any) (*models.User, error)
	GetUserByID(ctx context.Context, id any) (*models.User, error)
	VerifyNewUsername(ctx context.Context, username any) error
	UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error)
	IssueOTP(ctx context.Context, userID string) (string, error)
	VerifyOTP(ctx context.Context, userID string, otp any) error
}

// Sessions creates and ends login sessions.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// Mailer delivers verification codes.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email")
	return nil
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    Users
	sessions Sessions
	mailer   Mailer
	secure   bool
}

func NewHandler(users Users, sessions Sessions, mailer Mailer, secureCookies bool) *Handler {
	return &Handler{users: users, sessions: sessions, mailer: mailer, secure: secureCookies}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) bool {
	sid, err := h.sessions.Create(r.Context(), user.ID.Hex())
	if err != nil {
		log.Error().Err(err).Msg("session creation failed")
		respond.Message(w, http.StatusInternalServerError, "Could not start session")
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	return true
}

// Signup creates an account and logs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	user, err := h.users.CreateUser(r.Context(), req.FirstName, req.LastName, req.Username, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if !h.startSession(w, r, user) {
		return
	}
	respond.JSON(w, http.StatusCreated, user)
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	user, err := h.users.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if !h.startSession(w, r, user) {
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("session delete failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		MaxAge:   -1,
	})
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// User returns another user's public profile.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// UpdateProfile patches the current user's profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), UserID(r.Context()), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// UsernameAvailable reports whether a username can still be registered.
func (h *Handler) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyNewUsername(r.Context(), chi.URLParam(r, "username")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"available": true})
}

// SendOTP issues a verification code and mails it to the user's address.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if user.Email == "" {
		respond.Message(w, http.StatusBadRequest, "Add an email address before requesting a code")
		return
	}

	code, err := h.users.IssueOTP(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	body := fmt.Sprintf("Your Spot Finder verification code is %s", code)
	if err := h.mailer.Send(r.Context(), user.Email, "Verify your email", body); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("otp email failed")
	}
	respond.JSON(w, http.StatusAccepted, map[string]string{"message": "code sent"})
}

// VerifyOTP checks a submitted verification code.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.users.VerifyOTP(r.Context(), UserID(r.Context()), req.OTP); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}
