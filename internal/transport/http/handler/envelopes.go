package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/transport/http/middleware"
)

// Envelope is the standard response wrapper used by every endpoint. Failures
// carry only message; successes carry the payload under data.
type Envelope struct {
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Time       time.Time   `json:"time"`
	StatusCode int         `json:"statusCode"`
}

// AuthPayload is the data body of login, register, refresh and OTP-login
// responses.
type AuthPayload struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Session      *SafeSession `json:"session,omitempty"`
	User         *SafeUser    `json:"user,omitempty"`
}

// SafeUser is the owner/admin view of a user: everything except credentials.
type SafeUser struct {
	UserID         string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Phone          *string    `json:"phone,omitempty"`
	Role           string     `json:"role"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Birthday       time.Time  `json:"birthday"`
	Verified       bool       `json:"verified"`
	EmailConfirmed bool       `json:"email_confirmed"`
	PhoneConfirmed bool       `json:"phone_confirmed"`
	Enable         int        `json:"enable"`
	CreatedAt      time.Time  `json:"created"`
	UpdatedAt      time.Time  `json:"updated"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// PublicUser is what other authenticated users see. No contact details.
type PublicUser struct {
	UserID    string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created"`
}

// SafeSession hides the refresh token; it travels only in AuthPayload.
type SafeSession struct {
	SessionID string    `json:"id"`
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Enable    bool      `json:"enable"`
	CreatedAt time.Time `json:"created"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		UserID:         u.UserID,
		Username:       u.Username,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Birthday:       u.Birthday,
		Verified:       u.Verified,
		EmailConfirmed: u.EmailConfirmed,
		PhoneConfirmed: u.PhoneConfirmed,
		Enable:         u.Enable,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		DeletedAt:      u.DeletedAt,
	}
}

func toPublicUser(u *domain.User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		UserID:    u.UserID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

func toSafeSession(s *domain.Session) *SafeSession {
	if s == nil {
		return nil
	}
	return &SafeSession{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		DeviceID:  s.DeviceID,
		Enable:    s.Enable,
		CreatedAt: s.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps a payload in the standard envelope.
func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{
		Message:    message,
		Data:       data,
		Time:       time.Now().UTC(),
		StatusCode: status,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeData(w, status, msg, nil)
}

// httpError maps domain sentinel errors to HTTP status codes. Anything not
// wrapping a sentinel is treated as an internal error.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// actorFromRequest builds the acting principal from the verified JWT claims.
func actorFromRequest(r *http.Request) (domain.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: claims.UserID, Role: claims.Role}, true
}
