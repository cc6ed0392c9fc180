package api

import (
	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/session"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SignupRequest is the signup form. Name turns on member profile creation.
type SignupRequest struct {
	Email           string                `json:"email"`
	Password        string                `json:"password"`
	ConfirmPassword string                `json:"confirmPassword"`
	Name            string                `json:"name,omitempty"`
	Phone           string                `json:"phone,omitempty"`
	MembershipPlan  models.MembershipPlan `json:"membershipPlan,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest carries an ID token minted by a browser-side SDK.
type TokenRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// SessionResponse is the public view of a session snapshot.
type SessionResponse struct {
	Loading       bool               `json:"loading"`
	Authenticated bool               `json:"authenticated"`
	User          *identity.Identity `json:"user,omitempty"`
	Role          models.Role        `json:"role,omitempty"`
}

func newSessionResponse(s session.Snapshot) SessionResponse {
	return SessionResponse{
		Loading:       s.IsLoading(),
		Authenticated: s.Authenticated(),
		User:          s.Identity,
		Role:          s.Role,
	}
}

// AuthResponse answers a successful login, signup or logout. Redirect is
// empty while the session is still loading.
type AuthResponse struct {
	Message  string          `json:"message"`
	Redirect string          `json:"redirect,omitempty"`
	Session  SessionResponse `json:"session"`
}

// FormField describes one input of a page form.
type FormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// FormDescriptor describes a page form for the client to render.
type FormDescriptor struct {
	Title  string            `json:"title"`
	Action string            `json:"action"`
	Fields []FormField       `json:"fields"`
	Links  map[string]string `json:"links,omitempty"`
}

// PageResponse is the body of a guarded page.
type PageResponse struct {
	Title    string          `json:"title"`
	Sections []string        `json:"sections"`
	Session  SessionResponse `json:"session"`
	Data     interface{}     `json:"data,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

type BookingsUpdateRequest struct {
	Bookings []string `json:"bookings"`
}
