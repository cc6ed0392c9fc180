package api

import (
	"errors"
	"net/http"

	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/session"
)

// User-facing messages for the auth forms.
const (
	MsgFillAllFields      = "Please fill in all fields"
	MsgInvalidCredentials = "Invalid email or password"
	MsgLoginInvalidEmail  = "Invalid email address"
	MsgLoginFailed        = "Failed to log in. Please try again."

	MsgPasswordMismatch   = "Passwords do not match"
	MsgEmailInUse         = "This email is already registered. Please log in or use a different email."
	MsgWeakPassword       = "Password should be at least 6 characters long."
	MsgSignupInvalidEmail = "Please enter a valid email address."
	MsgInvalidPhone       = "Please enter a valid phone number with at least 10 digits."
	MsgInvalidPlan        = "Please choose a valid membership plan."
	MsgSignupFailed       = "Failed to create an account. Please try again."
	MsgAccountIncomplete  = "Your account was created but could not be fully set up. Please contact the front desk."

	MsgLogoutFailed = "Failed to log out. Please try again."
)

// loginFailure maps a login error to a status and message.
func loginFailure(err error) (int, string) {
	switch identity.KindOf(err) {
	case identity.KindInvalidCredentials:
		return http.StatusUnauthorized, MsgInvalidCredentials
	case identity.KindInvalidEmail:
		return http.StatusBadRequest, MsgLoginInvalidEmail
	case identity.KindInvalidInput:
		return http.StatusBadRequest, MsgFillAllFields
	}
	return http.StatusInternalServerError, MsgLoginFailed
}

// signupFailure maps a signup error to a status and message. Errors after
// the account was created are reported separately from auth failures.
func signupFailure(err error) (int, string) {
	if errors.Is(err, session.ErrRoleRecord) || errors.Is(err, session.ErrProfileCreation) {
		return http.StatusInternalServerError, MsgAccountIncomplete
	}
	switch identity.KindOf(err) {
	case identity.KindEmailInUse:
		return http.StatusConflict, MsgEmailInUse
	case identity.KindWeakPassword:
		return http.StatusBadRequest, MsgWeakPassword
	case identity.KindInvalidEmail:
		return http.StatusBadRequest, MsgSignupInvalidEmail
	case identity.KindInvalidInput:
		return http.StatusBadRequest, MsgFillAllFields
	}
	return http.StatusInternalServerError, MsgSignupFailed
}
