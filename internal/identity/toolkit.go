package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Toolkit verifies passwords through the Identity Toolkit REST API, the
// endpoint the Firebase web SDK uses for email/password sign-in. The Admin
// SDK has no password check of its own.
type Toolkit struct {
	svc *identitytoolkit.Service
}

// NewToolkit creates a Toolkit authenticated with the project's web API key.
func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Toolkit, error) {
	if apiKey == "" {
		return nil, errors.New("identity toolkit: web API key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit: %w", err)
	}
	return &Toolkit{svc: svc}, nil
}

func (t *Toolkit) VerifyPassword(ctx context.Context, email, password string) (*Identity, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := t.svc.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}
	return &Identity{UID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}, nil
}

// mapToolkitError flattens "unknown user" and "wrong password" into one
// error so responses do not reveal which accounts exist.
func mapToolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	code := gerr.Message
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ErrInvalidEmail
	case "MISSING_PASSWORD":
		return ErrInvalidInput
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "EMAIL_EXISTS":
		return ErrEmailInUse
	}
	return fmt.Errorf("%w: %s", ErrUnknown, gerr.Message)
}
