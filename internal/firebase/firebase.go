// Package firebase builds the Firebase Admin app and the clients derived
// from it.
package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/gymdesk/internal/config"
)

// Clients are the Firebase services the server talks to.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}

// CredentialsOption returns the client option selected by cfg: a credentials
// file, a base64 encoded service account, or nil for Application Default
// Credentials.
func CredentialsOption(cfg *config.Config, logger *zap.Logger) (option.ClientOption, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		if _, err := os.Stat(cfg.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("credentials file does not exist", zap.String("path", cfg.GoogleApplicationCredentials))
		}
		return option.WithCredentialsFile(cfg.GoogleApplicationCredentials), nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		return option.WithCredentialsJSON(jsonKey), nil
	default:
		logger.Info("using Application Default Credentials")
		return nil, nil
	}
}

// Init initializes the Firebase app, Auth and Firestore clients.
func Init(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	opt, err := CredentialsOption(cfg, logger)
	if err != nil {
		return nil, err
	}

	conf := &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	var opts []option.ClientOption
	if opt != nil {
		opts = append(opts, opt)
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("firebase clients initialized", zap.String("project", cfg.FirebaseProjectID))
	return &Clients{App: app, Auth: authClient, Firestore: fs}, nil
}
