package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/example/gymdesk/internal/models"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a UserRepository backed by Firestore.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, errEmptyID
	}
	docSnap, err := r.client.Collection(UsersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", uid, err)
	}

	var profile models.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user '%s': %w", uid, err)
	}
	profile.ID = docSnap.Ref.ID
	return &profile, nil
}

// Put writes the role record for uid, replacing any previous one.
func (r *firestoreUserRepository) Put(ctx context.Context, uid string, profile models.UserProfile) error {
	if uid == "" {
		return errEmptyID
	}
	if _, err := r.client.Collection(UsersCollection).Doc(uid).Set(ctx, profile); err != nil {
		return fmt.Errorf("failed to write user '%s': %w", uid, err)
	}
	return nil
}
