package db

import (
	"context"
	"errors"

	"github.com/example/gymdesk/internal/models"
)

// RoleStore resolves roles from the users collection.
type RoleStore struct {
	users UserRepository
}

func NewRoleStore(users UserRepository) *RoleStore {
	return &RoleStore{users: users}
}

// GetRole returns models.RoleNone when uid has no record or the record
// holds an unknown role.
func (s *RoleStore) GetRole(ctx context.Context, uid string) (models.Role, error) {
	profile, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.RoleNone, nil
		}
		return models.RoleNone, err
	}
	role, _ := models.ParseRole(profile.Role)
	return role, nil
}

func (s *RoleStore) PutRole(ctx context.Context, uid string, record models.UserProfile) error {
	return s.users.Put(ctx, uid, record)
}
