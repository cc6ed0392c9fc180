package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/example/gymdesk/internal/models"
)

type firestoreTourRequestRepository struct {
	client *firestore.Client
}

// NewFirestoreTourRequestRepository creates a TourRequestRepository backed by Firestore.
func NewFirestoreTourRequestRepository(client *firestore.Client) TourRequestRepository {
	return &firestoreTourRequestRepository{client: client}
}

func (r *firestoreTourRequestRepository) Create(ctx context.Context, req *models.TourRequest) (string, error) {
	docRef := r.client.Collection(TourRequestsCollection).NewDoc()
	req.ID = docRef.ID
	if _, err := docRef.Create(ctx, req); err != nil {
		return "", fmt.Errorf("failed to create tour request: %w", err)
	}
	return docRef.ID, nil
}

// List returns tour requests, newest first.
func (r *firestoreTourRequestRepository) List(ctx context.Context) ([]*models.TourRequest, error) {
	iter := r.client.Collection(TourRequestsCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	reqs := []*models.TourRequest{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tour requests: %w", err)
		}
		var req models.TourRequest
		if err := doc.DataTo(&req); err != nil {
			return nil, fmt.Errorf("failed to decode tour request '%s': %w", doc.Ref.ID, err)
		}
		req.ID = doc.Ref.ID
		reqs = append(reqs, &req)
	}
	return reqs, nil
}

func (r *firestoreTourRequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if id == "" {
		return errEmptyID
	}
	_, err := r.client.Collection(TourRequestsCollection).Doc(id).Update(ctx, []firestore.Update{{Path: "status", Value: status}})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("tour request '%s': %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to update tour request '%s': %w", id, err)
	}
	return nil
}
