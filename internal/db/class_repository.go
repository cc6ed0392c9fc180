package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/example/gymdesk/internal/models"
)

type firestoreClassRepository struct {
	client *firestore.Client
}

// NewFirestoreClassRepository creates a ClassRepository backed by Firestore.
func NewFirestoreClassRepository(client *firestore.Client) ClassRepository {
	return &firestoreClassRepository{client: client}
}

func (r *firestoreClassRepository) Create(ctx context.Context, class *models.GymClass) (string, error) {
	docRef := r.client.Collection(ClassesCollection).NewDoc()
	class.ID = docRef.ID
	if class.Bookings == nil {
		class.Bookings = []string{}
	}
	if _, err := docRef.Create(ctx, class); err != nil {
		return "", fmt.Errorf("failed to create class: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreClassRepository) GetByID(ctx context.Context, classID string) (*models.GymClass, error) {
	if classID == "" {
		return nil, errEmptyID
	}
	docSnap, err := r.client.Collection(ClassesCollection).Doc(classID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("class '%s': %w", classID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get class '%s': %w", classID, err)
	}
	var class models.GymClass
	if err := docSnap.DataTo(&class); err != nil {
		return nil, fmt.Errorf("failed to decode class '%s': %w", classID, err)
	}
	class.ID = docSnap.Ref.ID
	return &class, nil
}

func (r *firestoreClassRepository) List(ctx context.Context) ([]*models.GymClass, error) {
	iter := r.client.Collection(ClassesCollection).OrderBy("startsAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	classes := []*models.GymClass{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate classes: %w", err)
		}
		var class models.GymClass
		if err := doc.DataTo(&class); err != nil {
			return nil, fmt.Errorf("failed to decode class '%s': %w", doc.Ref.ID, err)
		}
		class.ID = doc.Ref.ID
		classes = append(classes, &class)
	}
	return classes, nil
}

// UpdateBookings replaces the class's booking list.
func (r *firestoreClassRepository) UpdateBookings(ctx context.Context, classID string, bookings []string) error {
	if bookings == nil {
		bookings = []string{}
	}
	return r.update(ctx, classID, []firestore.Update{{Path: "bookings", Value: bookings}})
}

func (r *firestoreClassRepository) AddBooking(ctx context.Context, classID, uid string) (*models.GymClass, error) {
	if classID == "" {
		return nil, errEmptyID
	}
	ref := r.client.Collection(ClassesCollection).Doc(classID)
	var booked models.GymClass
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var class models.GymClass
		if err := docSnap.DataTo(&class); err != nil {
			return fmt.Errorf("failed to decode class '%s': %w", classID, err)
		}
		class.ID = ref.ID
		if class.HasBooking(uid) {
			return ErrAlreadyBooked
		}
		if class.Full() {
			return ErrClassFull
		}
		class.Bookings = append(class.Bookings, uid)
		booked = class
		return tx.Update(ref, []firestore.Update{{Path: "bookings", Value: firestore.ArrayUnion(uid)}})
	})
	switch {
	case err == nil:
		return &booked, nil
	case errors.Is(err, ErrAlreadyBooked), errors.Is(err, ErrClassFull):
		return nil, err
	case isNotFound(err):
		return nil, fmt.Errorf("class '%s': %w", classID, ErrNotFound)
	}
	return nil, fmt.Errorf("failed to book class '%s': %w", classID, err)
}

func (r *firestoreClassRepository) RemoveBooking(ctx context.Context, classID, uid string) error {
	return r.update(ctx, classID, []firestore.Update{{Path: "bookings", Value: firestore.ArrayRemove(uid)}})
}

func (r *firestoreClassRepository) update(ctx context.Context, classID string, updates []firestore.Update) error {
	if classID == "" {
		return errEmptyID
	}
	if _, err := r.client.Collection(ClassesCollection).Doc(classID).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("class '%s': %w", classID, ErrNotFound)
		}
		return fmt.Errorf("failed to update class '%s': %w", classID, err)
	}
	return nil
}
