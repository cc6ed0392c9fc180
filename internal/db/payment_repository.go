package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/example/gymdesk/internal/models"
)

type firestorePaymentRepository struct {
	client *firestore.Client
}

// NewFirestorePaymentRepository creates a PaymentRepository backed by Firestore.
func NewFirestorePaymentRepository(client *firestore.Client) PaymentRepository {
	return &firestorePaymentRepository{client: client}
}

// Create adds a payment with an auto-generated ID and sets payment.ID.
func (r *firestorePaymentRepository) Create(ctx context.Context, payment *models.Payment) (string, error) {
	if payment.MemberID == "" {
		return "", errors.New("payment memberId cannot be empty")
	}
	docRef := r.client.Collection(PaymentsCollection).NewDoc()
	payment.ID = docRef.ID
	if _, err := docRef.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("failed to create payment: %w", err)
	}
	return docRef.ID, nil
}

// ListByMember needs the composite index (memberId ASC, date DESC).
func (r *firestorePaymentRepository) ListByMember(ctx context.Context, memberID string) ([]*models.Payment, error) {
	if memberID == "" {
		return nil, errEmptyID
	}
	iter := r.client.Collection(PaymentsCollection).
		Where("memberId", "==", memberID).
		OrderBy("date", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	payments := []*models.Payment{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate payments for member '%s': %w", memberID, err)
		}
		var payment models.Payment
		if err := doc.DataTo(&payment); err != nil {
			return nil, fmt.Errorf("failed to decode payment '%s': %w", doc.Ref.ID, err)
		}
		payment.ID = doc.Ref.ID
		payments = append(payments, &payment)
	}
	return payments, nil
}
