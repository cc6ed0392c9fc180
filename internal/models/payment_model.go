package models

import "time"

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return s == PaymentStatusCompleted || s == PaymentStatusPending || s == PaymentStatusFailed
}

// Payment is a charge recorded against a member.
type Payment struct {
	ID          string    `json:"id" firestore:"-"` // Document ID, auto-generated
	MemberID    string    `json:"memberId" firestore:"memberId"`
	Amount      float64   `json:"amount" firestore:"amount"`
	Date        time.Time `json:"date" firestore:"date"`
	Method      string    `json:"method" firestore:"method"`
	Status      string    `json:"status" firestore:"status"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
}
