package core

import (
	"context"

	"github.com/example/gymdesk/internal/models"
)

// FieldCipher encrypts individual document fields. *crypto.Cipher
// satisfies it.
type FieldCipher interface {
	Seal(plainText string) (string, error)
	Open(sealed string) (string, error)
}

// EventPublisher announces domain events to background workers.
type EventPublisher interface {
	PublishTourRequest(ctx context.Context, req models.TourRequest) error
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}

// MemberService manages member profiles.
type MemberService interface {
	CreateMember(ctx context.Context, m models.NewMember) Result[*models.Member]
	GetMember(ctx context.Context, uid string) Result[*models.Member]
	ListMembers(ctx context.Context) Result[[]*models.Member]
	UpdateMember(ctx context.Context, uid string, req models.UpdateMemberRequest) Result[*models.Member]
}

// PaymentService records and lists payments.
type PaymentService interface {
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) Result[*models.Payment]
	GetPaymentsByMember(ctx context.Context, memberID string) Result[[]*models.Payment]
}

// ClassService manages the class schedule and bookings.
type ClassService interface {
	GetAllClasses(ctx context.Context) Result[[]*models.GymClass]
	CreateClass(ctx context.Context, req models.CreateClassRequest) Result[*models.GymClass]
	UpdateClassBookings(ctx context.Context, classID string, bookings []string) Result[[]string]
	BookClass(ctx context.Context, memberID, classID string) Result[*models.GymClass]
	CancelBooking(ctx context.Context, memberID, classID string) Result[*models.GymClass]
}

// TourService handles tour requests from prospective members.
type TourService interface {
	CreateTourRequest(ctx context.Context, req models.CreateTourRequest) Result[*models.TourRequest]
	ListTourRequests(ctx context.Context) Result[[]*models.TourRequest]
	UpdateTourRequestStatus(ctx context.Context, id, status string) Result[string]
}

var (
	_ MemberService  = (*GymService)(nil)
	_ PaymentService = (*GymService)(nil)
	_ ClassService   = (*GymService)(nil)
	_ TourService    = (*GymService)(nil)
)
