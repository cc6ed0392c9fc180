package db

import (
	"context"

	"github.com/example/gymdesk/internal/models"
)

// UserRepository stores role-resolution records in the users collection.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.UserProfile, error)
	Put(ctx context.Context, uid string, profile models.UserProfile) error
}

// MemberRepository stores member profiles keyed by uid.
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, uid string) (*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	// Update writes only the given fields. The member must exist.
	Update(ctx context.Context, uid string, fields map[string]interface{}) error
	AddBookedClass(ctx context.Context, uid, classID string) error
	RemoveBookedClass(ctx context.Context, uid, classID string) error
}

// PaymentRepository stores payments with auto-generated IDs.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (string, error)
	// ListByMember returns the member's payments, newest first.
	ListByMember(ctx context.Context, memberID string) ([]*models.Payment, error)
}

// ClassRepository stores the class schedule.
type ClassRepository interface {
	Create(ctx context.Context, class *models.GymClass) (string, error)
	GetByID(ctx context.Context, classID string) (*models.GymClass, error)
	List(ctx context.Context) ([]*models.GymClass, error)
	UpdateBookings(ctx context.Context, classID string, bookings []string) error
	// AddBooking checks and books uid in one transaction on the class
	// document and returns the class as booked. It writes nothing when it
	// fails with ErrAlreadyBooked or ErrClassFull.
	AddBooking(ctx context.Context, classID, uid string) (*models.GymClass, error)
	RemoveBooking(ctx context.Context, classID, uid string) error
}

// TourRequestRepository stores tour requests from prospective members.
type TourRequestRepository interface {
	Create(ctx context.Context, req *models.TourRequest) (string, error)
	List(ctx context.Context) ([]*models.TourRequest, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
