package db

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	UsersCollection        = "users"
	MembersCollection      = "members"
	PaymentsCollection     = "payments"
	ClassesCollection      = "classes"
	TourRequestsCollection = "tourRequests"
	AuditLogsCollection    = "auditLogs"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when creating a document whose key is taken.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrAlreadyBooked and ErrClassFull reject a class booking.
	ErrAlreadyBooked = errors.New("already booked into class")
	ErrClassFull     = errors.New("class is full")
	errEmptyID       = errors.New("document ID cannot be empty")
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
