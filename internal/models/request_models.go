package models

import "time"

// NewMember carries the fields a caller supplies when creating a member
// profile. Dates and status are filled in by the service.
type NewMember struct {
	UID            string         `json:"uid"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	MembershipPlan MembershipPlan `json:"membershipPlan"`
	PaymentMethod  *PaymentMethod `json:"paymentMethod,omitempty"`
}

// UpdateMemberRequest represents a partial profile update.
// Pointers distinguish fields that were not provided from empty values.
type UpdateMemberRequest struct {
	Name           *string         `json:"name,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	MembershipPlan *MembershipPlan `json:"membershipPlan,omitempty"`
	Status         *string         `json:"status,omitempty"`
	PaymentMethod  *PaymentMethod  `json:"paymentMethod,omitempty"`
}

// CreatePaymentRequest represents the request body for recording a payment.
type CreatePaymentRequest struct {
	MemberID    string     `json:"memberId" binding:"required"`
	Amount      float64    `json:"amount" binding:"required"`
	Method      string     `json:"method" binding:"required"`
	Status      string     `json:"status,omitempty"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// CreateClassRequest represents the request body for scheduling a class.
type CreateClassRequest struct {
	Name            string    `json:"name" yaml:"name" binding:"required"`
	Instructor      string    `json:"instructor,omitempty" yaml:"instructor"`
	Description     string    `json:"description,omitempty" yaml:"description"`
	StartsAt        time.Time `json:"startsAt" yaml:"startsAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" yaml:"durationMinutes"`
	Capacity        int       `json:"capacity" yaml:"capacity" binding:"required"`
}

// BookClassRequest represents the request body for booking a class.
type BookClassRequest struct {
	ClassID string `json:"classId" binding:"required"`
}

// CreateTourRequest represents the public tour request form.
type CreateTourRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Phone         string `json:"phone,omitempty"`
	PreferredDate string `json:"preferredDate,omitempty"`
	Message       string `json:"message,omitempty"`
}
