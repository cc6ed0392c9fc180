package models

import "time"

// MembershipPlan is the billing tier a member is subscribed to.
type MembershipPlan string

const (
	PlanBasic    MembershipPlan = "basic"
	PlanStandard MembershipPlan = "standard"
	PlanPremium  MembershipPlan = "premium"
)

// Valid reports whether p is one of the offered plans.
func (p MembershipPlan) Valid() bool {
	switch p {
	case PlanBasic, PlanStandard, PlanPremium:
		return true
	}
	return false
}

const (
	MemberStatusActive    = "active"
	MemberStatusInactive  = "inactive"
	MemberStatusSuspended = "suspended"
)

// PaymentMethod is the member's stored card summary. It is never persisted in
// clear text; see Member.PaymentMethodEncrypted.
type PaymentMethod struct {
	Type     string `json:"type"`            // e.g. "card"
	Brand    string `json:"brand,omitempty"` // e.g. "visa"
	Last4    string `json:"last4,omitempty"`
	ExpMonth int    `json:"expMonth,omitempty"`
	ExpYear  int    `json:"expYear,omitempty"`
}

// Member is a gym member profile, keyed by the member's UID.
type Member struct {
	UID             string         `json:"uid" firestore:"uid"`
	Name            string         `json:"name" firestore:"name"`
	Email           string         `json:"email" firestore:"email"`
	Phone           string         `json:"phone" firestore:"phone"`
	MembershipPlan  MembershipPlan `json:"membershipPlan" firestore:"membershipPlan"`
	Status          string         `json:"status" firestore:"status"`
	JoinDate        time.Time      `json:"joinDate" firestore:"joinDate"`
	NextBillingDate time.Time      `json:"nextBillingDate" firestore:"nextBillingDate"`
	BookedClasses   []string       `json:"bookedClasses" firestore:"bookedClasses"`

	PaymentMethodEncrypted string         `json:"-" firestore:"paymentMethodEncrypted,omitempty"`
	PaymentMethod          *PaymentMethod `json:"paymentMethod,omitempty" firestore:"-"`
}
