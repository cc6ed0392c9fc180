package models

import "time"

// Audit actions recorded by the API.
const (
	AuditActionSignup      = "USER_SIGNUP"
	AuditActionLogin       = "USER_LOGIN"
	AuditActionLogout      = "USER_LOGOUT"
	AuditActionPayment     = "PAYMENT_CREATE"
	AuditActionBookClass   = "CLASS_BOOK"
	AuditActionCancelClass = "CLASS_CANCEL"
)

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"`
	Action     string                 `json:"action" firestore:"action"`
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // "MEMBER", "PAYMENT", "CLASS"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	IPAddress  string                 `json:"ipAddress,omitempty" firestore:"ipAddress,omitempty"`
	UserAgent  string                 `json:"userAgent,omitempty" firestore:"userAgent,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
