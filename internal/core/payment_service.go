package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/models"
)

// CreatePayment records a payment for an existing member. Status defaults
// to completed and date to now.
func (s *GymService) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) Result[*models.Payment] {
	if req.MemberID == "" {
		return fail[*models.Payment](fmt.Errorf("%w: memberId is required", ErrInvalidInput))
	}
	if req.Amount <= 0 {
		return fail[*models.Payment](fmt.Errorf("%w: amount must be positive", ErrInvalidInput))
	}
	if strings.TrimSpace(req.Method) == "" {
		return fail[*models.Payment](fmt.Errorf("%w: method is required", ErrInvalidInput))
	}
	status := req.Status
	if status == "" {
		status = models.PaymentStatusCompleted
	}
	if !models.ValidPaymentStatus(status) {
		return fail[*models.Payment](fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, status))
	}

	if _, err := s.members.GetByID(ctx, req.MemberID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail[*models.Payment](fmt.Errorf("%w: %s", ErrMemberNotFound, req.MemberID))
		}
		return failure[*models.Payment](s, "create payment", err, zap.String("memberId", req.MemberID))
	}

	date := s.now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}
	payment := &models.Payment{
		MemberID:    req.MemberID,
		Amount:      req.Amount,
		Date:        date,
		Method:      req.Method,
		Status:      status,
		Description: req.Description,
	}
	if _, err := s.payments.Create(ctx, payment); err != nil {
		return failure[*models.Payment](s, "create payment", err, zap.String("memberId", req.MemberID))
	}
	return ok(payment)
}

// GetPaymentsByMember returns the member's payments, newest first. A member
// with no payments gets an empty slice.
func (s *GymService) GetPaymentsByMember(ctx context.Context, memberID string) Result[[]*models.Payment] {
	payments, err := s.payments.ListByMember(ctx, memberID)
	if err != nil {
		return failure[[]*models.Payment](s, "get payments", err, zap.String("memberId", memberID))
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Date.After(payments[j].Date)
	})
	return ok(payments)
}
