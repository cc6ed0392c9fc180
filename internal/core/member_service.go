package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/models"
)

// MinPhoneDigits is the shortest phone number accepted on a profile.
const MinPhoneDigits = 10

// CreateMember creates the profile for m.UID. The member joins now and is
// first billed exactly one BillingCycle later.
func (s *GymService) CreateMember(ctx context.Context, m models.NewMember) Result[*models.Member] {
	if err := validateNewMember(&m); err != nil {
		return fail[*models.Member](err)
	}

	now := s.now().UTC()
	member := &models.Member{
		UID:             m.UID,
		Name:            strings.TrimSpace(m.Name),
		Email:           m.Email,
		Phone:           m.Phone,
		MembershipPlan:  m.MembershipPlan,
		Status:          models.MemberStatusActive,
		JoinDate:        now,
		NextBillingDate: now.Add(BillingCycle),
		BookedClasses:   []string{},
	}
	if m.PaymentMethod != nil {
		sealed, err := s.sealPaymentMethod(m.PaymentMethod)
		if err != nil {
			return failure[*models.Member](s, "create member", err, zap.String("uid", m.UID))
		}
		member.PaymentMethodEncrypted = sealed
	}

	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return fail[*models.Member](fmt.Errorf("%w: %s", ErrMemberExists, m.UID))
		}
		return failure[*models.Member](s, "create member", err, zap.String("uid", m.UID))
	}
	member.PaymentMethod = m.PaymentMethod
	return ok(member)
}

// CreateMemberProfile creates a member during signup.
func (s *GymService) CreateMemberProfile(ctx context.Context, m models.NewMember) error {
	if r := s.CreateMember(ctx, m); !r.Success {
		return r.Err
	}
	return nil
}

func (s *GymService) GetMember(ctx context.Context, uid string) Result[*models.Member] {
	member, err := s.members.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail[*models.Member](fmt.Errorf("%w: %s", ErrMemberNotFound, uid))
		}
		return failure[*models.Member](s, "get member", err, zap.String("uid", uid))
	}
	s.openPaymentMethod(member)
	return ok(member)
}

func (s *GymService) ListMembers(ctx context.Context) Result[[]*models.Member] {
	members, err := s.members.List(ctx)
	if err != nil {
		return failure[[]*models.Member](s, "list members", err)
	}
	if members == nil {
		members = []*models.Member{}
	}
	for _, m := range members {
		s.openPaymentMethod(m)
	}
	return ok(members)
}

// UpdateMember applies the fields set on req and returns the stored member.
func (s *GymService) UpdateMember(ctx context.Context, uid string, req models.UpdateMemberRequest) Result[*models.Member] {
	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fail[*models.Member](fmt.Errorf("%w: name cannot be empty", ErrInvalidInput))
		}
		fields["name"] = name
	}
	if req.Phone != nil {
		if err := ValidatePhone(*req.Phone); err != nil {
			return fail[*models.Member](err)
		}
		fields["phone"] = *req.Phone
	}
	if req.MembershipPlan != nil {
		if !req.MembershipPlan.Valid() {
			return fail[*models.Member](fmt.Errorf("%w: unknown membership plan %q", ErrInvalidInput, *req.MembershipPlan))
		}
		fields["membershipPlan"] = *req.MembershipPlan
	}
	if req.Status != nil {
		switch *req.Status {
		case models.MemberStatusActive, models.MemberStatusInactive, models.MemberStatusSuspended:
			fields["status"] = *req.Status
		default:
			return fail[*models.Member](fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status))
		}
	}
	if req.PaymentMethod != nil {
		sealed, err := s.sealPaymentMethod(req.PaymentMethod)
		if err != nil {
			return failure[*models.Member](s, "update member", err, zap.String("uid", uid))
		}
		fields["paymentMethodEncrypted"] = sealed
	}

	if err := s.members.Update(ctx, uid, fields); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail[*models.Member](fmt.Errorf("%w: %s", ErrMemberNotFound, uid))
		}
		return failure[*models.Member](s, "update member", err, zap.String("uid", uid))
	}
	return s.GetMember(ctx, uid)
}

func (s *GymService) sealPaymentMethod(pm *models.PaymentMethod) (string, error) {
	if s.cipher == nil {
		return "", errors.New("no cipher configured for payment methods")
	}
	raw, err := json.Marshal(pm)
	if err != nil {
		return "", fmt.Errorf("encode payment method: %w", err)
	}
	return s.cipher.Seal(string(raw))
}

// openPaymentMethod decrypts m's stored payment method in place. A value
// that cannot be decrypted is logged and left out.
func (s *GymService) openPaymentMethod(m *models.Member) {
	if m.PaymentMethodEncrypted == "" || s.cipher == nil {
		return
	}
	plain, err := s.cipher.Open(m.PaymentMethodEncrypted)
	if err == nil {
		var pm models.PaymentMethod
		if err = json.Unmarshal([]byte(plain), &pm); err == nil {
			m.PaymentMethod = &pm
			return
		}
	}
	s.logger.Warn(ErrPaymentMethodCorrupt.Error(), zap.String("uid", m.UID), zap.Error(err))
}

func validateNewMember(m *models.NewMember) error {
	if m.UID == "" {
		return fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if m.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if m.MembershipPlan == "" {
		m.MembershipPlan = models.PlanBasic
	}
	if !m.MembershipPlan.Valid() {
		return fmt.Errorf("%w: unknown membership plan %q", ErrInvalidInput, m.MembershipPlan)
	}
	if m.Phone != "" {
		return ValidatePhone(m.Phone)
	}
	return nil
}

// ValidatePhone requires at least MinPhoneDigits digits.
func ValidatePhone(phone string) error {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < MinPhoneDigits {
		return fmt.Errorf("%w: phone number must have at least %d digits", ErrInvalidInput, MinPhoneDigits)
	}
	return nil
}
