// Package core holds the gym's business operations. Every facade operation
// returns a Result instead of an error and logs failures as a side effect.
package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/db"
)

// BillingCycle is the fixed interval between a member's billing dates.
const BillingCycle = 30 * 24 * time.Hour

// Deps are the collaborators of GymService. Events may be nil.
type Deps struct {
	Members      db.MemberRepository
	Payments     db.PaymentRepository
	Classes      db.ClassRepository
	TourRequests db.TourRequestRepository
	Cipher       FieldCipher
	Events       EventPublisher
	Logger       *zap.Logger
	Now          func() time.Time
}

// GymService is the data access facade over the gym's collections.
type GymService struct {
	members  db.MemberRepository
	payments db.PaymentRepository
	classes  db.ClassRepository
	tours    db.TourRequestRepository
	cipher   FieldCipher
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewGymService(d Deps) *GymService {
	s := &GymService{
		members:  d.Members,
		payments: d.Payments,
		classes:  d.Classes,
		tours:    d.TourRequests,
		cipher:   d.Cipher,
		events:   d.Events,
		logger:   d.Logger,
		now:      d.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// failure logs err for op and wraps it in a failed Result.
func failure[T any](s *GymService, op string, err error, fields ...zap.Field) Result[T] {
	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return fail[T](err)
}
