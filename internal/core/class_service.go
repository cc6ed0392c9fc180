package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/models"
)

func (s *GymService) GetAllClasses(ctx context.Context) Result[[]*models.GymClass] {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return failure[[]*models.GymClass](s, "get classes", err)
	}
	if classes == nil {
		classes = []*models.GymClass{}
	}
	return ok(classes)
}

func (s *GymService) CreateClass(ctx context.Context, req models.CreateClassRequest) Result[*models.GymClass] {
	if strings.TrimSpace(req.Name) == "" {
		return fail[*models.GymClass](fmt.Errorf("%w: class name is required", ErrInvalidInput))
	}
	if req.Capacity <= 0 {
		return fail[*models.GymClass](fmt.Errorf("%w: capacity must be positive", ErrInvalidInput))
	}
	if req.StartsAt.IsZero() {
		return fail[*models.GymClass](fmt.Errorf("%w: startsAt is required", ErrInvalidInput))
	}
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	class := &models.GymClass{
		Name:            strings.TrimSpace(req.Name),
		Instructor:      req.Instructor,
		Description:     req.Description,
		StartsAt:        req.StartsAt.UTC(),
		DurationMinutes: duration,
		Capacity:        req.Capacity,
		Bookings:        []string{},
	}
	if _, err := s.classes.Create(ctx, class); err != nil {
		return failure[*models.GymClass](s, "create class", err, zap.String("name", class.Name))
	}
	return ok(class)
}

// UpdateClassBookings replaces the booking list of a class.
func (s *GymService) UpdateClassBookings(ctx context.Context, classID string, bookings []string) Result[[]string] {
	if bookings == nil {
		bookings = []string{}
	}
	if err := s.classes.UpdateBookings(ctx, classID, bookings); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail[[]string](fmt.Errorf("%w: %s", ErrClassNotFound, classID))
		}
		return failure[[]string](s, "update class bookings", err, zap.String("classId", classID))
	}
	return ok(bookings)
}

// BookClass books memberID into classID. The capacity check and the class
// write are one transaction on the class document; the member document is
// updated afterwards, and if that fails the class booking is withdrawn.
func (s *GymService) BookClass(ctx context.Context, memberID, classID string) Result[*models.GymClass] {
	class, err := s.classes.AddBooking(ctx, classID, memberID)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotFound):
		return fail[*models.GymClass](fmt.Errorf("%w: %s", ErrClassNotFound, classID))
	case errors.Is(err, db.ErrAlreadyBooked):
		return fail[*models.GymClass](ErrAlreadyBooked)
	case errors.Is(err, db.ErrClassFull):
		return fail[*models.GymClass](ErrClassFull)
	default:
		return failure[*models.GymClass](s, "book class", err, zap.String("classId", classID), zap.String("memberId", memberID))
	}
	if err := s.members.AddBookedClass(ctx, memberID, classID); err != nil {
		if rbErr := s.classes.RemoveBooking(ctx, classID, memberID); rbErr != nil {
			s.logger.Error("booking left without member record",
				zap.String("classId", classID), zap.String("memberId", memberID), zap.Error(rbErr))
		}
		if errors.Is(err, db.ErrNotFound) {
			return fail[*models.GymClass](fmt.Errorf("%w: %s", ErrMemberNotFound, memberID))
		}
		return failure[*models.GymClass](s, "book class", err, zap.String("classId", classID), zap.String("memberId", memberID))
	}

	return ok(class)
}

func (s *GymService) CancelBooking(ctx context.Context, memberID, classID string) Result[*models.GymClass] {
	class, res := s.loadClass(ctx, classID)
	if res != nil {
		return *res
	}
	if !class.HasBooking(memberID) {
		return fail[*models.GymClass](ErrNotBooked)
	}

	if err := s.classes.RemoveBooking(ctx, classID, memberID); err != nil {
		return failure[*models.GymClass](s, "cancel booking", err, zap.String("classId", classID), zap.String("memberId", memberID))
	}
	if err := s.members.RemoveBookedClass(ctx, memberID, classID); err != nil {
		s.logger.Warn("member still lists cancelled class",
			zap.String("classId", classID), zap.String("memberId", memberID), zap.Error(err))
	}

	kept := class.Bookings[:0]
	for _, id := range class.Bookings {
		if id != memberID {
			kept = append(kept, id)
		}
	}
	class.Bookings = kept
	return ok(class)
}

func (s *GymService) loadClass(ctx context.Context, classID string) (*models.GymClass, *Result[*models.GymClass]) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		var r Result[*models.GymClass]
		if errors.Is(err, db.ErrNotFound) {
			r = fail[*models.GymClass](fmt.Errorf("%w: %s", ErrClassNotFound, classID))
		} else {
			r = failure[*models.GymClass](s, "get class", err, zap.String("classId", classID))
		}
		return nil, &r
	}
	return class, nil
}
