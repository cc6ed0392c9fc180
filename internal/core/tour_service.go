package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/models"
)

var validate = validator.New()

// CreateTourRequest stores the request and announces it to the
// notification worker. A failed announcement does not fail the request.
func (s *GymService) CreateTourRequest(ctx context.Context, req models.CreateTourRequest) Result[*models.TourRequest] {
	if strings.TrimSpace(req.Name) == "" {
		return fail[*models.TourRequest](fmt.Errorf("%w: name is required", ErrInvalidInput))
	}
	if err := validate.Var(req.Email, "required,email"); err != nil {
		return fail[*models.TourRequest](fmt.Errorf("%w: a valid email is required", ErrInvalidInput))
	}

	tour := &models.TourRequest{
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Phone:         req.Phone,
		PreferredDate: req.PreferredDate,
		Message:       req.Message,
		Status:        models.TourRequestStatusNew,
		CreatedAt:     s.now().UTC(),
	}
	if _, err := s.tours.Create(ctx, tour); err != nil {
		return failure[*models.TourRequest](s, "create tour request", err, zap.String("email", req.Email))
	}

	if s.events != nil {
		if err := s.events.PublishTourRequest(ctx, *tour); err != nil {
			s.logger.Warn("tour request event not published", zap.String("id", tour.ID), zap.Error(err))
		}
	}
	return ok(tour)
}

func (s *GymService) ListTourRequests(ctx context.Context) Result[[]*models.TourRequest] {
	reqs, err := s.tours.List(ctx)
	if err != nil {
		return failure[[]*models.TourRequest](s, "list tour requests", err)
	}
	if reqs == nil {
		reqs = []*models.TourRequest{}
	}
	return ok(reqs)
}

func (s *GymService) UpdateTourRequestStatus(ctx context.Context, id, status string) Result[string] {
	if status != models.TourRequestStatusNew && status != models.TourRequestStatusContacted {
		return fail[string](fmt.Errorf("%w: unknown tour request status %q", ErrInvalidInput, status))
	}
	if err := s.tours.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fail[string](fmt.Errorf("%w: %s", ErrTourRequestNotFound, id))
		}
		return failure[string](s, "update tour request", err, zap.String("id", id))
	}
	return ok(status)
}
