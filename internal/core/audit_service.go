package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/models"
)

type auditService struct {
	auditRepo db.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{auditRepo: auditRepo, logger: logger}
}

func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if logEntry.Action == "" {
		return errors.New("audit log action cannot be empty")
	}
	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		s.logger.Warn("audit log not written",
			zap.String("action", logEntry.Action), zap.String("userId", logEntry.UserID), zap.Error(err))
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}
