package services

import (
	"context"
	"fmt"

	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
)

// Actor recorded for changes made by the yearly settlement
const SettlementActor = "settlement"

const defaultActor = "operator"

type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List retrieves audit logs, optionally for one entity
func (s *AuditService) List(ctx context.Context, entity, entityID string, limit, offset int) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, entity, entityID, limit, offset)
}

// recordAudit appends an audit entry through the transaction's repositories
func recordAudit(ctx context.Context, tx *repository.Repositories, actor, action, entity, entityID string, format string, args ...any) error {
	entry := &models.AuditLog{
		Actor:    actorOrDefault(actor),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  fmt.Sprintf(format, args...),
	}
	if err := tx.Audit.Create(ctx, entry); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}
