package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/logger"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

// Entry captures one recorded mutation.
type Entry struct {
	ActorID  uuid.UUID
	Entity   EntityRef
	Action   enums.AuditAction
	OldValue any
	NewValue any
	Reason   string
	// SkipLastAction suppresses the denormalized last-action write, used when
	// the entity row is about to be removed or was already stamped by the caller.
	SkipLastAction bool
}

// Service writes audit rows and the denormalized last-action columns.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the audit recorder.
func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Record writes the audit trail for a mutation. It is fire-and-forget: any
// failure is logged and swallowed so the primary operation never rolls back
// because its audit write failed.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry Entry) {
	if s == nil || s.repo == nil || entry.Entity == nil {
		return
	}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	row := models.AuditLog{
		ActorID:    entry.ActorID,
		EntityType: entry.Entity.entityType(),
		EntityID:   entry.Entity.EntityID(),
		Action:     entry.Action,
	}
	if entry.Reason != "" {
		reason := entry.Reason
		row.Reason = &reason
	}
	row.OldValue = marshalSnapshot(entry.OldValue)
	row.NewValue = marshalSnapshot(entry.NewValue)

	if err := repo.Insert(ctx, &row); err != nil {
		s.logError(ctx, entry, err)
		return
	}

	if !entry.SkipLastAction && tx != nil {
		if err := s.stampLastAction(ctx, tx, entry); err != nil {
			s.logError(ctx, entry, err)
		}
	}
}

func (s *Service) stampLastAction(ctx context.Context, tx *gorm.DB, entry Entry) error {
	la := types.NewLastAction(entry.Action, entry.ActorID, entry.Reason)
	updates := map[string]any{
		"last_action":    la.Action,
		"last_action_by": la.PerformedBy,
		"last_action_at": la.PerformedAt,
	}
	if la.Reason != nil {
		updates["last_action_reason"] = la.Reason
	}
	return tx.WithContext(ctx).
		Table(entry.Entity.tableName()).
		Where("id = ?", entry.Entity.EntityID()).
		Updates(updates).Error
}

func (s *Service) logError(ctx context.Context, entry Entry, err error) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{
		"entity_type": entry.Entity.entityType(),
		"entity_id":   entry.Entity.EntityID().String(),
		"action":      entry.Action,
	}
	logCtx := s.logg.WithFields(ctx, fields)
	s.logg.Error(logCtx, "audit record failed", err)
}

func marshalSnapshot(value any) json.RawMessage {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return raw
}
