package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
)

// LastAction is the denormalized pointer to the most recent mutation of an
// entity. It is a display convenience, not the authoritative history - that
// lives in audit_logs.
type LastAction struct {
	Action      enums.AuditAction `gorm:"column:last_action" json:"action"`
	PerformedBy *uuid.UUID        `gorm:"column:last_action_by;type:uuid" json:"performed_by,omitempty"`
	PerformedAt *time.Time        `gorm:"column:last_action_at" json:"performed_at,omitempty"`
	Reason      *string           `gorm:"column:last_action_reason" json:"reason,omitempty"`
}

// NewLastAction builds a LastAction stamped with the current time.
func NewLastAction(action enums.AuditAction, actorID uuid.UUID, reason string) LastAction {
	now := time.Now()
	la := LastAction{
		Action:      action,
		PerformedBy: &actorID,
		PerformedAt: &now,
	}
	if reason != "" {
		la.Reason = &reason
	}
	return la
}
