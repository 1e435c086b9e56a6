package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
)

// AuditLog is the append-only record of entity mutations with before/after
// snapshots. Rows may outlive the entity they describe.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ActorID    uuid.UUID         `gorm:"column:actor_id;type:uuid;not null" json:"actor_id"`
	EntityType string            `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index" json:"entity_id"`
	Action     enums.AuditAction `gorm:"column:action;type:text;not null" json:"action"`
	OldValue   json.RawMessage   `gorm:"column:old_value;type:jsonb" json:"old_value,omitempty"`
	NewValue   json.RawMessage   `gorm:"column:new_value;type:jsonb" json:"new_value,omitempty"`
	Reason     *string           `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
