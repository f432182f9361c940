package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor values for audit entries not tied to a user.
const (
	ActorWebhook = "webhook"
	ActorSweeper = "sweeper"
)

// AuditLog records one order state transition: who moved it, from where to
// where, and when. Write-only; consumed by the reporting collaborator for
// forensic reconstruction of the reconciliation timeline.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Actor      string    `gorm:"type:varchar(64);not null" json:"actor"`
	Action     string    `gorm:"type:varchar(64);not null" json:"action"`
	FromStatus string    `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(20);not null" json:"to_status"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
