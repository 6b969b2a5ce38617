package models

import (
	"time"
)

// AuditLog records a state change made by the ledger
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:50;not null" json:"actor"`  // operator name, or "settlement" for batch runs
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, RETURN, PAYMENT, CLOSE, SETTLE, CARRY_FORWARD
	Entity    string    `gorm:"size:50;not null;index:idx_audit_entity,priority:1" json:"entity"`
	EntityID  string    `gorm:"size:36;index:idx_audit_entity,priority:2" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionCreate       = "CREATE"
	AuditActionUpdate       = "UPDATE"
	AuditActionReturn       = "RETURN"
	AuditActionPayment      = "PAYMENT"
	AuditActionClose        = "CLOSE"
	AuditActionSettle       = "SETTLE"
	AuditActionCarryForward = "CARRY_FORWARD"
)
