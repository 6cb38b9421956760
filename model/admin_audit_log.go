package model

import (
	"time"
)

// AdminAuditLog records administrative actions (merges, deletions, unlock
// decisions) for traceability.
type AdminAuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`
	Action      string    `gorm:"type:varchar(50);not null" json:"action"`
	Resource    string    `gorm:"type:varchar(50);not null" json:"resource"`
	ResourceID  uint      `json:"resource_id"`
	OldValue    string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue    string    `gorm:"type:text" json:"new_value,omitempty"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string    `gorm:"type:varchar(255)" json:"user_agent"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
