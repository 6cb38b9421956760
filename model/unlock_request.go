package model

import (
	"time"
)

// Unlock request statuses
const (
	UnlockStatusPending  = "PENDING"
	UnlockStatusApproved = "APPROVED"
	UnlockStatusRejected = "REJECTED"
)

// UnlockRequest is a locked user's request to reactivate their account.
// On approval a bcrypt-hashed verification code is stored with a short
// expiry; the user exchanges the plain code for reactivation.
type UnlockRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"column:usuario_id;not null;index" json:"usuario_id"`
	Reason           string     `gorm:"column:motivo;type:text" json:"motivo"`
	Status           string     `gorm:"type:varchar(16);default:'PENDING';index" json:"status"`
	ApprovedByID     *uint      `gorm:"column:aprovado_por" json:"aprovado_por,omitempty"`
	VerificationCode *string    `gorm:"type:varchar(128)" json:"-"`
	CodeExpiresAt    *time.Time `json:"-"`
	CreatedAt        time.Time  `gorm:"column:criado_em" json:"criado_em"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"usuario,omitempty"`
}

// TableName keeps the legacy schema name
func (UnlockRequest) TableName() string {
	return "Desbloqueios"
}
