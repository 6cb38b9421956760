package model

import (
	"time"
)

// User represents a registered student. AnonymizedID is generated once at
// creation and is the only identifier exposed to admin-facing aggregation.
// IsActive=false means the account is locked and cannot submit evaluations.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"column:nome;not null" json:"nome"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"column:senha;not null" json:"-"`
	AnonymizedID  string     `gorm:"column:anonymized_id;uniqueIndex;not null" json:"anonymized_id"`
	InstitutionID *uint      `gorm:"column:instituicao_id;index" json:"instituicao_id"`
	CourseID      *uint      `gorm:"column:curso_id;index" json:"curso_id"`
	Role          string     `gorm:"type:varchar(20);default:'student'" json:"role"` // student, admin
	IsActive      bool       `gorm:"column:is_active;default:true" json:"is_active"`
	UnlockedAt    *time.Time `gorm:"column:desbloqueado_em" json:"desbloqueado_em,omitempty"`
	TokenVersion  int        `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Password recovery
	ResetCode          string     `gorm:"type:varchar(16)" json:"-"`
	ResetCodeExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"column:criado_em" json:"criado_em"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Institution *Institution `gorm:"foreignKey:InstitutionID" json:"instituicao,omitempty"`
	Course      *Course      `gorm:"foreignKey:CourseID" json:"curso,omitempty"`
}

// TableName keeps the legacy schema name
func (User) TableName() string {
	return "Usuarios"
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
