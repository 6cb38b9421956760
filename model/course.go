package model

import (
	"time"
)

// Course represents an academic program offered by an institution. The name
// is unique case-insensitively within its institution.
type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"column:nome;not null" json:"nome"`
	InstitutionID uint      `gorm:"column:instituicao_id;not null;index" json:"instituicao_id"`
	IsActive      bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"column:criado_em" json:"criado_em"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Institution Institution `gorm:"foreignKey:InstitutionID" json:"instituicao,omitempty"`
}

// TableName keeps the legacy schema name
func (Course) TableName() string {
	return "Cursos"
}
