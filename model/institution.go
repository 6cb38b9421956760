package model

import (
	"time"
)

// Institution represents an educational institution. The name is unique
// case-insensitively (enforced by an expression index on LOWER(nome)).
type Institution struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:nome;not null" json:"nome"`
	Latitude  *float64  `gorm:"column:latitude" json:"latitude"`
	Longitude *float64  `gorm:"column:longitude" json:"longitude"`
	City      string    `gorm:"column:cidade;type:varchar(255)" json:"cidade"`
	State     string    `gorm:"column:estado;type:varchar(100)" json:"estado"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:criado_em" json:"criado_em"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Courses []Course `gorm:"foreignKey:InstitutionID" json:"cursos,omitempty"`
}

// TableName keeps the legacy schema name
func (Institution) TableName() string {
	return "Instituicoes"
}
