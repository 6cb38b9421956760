package model

import (
	"time"

	"gorm.io/datatypes"
)

// Entity types recorded in the auto-created audit trail
const (
	AutoEntityInstitution = "instituicao"
	AutoEntityCourse      = "curso"
)

// AutoCreatedEntity is an append-only audit row for entities created
// implicitly during directory resolution. Rows are written once and never
// mutated.
type AutoCreatedEntity struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EntityType  string         `gorm:"column:entity_type;type:varchar(32);not null;index" json:"entity_type"`
	EntityName  string         `gorm:"column:entity_name;not null" json:"entity_name"`
	TriggeredBy string         `gorm:"column:triggered_by;type:varchar(255)" json:"triggered_by"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
}

// TableName keeps the legacy schema name
func (AutoCreatedEntity) TableName() string {
	return "AutoCreatedEntities"
}
