package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mapping history actions. CREATE is the first mapping of a device,
// UPDATE is a re-mapping to a different program, DELETE is an unmapping.
const (
	MappingActionCreate = "CREATE"
	MappingActionUpdate = "UPDATE"
	MappingActionDelete = "DELETE"
)

// PgmMappingHistory is an append-only audit row. It is written only by
// the mapping operations and never updated or deleted.
type PgmMappingHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlcID      string    `gorm:"column:plc_id;size:50;not null;index" json:"plc_id"`
	PgmID      *string   `gorm:"column:pgm_id;size:50" json:"pgm_id,omitempty"`
	Action     string    `gorm:"column:action;size:10;not null" json:"action"`
	ActionDt   time.Time `gorm:"column:action_dt;not null;default:now();index" json:"action_dt"`
	ActionUser string    `gorm:"column:action_user;size:50;not null" json:"action_user"`
	PrevPgmID  *string   `gorm:"column:prev_pgm_id;size:50" json:"prev_pgm_id,omitempty"`
	Notes      *string   `gorm:"column:notes;size:500" json:"notes,omitempty"`
}

func (PgmMappingHistory) TableName() string { return "pgm_mapping_history" }
