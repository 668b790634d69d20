package domain

import (
	"time"
)

// SequenceRowID is the only row the program sequence table may hold.
const SequenceRowID = 1

// ProgramSequence is the single-row counter behind program ID allocation.
// It is read under a row-level lock held to transaction end; a failed
// enclosing transaction leaves a permanent gap in the numbering, which is
// accepted.
type ProgramSequence struct {
	ID         int       `gorm:"column:id;primaryKey" json:"id"`
	LastNumber int64     `gorm:"column:last_number;not null;default:0" json:"last_number"`
	UpdateDt   time.Time `gorm:"column:update_dt;not null;default:now()" json:"update_dt"`
}

func (ProgramSequence) TableName() string { return "program_sequence" }
