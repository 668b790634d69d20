package domain

import (
	"time"
)

// Program is the program master row. The ID is server generated
// ("PGM_<n>") and never reused, even when a later upload step fails.
type Program struct {
	PgmID       string     `gorm:"column:pgm_id;size:50;primaryKey" json:"pgm_id"`
	PgmName     string     `gorm:"column:pgm_name;size:200;not null" json:"pgm_name"`
	PgmVersion  *string    `gorm:"column:pgm_version;size:20" json:"pgm_version,omitempty"`
	Description *string    `gorm:"column:description;size:1000" json:"description,omitempty"`
	CreateDt    time.Time  `gorm:"column:create_dt;not null;default:now()" json:"create_dt"`
	CreateUser  *string    `gorm:"column:create_user;size:50" json:"create_user,omitempty"`
	UpdateDt    *time.Time `gorm:"column:update_dt" json:"update_dt,omitempty"`
	UpdateUser  *string    `gorm:"column:update_user;size:50" json:"update_user,omitempty"`
	Notes       *string    `gorm:"column:notes;size:1000" json:"notes,omitempty"`
}

func (Program) TableName() string { return "programs" }
