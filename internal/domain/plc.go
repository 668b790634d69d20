package domain

import (
	"time"
)

// PLC is the device master row. Devices are never hard-deleted; delete
// flips IsActive off and restore flips it back. PgmID is non-nil exactly
// when the device is currently mapped to a program.
type PLC struct {
	PlcID          string     `gorm:"column:plc_id;size:50;primaryKey" json:"plc_id"`
	Plant          string     `gorm:"column:plant;size:100;not null;index" json:"plant"`
	Process        string     `gorm:"column:process;size:100;not null" json:"process"`
	Line           string     `gorm:"column:line;size:100;not null" json:"line"`
	EquipmentGroup string     `gorm:"column:equipment_group;size:100;not null" json:"equipment_group"`
	Unit           string     `gorm:"column:unit;size:100;not null" json:"unit"`
	PlcName        string     `gorm:"column:plc_name;size:200;not null" json:"plc_name"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	PgmID          *string    `gorm:"column:pgm_id;size:50;index" json:"pgm_id,omitempty"`
	PgmMappingDt   *time.Time `gorm:"column:pgm_mapping_dt" json:"pgm_mapping_dt,omitempty"`
	PgmMappingUser *string    `gorm:"column:pgm_mapping_user;size:50" json:"pgm_mapping_user,omitempty"`
	CreateDt       time.Time  `gorm:"column:create_dt;not null;default:now()" json:"create_dt"`
	CreateUser     *string    `gorm:"column:create_user;size:50" json:"create_user,omitempty"`
	UpdateDt       *time.Time `gorm:"column:update_dt" json:"update_dt,omitempty"`
	UpdateUser     *string    `gorm:"column:update_user;size:50" json:"update_user,omitempty"`
}

func (PLC) TableName() string { return "plc_master" }

// PLCFilter narrows list queries by the location hierarchy.
type PLCFilter struct {
	IsActive       *bool
	Plant          string
	Process        string
	Line           string
	EquipmentGroup string
	Unit           string
}
