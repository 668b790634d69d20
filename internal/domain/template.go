package domain

import (
	"time"

	"github.com/google/uuid"
)

// PgmTemplate is one required source-file unit declared by the manifest
// spreadsheet. All rows for a program are deleted and recreated on
// re-upload; they always reflect the latest manifest only.
type PgmTemplate struct {
	TemplateID    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"template_id"`
	DocumentID    uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	PgmID         string    `gorm:"column:pgm_id;size:50;not null;index" json:"pgm_id"`
	FolderID      string    `gorm:"column:folder_id;size:50;not null" json:"folder_id"`
	FolderName    string    `gorm:"column:folder_name;size:200;not null" json:"folder_name"`
	SubFolderName *string   `gorm:"column:sub_folder_name;size:200" json:"sub_folder_name,omitempty"`
	LogicID       string    `gorm:"column:logic_id;size:100;not null" json:"logic_id"`
	LogicName     string    `gorm:"column:logic_name;size:200;not null" json:"logic_name"`
	CreateDt      time.Time `gorm:"column:create_dt;not null;default:now()" json:"create_dt"`
	CreateUser    *string   `gorm:"column:create_user;size:50" json:"create_user,omitempty"`
}

func (PgmTemplate) TableName() string { return "pgm_template" }
