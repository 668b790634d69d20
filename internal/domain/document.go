package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document types stored for a program upload. The template type has a
// registered post-processor (spreadsheet parsing into PgmTemplate rows);
// the others resolve to the no-op default processor.
const (
	DocumentTypeLadderCSV = "pgm_ladder_csv"
	DocumentTypeTemplate  = "pgm_template_file"
	DocumentTypeZip       = "pgm_zip"
)

// Document describes one physically stored file: an extracted ladder
// source file, the manifest spreadsheet, or a kept original archive.
type Document struct {
	DocumentID       uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"document_id"`
	DocumentName     string         `gorm:"column:document_name;size:255;not null" json:"document_name"`
	OriginalFilename string         `gorm:"column:original_filename;size:255" json:"original_filename"`
	FileKey          string         `gorm:"column:file_key;size:500;not null" json:"file_key"`
	UploadPath       string         `gorm:"column:upload_path;size:500;not null" json:"upload_path"`
	FileSize         int64          `gorm:"column:file_size;not null" json:"file_size"`
	MimeType         string         `gorm:"column:mime_type;size:100" json:"mime_type"`
	FileExtension    string         `gorm:"column:file_extension;size:20" json:"file_extension"`
	DocumentType     string         `gorm:"column:document_type;size:50;not null;index" json:"document_type"`
	PgmID            string         `gorm:"column:pgm_id;size:50;index" json:"pgm_id"`
	UserID           string         `gorm:"column:user_id;size:50" json:"user_id"`
	IsPublic         bool           `gorm:"column:is_public;not null;default:false" json:"is_public"`
	Metadata         datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreateDt         time.Time      `gorm:"column:create_dt;not null;default:now()" json:"create_dt"`
}

func (Document) TableName() string { return "documents" }
