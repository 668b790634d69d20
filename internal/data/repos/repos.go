package repos

import (
	"github.com/plcworks/plchub-backend/internal/data/repos/device"
	"github.com/plcworks/plchub-backend/internal/data/repos/program"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProgramRepo = program.ProgramRepo
type SequenceRepo = program.SequenceRepo
type DocumentRepo = program.DocumentRepo
type TemplateRepo = program.TemplateRepo

type PLCRepo = device.PLCRepo
type MappingHistoryRepo = device.MappingHistoryRepo

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return program.NewProgramRepo(db, baseLog)
}
func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	return program.NewSequenceRepo(db, baseLog)
}
func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return program.NewDocumentRepo(db, baseLog)
}
func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return program.NewTemplateRepo(db, baseLog)
}

func NewPLCRepo(db *gorm.DB, baseLog *logger.Logger) PLCRepo {
	return device.NewPLCRepo(db, baseLog)
}
func NewMappingHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MappingHistoryRepo {
	return device.NewMappingHistoryRepo(db, baseLog)
}
