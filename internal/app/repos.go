package app

import (
	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

type Repos struct {
	Program        repos.ProgramRepo
	Sequence       repos.SequenceRepo
	Document       repos.DocumentRepo
	Template       repos.TemplateRepo
	PLC            repos.PLCRepo
	MappingHistory repos.MappingHistoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Program:        repos.NewProgramRepo(db, log),
		Sequence:       repos.NewSequenceRepo(db, log),
		Document:       repos.NewDocumentRepo(db, log),
		Template:       repos.NewTemplateRepo(db, log),
		PLC:            repos.NewPLCRepo(db, log),
		MappingHistory: repos.NewMappingHistoryRepo(db, log),
	}
}
