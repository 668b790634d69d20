package app

import (
	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/config"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"github.com/plcworks/plchub-backend/internal/services"
)

type Services struct {
	Sequence   services.SequenceService
	Validation services.ValidationEngine
	Storage    services.StorageOperator
	Records    services.RecordPersister
	Template   services.TemplateService
	Program    services.ProgramService
	PLC        services.PLCService
	Upload     services.UploadOrchestrator
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, r Repos) Services {
	log.Info("Wiring services...")

	sequence := services.NewSequenceService(db, log, r.Sequence)
	validation := services.NewValidationEngine(cfg, log)
	storage := services.NewStorageOperator(cfg, log)
	records := services.NewRecordPersister(db, log, r.Document)
	template := services.NewTemplateService(db, log, r.Template)
	records.Register(types.DocumentTypeTemplate, template)

	program := services.NewProgramService(db, log, r.Program, r.Document, r.Template, r.PLC, r.MappingHistory, sequence, storage)
	plc := services.NewPLCService(db, log, r.PLC, r.Program, r.MappingHistory, cfg.Mapping.BulkMaxIDs)
	upload := services.NewUploadOrchestrator(db, log, cfg, sequence, validation, storage, records, r.Program)

	return Services{
		Sequence:   sequence,
		Validation: validation,
		Storage:    storage,
		Records:    records,
		Template:   template,
		Program:    program,
		PLC:        plc,
		Upload:     upload,
	}
}
