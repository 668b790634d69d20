package app

import (
	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/http/handlers"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

type Handlers struct {
	Program  *handlers.ProgramHandler
	PLC      *handlers.PLCHandler
	Template *handlers.TemplateHandler
	Health   *handlers.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Program:  handlers.NewProgramHandler(s.Program, s.Upload, s.PLC),
		PLC:      handlers.NewPLCHandler(s.PLC),
		Template: handlers.NewTemplateHandler(s.Template),
		Health:   handlers.NewHealthHandler(db),
	}
}
