package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

// ProgramUpdate carries the mutable program fields. Nil means leave the
// column untouched.
type ProgramUpdate struct {
	PgmName     *string
	PgmVersion  *string
	Description *string
	Notes       *string
	UpdateUser  string
}

// ProgramService covers reads and maintenance of existing programs.
// Creation happens only through the upload pipeline.
type ProgramService interface {
	Get(dbc dbctx.Context, pgmID string) (*types.Program, error)
	List(dbc dbctx.Context, search, version string, page, size int) ([]*types.Program, int64, error)
	Update(dbc dbctx.Context, pgmID string, update ProgramUpdate) (*types.Program, error)
	Delete(dbc dbctx.Context, pgmID string) error
	PreviewNextID(dbc dbctx.Context) (string, error)
}

type programService struct {
	db        *gorm.DB
	log       *logger.Logger
	programs  repos.ProgramRepo
	documents repos.DocumentRepo
	templates repos.TemplateRepo
	plcs      repos.PLCRepo
	history   repos.MappingHistoryRepo
	sequence  SequenceService
	storage   StorageOperator
}

func NewProgramService(
	db *gorm.DB,
	baseLog *logger.Logger,
	programRepo repos.ProgramRepo,
	documentRepo repos.DocumentRepo,
	templateRepo repos.TemplateRepo,
	plcRepo repos.PLCRepo,
	historyRepo repos.MappingHistoryRepo,
	sequence SequenceService,
	storage StorageOperator,
) ProgramService {
	return &programService{
		db:        db,
		log:       baseLog.With("service", "ProgramService"),
		programs:  programRepo,
		documents: documentRepo,
		templates: templateRepo,
		plcs:      plcRepo,
		history:   historyRepo,
		sequence:  sequence,
		storage:   storage,
	}
}

func (ps *programService) Get(dbc dbctx.Context, pgmID string) (*types.Program, error) {
	return ps.programs.GetByID(dbc.Ctx, dbc.Tx, pgmID)
}

func (ps *programService) List(dbc dbctx.Context, search, version string, page, size int) ([]*types.Program, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 50
	}
	return ps.programs.List(dbc.Ctx, dbc.Tx, search, version, (page-1)*size, size)
}

func (ps *programService) Update(dbc dbctx.Context, pgmID string, update ProgramUpdate) (*types.Program, error) {
	fields := map[string]any{}
	if update.PgmName != nil {
		fields["pgm_name"] = *update.PgmName
	}
	if update.PgmVersion != nil {
		fields["pgm_version"] = *update.PgmVersion
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}
	if len(fields) == 0 {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "no fields to update")
	}
	if update.UpdateUser != "" {
		fields["update_user"] = update.UpdateUser
	}
	if err := ps.programs.Update(dbc.Ctx, dbc.Tx, pgmID, fields); err != nil {
		return nil, err
	}
	return ps.programs.GetByID(dbc.Ctx, dbc.Tx, pgmID)
}

// Delete removes the program row with its documents and template rows,
// unmapping any devices still pointing at it. Stored files are removed
// after the transaction commits; the program ID is never reused.
func (ps *programService) Delete(dbc dbctx.Context, pgmID string) error {
	if _, err := ps.programs.GetByID(dbc.Ctx, dbc.Tx, pgmID); err != nil {
		return err
	}

	run := func(tx *gorm.DB) error {
		mapped, err := ps.plcs.ListByProgram(dbc.Ctx, tx, pgmID)
		if err != nil {
			return err
		}
		for _, plc := range mapped {
			if err := ps.plcs.SetMapping(dbc.Ctx, tx, plc.PlcID, nil, "system"); err != nil {
				return err
			}
			if _, err := ps.history.Append(dbc.Ctx, tx, &types.PgmMappingHistory{
				PlcID:      plc.PlcID,
				Action:     types.MappingActionDelete,
				ActionUser: "system",
				PrevPgmID:  plc.PgmID,
			}); err != nil {
				return err
			}
		}
		if _, err := ps.templates.DeleteByProgram(dbc.Ctx, tx, pgmID); err != nil {
			return err
		}
		if _, err := ps.documents.DeleteByProgram(dbc.Ctx, tx, pgmID); err != nil {
			return err
		}
		return ps.programs.Delete(dbc.Ctx, tx, pgmID)
	}

	var err error
	if dbc.Tx != nil {
		err = run(dbc.Tx)
	} else {
		err = ps.db.WithContext(dbc.Ctx).Transaction(run)
	}
	if err != nil {
		return fmt.Errorf("delete program %s: %w", pgmID, err)
	}

	ps.storage.DeleteProgramFiles(pgmID)
	ps.log.Info("program deleted", "pgm_id", pgmID)
	return nil
}

func (ps *programService) PreviewNextID(dbc dbctx.Context) (string, error) {
	return ps.sequence.Preview(dbc)
}
