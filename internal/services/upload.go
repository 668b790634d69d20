package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/config"
	"github.com/plcworks/plchub-backend/internal/data/repos"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

// UploadRequest carries the two upload files and the program metadata.
type UploadRequest struct {
	PgmName     string
	PgmVersion  *string
	Description *string
	Notes       *string
	CreateUser  string

	LadderZipName string
	LadderZipData []byte
	TemplateName  string
	TemplateData  []byte
}

// UploadSummary reports what a successful upload produced.
type UploadSummary struct {
	TotalLadderFiles int  `json:"total_ladder_files"`
	TemplateParsed   bool `json:"template_parsed"`
	TemplateRowCount int  `json:"template_row_count"`
	OriginalZipKept  bool `json:"original_zip_kept"`
}

// UploadResult is the full outcome returned to the caller.
type UploadResult struct {
	Program          *types.Program    `json:"program"`
	PgmID            string            `json:"pgm_id"`
	ValidationResult *ValidationResult `json:"validation_result"`
	LadderDocuments  []*types.Document `json:"ladder_documents"`
	TemplateDocument *types.Document   `json:"template_document"`
	ZipDocument      *types.Document   `json:"zip_document,omitempty"`
	Summary          UploadSummary     `json:"summary"`
	Message          string            `json:"message"`
}

// UploadOrchestrator runs the whole upload workflow: allocate an ID,
// validate everything in memory, write files, then persist all records
// in one transaction. On any failure after files were written the
// transaction rolls back and the written files are removed best effort;
// the allocated program ID is never reclaimed.
type UploadOrchestrator interface {
	Upload(dbc dbctx.Context, req UploadRequest) (*UploadResult, error)
}

type uploadOrchestrator struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       *config.Config
	sequence  SequenceService
	validator ValidationEngine
	storage   StorageOperator
	records   RecordPersister
	programs  repos.ProgramRepo
}

func NewUploadOrchestrator(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg *config.Config,
	sequence SequenceService,
	validator ValidationEngine,
	storage StorageOperator,
	records RecordPersister,
	programRepo repos.ProgramRepo,
) UploadOrchestrator {
	return &uploadOrchestrator{
		db:        db,
		log:       baseLog.With("service", "UploadOrchestrator"),
		cfg:       cfg,
		sequence:  sequence,
		validator: validator,
		storage:   storage,
		records:   records,
		programs:  programRepo,
	}
}

func (uo *uploadOrchestrator) Upload(dbc dbctx.Context, req UploadRequest) (*UploadResult, error) {
	if req.PgmName == "" {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "pgm_name is required")
	}
	if req.CreateUser == "" {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "create_user is required")
	}

	// The ID is allocated in its own committed transaction. An upload
	// that fails later leaves a gap in the numbering.
	var pgmID string
	if err := uo.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pgmID, err = uo.sequence.AllocateNextID(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		return err
	}); err != nil {
		return nil, err
	}
	uo.log.Info("upload started", "pgm_id", pgmID, "pgm_name", req.PgmName)

	// In-memory validation. Nothing has touched disk or the DB yet, so
	// failures here need no cleanup.
	if err := uo.validator.CheckLadderZipUpload(req.LadderZipName, int64(len(req.LadderZipData))); err != nil {
		return nil, err
	}
	if err := uo.validator.CheckTemplateUpload(req.TemplateName, int64(len(req.TemplateData))); err != nil {
		return nil, err
	}
	manifest, err := uo.validator.ValidateManifest(req.TemplateData)
	if err != nil {
		return nil, err
	}
	archiveFiles, err := uo.validator.ValidateArchive(req.LadderZipData)
	if err != nil {
		return nil, err
	}
	matchResult, err := uo.validator.MatchFiles(manifest.LogicIDs, archiveFiles)
	if err != nil {
		return nil, err
	}
	if err := uo.validator.ValidateLadderCSVs(req.LadderZipData, matchResult.MatchedFiles); err != nil {
		return nil, err
	}

	// File staging. From here on, failure must remove what was written.
	result, err := uo.storeAndPersist(dbc, pgmID, req, manifest, matchResult)
	if err != nil {
		uo.storage.DeleteProgramFiles(pgmID)
		uo.log.Warn("upload rolled back", "pgm_id", pgmID, "error", err)
		return nil, err
	}

	uo.log.Info("upload finished", "pgm_id", pgmID, "ladder_files", result.Summary.TotalLadderFiles)
	return result, nil
}

func (uo *uploadOrchestrator) storeAndPersist(
	dbc dbctx.Context,
	pgmID string,
	req UploadRequest,
	manifest *ManifestResult,
	matchResult *ValidationResult,
) (*UploadResult, error) {
	filtered, err := uo.storage.FilterArchive(req.LadderZipData, matchResult.MatchedFiles)
	if err != nil {
		return nil, err
	}

	extracted, err := uo.storage.ExtractLadderFiles(dbc.Ctx, pgmID, filtered)
	if err != nil {
		return nil, err
	}

	var originalZip *StoredFile
	if uo.cfg.Storage.KeepOriginalZip {
		originalZip, err = uo.storage.SaveOriginalZip(pgmID, req.LadderZipName, req.LadderZipData, len(extracted))
		if err != nil {
			return nil, err
		}
	}

	templateFile, err := uo.storage.SaveTemplateFile(pgmID, req.TemplateName, req.TemplateData)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		PgmID:            pgmID,
		ValidationResult: matchResult,
		Summary: UploadSummary{
			TotalLadderFiles: len(extracted),
			TemplateParsed:   true,
			TemplateRowCount: manifest.RowCount,
			OriginalZipKept:  originalZip != nil,
		},
		Message: "program created",
	}

	err = uo.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		result.LadderDocuments, err = uo.records.BulkCreateLadderDocuments(txc, pgmID, req.CreateUser, extracted)
		if err != nil {
			return err
		}

		if originalZip != nil {
			result.ZipDocument, err = uo.records.CreateZipDocument(txc, pgmID, req.CreateUser, req.LadderZipName, originalZip, len(extracted))
			if err != nil {
				return err
			}
		}

		result.TemplateDocument, err = uo.records.CreateTemplateDocument(txc, pgmID, req.CreateUser, req.TemplateName, templateFile, manifest)
		if err != nil {
			return err
		}

		user := req.CreateUser
		result.Program, err = uo.programs.Create(txc.Ctx, tx, &types.Program{
			PgmID:       pgmID,
			PgmName:     req.PgmName,
			PgmVersion:  req.PgmVersion,
			Description: req.Description,
			Notes:       req.Notes,
			CreateUser:  &user,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("persist upload records: %w", err)
	}
	return result, nil
}
