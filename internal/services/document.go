package services

import (
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

// DocumentProcessor is a post-persist hook keyed by document type. The
// manifest document's processor parses the spreadsheet into template
// rows; every other type resolves to a no-op.
type DocumentProcessor interface {
	Process(dbc dbctx.Context, doc *types.Document, manifest *ManifestResult) error
}

type noopProcessor struct{}

func (noopProcessor) Process(dbctx.Context, *types.Document, *ManifestResult) error { return nil }

// RecordPersister writes document rows for stored files and dispatches
// each new document to the processor registered for its type.
type RecordPersister interface {
	BulkCreateLadderDocuments(dbc dbctx.Context, pgmID, userID string, files []StoredFile) ([]*types.Document, error)
	CreateZipDocument(dbc dbctx.Context, pgmID, userID, originalName string, file *StoredFile, extractedCount int) (*types.Document, error)
	CreateTemplateDocument(dbc dbctx.Context, pgmID, userID, originalName string, file *StoredFile, manifest *ManifestResult) (*types.Document, error)
	Register(documentType string, p DocumentProcessor)
}

type recordPersister struct {
	db         *gorm.DB
	log        *logger.Logger
	documents  repos.DocumentRepo
	processors map[string]DocumentProcessor
}

func NewRecordPersister(db *gorm.DB, baseLog *logger.Logger, documentRepo repos.DocumentRepo) RecordPersister {
	return &recordPersister{
		db:         db,
		log:        baseLog.With("service", "RecordPersister"),
		documents:  documentRepo,
		processors: map[string]DocumentProcessor{},
	}
}

func (rp *recordPersister) Register(documentType string, p DocumentProcessor) {
	rp.processors[documentType] = p
}

func (rp *recordPersister) processorFor(documentType string) DocumentProcessor {
	if p, ok := rp.processors[documentType]; ok {
		return p
	}
	return noopProcessor{}
}

func newDocument(pgmID, userID, documentType, originalName string, file *StoredFile, metadata map[string]any) (*types.Document, error) {
	doc := &types.Document{
		DocumentName:     file.FileName,
		OriginalFilename: originalName,
		FileKey:          pgmID + "/" + file.FileName,
		UploadPath:       file.Path,
		FileSize:         file.Size,
		MimeType:         mimeTypeFor(file.FileName),
		FileExtension:    strings.ToLower(filepath.Ext(file.FileName)),
		DocumentType:     documentType,
		PgmID:            pgmID,
		UserID:           userID,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode document metadata: %w", err)
		}
		doc.Metadata = datatypes.JSON(raw)
	}
	return doc, nil
}

func mimeTypeFor(name string) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func (rp *recordPersister) BulkCreateLadderDocuments(dbc dbctx.Context, pgmID, userID string, files []StoredFile) ([]*types.Document, error) {
	docs := make([]*types.Document, 0, len(files))
	for i := range files {
		f := files[i]
		doc, err := newDocument(pgmID, userID, types.DocumentTypeLadderCSV, f.FileName, &f, map[string]any{
			"sha256": f.SHA256,
		})
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	created, err := rp.documents.BulkCreate(dbc.Ctx, dbc.Tx, docs)
	if err != nil {
		return nil, fmt.Errorf("persist ladder documents: %w", err)
	}
	rp.log.Info("ladder documents persisted", "pgm_id", pgmID, "count", len(created))
	return created, nil
}

func (rp *recordPersister) CreateZipDocument(dbc dbctx.Context, pgmID, userID, originalName string, file *StoredFile, extractedCount int) (*types.Document, error) {
	doc, err := newDocument(pgmID, userID, types.DocumentTypeZip, originalName, file, map[string]any{
		"sha256":               file.SHA256,
		"extracted_file_count": extractedCount,
	})
	if err != nil {
		return nil, err
	}
	created, err := rp.documents.Create(dbc.Ctx, dbc.Tx, doc)
	if err != nil {
		return nil, fmt.Errorf("persist zip document: %w", err)
	}
	return created, rp.processorFor(types.DocumentTypeZip).Process(dbc, created, nil)
}

// CreateTemplateDocument persists the manifest document row and runs
// the registered template processor, which turns the already validated
// manifest into template rows inside the same transaction.
func (rp *recordPersister) CreateTemplateDocument(dbc dbctx.Context, pgmID, userID, originalName string, file *StoredFile, manifest *ManifestResult) (*types.Document, error) {
	doc, err := newDocument(pgmID, userID, types.DocumentTypeTemplate, originalName, file, map[string]any{
		"sha256":    file.SHA256,
		"row_count": manifest.RowCount,
	})
	if err != nil {
		return nil, err
	}
	created, err := rp.documents.Create(dbc.Ctx, dbc.Tx, doc)
	if err != nil {
		return nil, fmt.Errorf("persist template document: %w", err)
	}
	if err := rp.processorFor(types.DocumentTypeTemplate).Process(dbc, created, manifest); err != nil {
		return nil, fmt.Errorf("process template document: %w", err)
	}
	return created, nil
}
