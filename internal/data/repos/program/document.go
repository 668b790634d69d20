package program

import (
	"context"

	"github.com/google/uuid"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
	BulkCreate(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error)
	ListByProgram(ctx context.Context, tx *gorm.DB, pgmID, documentType string) ([]*types.Document, error)
	DeleteByProgram(ctx context.Context, tx *gorm.DB, pgmID string) (int64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, log: repoLog}
}

func (dr *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if doc.DocumentID == uuid.Nil {
		doc.DocumentID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (dr *documentRepo) BulkCreate(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(docs) == 0 {
		return []*types.Document{}, nil
	}
	for _, d := range docs {
		if d.DocumentID == uuid.Nil {
			d.DocumentID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (dr *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var result types.Document
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *documentRepo) ListByProgram(ctx context.Context, tx *gorm.DB, pgmID, documentType string) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	query := transaction.WithContext(ctx).Where("pgm_id = ?", pgmID)
	if documentType != "" {
		query = query.Where("document_type = ?", documentType)
	}

	var results []*types.Document
	if err := query.Order("create_dt ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *documentRepo) DeleteByProgram(ctx context.Context, tx *gorm.DB, pgmID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	res := transaction.WithContext(ctx).
		Where("pgm_id = ?", pgmID).
		Delete(&types.Document{})
	return res.RowsAffected, res.Error
}
