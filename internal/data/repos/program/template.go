package program

import (
	"context"

	"github.com/google/uuid"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// TemplateRepo stores the manifest rows of a program. Re-uploads
// overwrite: callers delete the old rows and insert the new set in the
// same transaction.
type TemplateRepo interface {
	BulkCreate(ctx context.Context, tx *gorm.DB, rows []*types.PgmTemplate) ([]*types.PgmTemplate, error)
	DeleteByProgram(ctx context.Context, tx *gorm.DB, pgmID string) (int64, error)
	ListByProgram(ctx context.Context, tx *gorm.DB, pgmID string) ([]*types.PgmTemplate, error)
	Search(ctx context.Context, tx *gorm.DB, pgmID, keyword string) ([]*types.PgmTemplate, error)
	CountByProgram(ctx context.Context, tx *gorm.DB, pgmID string) (int64, error)
	ProgramIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (tr *templateRepo) BulkCreate(ctx context.Context, tx *gorm.DB, rows []*types.PgmTemplate) ([]*types.PgmTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if len(rows) == 0 {
		return []*types.PgmTemplate{}, nil
	}
	for _, r := range rows {
		if r.TemplateID == uuid.Nil {
			r.TemplateID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (tr *templateRepo) DeleteByProgram(ctx context.Context, tx *gorm.DB, pgmID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	res := transaction.WithContext(ctx).
		Where("pgm_id = ?", pgmID).
		Delete(&types.PgmTemplate{})
	return res.RowsAffected, res.Error
}

func (tr *templateRepo) ListByProgram(ctx context.Context, tx *gorm.DB, pgmID string) ([]*types.PgmTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.PgmTemplate
	if err := transaction.WithContext(ctx).
		Where("pgm_id = ?", pgmID).
		Order("folder_id ASC, logic_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) Search(ctx context.Context, tx *gorm.DB, pgmID, keyword string) ([]*types.PgmTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	query := transaction.WithContext(ctx).Where("pgm_id = ?", pgmID)
	if keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where(
			"logic_id ILIKE ? OR logic_name ILIKE ? OR folder_name ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var results []*types.PgmTemplate
	if err := query.Order("folder_id ASC, logic_id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) CountByProgram(ctx context.Context, tx *gorm.DB, pgmID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PgmTemplate{}).
		Where("pgm_id = ?", pgmID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (tr *templateRepo) ProgramIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.PgmTemplate{}).
		Distinct("pgm_id").
		Order("pgm_id ASC").
		Pluck("pgm_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
