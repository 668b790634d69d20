package program

import (
	"context"
	"errors"
	"time"

	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProgramRepo interface {
	Create(ctx context.Context, tx *gorm.DB, program *types.Program) (*types.Program, error)
	GetByID(ctx context.Context, tx *gorm.DB, pgmID string) (*types.Program, error)
	Exists(ctx context.Context, tx *gorm.DB, pgmID string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, search, version string, offset, limit int) ([]*types.Program, int64, error)
	Update(ctx context.Context, tx *gorm.DB, pgmID string, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, pgmID string) error
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	repoLog := baseLog.With("repo", "ProgramRepo")
	return &programRepo{db: db, log: repoLog}
}

func (pr *programRepo) Create(ctx context.Context, tx *gorm.DB, program *types.Program) (*types.Program, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	exists, err := pr.Exists(ctx, transaction, program.PgmID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.ErrProgramAlreadyExists
	}

	if program.CreateDt.IsZero() {
		program.CreateDt = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).Create(program).Error; err != nil {
		return nil, err
	}
	return program, nil
}

func (pr *programRepo) GetByID(ctx context.Context, tx *gorm.DB, pgmID string) (*types.Program, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Program
	err := transaction.WithContext(ctx).
		Where("pgm_id = ?", pgmID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *programRepo) Exists(ctx context.Context, tx *gorm.DB, pgmID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Program{}).
		Where("pgm_id = ?", pgmID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *programRepo) List(ctx context.Context, tx *gorm.DB, search, version string, offset, limit int) ([]*types.Program, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Program{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("pgm_id ILIKE ? OR pgm_name ILIKE ?", pattern, pattern)
	}
	if version != "" {
		query = query.Where("pgm_version = ?", version)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.Program
	if err := query.
		Order("create_dt DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (pr *programRepo) Update(ctx context.Context, tx *gorm.DB, pgmID string, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	fields["update_dt"] = time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Program{}).
		Where("pgm_id = ?", pgmID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrProgramNotFound
	}
	return nil
}

func (pr *programRepo) Delete(ctx context.Context, tx *gorm.DB, pgmID string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	res := transaction.WithContext(ctx).
		Where("pgm_id = ?", pgmID).
		Delete(&types.Program{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrProgramNotFound
	}
	return nil
}
