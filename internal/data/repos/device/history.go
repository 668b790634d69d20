package device

import (
	"context"
	"time"

	"github.com/google/uuid"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type MappingHistoryRepo interface {
	Append(ctx context.Context, tx *gorm.DB, row *types.PgmMappingHistory) (*types.PgmMappingHistory, error)
	ListByPLC(ctx context.Context, tx *gorm.DB, plcID string, offset, limit int) ([]*types.PgmMappingHistory, int64, error)
}

type mappingHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMappingHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MappingHistoryRepo {
	repoLog := baseLog.With("repo", "MappingHistoryRepo")
	return &mappingHistoryRepo{db: db, log: repoLog}
}

func (mr *mappingHistoryRepo) Append(ctx context.Context, tx *gorm.DB, row *types.PgmMappingHistory) (*types.PgmMappingHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ActionDt.IsZero() {
		row.ActionDt = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (mr *mappingHistoryRepo) ListByPLC(ctx context.Context, tx *gorm.DB, plcID string, offset, limit int) ([]*types.PgmMappingHistory, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.PgmMappingHistory{}).
		Where("plc_id = ?", plcID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.PgmMappingHistory
	if err := query.
		Order("action_dt DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
