package program

import (
	"context"
	"errors"
	"time"

	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepo owns the single-row program number counter. NextNumber
// must run inside a transaction; the row lock it takes is what makes
// concurrent allocations hand out distinct numbers.
type SequenceRepo interface {
	NextNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	Current(ctx context.Context, tx *gorm.DB) (int64, error)
	Reset(ctx context.Context, tx *gorm.DB, lastNumber int64) error
}

type sequenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	repoLog := baseLog.With("repo", "SequenceRepo")
	return &sequenceRepo{db: db, log: repoLog}
}

func (sr *sequenceRepo) NextNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var seq types.ProgramSequence
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", types.SequenceRowID).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = types.ProgramSequence{ID: types.SequenceRowID, LastNumber: 0, UpdateDt: time.Now().UTC()}
		if err := transaction.WithContext(ctx).Create(&seq).Error; err != nil {
			return 0, err
		}
		err = transaction.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", types.SequenceRowID).
			First(&seq).Error
	}
	if err != nil {
		return 0, err
	}

	next := seq.LastNumber + 1
	if err := transaction.WithContext(ctx).
		Model(&types.ProgramSequence{}).
		Where("id = ?", types.SequenceRowID).
		Updates(map[string]any{
			"last_number": next,
			"update_dt":   time.Now().UTC(),
		}).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (sr *sequenceRepo) Current(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var seq types.ProgramSequence
	err := transaction.WithContext(ctx).
		Where("id = ?", types.SequenceRowID).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.LastNumber, nil
}

func (sr *sequenceRepo) Reset(ctx context.Context, tx *gorm.DB, lastNumber int64) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	seq := types.ProgramSequence{
		ID:         types.SequenceRowID,
		LastNumber: lastNumber,
		UpdateDt:   time.Now().UTC(),
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_number", "update_dt"}),
		}).
		Create(&seq).Error
}
