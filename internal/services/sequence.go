package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

const programIDPrefix = "PGM_"

// SequenceService hands out program IDs of the form "PGM_<n>" from the
// single-row counter. AllocateNextID must be called inside the upload
// transaction so the row lock serializes concurrent uploads; numbers
// consumed by a transaction that later rolls back are gone for good.
type SequenceService interface {
	AllocateNextID(dbc dbctx.Context) (string, error)
	Preview(dbc dbctx.Context) (string, error)
	Reset(dbc dbctx.Context, lastNumber int64) error
}

type sequenceService struct {
	db  *gorm.DB
	log *logger.Logger
	seq repos.SequenceRepo
}

func NewSequenceService(db *gorm.DB, baseLog *logger.Logger, seqRepo repos.SequenceRepo) SequenceService {
	return &sequenceService{
		db:  db,
		log: baseLog.With("service", "SequenceService"),
		seq: seqRepo,
	}
}

func FormatProgramID(n int64) string {
	return fmt.Sprintf("%s%d", programIDPrefix, n)
}

func (ss *sequenceService) AllocateNextID(dbc dbctx.Context) (string, error) {
	next, err := ss.seq.NextNumber(dbc.Ctx, dbc.Tx)
	if err != nil {
		return "", fmt.Errorf("allocate program number: %w", err)
	}
	id := FormatProgramID(next)
	ss.log.Debug("allocated program id", "pgm_id", id)
	return id, nil
}

// Preview returns the ID the next allocation would produce without
// locking or advancing the counter. It is advisory only; a concurrent
// upload can take the number first.
func (ss *sequenceService) Preview(dbc dbctx.Context) (string, error) {
	current, err := ss.seq.Current(dbc.Ctx, dbc.Tx)
	if err != nil {
		return "", fmt.Errorf("read program sequence: %w", err)
	}
	return FormatProgramID(current + 1), nil
}

func (ss *sequenceService) Reset(dbc dbctx.Context, lastNumber int64) error {
	if err := ss.seq.Reset(dbc.Ctx, dbc.Tx, lastNumber); err != nil {
		return fmt.Errorf("reset program sequence: %w", err)
	}
	ss.log.Info("program sequence reset", "last_number", lastNumber)
	return nil
}
