package device

import (
	"context"
	"errors"
	"time"

	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Hierarchy levels accepted by DistinctValues.
var hierarchyColumns = map[string]string{
	"plant":           "plant",
	"process":         "process",
	"line":            "line",
	"equipment_group": "equipment_group",
	"unit":            "unit",
}

var ErrUnknownHierarchyLevel = errors.New("unknown hierarchy level")

type PLCRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plc *types.PLC) (*types.PLC, error)
	Get(ctx context.Context, tx *gorm.DB, plcID string) (*types.PLC, error)
	GetIncludeDeleted(ctx context.Context, tx *gorm.DB, plcID string) (*types.PLC, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, plcID string) (*types.PLC, error)
	List(ctx context.Context, tx *gorm.DB, filter types.PLCFilter, offset, limit int) ([]*types.PLC, int64, error)
	Update(ctx context.Context, tx *gorm.DB, plcID string, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, plcID, user string) error
	Restore(ctx context.Context, tx *gorm.DB, plcID, user string) error
	Exists(ctx context.Context, tx *gorm.DB, plcID string) (bool, error)
	Search(ctx context.Context, tx *gorm.DB, keyword string, limit int) ([]*types.PLC, error)
	DistinctValues(ctx context.Context, tx *gorm.DB, level string, filter types.PLCFilter) ([]string, error)
	ListByProgram(ctx context.Context, tx *gorm.DB, pgmID string) ([]*types.PLC, error)
	ListUnmapped(ctx context.Context, tx *gorm.DB) ([]*types.PLC, error)
	CountSummary(ctx context.Context, tx *gorm.DB) (total, active, deleted, mapped int64, err error)
	SetMapping(ctx context.Context, tx *gorm.DB, plcID string, pgmID *string, user string) error
}

type plcRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPLCRepo(db *gorm.DB, baseLog *logger.Logger) PLCRepo {
	repoLog := baseLog.With("repo", "PLCRepo")
	return &plcRepo{db: db, log: repoLog}
}

func (pr *plcRepo) Create(ctx context.Context, tx *gorm.DB, plc *types.PLC) (*types.PLC, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	existing, err := pr.GetIncludeDeleted(ctx, transaction, plc.PlcID)
	if err != nil && !errors.Is(err, types.ErrPLCNotFound) {
		return nil, err
	}
	if existing != nil {
		if !existing.IsActive {
			// The ID belongs to a soft-deleted device; restore it
			// instead of creating a second row.
			return nil, types.ErrPLCDeleted
		}
		return nil, types.ErrPLCAlreadyExists
	}

	plc.IsActive = true
	if plc.CreateDt.IsZero() {
		plc.CreateDt = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).Create(plc).Error; err != nil {
		return nil, err
	}
	return plc, nil
}

func (pr *plcRepo) Get(ctx context.Context, tx *gorm.DB, plcID string) (*types.PLC, error) {
	plc, err := pr.GetIncludeDeleted(ctx, tx, plcID)
	if err != nil {
		return nil, err
	}
	if !plc.IsActive {
		return nil, types.ErrPLCDeleted
	}
	return plc, nil
}

func (pr *plcRepo) GetIncludeDeleted(ctx context.Context, tx *gorm.DB, plcID string) (*types.PLC, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.PLC
	err := transaction.WithContext(ctx).
		Where("plc_id = ?", plcID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrPLCNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *plcRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, plcID string) (*types.PLC, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.PLC
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("plc_id = ?", plcID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrPLCNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func applyFilter(query *gorm.DB, filter types.PLCFilter) *gorm.DB {
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Plant != "" {
		query = query.Where("plant = ?", filter.Plant)
	}
	if filter.Process != "" {
		query = query.Where("process = ?", filter.Process)
	}
	if filter.Line != "" {
		query = query.Where("line = ?", filter.Line)
	}
	if filter.EquipmentGroup != "" {
		query = query.Where("equipment_group = ?", filter.EquipmentGroup)
	}
	if filter.Unit != "" {
		query = query.Where("unit = ?", filter.Unit)
	}
	return query
}

func (pr *plcRepo) List(ctx context.Context, tx *gorm.DB, filter types.PLCFilter, offset, limit int) ([]*types.PLC, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	query := applyFilter(transaction.WithContext(ctx).Model(&types.PLC{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.PLC
	if err := query.
		Order("plant ASC, process ASC, line ASC, equipment_group ASC, unit ASC, plc_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (pr *plcRepo) Update(ctx context.Context, tx *gorm.DB, plcID string, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	fields["update_dt"] = time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.PLC{}).
		Where("plc_id = ? AND is_active = true", plcID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrPLCNotFound
	}
	return nil
}

func (pr *plcRepo) SoftDelete(ctx context.Context, tx *gorm.DB, plcID, user string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.PLC{}).
		Where("plc_id = ? AND is_active = true", plcID).
		Updates(map[string]any{
			"is_active":   false,
			"update_dt":   time.Now().UTC(),
			"update_user": user,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrPLCNotFound
	}
	return nil
}

func (pr *plcRepo) Restore(ctx context.Context, tx *gorm.DB, plcID, user string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.PLC{}).
		Where("plc_id = ? AND is_active = false", plcID).
		Updates(map[string]any{
			"is_active":   true,
			"update_dt":   time.Now().UTC(),
			"update_user": user,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrPLCNotFound
	}
	return nil
}

func (pr *plcRepo) Exists(ctx context.Context, tx *gorm.DB, plcID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PLC{}).
		Where("plc_id = ? AND is_active = true", plcID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *plcRepo) Search(ctx context.Context, tx *gorm.DB, keyword string, limit int) ([]*types.PLC, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	pattern := "%" + keyword + "%"
	var results []*types.PLC
	if err := transaction.WithContext(ctx).
		Where("is_active = true").
		Where("plc_id ILIKE ? OR plc_name ILIKE ?", pattern, pattern).
		Order("plc_id ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *plcRepo) DistinctValues(ctx context.Context, tx *gorm.DB, level string, filter types.PLCFilter) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	column, ok := hierarchyColumns[level]
	if !ok {
		return nil, ErrUnknownHierarchyLevel
	}

	query := applyFilter(transaction.WithContext(ctx).Model(&types.PLC{}), filter).
		Where("is_active = true")

	var values []string
	if err := query.
		Distinct(column).
		Order(column + " ASC").
		Pluck(column, &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func (pr *plcRepo) ListByProgram(ctx context.Context, tx *gorm.DB, pgmID string) ([]*types.PLC, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.PLC
	if err := transaction.WithContext(ctx).
		Where("pgm_id = ? AND is_active = true", pgmID).
		Order("plc_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *plcRepo) ListUnmapped(ctx context.Context, tx *gorm.DB) ([]*types.PLC, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.PLC
	if err := transaction.WithContext(ctx).
		Where("pgm_id IS NULL AND is_active = true").
		Order("plc_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *plcRepo) CountSummary(ctx context.Context, tx *gorm.DB) (total, active, deleted, mapped int64, err error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	base := transaction.WithContext(ctx).Model(&types.PLC{})
	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return
	}
	if err = base.Session(&gorm.Session{}).Where("is_active = true").Count(&active).Error; err != nil {
		return
	}
	deleted = total - active
	err = base.Session(&gorm.Session{}).
		Where("is_active = true AND pgm_id IS NOT NULL").
		Count(&mapped).Error
	return
}

func (pr *plcRepo) SetMapping(ctx context.Context, tx *gorm.DB, plcID string, pgmID *string, user string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	fields := map[string]any{
		"pgm_id": pgmID,
	}
	if pgmID == nil {
		fields["pgm_mapping_dt"] = nil
		fields["pgm_mapping_user"] = nil
	} else {
		fields["pgm_mapping_dt"] = time.Now().UTC()
		fields["pgm_mapping_user"] = user
	}

	res := transaction.WithContext(ctx).
		Model(&types.PLC{}).
		Where("plc_id = ? AND is_active = true", plcID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrPLCNotFound
	}
	return nil
}
