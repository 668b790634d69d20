package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

// errAbortBulk signals the enclosing bulk transaction to roll back. The
// per-item failure is already recorded in the result by then.
var errAbortBulk = errors.New("bulk mapping aborted")

// PLCUpdate carries the mutable device fields. Nil leaves the column
// untouched.
type PLCUpdate struct {
	Plant          *string
	Process        *string
	Line           *string
	EquipmentGroup *string
	Unit           *string
	PlcName        *string
	UpdateUser     string
}

// PLCCountSummary is the device count breakdown.
type PLCCountSummary struct {
	Total   int64 `json:"total_count"`
	Active  int64 `json:"active_count"`
	Deleted int64 `json:"deleted_count"`
	Mapped  int64 `json:"mapped_count"`
}

// BulkMappingItem is the per-device outcome of a bulk operation.
type BulkMappingItem struct {
	PlcID     string  `json:"plc_id"`
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	PgmID     *string `json:"pgm_id"`
	PrevPgmID *string `json:"prev_pgm_id"`
}

// BulkMappingResult summarizes a bulk map, unmap or reassign run.
// RolledBack means every change of the run was reverted and
// SuccessCount is zero regardless of how many items had succeeded.
type BulkMappingResult struct {
	Total        int               `json:"total"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Results      []BulkMappingItem `json:"results"`
	Message      string            `json:"message"`
	RolledBack   bool              `json:"rolled_back"`
}

// TreeNode is one level of the device location hierarchy. Leaves carry
// the device itself.
type TreeNode struct {
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children,omitempty"`
	PLC      *types.PLC  `json:"plc,omitempty"`
}

// PLCService covers device CRUD, the mapping operations with their
// audit trail, and the hierarchy queries.
type PLCService interface {
	Create(dbc dbctx.Context, plc *types.PLC) (*types.PLC, error)
	Get(dbc dbctx.Context, plcID string, includeDeleted bool) (*types.PLC, error)
	List(dbc dbctx.Context, filter types.PLCFilter, page, size int) ([]*types.PLC, int64, error)
	Update(dbc dbctx.Context, plcID string, update PLCUpdate) (*types.PLC, error)
	Delete(dbc dbctx.Context, plcID, user string) error
	Restore(dbc dbctx.Context, plcID, user string) error
	Exists(dbc dbctx.Context, plcID string) (bool, error)
	Search(dbc dbctx.Context, keyword string, limit int) ([]*types.PLC, error)
	CountSummary(dbc dbctx.Context) (*PLCCountSummary, error)
	HierarchyValues(dbc dbctx.Context, level string, filter types.PLCFilter) ([]string, error)
	Tree(dbc dbctx.Context, filter types.PLCFilter) ([]*TreeNode, error)

	MapProgram(dbc dbctx.Context, plcID, pgmID, user string, notes *string) (*types.PLC, error)
	UnmapProgram(dbc dbctx.Context, plcID, user string, notes *string) (*types.PLC, error)
	MappingHistory(dbc dbctx.Context, plcID string, page, size int) ([]*types.PgmMappingHistory, int64, error)
	ListByProgram(dbc dbctx.Context, pgmID string) ([]*types.PLC, error)
	ListUnmapped(dbc dbctx.Context) ([]*types.PLC, error)

	BulkMap(dbc dbctx.Context, plcIDs []string, pgmID, user string, notes *string, rollbackOnError bool) (*BulkMappingResult, error)
	BulkUnmap(dbc dbctx.Context, plcIDs []string, user string, notes *string, rollbackOnError bool) (*BulkMappingResult, error)
	BulkReassign(dbc dbctx.Context, plcIDs []string, newPgmID, user string, notes *string, rollbackOnError bool) (*BulkMappingResult, error)
}

type plcService struct {
	db         *gorm.DB
	log        *logger.Logger
	plcs       repos.PLCRepo
	programs   repos.ProgramRepo
	history    repos.MappingHistoryRepo
	bulkMaxIDs int
}

func NewPLCService(
	db *gorm.DB,
	baseLog *logger.Logger,
	plcRepo repos.PLCRepo,
	programRepo repos.ProgramRepo,
	historyRepo repos.MappingHistoryRepo,
	bulkMaxIDs int,
) PLCService {
	return &plcService{
		db:         db,
		log:        baseLog.With("service", "PLCService"),
		plcs:       plcRepo,
		programs:   programRepo,
		history:    historyRepo,
		bulkMaxIDs: bulkMaxIDs,
	}
}

func (ps *plcService) Create(dbc dbctx.Context, plc *types.PLC) (*types.PLC, error) {
	if plc.PlcID == "" {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "plc_id is required")
	}
	return ps.plcs.Create(dbc.Ctx, dbc.Tx, plc)
}

func (ps *plcService) Get(dbc dbctx.Context, plcID string, includeDeleted bool) (*types.PLC, error) {
	if includeDeleted {
		return ps.plcs.GetIncludeDeleted(dbc.Ctx, dbc.Tx, plcID)
	}
	return ps.plcs.Get(dbc.Ctx, dbc.Tx, plcID)
}

func (ps *plcService) List(dbc dbctx.Context, filter types.PLCFilter, page, size int) ([]*types.PLC, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 100
	}
	return ps.plcs.List(dbc.Ctx, dbc.Tx, filter, (page-1)*size, size)
}

func (ps *plcService) Update(dbc dbctx.Context, plcID string, update PLCUpdate) (*types.PLC, error) {
	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("plant", update.Plant)
	set("process", update.Process)
	set("line", update.Line)
	set("equipment_group", update.EquipmentGroup)
	set("unit", update.Unit)
	set("plc_name", update.PlcName)
	if len(fields) == 0 {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "no fields to update")
	}
	if update.UpdateUser != "" {
		fields["update_user"] = update.UpdateUser
	}
	if err := ps.plcs.Update(dbc.Ctx, dbc.Tx, plcID, fields); err != nil {
		return nil, err
	}
	return ps.plcs.Get(dbc.Ctx, dbc.Tx, plcID)
}

func (ps *plcService) Delete(dbc dbctx.Context, plcID, user string) error {
	return ps.plcs.SoftDelete(dbc.Ctx, dbc.Tx, plcID, user)
}

func (ps *plcService) Restore(dbc dbctx.Context, plcID, user string) error {
	return ps.plcs.Restore(dbc.Ctx, dbc.Tx, plcID, user)
}

func (ps *plcService) Exists(dbc dbctx.Context, plcID string) (bool, error) {
	return ps.plcs.Exists(dbc.Ctx, dbc.Tx, plcID)
}

func (ps *plcService) Search(dbc dbctx.Context, keyword string, limit int) ([]*types.PLC, error) {
	if keyword == "" {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "keyword is required")
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return ps.plcs.Search(dbc.Ctx, dbc.Tx, keyword, limit)
}

func (ps *plcService) CountSummary(dbc dbctx.Context) (*PLCCountSummary, error) {
	total, active, deleted, mapped, err := ps.plcs.CountSummary(dbc.Ctx, dbc.Tx)
	if err != nil {
		return nil, err
	}
	return &PLCCountSummary{Total: total, Active: active, Deleted: deleted, Mapped: mapped}, nil
}

func (ps *plcService) HierarchyValues(dbc dbctx.Context, level string, filter types.PLCFilter) ([]string, error) {
	values, err := ps.plcs.DistinctValues(dbc.Ctx, dbc.Tx, level, filter)
	if err != nil {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest,
			fmt.Sprintf("unknown hierarchy level %q", level))
	}
	return values, nil
}

// Tree builds the full plant > process > line > equipment group > unit
// hierarchy with devices at the leaves.
func (ps *plcService) Tree(dbc dbctx.Context, filter types.PLCFilter) ([]*TreeNode, error) {
	active := true
	if filter.IsActive == nil {
		filter.IsActive = &active
	}
	plcs, _, err := ps.plcs.List(dbc.Ctx, dbc.Tx, filter, 0, 100000)
	if err != nil {
		return nil, err
	}

	var roots []*TreeNode
	index := map[string]*TreeNode{}
	child := func(parent *TreeNode, key, name string) *TreeNode {
		if node, ok := index[key]; ok {
			return node
		}
		node := &TreeNode{Name: name}
		index[key] = node
		if parent == nil {
			roots = append(roots, node)
		} else {
			parent.Children = append(parent.Children, node)
		}
		return node
	}

	for _, plc := range plcs {
		key := plc.Plant
		plant := child(nil, key, plc.Plant)
		key += "\x00" + plc.Process
		process := child(plant, key, plc.Process)
		key += "\x00" + plc.Line
		line := child(process, key, plc.Line)
		key += "\x00" + plc.EquipmentGroup
		group := child(line, key, plc.EquipmentGroup)
		key += "\x00" + plc.Unit
		unit := child(group, key, plc.Unit)
		unit.Children = append(unit.Children, &TreeNode{Name: plc.PlcID, PLC: plc})
	}
	return roots, nil
}

// mapOne performs a single mapping under a row lock and appends the
// audit row. Action is CREATE for a first mapping, UPDATE otherwise.
func (ps *plcService) mapOne(dbc dbctx.Context, tx *gorm.DB, plcID, pgmID, user string, notes *string) (prev *string, err error) {
	plc, err := ps.plcs.GetForUpdate(dbc.Ctx, tx, plcID)
	if err != nil {
		return nil, err
	}
	if !plc.IsActive {
		return nil, types.ErrPLCDeleted
	}

	prev = plc.PgmID
	if err := ps.plcs.SetMapping(dbc.Ctx, tx, plcID, &pgmID, user); err != nil {
		return nil, err
	}

	action := types.MappingActionCreate
	if prev != nil {
		action = types.MappingActionUpdate
	}
	_, err = ps.history.Append(dbc.Ctx, tx, &types.PgmMappingHistory{
		PlcID:      plcID,
		PgmID:      &pgmID,
		Action:     action,
		ActionUser: user,
		PrevPgmID:  prev,
		Notes:      notes,
	})
	return prev, err
}

func (ps *plcService) unmapOne(dbc dbctx.Context, tx *gorm.DB, plcID, user string, notes *string) (prev *string, err error) {
	plc, err := ps.plcs.GetForUpdate(dbc.Ctx, tx, plcID)
	if err != nil {
		return nil, err
	}
	if !plc.IsActive {
		return nil, types.ErrPLCDeleted
	}
	if plc.PgmID == nil {
		return nil, types.ErrNoProgramMapped
	}

	prev = plc.PgmID
	if err := ps.plcs.SetMapping(dbc.Ctx, tx, plcID, nil, user); err != nil {
		return nil, err
	}
	_, err = ps.history.Append(dbc.Ctx, tx, &types.PgmMappingHistory{
		PlcID:      plcID,
		Action:     types.MappingActionDelete,
		ActionUser: user,
		PrevPgmID:  prev,
		Notes:      notes,
	})
	return prev, err
}

func (ps *plcService) MapProgram(dbc dbctx.Context, plcID, pgmID, user string, notes *string) (*types.PLC, error) {
	if _, err := ps.programs.GetByID(dbc.Ctx, dbc.Tx, pgmID); err != nil {
		return nil, err
	}

	run := func(tx *gorm.DB) error {
		_, err := ps.mapOne(dbc, tx, plcID, pgmID, user, notes)
		return err
	}
	var err error
	if dbc.Tx != nil {
		err = run(dbc.Tx)
	} else {
		err = ps.db.WithContext(dbc.Ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}
	return ps.plcs.Get(dbc.Ctx, dbc.Tx, plcID)
}

func (ps *plcService) UnmapProgram(dbc dbctx.Context, plcID, user string, notes *string) (*types.PLC, error) {
	run := func(tx *gorm.DB) error {
		_, err := ps.unmapOne(dbc, tx, plcID, user, notes)
		return err
	}
	var err error
	if dbc.Tx != nil {
		err = run(dbc.Tx)
	} else {
		err = ps.db.WithContext(dbc.Ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}
	return ps.plcs.Get(dbc.Ctx, dbc.Tx, plcID)
}

func (ps *plcService) MappingHistory(dbc dbctx.Context, plcID string, page, size int) ([]*types.PgmMappingHistory, int64, error) {
	if _, err := ps.plcs.GetIncludeDeleted(dbc.Ctx, dbc.Tx, plcID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 100
	}
	return ps.history.ListByPLC(dbc.Ctx, dbc.Tx, plcID, (page-1)*size, size)
}

func (ps *plcService) ListByProgram(dbc dbctx.Context, pgmID string) ([]*types.PLC, error) {
	if _, err := ps.programs.GetByID(dbc.Ctx, dbc.Tx, pgmID); err != nil {
		return nil, err
	}
	return ps.plcs.ListByProgram(dbc.Ctx, dbc.Tx, pgmID)
}

func (ps *plcService) ListUnmapped(dbc dbctx.Context) ([]*types.PLC, error) {
	return ps.plcs.ListUnmapped(dbc.Ctx, dbc.Tx)
}

// checkBulkIDs dedupes in request order and enforces the batch cap.
// An empty or oversized request is a request error, not a per-item
// failure.
func (ps *plcService) checkBulkIDs(plcIDs []string) ([]string, error) {
	seen := map[string]bool{}
	deduped := make([]string, 0, len(plcIDs))
	for _, id := range plcIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}
	if len(deduped) == 0 {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest, "plc_ids is empty")
	}
	if len(deduped) > ps.bulkMaxIDs {
		return nil, types.NewValidationError(types.ValidationCodeBadRequest,
			fmt.Sprintf("plc_ids exceeds the maximum of %d", ps.bulkMaxIDs))
	}
	return deduped, nil
}

// runBulk executes op once per device. With rollbackOnError the whole
// run shares one transaction that aborts at the first failure; without
// it every device commits or fails on its own.
func (ps *plcService) runBulk(
	dbc dbctx.Context,
	plcIDs []string,
	rollbackOnError bool,
	op func(tx *gorm.DB, plcID string) (*BulkMappingItem, error),
) (*BulkMappingResult, error) {
	result := &BulkMappingResult{Total: len(plcIDs)}

	if rollbackOnError {
		err := ps.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			for _, plcID := range plcIDs {
				item, err := op(tx, plcID)
				if err != nil {
					result.Results = append(result.Results, BulkMappingItem{
						PlcID:   plcID,
						Success: false,
						Message: err.Error(),
					})
					return errAbortBulk
				}
				result.Results = append(result.Results, *item)
			}
			return nil
		})
		if err != nil && !errors.Is(err, errAbortBulk) {
			return nil, err
		}
		if errors.Is(err, errAbortBulk) {
			result.RolledBack = true
			for i := range result.Results {
				if result.Results[i].Success {
					result.Results[i].Success = false
					result.Results[i].Message = "rolled back"
				}
			}
			for _, plcID := range plcIDs[len(result.Results):] {
				result.Results = append(result.Results, BulkMappingItem{
					PlcID:   plcID,
					Success: false,
					Message: "not processed",
				})
			}
		}
	} else {
		for _, plcID := range plcIDs {
			var item *BulkMappingItem
			err := ps.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
				var opErr error
				item, opErr = op(tx, plcID)
				return opErr
			})
			if err != nil {
				result.Results = append(result.Results, BulkMappingItem{
					PlcID:   plcID,
					Success: false,
					Message: err.Error(),
				})
				continue
			}
			result.Results = append(result.Results, *item)
		}
	}

	for _, item := range result.Results {
		if item.Success {
			result.SuccessCount++
		}
	}
	result.FailureCount = result.Total - result.SuccessCount

	switch {
	case result.RolledBack:
		result.Message = fmt.Sprintf("rolled back after a failure; no changes applied (%d failed)", result.FailureCount)
	case result.FailureCount == 0:
		result.Message = fmt.Sprintf("all %d devices processed successfully", result.SuccessCount)
	default:
		result.Message = fmt.Sprintf("%d of %d succeeded, %d failed", result.SuccessCount, result.Total, result.FailureCount)
	}
	ps.log.Info("bulk mapping finished",
		"total", result.Total,
		"success", result.SuccessCount,
		"failed", result.FailureCount,
		"rolled_back", result.RolledBack)
	return result, nil
}

func (ps *plcService) BulkMap(dbc dbctx.Context, plcIDs []string, pgmID, user string, notes *string, rollbackOnError bool) (*BulkMappingResult, error) {
	ids, err := ps.checkBulkIDs(plcIDs)
	if err != nil {
		return nil, err
	}
	if _, err := ps.programs.GetByID(dbc.Ctx, dbc.Tx, pgmID); err != nil {
		return nil, err
	}

	return ps.runBulk(dbc, ids, rollbackOnError, func(tx *gorm.DB, plcID string) (*BulkMappingItem, error) {
		prev, err := ps.mapOne(dbc, tx, plcID, pgmID, user, notes)
		if err != nil {
			return nil, err
		}
		mapped := pgmID
		return &BulkMappingItem{
			PlcID:     plcID,
			Success:   true,
			Message:   fmt.Sprintf("mapped to %s", pgmID),
			PgmID:     &mapped,
			PrevPgmID: prev,
		}, nil
	})
}

func (ps *plcService) BulkUnmap(dbc dbctx.Context, plcIDs []string, user string, notes *string, rollbackOnError bool) (*BulkMappingResult, error) {
	ids, err := ps.checkBulkIDs(plcIDs)
	if err != nil {
		return nil, err
	}

	return ps.runBulk(dbc, ids, rollbackOnError, func(tx *gorm.DB, plcID string) (*BulkMappingItem, error) {
		prev, err := ps.unmapOne(dbc, tx, plcID, user, notes)
		if err != nil {
			return nil, err
		}
		return &BulkMappingItem{
			PlcID:     plcID,
			Success:   true,
			Message:   "mapping removed",
			PrevPgmID: prev,
		}, nil
	})
}

func (ps *plcService) BulkReassign(dbc dbctx.Context, plcIDs []string, newPgmID, user string, notes *string, rollbackOnError bool) (*BulkMappingResult, error) {
	ids, err := ps.checkBulkIDs(plcIDs)
	if err != nil {
		return nil, err
	}
	if _, err := ps.programs.GetByID(dbc.Ctx, dbc.Tx, newPgmID); err != nil {
		return nil, err
	}

	return ps.runBulk(dbc, ids, rollbackOnError, func(tx *gorm.DB, plcID string) (*BulkMappingItem, error) {
		prev, err := ps.mapOne(dbc, tx, plcID, newPgmID, user, notes)
		if err != nil {
			return nil, err
		}
		mapped := newPgmID
		return &BulkMappingItem{
			PlcID:     plcID,
			Success:   true,
			Message:   fmt.Sprintf("reassigned to %s", newPgmID),
			PgmID:     &mapped,
			PrevPgmID: prev,
		}, nil
	})
}
