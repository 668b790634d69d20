package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plcworks/plchub-backend/internal/data/repos/testutil"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"gorm.io/gorm"
)

func seedPLCAt(t *testing.T, ctx context.Context, tx *gorm.DB, plcID, plant, process string) {
	t.Helper()
	plc := &types.PLC{
		PlcID:          plcID,
		Plant:          plant,
		Process:        process,
		Line:           "L1",
		EquipmentGroup: "EQ1",
		Unit:           "U1",
		PlcName:        "plc " + plcID,
		IsActive:       true,
		CreateDt:       time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(plc).Error; err != nil {
		t.Fatalf("seed plc %s: %v", plcID, err)
	}
}

func TestPLCCreateRejectsDuplicate(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPLCRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	testutil.SeedPLC(t, ctx, tx, "PLC_dup_1")
	_, err := repo.Create(ctx, tx, &types.PLC{PlcID: "PLC_dup_1", Plant: "P1", Process: "A", Line: "L", EquipmentGroup: "E", Unit: "U", PlcName: "x"})
	if !errors.Is(err, types.ErrPLCAlreadyExists) {
		t.Fatalf("want ErrPLCAlreadyExists got=%v", err)
	}

	// A soft-deleted row holds the ID too, but the caller should
	// restore it rather than create a duplicate.
	if err := repo.SoftDelete(ctx, tx, "PLC_dup_1", "tester"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	_, err = repo.Create(ctx, tx, &types.PLC{PlcID: "PLC_dup_1", Plant: "P1", Process: "A", Line: "L", EquipmentGroup: "E", Unit: "U", PlcName: "x"})
	if !errors.Is(err, types.ErrPLCDeleted) {
		t.Fatalf("want ErrPLCDeleted for soft-deleted id got=%v", err)
	}
}

func TestPLCSoftDeleteAndRestore(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPLCRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	testutil.SeedPLC(t, ctx, tx, "PLC_del_1")
	if err := repo.SoftDelete(ctx, tx, "PLC_del_1", "tester"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := repo.Get(ctx, tx, "PLC_del_1"); !errors.Is(err, types.ErrPLCDeleted) {
		t.Fatalf("want ErrPLCDeleted got=%v", err)
	}
	plc, err := repo.GetIncludeDeleted(ctx, tx, "PLC_del_1")
	if err != nil {
		t.Fatalf("GetIncludeDeleted: %v", err)
	}
	if plc.IsActive {
		t.Fatalf("soft delete did not clear is_active")
	}

	// Restore only applies to deleted rows.
	if err := repo.Restore(ctx, tx, "PLC_del_1", "tester"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := repo.Restore(ctx, tx, "PLC_del_1", "tester"); !errors.Is(err, types.ErrPLCNotFound) {
		t.Fatalf("restore of active row should report not found, got=%v", err)
	}
	if _, err := repo.Get(ctx, tx, "PLC_del_1"); err != nil {
		t.Fatalf("Get after restore: %v", err)
	}
}

func TestPLCSoftDeleteMissing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPLCRepo(db, testutil.Logger(t))
	tx := testutil.Tx(t, db)

	if err := repo.SoftDelete(context.Background(), tx, "PLC_never_existed", "tester"); !errors.Is(err, types.ErrPLCNotFound) {
		t.Fatalf("want ErrPLCNotFound got=%v", err)
	}
}

func TestPLCDistinctValues(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPLCRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	seedPLCAt(t, ctx, tx, "PLC_h_1", "PlantZZ9", "Welding")
	seedPLCAt(t, ctx, tx, "PLC_h_2", "PlantZZ9", "Painting")
	seedPLCAt(t, ctx, tx, "PLC_h_3", "PlantZZ9", "Welding")

	values, err := repo.DistinctValues(ctx, tx, "process", types.PLCFilter{Plant: "PlantZZ9"})
	if err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if len(values) != 2 || values[0] != "Painting" || values[1] != "Welding" {
		t.Fatalf("want [Painting Welding] got=%v", values)
	}

	if _, err := repo.DistinctValues(ctx, tx, "warehouse", types.PLCFilter{}); !errors.Is(err, ErrUnknownHierarchyLevel) {
		t.Fatalf("want ErrUnknownHierarchyLevel got=%v", err)
	}
}

func TestPLCSetMapping(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPLCRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	testutil.SeedPLC(t, ctx, tx, "PLC_map_1")
	pgmID := "PGM_map_test"
	if err := repo.SetMapping(ctx, tx, "PLC_map_1", &pgmID, "tester"); err != nil {
		t.Fatalf("SetMapping: %v", err)
	}
	plc, err := repo.Get(ctx, tx, "PLC_map_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if plc.PgmID == nil || *plc.PgmID != pgmID || plc.PgmMappingDt == nil || plc.PgmMappingUser == nil {
		t.Fatalf("mapping columns not set: %+v", plc)
	}

	if err := repo.SetMapping(ctx, tx, "PLC_map_1", nil, "tester"); err != nil {
		t.Fatalf("clear mapping: %v", err)
	}
	plc, err = repo.Get(ctx, tx, "PLC_map_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if plc.PgmID != nil || plc.PgmMappingDt != nil || plc.PgmMappingUser != nil {
		t.Fatalf("mapping columns not cleared: %+v", plc)
	}
}

func TestPLCListFilterAndOrder(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPLCRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	seedPLCAt(t, ctx, tx, "PLC_l_2", "PlantZZ8", "B")
	seedPLCAt(t, ctx, tx, "PLC_l_1", "PlantZZ8", "A")

	plcs, total, err := repo.List(ctx, tx, types.PLCFilter{Plant: "PlantZZ8"}, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(plcs) != 2 {
		t.Fatalf("want 2 rows got total=%d len=%d", total, len(plcs))
	}
	if plcs[0].Process != "A" || plcs[1].Process != "B" {
		t.Fatalf("hierarchy ordering broken: %s, %s", plcs[0].Process, plcs[1].Process)
	}
}
