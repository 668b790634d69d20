package testutil

import (
	"context"
	"testing"
	"time"

	types "github.com/plcworks/plchub-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedProgram(tb testing.TB, ctx context.Context, tx *gorm.DB, pgmID string) *types.Program {
	tb.Helper()
	p := &types.Program{
		PgmID:    pgmID,
		PgmName:  "program " + pgmID,
		CreateDt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed program: %v", err)
	}
	return p
}

func SeedPLC(tb testing.TB, ctx context.Context, tx *gorm.DB, plcID string) *types.PLC {
	tb.Helper()
	p := &types.PLC{
		PlcID:          plcID,
		Plant:          "P1",
		Process:        "Assembly",
		Line:           "L1",
		EquipmentGroup: "EQ1",
		Unit:           "U1",
		PlcName:        "plc " + plcID,
		IsActive:       true,
		CreateDt:       time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plc: %v", err)
	}
	return p
}

func SeedMappedPLC(tb testing.TB, ctx context.Context, tx *gorm.DB, plcID, pgmID string) *types.PLC {
	tb.Helper()
	p := SeedPLC(tb, ctx, tx, plcID)
	now := time.Now().UTC()
	user := "tester"
	if err := tx.WithContext(ctx).
		Model(&types.PLC{}).
		Where("plc_id = ?", plcID).
		Updates(map[string]any{
			"pgm_id":           pgmID,
			"pgm_mapping_dt":   now,
			"pgm_mapping_user": user,
		}).Error; err != nil {
		tb.Fatalf("seed plc mapping: %v", err)
	}
	p.PgmID = &pgmID
	p.PgmMappingDt = &now
	p.PgmMappingUser = &user
	return p
}
