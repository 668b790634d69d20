package program

import (
	"context"
	"errors"
	"testing"

	"github.com/plcworks/plchub-backend/internal/data/repos/testutil"
	types "github.com/plcworks/plchub-backend/internal/domain"
)

func TestProgramCreateRejectsDuplicate(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProgramRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	testutil.SeedProgram(t, ctx, tx, "PGM_dup_1")
	_, err := repo.Create(ctx, tx, &types.Program{PgmID: "PGM_dup_1", PgmName: "again"})
	if !errors.Is(err, types.ErrProgramAlreadyExists) {
		t.Fatalf("want ErrProgramAlreadyExists got=%v", err)
	}
}

func TestProgramGetMissing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProgramRepo(db, testutil.Logger(t))
	tx := testutil.Tx(t, db)

	if _, err := repo.GetByID(context.Background(), tx, "PGM_never_existed"); !errors.Is(err, types.ErrProgramNotFound) {
		t.Fatalf("want ErrProgramNotFound got=%v", err)
	}
}

func TestProgramListSearch(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProgramRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	testutil.SeedProgram(t, ctx, tx, "PGM_srch_1")
	testutil.SeedProgram(t, ctx, tx, "PGM_srch_2")

	results, total, err := repo.List(ctx, tx, "srch", "", 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("want 2 matches got total=%d len=%d", total, len(results))
	}

	// The search is case insensitive and matches the name column too.
	results, total, err = repo.List(ctx, tx, "PROGRAM PGM_SRCH_1", "", 0, 10)
	if err != nil {
		t.Fatalf("List by name: %v", err)
	}
	if total != 1 || results[0].PgmID != "PGM_srch_1" {
		t.Fatalf("want PGM_srch_1 got total=%d results=%+v", total, results)
	}
}

func TestProgramUpdateAndDelete(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProgramRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	testutil.SeedProgram(t, ctx, tx, "PGM_upd_1")
	if err := repo.Update(ctx, tx, "PGM_upd_1", map[string]any{"pgm_name": "renamed"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, err := repo.GetByID(ctx, tx, "PGM_upd_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.PgmName != "renamed" || p.UpdateDt == nil {
		t.Fatalf("update not applied: %+v", p)
	}

	if err := repo.Delete(ctx, tx, "PGM_upd_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, tx, "PGM_upd_1"); !errors.Is(err, types.ErrProgramNotFound) {
		t.Fatalf("want ErrProgramNotFound on second delete got=%v", err)
	}
}
