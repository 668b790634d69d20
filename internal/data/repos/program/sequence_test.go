package program

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos/testutil"
)

func TestNextNumberMonotonic(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSequenceRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	first, err := repo.NextNumber(ctx, tx)
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	second, err := repo.NextNumber(ctx, tx)
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if second != first+1 {
		t.Fatalf("want %d got=%d", first+1, second)
	}

	current, err := repo.Current(ctx, tx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current != second {
		t.Fatalf("want current=%d got=%d", second, current)
	}
}

func TestCurrentWithoutRow(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSequenceRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	if err := tx.Exec(`DELETE FROM program_sequence`).Error; err != nil {
		t.Fatalf("clear sequence: %v", err)
	}
	current, err := repo.Current(ctx, tx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current != 0 {
		t.Fatalf("want 0 without a row got=%d", current)
	}
}

func TestResetUpserts(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSequenceRepo(db, testutil.Logger(t))
	ctx := context.Background()
	tx := testutil.Tx(t, db)

	if err := repo.Reset(ctx, tx, 500); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	next, err := repo.NextNumber(ctx, tx)
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if next != 501 {
		t.Fatalf("want 501 got=%d", next)
	}
	if err := repo.Reset(ctx, tx, 10); err != nil {
		t.Fatalf("Reset again: %v", err)
	}
	next, err = repo.NextNumber(ctx, tx)
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if next != 11 {
		t.Fatalf("want 11 got=%d", next)
	}
}

// The row lock serializes concurrent transactions, so every caller gets
// its own number.
func TestNextNumberConcurrentUnique(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSequenceRepo(db, testutil.Logger(t))
	ctx := context.Background()

	const workers = 10
	var mu sync.Mutex
	seen := map[int64]bool{}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				n, err := repo.NextNumber(ctx, tx)
				if err != nil {
					return err
				}
				mu.Lock()
				seen[n] = true
				mu.Unlock()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent allocation: %v", err)
	}
	if len(seen) != workers {
		t.Fatalf("want %d distinct numbers got=%d", workers, len(seen))
	}
}
