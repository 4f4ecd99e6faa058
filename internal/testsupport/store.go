package testsupport

import (
	"context"
	"testing"

	"contentsbuilder/internal/items"
	"contentsbuilder/internal/records"
	"contentsbuilder/internal/tabular"
)

// NewMemoryRepository builds a repository over a fresh in-memory workbook
// using the default sheet names and strict schema policy. The adapter is
// returned so tests can inspect raw cells.
func NewMemoryRepository(t testing.TB) (*items.Repository, *tabular.Memory) {
	t.Helper()

	adapter := tabular.NewMemory()
	wb := records.NewWorkbook(adapter, records.PolicyStrict, nil)
	return items.NewRepository(wb, items.DefaultTableNames()), adapter
}

// MustOpenSQLite opens a SQLite workbook at path and registers cleanup.
func MustOpenSQLite(t testing.TB, path string) *tabular.SQLiteWorkbook {
	t.Helper()

	wb, err := tabular.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("tabular.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		_ = wb.Close()
	})
	return wb
}

// SeedIntake appends items to the intake queue.
func SeedIntake(t testing.TB, repo *items.Repository, seed ...items.IntakeItem) {
	t.Helper()

	for _, item := range seed {
		if item.Status == "" {
			item.Status = items.StatusNew
		}
		if err := repo.Intake.Add(context.Background(), item); err != nil {
			t.Fatalf("seed intake %s: %v", item.ItemID, err)
		}
	}
}

// MustFindIntake loads one intake item or fails the test.
func MustFindIntake(t testing.TB, repo *items.Repository, id string) items.IntakeItem {
	t.Helper()

	item, err := repo.Intake.Find(context.Background(), id)
	if err != nil {
		t.Fatalf("find intake %s: %v", id, err)
	}
	return item
}
