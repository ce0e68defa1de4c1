package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	pagesourceoutadapter "pagesource/internal/modules/pagesource/adapter/out"
	"pagesource/internal/modules/pagesource/domain"
	apperrors "pagesource/internal/platform/errors"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestSQLitePropertiesStoreRoundTrip(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), ".pagesource", "pagesource.db")
	store, err := pagesourceoutadapter.NewSQLitePropertiesStore(dbPath, fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	props := domain.Properties{
		FilePath:           "/docs/deck.pdf",
		PageNumber:         4,
		OverridePageSize:   true,
		OverrideWidth:      800,
		OverrideHeight:     600,
		OverrideFitToPage:  true,
		OverrideDPIEnabled: true,
		OverrideDPI:        150,
	}
	if err := store.Save(ctx, "deck", props); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "deck")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != props {
		t.Fatalf("loaded %+v, want %+v", got, props)
	}

	props.PageNumber = 5
	props.OverrideDPIEnabled = false
	if err := store.Save(ctx, "deck", props); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if err := store.Save(ctx, "appendix", domain.DefaultProperties()); err != nil {
		t.Fatalf("save appendix: %v", err)
	}
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all["deck"].PageNumber != 5 || all["deck"].OverrideDPIEnabled {
		t.Fatalf("unexpected list: %+v", all)
	}

	if err := store.Delete(ctx, "deck"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "deck"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Delete(ctx, "deck"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
