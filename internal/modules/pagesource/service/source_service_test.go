package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pagesource/internal/modules/pagesource/domain"
	"pagesource/internal/modules/pagesource/service"
	apperrors "pagesource/internal/platform/errors"
	"pagesource/internal/platform/id"
)

type memoryStore struct {
	items map[string]domain.Properties
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[string]domain.Properties{}}
}

func (s *memoryStore) Save(_ context.Context, name string, props domain.Properties) error {
	s.items[name] = props
	return nil
}

func (s *memoryStore) Load(_ context.Context, name string) (domain.Properties, error) {
	props, ok := s.items[name]
	if !ok {
		return domain.Properties{}, fmt.Errorf("%w: %s", apperrors.ErrNotFound, name)
	}
	return props, nil
}

func (s *memoryStore) List(context.Context) (map[string]domain.Properties, error) {
	return s.items, nil
}

func (s *memoryStore) Delete(_ context.Context, name string) error {
	delete(s.items, name)
	return nil
}

func newTestService(t *testing.T, pages int, store *memoryStore) (*service.SourceService, *fakeEngine) {
	t.Helper()
	engine := newFakeEngine(pages)
	runtime, err := service.NewRuntime(engine, &id.Sequence{})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if store == nil {
		return service.NewSourceService(runtime, &fakeGraphics{}, nil, nil), engine
	}
	return service.NewSourceService(runtime, &fakeGraphics{}, nil, store), engine
}

func deckProps(page int) domain.Properties {
	props := domain.DefaultProperties()
	props.FilePath = "/docs/deck.pdf"
	props.PageNumber = page
	return props
}

func TestSourceServiceOpenNavigateClose(t *testing.T) {
	t.Parallel()
	svc, engine := newTestService(t, 5, nil)
	ctx := context.Background()

	src, err := svc.Open(ctx, "Q3 Review", deckProps(2))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if src.Texture() == nil || src.Page() != 2 {
		t.Fatalf("unexpected source state page=%d", src.Page())
	}
	if _, err := svc.Open(ctx, "q3 review", deckProps(1)); !errors.Is(err, apperrors.ErrSourceExists) {
		t.Fatalf("expected exists error, got %v", err)
	}
	if _, err := svc.Navigate(ctx, "Q3 Review", domain.DirectionNext); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if src.Page() != 3 {
		t.Fatalf("page = %d, want 3", src.Page())
	}
	if _, err := svc.Navigate(ctx, "q3-review", domain.Direction("up")); err == nil {
		t.Fatalf("expected invalid direction error")
	}
	if got := svc.Names(); len(got) != 1 || got[0] != "q3-review" {
		t.Fatalf("names = %v", got)
	}
	if err := svc.Close(ctx, "q3-review"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Get("q3-review"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after close, got %v", err)
	}
	if err := svc.CloseAll(); err != nil || !engine.deleted {
		t.Fatalf("close all: %v", err)
	}
}

func TestSourceServiceRejectsBlankName(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, 1, nil)
	if _, err := svc.Open(context.Background(), "  ", deckProps(1)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSourceServicePropertiesNeedStore(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, 1, nil)
	if err := svc.SaveProperties(context.Background(), "deck", deckProps(1)); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := svc.ListProperties(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestSourceServiceRemembersPage(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc, _ := newTestService(t, 9, store)
	ctx := context.Background()

	if err := svc.SaveProperties(ctx, "Deck", deckProps(4)); err != nil {
		t.Fatalf("save: %v", err)
	}
	props, err := svc.LoadProperties(ctx, "deck")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := svc.Open(ctx, "deck", props); err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Navigate(ctx, "deck", domain.DirectionNext); err != nil {
			t.Fatalf("navigate: %v", err)
		}
	}
	if err := svc.RememberPage(ctx, "deck"); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if got := store.items["deck"].PageNumber; got != 6 {
		t.Fatalf("stored page = %d, want 6", got)
	}

	if _, err := svc.Open(ctx, "unsaved", deckProps(1)); err != nil {
		t.Fatalf("open unsaved: %v", err)
	}
	if err := svc.RememberPage(ctx, "unsaved"); err != nil {
		t.Fatalf("remember without saved properties: %v", err)
	}
	if _, ok := store.items["unsaved"]; ok {
		t.Fatalf("unsaved source should not be persisted")
	}
	if err := svc.DeleteProperties(ctx, "deck"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.LoadProperties(ctx, "deck"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
