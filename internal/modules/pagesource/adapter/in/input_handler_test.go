package in_test

import (
	"context"
	"reflect"
	"testing"

	pagesourcein "pagesource/internal/modules/pagesource/adapter/in"
	"pagesource/internal/modules/pagesource/dto"
	pagesourceport "pagesource/internal/modules/pagesource/port/in"
)

type recordingUsecase struct {
	pagesourceport.Usecase
	moves []dto.Direction
}

func (u *recordingUsecase) Navigate(_ context.Context, input dto.NavigateInput) (dto.Snapshot, error) {
	u.moves = append(u.moves, input.Direction)
	return dto.Snapshot{Name: input.Name}, nil
}

func TestKeyClickMapsNavigationKeys(t *testing.T) {
	t.Parallel()
	uc := &recordingUsecase{}
	h := pagesourcein.NewInputHandler(uc, "deck")
	ctx := context.Background()

	for _, key := range []pagesourcein.NavKey{pagesourcein.KeyUp, pagesourcein.KeyPageUp, pagesourcein.KeyDown, pagesourcein.KeyPageDown} {
		if ran, err := h.KeyClick(ctx, key, false); err != nil || !ran {
			t.Fatalf("key %d: ran=%v err=%v", key, ran, err)
		}
	}
	if ran, _ := h.KeyClick(ctx, pagesourcein.KeyDown, true); ran {
		t.Fatalf("key-up must be ignored")
	}
	if ran, _ := h.KeyClick(ctx, pagesourcein.KeyOther, false); ran {
		t.Fatalf("unmapped key must be ignored")
	}
	want := []dto.Direction{dto.DirectionPrevious, dto.DirectionPrevious, dto.DirectionNext, dto.DirectionNext}
	if !reflect.DeepEqual(uc.moves, want) {
		t.Fatalf("moves = %v, want %v", uc.moves, want)
	}
}

func TestMouseWheelAndHotkeys(t *testing.T) {
	t.Parallel()
	uc := &recordingUsecase{}
	h := pagesourcein.NewInputHandler(uc, "deck")
	ctx := context.Background()

	_, _ = h.MouseWheel(ctx, 0, 120)
	_, _ = h.MouseWheel(ctx, 0, -120)
	if ran, _ := h.MouseWheel(ctx, 50, 0); ran {
		t.Fatalf("horizontal scroll must be ignored")
	}
	_, _ = h.Hotkey(ctx, dto.DirectionNext, true)
	if ran, _ := h.Hotkey(ctx, dto.DirectionNext, false); ran {
		t.Fatalf("hotkey release must be ignored")
	}
	want := []dto.Direction{dto.DirectionPrevious, dto.DirectionNext, dto.DirectionNext}
	if !reflect.DeepEqual(uc.moves, want) {
		t.Fatalf("moves = %v, want %v", uc.moves, want)
	}
}
