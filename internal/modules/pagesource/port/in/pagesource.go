package in

import (
	"context"

	"pagesource/internal/modules/pagesource/dto"
)

type Usecase interface {
	Open(ctx context.Context, input dto.OpenInput) (dto.Snapshot, error)
	Update(ctx context.Context, input dto.UpdateInput) (dto.Snapshot, error)
	Navigate(ctx context.Context, input dto.NavigateInput) (dto.Snapshot, error)
	Snapshot(ctx context.Context, name string) (dto.Snapshot, error)
	Frame(ctx context.Context, name string) (dto.Frame, error)
	Close(ctx context.Context, name string) error

	SaveProperties(ctx context.Context, input dto.SavePropertiesInput) error
	LoadProperties(ctx context.Context, name string) (dto.Properties, error)
	ListProperties(ctx context.Context) ([]dto.NamedProperties, error)
	DeleteProperties(ctx context.Context, name string) error
}
