package in

import (
	"context"

	"pagesource/internal/modules/pagesource/dto"
	pagesourcein "pagesource/internal/modules/pagesource/port/in"
)

type CLIHandler struct {
	usecase pagesourcein.Usecase
}

func NewCLIHandler(usecase pagesourcein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Open(ctx context.Context, name string, props dto.Properties) (dto.Snapshot, error) {
	return h.usecase.Open(ctx, dto.OpenInput{Name: name, Properties: props})
}

func (h CLIHandler) Update(ctx context.Context, name string, props dto.Properties) (dto.Snapshot, error) {
	return h.usecase.Update(ctx, dto.UpdateInput{Name: name, Properties: props})
}

func (h CLIHandler) Navigate(ctx context.Context, name string, direction dto.Direction) (dto.Snapshot, error) {
	return h.usecase.Navigate(ctx, dto.NavigateInput{Name: name, Direction: direction})
}

func (h CLIHandler) Snapshot(ctx context.Context, name string) (dto.Snapshot, error) {
	return h.usecase.Snapshot(ctx, name)
}

func (h CLIHandler) Frame(ctx context.Context, name string) (dto.Frame, error) {
	return h.usecase.Frame(ctx, name)
}

func (h CLIHandler) Close(ctx context.Context, name string) error {
	return h.usecase.Close(ctx, name)
}

func (h CLIHandler) SaveProperties(ctx context.Context, name string, props dto.Properties) error {
	return h.usecase.SaveProperties(ctx, dto.SavePropertiesInput{Name: name, Properties: props})
}

func (h CLIHandler) LoadProperties(ctx context.Context, name string) (dto.Properties, error) {
	return h.usecase.LoadProperties(ctx, name)
}

func (h CLIHandler) ListProperties(ctx context.Context) ([]dto.NamedProperties, error) {
	return h.usecase.ListProperties(ctx)
}

func (h CLIHandler) DeleteProperties(ctx context.Context, name string) error {
	return h.usecase.DeleteProperties(ctx, name)
}
