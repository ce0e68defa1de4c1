package usecase

import (
	"context"
	"sort"

	"pagesource/internal/modules/pagesource/domain"
	"pagesource/internal/modules/pagesource/dto"
	pagesourcein "pagesource/internal/modules/pagesource/port/in"
	"pagesource/internal/modules/pagesource/service"
)

type Interactor struct {
	svc *service.SourceService
}

func NewInteractor(svc *service.SourceService) pagesourcein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Open(ctx context.Context, input dto.OpenInput) (dto.Snapshot, error) {
	src, err := i.svc.Open(ctx, input.Name, toDomain(input.Properties))
	if err != nil {
		return dto.Snapshot{}, err
	}
	return snapshot(service.Key(input.Name), src), nil
}

func (i *Interactor) Update(ctx context.Context, input dto.UpdateInput) (dto.Snapshot, error) {
	src, err := i.svc.Update(ctx, input.Name, toDomain(input.Properties))
	if err != nil {
		return dto.Snapshot{}, err
	}
	return snapshot(service.Key(input.Name), src), nil
}

func (i *Interactor) Navigate(ctx context.Context, input dto.NavigateInput) (dto.Snapshot, error) {
	src, err := i.svc.Navigate(ctx, input.Name, domain.Direction(input.Direction))
	if err != nil {
		return dto.Snapshot{}, err
	}
	return snapshot(service.Key(input.Name), src), nil
}

func (i *Interactor) Snapshot(_ context.Context, name string) (dto.Snapshot, error) {
	src, err := i.svc.Get(name)
	if err != nil {
		return dto.Snapshot{}, err
	}
	return snapshot(service.Key(name), src), nil
}

// Frame returns what a render tick should draw for the named source.
func (i *Interactor) Frame(_ context.Context, name string) (dto.Frame, error) {
	src, err := i.svc.Get(name)
	if err != nil {
		return dto.Frame{}, err
	}
	tex := src.Texture()
	if tex == nil {
		return dto.Frame{}, nil
	}
	return dto.Frame{Width: src.Width(), Height: src.Height(), Texture: tex}, nil
}

func (i *Interactor) Close(ctx context.Context, name string) error {
	if err := i.svc.RememberPage(ctx, name); err != nil {
		return err
	}
	return i.svc.Close(ctx, name)
}

func (i *Interactor) SaveProperties(ctx context.Context, input dto.SavePropertiesInput) error {
	return i.svc.SaveProperties(ctx, input.Name, toDomain(input.Properties))
}

func (i *Interactor) LoadProperties(ctx context.Context, name string) (dto.Properties, error) {
	props, err := i.svc.LoadProperties(ctx, name)
	if err != nil {
		return dto.Properties{}, err
	}
	return fromDomain(props), nil
}

func (i *Interactor) ListProperties(ctx context.Context) ([]dto.NamedProperties, error) {
	items, err := i.svc.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NamedProperties, 0, len(items))
	for name, props := range items {
		out = append(out, dto.NamedProperties{Name: name, Properties: fromDomain(props)})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (i *Interactor) DeleteProperties(ctx context.Context, name string) error {
	return i.svc.DeleteProperties(ctx, name)
}

func snapshot(name string, src *service.Source) dto.Snapshot {
	settings := src.Settings()
	stats := src.Stats()
	return dto.Snapshot{
		Name:       name,
		FilePath:   settings.FilePath,
		BrowseDir:  settings.BrowseDir(),
		Page:       src.Page(),
		Width:      src.Width(),
		Height:     src.Height(),
		HasTexture: src.Texture() != nil,
		Stats: dto.Stats{
			Cycles:            stats.Cycles,
			EngineRuns:        stats.EngineRuns,
			TexturesCreated:   stats.TexturesCreated,
			TexturesUpdated:   stats.TexturesUpdated,
			TexturesDestroyed: stats.TexturesDestroyed,
			LastRendered:      stats.LastRendered,
			LastCycle:         stats.LastCycle,
		},
	}
}

func toDomain(p dto.Properties) domain.Properties {
	return domain.Properties{
		FilePath:           p.FilePath,
		PageNumber:         p.PageNumber,
		OverridePageSize:   p.OverridePageSize,
		OverrideWidth:      p.OverrideWidth,
		OverrideHeight:     p.OverrideHeight,
		OverrideFitToPage:  p.OverrideFitToPage,
		OverrideDPIEnabled: p.OverrideDPIEnabled,
		OverrideDPI:        p.OverrideDPI,
	}
}

func fromDomain(p domain.Properties) dto.Properties {
	return dto.Properties{
		FilePath:           p.FilePath,
		PageNumber:         p.PageNumber,
		OverridePageSize:   p.OverridePageSize,
		OverrideWidth:      p.OverrideWidth,
		OverrideHeight:     p.OverrideHeight,
		OverrideFitToPage:  p.OverrideFitToPage,
		OverrideDPIEnabled: p.OverrideDPIEnabled,
		OverrideDPI:        p.OverrideDPI,
	}
}
