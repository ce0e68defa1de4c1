package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	"pagesource/internal/platform/clock"
	apperrors "pagesource/internal/platform/errors"
	"pagesource/internal/platform/slug"
)

type SourceService struct {
	runtime  *Runtime
	graphics pagesourceout.Graphics
	clock    clock.Clock
	store    pagesourceout.PropertiesStore

	mu      sync.Mutex
	sources map[string]*Source
}

func NewSourceService(
	runtime *Runtime,
	graphics pagesourceout.Graphics,
	clk clock.Clock,
	store pagesourceout.PropertiesStore,
) *SourceService {
	return &SourceService{
		runtime:  runtime,
		graphics: graphics,
		clock:    clk,
		store:    store,
		sources:  map[string]*Source{},
	}
}

// Key normalizes a source name the way the service indexes it.
func Key(name string) string {
	return slug.Make(name)
}

// Open creates a named source and runs its first load cycle. A failed first
// load leaves the source registered with nothing displayed.
func (s *SourceService) Open(_ context.Context, name string, props domain.Properties) (*Source, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: source name is required", apperrors.ErrInvalidInput)
	}
	key := Key(name)

	s.mu.Lock()
	if _, ok := s.sources[key]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSourceExists, key)
	}
	src := s.runtime.NewSource(s.graphics, s.clock)
	s.sources[key] = src
	s.mu.Unlock()

	if err := src.Update(props.Settings()); err != nil {
		return src, err
	}
	return src, nil
}

func (s *SourceService) Get(name string) (*Source, error) {
	key := Key(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[key]
	if !ok {
		return nil, fmt.Errorf("%w: source %s", apperrors.ErrNotFound, key)
	}
	return src, nil
}

func (s *SourceService) Update(_ context.Context, name string, props domain.Properties) (*Source, error) {
	src, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return src, src.Update(props.Settings())
}

func (s *SourceService) Navigate(_ context.Context, name string, d domain.Direction) (*Source, error) {
	src, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return src, src.Navigate(d)
}

// Names lists open sources in key order.
func (s *SourceService) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sources))
	for key := range s.sources {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func (s *SourceService) Close(_ context.Context, name string) error {
	key := Key(name)
	s.mu.Lock()
	src, ok := s.sources[key]
	delete(s.sources, key)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: source %s", apperrors.ErrNotFound, key)
	}
	return src.Close()
}

// CloseAll closes every open source, then the runtime.
func (s *SourceService) CloseAll() error {
	s.mu.Lock()
	sources := s.sources
	s.sources = map[string]*Source{}
	s.mu.Unlock()
	for _, src := range sources {
		_ = src.Close()
	}
	return s.runtime.Close()
}

func (s *SourceService) SaveProperties(ctx context.Context, name string, props domain.Properties) error {
	if s.store == nil {
		return fmt.Errorf("properties store is not configured")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: source name is required", apperrors.ErrInvalidInput)
	}
	return s.store.Save(ctx, Key(name), props)
}

func (s *SourceService) LoadProperties(ctx context.Context, name string) (domain.Properties, error) {
	if s.store == nil {
		return domain.Properties{}, fmt.Errorf("properties store is not configured")
	}
	return s.store.Load(ctx, Key(name))
}

func (s *SourceService) ListProperties(ctx context.Context) (map[string]domain.Properties, error) {
	if s.store == nil {
		return nil, fmt.Errorf("properties store is not configured")
	}
	return s.store.List(ctx)
}

func (s *SourceService) DeleteProperties(ctx context.Context, name string) error {
	if s.store == nil {
		return fmt.Errorf("properties store is not configured")
	}
	return s.store.Delete(ctx, Key(name))
}

// RememberPage stores the current page of an open source back into its saved
// properties, if any were saved under the same name.
func (s *SourceService) RememberPage(ctx context.Context, name string) error {
	if s.store == nil {
		return nil
	}
	src, err := s.Get(name)
	if err != nil {
		return err
	}
	props, err := s.store.Load(ctx, Key(name))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	props.PageNumber = src.Page()
	return s.store.Save(ctx, Key(name), props)
}
