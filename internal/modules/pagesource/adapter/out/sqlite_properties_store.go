package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	"pagesource/internal/platform/clock"
	apperrors "pagesource/internal/platform/errors"

	_ "modernc.org/sqlite"
)

type SQLitePropertiesStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSQLitePropertiesStore(dbPath string, clk clock.Clock) (*SQLitePropertiesStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	store := &SQLitePropertiesStore{db: db, clock: clk}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

var _ pagesourceout.PropertiesStore = (*SQLitePropertiesStore)(nil)

func (s *SQLitePropertiesStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS source_properties (
  name TEXT PRIMARY KEY,
  file_path TEXT NOT NULL,
  page_number INTEGER NOT NULL,
  override_page_size INTEGER NOT NULL,
  override_width INTEGER NOT NULL,
  override_height INTEGER NOT NULL,
  override_fit_to_page INTEGER NOT NULL,
  override_dpi_enabled INTEGER NOT NULL,
  override_dpi INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create source_properties table: %w", err)
	}
	return nil
}

func (s *SQLitePropertiesStore) Close() error {
	return s.db.Close()
}

func (s *SQLitePropertiesStore) Save(ctx context.Context, name string, props domain.Properties) error {
	const stmt = `
INSERT INTO source_properties (name, file_path, page_number, override_page_size, override_width, override_height, override_fit_to_page, override_dpi_enabled, override_dpi, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  file_path=excluded.file_path,
  page_number=excluded.page_number,
  override_page_size=excluded.override_page_size,
  override_width=excluded.override_width,
  override_height=excluded.override_height,
  override_fit_to_page=excluded.override_fit_to_page,
  override_dpi_enabled=excluded.override_dpi_enabled,
  override_dpi=excluded.override_dpi,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		name,
		props.FilePath,
		props.PageNumber,
		props.OverridePageSize,
		props.OverrideWidth,
		props.OverrideHeight,
		props.OverrideFitToPage,
		props.OverrideDPIEnabled,
		props.OverrideDPI,
		s.clock.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert properties %s: %w", name, err)
	}
	return nil
}

const selectProperties = `
SELECT name, file_path, page_number, override_page_size, override_width, override_height, override_fit_to_page, override_dpi_enabled, override_dpi
FROM source_properties`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperties(row rowScanner) (string, domain.Properties, error) {
	var (
		name  string
		props domain.Properties
	)
	err := row.Scan(
		&name,
		&props.FilePath,
		&props.PageNumber,
		&props.OverridePageSize,
		&props.OverrideWidth,
		&props.OverrideHeight,
		&props.OverrideFitToPage,
		&props.OverrideDPIEnabled,
		&props.OverrideDPI,
	)
	return name, props, err
}

func (s *SQLitePropertiesStore) Load(ctx context.Context, name string) (domain.Properties, error) {
	row := s.db.QueryRowContext(ctx, selectProperties+` WHERE name = ?`, name)
	_, props, err := scanProperties(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Properties{}, fmt.Errorf("%w: properties %s", apperrors.ErrNotFound, name)
		}
		return domain.Properties{}, fmt.Errorf("load properties %s: %w", name, err)
	}
	return props, nil
}

func (s *SQLitePropertiesStore) List(ctx context.Context) (map[string]domain.Properties, error) {
	rows, err := s.db.QueryContext(ctx, selectProperties+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	out := map[string]domain.Properties{}
	for rows.Next() {
		name, props, err := scanProperties(rows)
		if err != nil {
			return nil, fmt.Errorf("scan properties: %w", err)
		}
		out[name] = props
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}

func (s *SQLitePropertiesStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM source_properties WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete properties %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: properties %s", apperrors.ErrNotFound, name)
	}
	return nil
}
