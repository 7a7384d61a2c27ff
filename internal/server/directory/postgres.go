package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dkravets/irisvault/internal/server/migrations"
)

// PostgresRepository keeps the directory snapshot as a single JSONB row, so
// the full-snapshot semantics of the file repository carry over unchanged:
// every save replaces the whole document.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository opens the database and applies the embedded goose
// migrations.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	r := &PostgresRepository{db: db}
	if err := r.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, r.db, "."); err != nil {
		return err
	}

	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) Load(ctx context.Context) (Snapshot, error) {
	query := `SELECT data FROM directory_snapshot WHERE id = 1`

	var data []byte
	err := r.db.QueryRowContext(ctx, query).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	snapshot := Snapshot{}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("corrupt snapshot row: %w", err)
	}

	return snapshot, nil
}

func (r *PostgresRepository) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `INSERT INTO directory_snapshot (id, data, updated_at)
		 VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, data); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
