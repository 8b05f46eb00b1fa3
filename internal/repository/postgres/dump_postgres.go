package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusaf/fusaf-service/internal/repository"
)

// BackupTables lists the tables a backup covers, parents before children.
var BackupTables = []string{
	"competitions",
	"preliminary_registrations",
	"individual_registrations",
	"payments",
	"notifications",
}

type tableDumper struct{ pool *pgxpool.Pool }

func NewTableDumper(pool *pgxpool.Pool) repository.TableDumper { return &tableDumper{pool: pool} }

func (d *tableDumper) Tables() []string { return slices.Clone(BackupTables) }

// DumpTable reads every row as JSON so column types need no per-table mapping.
func (d *tableDumper) DumpTable(ctx context.Context, table string) ([]map[string]any, error) {
	if err := ensurePool(d.pool); err != nil {
		return nil, err
	}
	if !slices.Contains(BackupTables, table) {
		return nil, fmt.Errorf("table %q is not part of backups", table)
	}
	ident := pgx.Identifier{table}.Sanitize()
	rows, err := getQ(ctx, d.pool).Query(ctx, `SELECT row_to_json(t)::text FROM `+ident+` t ORDER BY t.id`)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, repository.MapPgError(err)
		}
		row := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		out = append(out, row)
	}
	return out, repository.MapPgError(rows.Err())
}

var _ repository.TableDumper = (*tableDumper)(nil)
