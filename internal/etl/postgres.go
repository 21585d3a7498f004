package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is the subset of *pgxpool.Pool used by PostgresSink.
type PgxConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSink stores the activity table and the watermark in PostgreSQL.
type PostgresSink struct {
	pool         PgxConn
	historyTable string
}

func NewPostgresSink(pool PgxConn, historyTable string) *PostgresSink {
	return &PostgresSink{pool: pool, historyTable: historyTable}
}

func (s *PostgresSink) GetWatermark(ctx context.Context) (sql.NullTime, error) {
	query := "SELECT MAX(updated_datetime) FROM " + pgx.Identifier{s.historyTable}.Sanitize()

	var ts *time.Time
	if err := s.pool.QueryRow(ctx, query).Scan(&ts); err != nil {
		return sql.NullTime{}, fmt.Errorf("error reading watermark: %w", err)
	}
	if ts == nil {
		return sql.NullTime{}, nil
	}
	return sql.NullTime{Time: ts.UTC(), Valid: true}, nil
}

func (s *PostgresSink) SetWatermark(ctx context.Context, ts time.Time) error {
	query := "INSERT INTO " + pgx.Identifier{s.historyTable}.Sanitize() + " (updated_datetime) VALUES ($1)"
	if _, err := s.pool.Exec(ctx, query, ts.UTC()); err != nil {
		return fmt.Errorf("error writing watermark: %w", err)
	}
	return nil
}

// ReplaceTable drops and recreates the table and loads the rows with COPY,
// all in one transaction.
func (s *PostgresSink) ReplaceTable(ctx context.Context, table *models.Table) (n int64, err error) {
	ident := pgx.Identifier{table.Name}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("error dropping %s: %w", table.Name, err)
	}
	create := createTableSQL(ident.Sanitize(), table.Columns, pgColumnType, func(c string) string {
		return pgx.Identifier{c}.Sanitize()
	})
	if _, err = tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("error creating %s: %w", table.Name, err)
	}

	n, err = tx.CopyFrom(ctx, ident, table.ColumnNames(), pgx.CopyFromRows(table.Rows))
	if err != nil {
		return 0, fmt.Errorf("error copying rows into %s: %w", table.Name, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	logger.Debugf("Postgres: replaced %s with %d rows", table.Name, n)
	return n, nil
}

func pgColumnType(t models.ColumnType) string {
	switch t {
	case models.Integer:
		return "BIGINT"
	case models.Float:
		return "DOUBLE PRECISION"
	case models.Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
