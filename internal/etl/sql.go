package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/BartekS5/activity-etl/pkg/models"
	mssql "github.com/microsoft/go-mssqldb"
)

// SQLServerSink stores the activity table and the watermark in SQL Server.
type SQLServerSink struct {
	DB           *sql.DB
	HistoryTable string
}

func NewSQLServerSink(db *sql.DB, historyTable string) *SQLServerSink {
	return &SQLServerSink{DB: db, HistoryTable: historyTable}
}

func (s *SQLServerSink) GetWatermark(ctx context.Context) (sql.NullTime, error) {
	var wm sql.NullTime
	query := fmt.Sprintf("SELECT MAX(updated_datetime) FROM %s", quoteMSSQL(s.HistoryTable))
	if err := s.DB.QueryRowContext(ctx, query).Scan(&wm); err != nil {
		if err == sql.ErrNoRows {
			return sql.NullTime{}, nil
		}
		return sql.NullTime{}, fmt.Errorf("error reading watermark: %w", err)
	}
	if wm.Valid {
		wm.Time = wm.Time.UTC()
	}
	return wm, nil
}

func (s *SQLServerSink) SetWatermark(ctx context.Context, ts time.Time) error {
	query := fmt.Sprintf("INSERT INTO %s (updated_datetime) VALUES (@p1)", quoteMSSQL(s.HistoryTable))
	if _, err := s.DB.ExecContext(ctx, query, ts.UTC()); err != nil {
		return fmt.Errorf("error writing watermark: %w", err)
	}
	return nil
}

// ReplaceTable drops and recreates the table, then bulk copies the rows, all
// in one transaction.
func (s *SQLServerSink) ReplaceTable(ctx context.Context, table *models.Table) (int64, error) {
	name := quoteMSSQL(table.Name)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return 0, fmt.Errorf("error dropping %s: %w", table.Name, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(name, table.Columns, mssqlColumnType, quoteMSSQL)); err != nil {
		return 0, fmt.Errorf("error creating %s: %w", table.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(name, mssql.BulkOptions{Tablock: true}, table.ColumnNames()...))
	if err != nil {
		return 0, fmt.Errorf("error preparing bulk copy: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("error copying row %d: %w", i, err)
		}
	}
	result, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("error flushing bulk copy: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		n = int64(len(table.Rows))
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.Debugf("SQL Server: replaced %s with %d rows", table.Name, n)
	return n, nil
}

func mssqlColumnType(t models.ColumnType) string {
	switch t {
	case models.Integer:
		return "BIGINT"
	case models.Float:
		return "FLOAT"
	case models.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(4000)"
	}
}

// quoteMSSQL brackets each dot-separated part of an identifier.
func quoteMSSQL(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}

func createTableSQL(name string, cols []models.Column, typeOf func(models.ColumnType) string, quote func(string) string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s NULL", quote(c.Name), typeOf(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
}
