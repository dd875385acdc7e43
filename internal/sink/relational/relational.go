// Package relational implements a relational-database sink: typed
// columns (JSON column type for nested/array types) or a single JSON `data`
// column under the flattened shape, with an auto-increment primary key and
// insertion timestamp added by default, and TRUNCATE used for Overwrite
// mode. Postgres uses a pgxpool+CopyFrom insert path; MySQL, MSSQL, and
// SQLite are handled generically via database/sql with the
// go-sql-driver/mysql, microsoft/go-mssqldb, and modernc.org/sqlite drivers.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"xmletl/internal/ddl"
	"xmletl/internal/sanitize"
	"xmletl/internal/sink"
	"xmletl/internal/sink/coerce"
	"xmletl/internal/value"
	"xmletl/internal/xlog"
)

// Config configures a relational Sink.
type Config struct {
	DSN     string
	Table   string // fully-qualified, e.g. "public.books"
	Dialect ddl.Dialect
	Shape   sink.Shape
}

func driverName(d ddl.Dialect) string {
	switch d {
	case ddl.MySQL:
		return "mysql"
	case ddl.MSSQL:
		return "sqlserver"
	case ddl.SQLite:
		return "sqlite"
	default:
		return ""
	}
}

// Sink implements sink.Sink over a relational database. Postgres uses a
// pgxpool.Pool and CopyFrom for the insert fast path; every other dialect
// uses database/sql with a parameterized batch INSERT.
type Sink struct {
	cfg     Config
	pgPool  *pgxpool.Pool // non-nil only for Dialect == ddl.Postgres
	db      *sql.DB       // non-nil for every other dialect
	columns []string      // sanitized column names, in schema order
	dedupe  *sanitize.Deduper
	schema  *value.Schema
}

// NewSink opens a connection to cfg.DSN for cfg.Dialect.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	s := &Sink{cfg: cfg}
	if cfg.Dialect == ddl.Postgres {
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("relational: pgxpool: %w", err)
		}
		s.pgPool = pool
		return s, nil
	}

	db, err := sql.Open(driverName(cfg.Dialect), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("relational: open %s: %w", driverName(cfg.Dialect), err)
	}
	s.db = db
	return s, nil
}

func (s *Sink) EnsureDestination(ctx context.Context, schema *value.Schema, mode sink.Mode) error {
	s.schema = schema

	shape := ddl.ShapeColumnar
	if s.cfg.Shape == sink.Flattened {
		shape = ddl.ShapeFlattened
	}
	def, err := ddl.InferTableDef(s.cfg.Table, schema, shape, s.cfg.Dialect)
	if err != nil {
		return fmt.Errorf("relational: infer table: %w", err)
	}

	create, err := ddl.BuildCreateTableSQLDialect(s.cfg.Dialect, def)
	if err != nil {
		return fmt.Errorf("relational: build create table: %w", err)
	}
	if err := s.exec(ctx, create); err != nil {
		return fmt.Errorf("relational: create table: %w", err)
	}

	if mode == sink.Overwrite {
		if err := s.exec(ctx, ddl.TruncateSQL(s.cfg.Dialect, s.cfg.Table)); err != nil {
			return fmt.Errorf("relational: truncate: %w", err)
		}
	}

	// Remember the generated/sanitized column order (skip id/ingested_at,
	// the two sink-managed columns) so WriteBatch stays aligned with what
	// EnsureDestination actually created.
	s.columns = nil
	for _, c := range def.Columns {
		if c.Name == "id" || c.Name == "ingested_at" {
			continue
		}
		s.columns = append(s.columns, c.Name)
	}

	if s.cfg.Shape != sink.Flattened {
		s.dedupe = sanitize.NewDeduper(sanitize.Rules{Lowercase: true, MaxLength: 63})
		for _, name := range schema.Order {
			s.dedupe.Assign(name)
		}
	}

	return nil
}

func (s *Sink) exec(ctx context.Context, stmt string) error {
	if s.pgPool != nil {
		_, err := s.pgPool.Exec(ctx, stmt)
		return err
	}
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *Sink) WriteBatch(ctx context.Context, records []sink.Record) (int64, int64, error) {
	rows := make([][]any, 0, len(records))
	var coercionErrors int64

	for _, r := range records {
		row, ok := s.buildRow(r, &coercionErrors)
		if !ok {
			coercionErrors++
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, coercionErrors, nil
	}

	if s.pgPool != nil {
		n, err := s.pgPool.CopyFrom(ctx, splitFQN(s.cfg.Table), s.columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, coercionErrors, fmt.Errorf("relational: copy batch: %w", err)
		}
		return n, coercionErrors, nil
	}

	n, err := s.insertBatch(ctx, rows)
	if err != nil {
		return 0, coercionErrors, fmt.Errorf("relational: insert batch: %w", err)
	}
	return n, coercionErrors, nil
}

// buildRow builds one row in s.columns order. Under the flattened shape
// the row is always the single-column {data: json}; under columnar, each
// column's value is coerced per the schema field's declared type,
// Struct/repeating fields serialized to JSON for the JSON-typed column.
func (s *Sink) buildRow(r sink.Record, coercionErrors *int64) ([]any, bool) {
	if s.cfg.Shape == sink.Flattened {
		b, err := coerce.JSON(r.Value)
		if err != nil {
			return nil, false
		}
		return []any{string(b)}, true
	}

	f, ok := s.schema.Get(r.Name)
	if !ok {
		return nil, false
	}
	col, _ := s.dedupe.ColumnOf(r.Name)

	row := make([]any, len(s.columns))
	for i, c := range s.columns {
		if c != col {
			row[i] = nil
			continue
		}
		if f.Type.Kind == value.Struct || f.IsRepeatingCol() {
			b, err := coerce.JSON(r.Value)
			if err != nil {
				*coercionErrors++
				row[i] = nil
				continue
			}
			row[i] = string(b)
			continue
		}
		cell, ok := coerce.Cell(r.Value, f.Type)
		if !ok {
			*coercionErrors++
			row[i] = nil
			continue
		}
		row[i] = cell
	}
	return row, true
}

// insertBatch builds and executes one parameterized multi-row INSERT for
// the non-Postgres dialects.
func (s *Sink) insertBatch(ctx context.Context, rows [][]any) (int64, error) {
	quotedCols := make([]string, len(s.columns))
	for i, c := range s.columns {
		quotedCols[i] = ddl.QuoteIdent(s.cfg.Dialect, c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", ddl.QuoteFQN(s.cfg.Dialect, s.cfg.Table), strings.Join(quotedCols, ", "))

	args := make([]any, 0, len(rows)*len(s.columns))
	n := 1
	for ri, row := range rows {
		if ri > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for ci, v := range row {
			if ci > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(ddl.Placeholder(s.cfg.Dialect, n))
			n++
			args = append(args, v)
		}
		sb.WriteString(")")
	}

	res, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		xlog.Warnf("relational: RowsAffected unsupported by driver, assuming %d", len(rows))
		return int64(len(rows)), nil
	}
	return affected, nil
}

func (s *Sink) Close(ctx context.Context) error {
	if s.pgPool != nil {
		s.pgPool.Close()
		return nil
	}
	return s.db.Close()
}

func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

var _ sink.Sink = (*Sink)(nil)
