// internal/ddl/infer.go

package ddl

import (
	"fmt"

	"xmletl/internal/sanitize"
	"xmletl/internal/value"
)

// Dialect selects the target SQL type vocabulary and identifier quoting for
// MapType, InferTableDef and the dialect.go renderers, covering Postgres, MySQL, MSSQL, and SQLite through
// one canonical path instead of per-backend builders.
type Dialect int

const (
	Postgres Dialect = iota
	MySQL
	MSSQL
	SQLite
)

// Shape selects how a schema's top-level fields become columns: Columnar is
// one column per field; Flattened is a fixed three-column shape (an
// auto-increment id, an insertion timestamp, and a single JSON `data`
// column).
type Shape int

const (
	ShapeColumnar Shape = iota
	ShapeFlattened
)

// InferTableDef derives a TableDef for schema, ready for BuildCreateTableSQL:
// typed columns with JSON for nested/array types under Columnar, or a single
// JSON `data` column under Flattened; an auto-increment primary key and an
// insertion timestamp column are added by default in both shapes.
func InferTableDef(fqn string, schema *value.Schema, shape Shape, dialect Dialect) (TableDef, error) {
	if fqn == "" {
		return TableDef{}, fmt.Errorf("ddl: table FQN must not be empty")
	}

	cols := []ColumnDef{
		{Name: "id", SQLType: mapSerialPK(dialect), PrimaryKey: true},
		{Name: "ingested_at", SQLType: mapTimestamp(dialect), Nullable: false, Default: nowExpr(dialect)},
	}

	switch shape {
	case ShapeFlattened:
		cols = append(cols, ColumnDef{Name: "data", SQLType: mapJSON(dialect), Nullable: false})

	default: // ShapeColumnar
		dedupe := sanitize.NewDeduper(columnRules(dialect))
		for _, name := range schema.Order {
			f := schema.Fields[name]
			col := dedupe.Assign(name)
			cols = append(cols, ColumnDef{
				Name:     col,
				SQLType:  MapType(dialect, f.Type, f.IsRepeatingCol()),
				Nullable: f.Nullable,
			})
		}
	}

	return TableDef{FQN: fqn, Columns: cols}, nil
}

// columnRules is the sanitize.Rules applied to top-level field names before
// they become relational column identifiers: lowercase, 63-byte cap — the
// PostgreSQL/MySQL identifier ceiling, carried across every dialect as a
// deliberate simplification.
func columnRules(dialect Dialect) sanitize.Rules {
	return sanitize.Rules{Lowercase: true, MaxLength: 63}
}

// MapType maps a lattice Type to a dialect's SQL type name. Nested/array
// types map to a JSON column type; repeating widens any leaf to the same
// JSON type too, since a repeating leaf is also stored as a JSON array for
// uniform read-back.
func MapType(dialect Dialect, t value.Type, repeating bool) string {
	if repeating || t.Kind == value.Struct || t.Kind == value.Array {
		return mapJSON(dialect)
	}
	switch t.Kind {
	case value.I32:
		return mapInt32(dialect)
	case value.I64:
		return mapInt64(dialect)
	case value.F64:
		return mapFloat(dialect)
	case value.Bool:
		return mapBool(dialect)
	case value.Date:
		return mapDate(dialect)
	case value.Timestamp:
		return mapTimestamp(dialect)
	case value.Decimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", orDefault(t.Precision, 10), orDefault(t.Scale, 2))
	default:
		return mapText(dialect)
	}
}

func orDefault(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

func mapSerialPK(d Dialect) string {
	switch d {
	case Postgres:
		return "BIGSERIAL"
	case MySQL:
		return "BIGINT AUTO_INCREMENT"
	case MSSQL:
		return "BIGINT IDENTITY(1,1)"
	default: // SQLite
		return "INTEGER"
	}
}

func mapInt32(d Dialect) string {
	if d == MSSQL {
		return "INT"
	}
	return "INTEGER"
}

func mapInt64(Dialect) string { return "BIGINT" }

func mapFloat(d Dialect) string {
	switch d {
	case Postgres, SQLite:
		return "DOUBLE PRECISION"
	case MySQL:
		return "DOUBLE"
	default: // MSSQL
		return "FLOAT"
	}
}

func mapBool(d Dialect) string {
	switch d {
	case Postgres:
		return "BOOLEAN"
	case MSSQL:
		return "BIT"
	default:
		return "BOOLEAN"
	}
}

func mapDate(Dialect) string { return "DATE" }

func mapTimestamp(d Dialect) string {
	switch d {
	case Postgres:
		return "TIMESTAMPTZ"
	case MSSQL:
		return "DATETIME2"
	default:
		return "TIMESTAMP"
	}
}

func mapText(d Dialect) string {
	if d == MSSQL {
		return "NVARCHAR(MAX)"
	}
	return "TEXT"
}

func mapJSON(d Dialect) string {
	switch d {
	case Postgres:
		return "JSONB"
	case MySQL:
		return "JSON"
	case MSSQL:
		return "NVARCHAR(MAX)" // SQL Server has no native JSON column type
	default: // SQLite
		return "TEXT"
	}
}

func nowExpr(d Dialect) string {
	switch d {
	case MSSQL:
		return "SYSUTCDATETIME()"
	case SQLite:
		return "CURRENT_TIMESTAMP"
	default:
		return "now()"
	}
}
