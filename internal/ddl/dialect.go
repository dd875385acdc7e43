package ddl

import (
	"fmt"
	"strings"
)

// QuoteIdent quotes a single identifier segment for dialect: double-quote
// with doubled-quote escaping for Postgres/SQLite, generalized across
// backtick- and bracket-quoting dialects for MySQL/MSSQL.
func QuoteIdent(dialect Dialect, id string) string {
	switch dialect {
	case MySQL:
		return "`" + strings.ReplaceAll(id, "`", "``") + "`"
	case MSSQL:
		return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
	default: // Postgres, SQLite
		return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
	}
}

// QuoteFQN quotes a possibly schema-qualified name like "public.events" into
// its dialect-quoted form, e.g. `"public"."events"`.
func QuoteFQN(dialect Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, QuoteIdent(dialect, p))
		}
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQLDialect renders a dialect-quoted
// CREATE TABLE IF NOT EXISTS statement for t, generalized across dialects.
func BuildCreateTableSQLDialect(dialect Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(dialect, name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(dialect, name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		QuoteFQN(dialect, fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// TruncateSQL renders the Overwrite-mode destination-clearing statement for
// dialect: SQL TRUNCATE, or the equivalent DELETE. SQLite has no TRUNCATE
// statement, so it falls back to DELETE FROM.
func TruncateSQL(dialect Dialect, fqn string) string {
	quoted := QuoteFQN(dialect, fqn)
	if dialect == SQLite {
		return "DELETE FROM " + quoted + ";"
	}
	return "TRUNCATE TABLE " + quoted + ";"
}

// Placeholder renders the positional-parameter marker for dialect at
// 1-based position n, used when building parameterized INSERT statements:
// Postgres uses $n, MySQL/SQLite/MSSQL use ? (MSSQL also accepts @pN, but
// database/sql's driver rewrites ? for us).
func Placeholder(dialect Dialect, n int) string {
	if dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
