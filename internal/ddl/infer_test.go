package ddl

import (
	"strings"
	"testing"

	"xmletl/internal/value"
)

func TestInferTableDef_ColumnarAddsIdAndTimestamp(t *testing.T) {
	schema := value.NewSchema("catalog")
	schema.Set(&value.Field{Name: "title", Type: value.Type{Kind: value.Str}})
	schema.Set(&value.Field{Name: "year", Type: value.Type{Kind: value.I32}})

	def, err := InferTableDef("public.books", schema, ShapeColumnar, Postgres)
	if err != nil {
		t.Fatalf("InferTableDef: %v", err)
	}
	if def.Columns[0].Name != "id" || !def.Columns[0].PrimaryKey {
		t.Fatalf("expected first column to be the id primary key, got %+v", def.Columns[0])
	}
	if def.Columns[1].Name != "ingested_at" {
		t.Fatalf("expected second column to be ingested_at, got %+v", def.Columns[1])
	}
	if def.Columns[3].Name != "year" || def.Columns[3].SQLType != "INTEGER" {
		t.Fatalf("expected year column of type INTEGER, got %+v", def.Columns[3])
	}
}

func TestInferTableDef_FlattenedHasSingleDataColumn(t *testing.T) {
	schema := value.NewSchema("catalog")
	schema.Set(&value.Field{Name: "anything", Type: value.Type{Kind: value.Str}})

	def, err := InferTableDef("t", schema, ShapeFlattened, MySQL)
	if err != nil {
		t.Fatalf("InferTableDef: %v", err)
	}
	if len(def.Columns) != 3 {
		t.Fatalf("expected exactly 3 columns (id, ingested_at, data), got %d", len(def.Columns))
	}
	if def.Columns[2].Name != "data" || def.Columns[2].SQLType != "JSON" {
		t.Fatalf("expected a JSON 'data' column, got %+v", def.Columns[2])
	}
}

func TestInferTableDef_RepeatingFieldWidensToJSON(t *testing.T) {
	schema := value.NewSchema("catalog")
	schema.Set(&value.Field{Name: "tag", Type: value.Type{Kind: value.Str}, Repeating: true})

	def, err := InferTableDef("t", schema, ShapeColumnar, Postgres)
	if err != nil {
		t.Fatalf("InferTableDef: %v", err)
	}
	tagCol := def.Columns[2]
	if tagCol.SQLType != "JSONB" {
		t.Fatalf("expected repeating field to widen to JSONB, got %s", tagCol.SQLType)
	}
}

func TestBuildCreateTableSQLDialect_QuotingPerDialect(t *testing.T) {
	def := TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT", Nullable: false}}}

	pg, err := BuildCreateTableSQLDialect(Postgres, def)
	if err != nil || !strings.Contains(pg, `"id"`) {
		t.Fatalf("expected double-quoted Postgres identifier, got %q err=%v", pg, err)
	}
	my, err := BuildCreateTableSQLDialect(MySQL, def)
	if err != nil || !strings.Contains(my, "`id`") {
		t.Fatalf("expected backtick-quoted MySQL identifier, got %q err=%v", my, err)
	}
	ms, err := BuildCreateTableSQLDialect(MSSQL, def)
	if err != nil || !strings.Contains(ms, "[id]") {
		t.Fatalf("expected bracket-quoted MSSQL identifier, got %q err=%v", ms, err)
	}
}

func TestTruncateSQL_SQLiteFallsBackToDelete(t *testing.T) {
	got := TruncateSQL(SQLite, "t")
	if got != "DELETE FROM \"t\";" {
		t.Fatalf("got %q", got)
	}
	got = TruncateSQL(Postgres, "t")
	if got != `TRUNCATE TABLE "t";` {
		t.Fatalf("got %q", got)
	}
}

func TestPlaceholder_PostgresUsesDollarSyntax(t *testing.T) {
	if Placeholder(Postgres, 3) != "$3" {
		t.Fatalf("expected $3")
	}
	if Placeholder(MySQL, 3) != "?" {
		t.Fatalf("expected ?")
	}
}
