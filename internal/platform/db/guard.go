package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// identPattern restricts table/column/constraint names interpolated into DDL.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ColumnInfo describes a column as reported by information_schema.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// ForeignKey declares a referential-integrity constraint the Guard must hold.
type ForeignKey struct {
	Constraint string
	Table      string
	Column     string
	RefTable   string
	RefColumn  string
}

// UniqueKey declares a uniqueness constraint the Guard must hold.
type UniqueKey struct {
	Constraint string
	Table      string
	Column     string
}

// ReportingUniqueKeys are the uniqueness constraints for the reporting schema.
var ReportingUniqueKeys = []UniqueKey{
	{Constraint: "uq_patient_code", Table: "patient", Column: "patient_code"},
}

// ReportingForeignKeys are the referential-integrity constraints for the
// reporting schema. Ordered parent-first so a fresh database converges in a
// single pass.
var ReportingForeignKeys = []ForeignKey{
	{Constraint: "fk_sample_patient", Table: "sample", Column: "patient_id", RefTable: "patient", RefColumn: "id"},
	{Constraint: "fk_lab_test_sample", Table: "lab_test", Column: "sample_id", RefTable: "sample", RefColumn: "id"},
	{Constraint: "fk_treatment_patient", Table: "treatment", Column: "patient_id", RefTable: "patient", RefColumn: "id"},
}

// Guard applies the uniqueness and foreign-key constraints that the raw bulk
// import leaves out. Before adding a foreign key it inspects both column
// types via information_schema and rewrites the referencing column to the
// referenced column's type when they differ — the import feed has shipped
// patient identifiers as text more than once. Every step is a no-op when the
// schema is already aligned, so Apply can be re-run at any time.
type Guard struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewGuard(pool *pgxpool.Pool, logger zerolog.Logger) *Guard {
	return &Guard{pool: pool, log: logger}
}

// Apply enforces all reporting-schema constraints. It returns the number of
// constraints actually added. Violating data surfaces as an error for the
// operator; nothing is auto-repaired beyond column-type alignment.
func (g *Guard) Apply(ctx context.Context) (int, error) {
	added := 0
	for _, uq := range ReportingUniqueKeys {
		changed, err := g.EnsureUnique(ctx, uq)
		if err != nil {
			return added, err
		}
		if changed {
			added++
		}
	}
	for _, fk := range ReportingForeignKeys {
		changed, err := g.EnsureForeignKey(ctx, fk)
		if err != nil {
			return added, err
		}
		if changed {
			added++
		}
	}
	return added, nil
}

// TableColumns lists the columns of a table in the public schema.
func (g *Guard) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("inspect columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("scan column metadata: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column metadata: %w", err)
	}
	return cols, nil
}

// ColumnType returns the information_schema data_type of a column, or "" when
// the column does not exist.
func (g *Guard) ColumnType(ctx context.Context, table, column string) (string, error) {
	cols, err := g.TableColumns(ctx, table)
	if err != nil {
		return "", err
	}
	for _, c := range cols {
		if c.Name == column {
			return c.DataType, nil
		}
	}
	return "", nil
}

func (g *Guard) constraintExists(ctx context.Context, table, constraint string) (bool, error) {
	var n int
	err := g.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.table_constraints
		WHERE table_schema = 'public' AND table_name = $1 AND constraint_name = $2`,
		table, constraint).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check constraint %s on %s: %w", constraint, table, err)
	}
	return n > 0, nil
}

// EnsureUnique adds the uniqueness constraint unless it already exists.
func (g *Guard) EnsureUnique(ctx context.Context, uq UniqueKey) (bool, error) {
	if err := checkIdents(uq.Constraint, uq.Table, uq.Column); err != nil {
		return false, err
	}
	exists, err := g.constraintExists(ctx, uq.Table, uq.Constraint)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	_, err = g.pool.Exec(ctx, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", uq.Table, uq.Constraint, uq.Column))
	if err != nil {
		return false, fmt.Errorf("add unique constraint %s on %s(%s): %w", uq.Constraint, uq.Table, uq.Column, err)
	}
	g.log.Info().Str("table", uq.Table).Str("constraint", uq.Constraint).Msg("unique constraint added")
	return true, nil
}

// EnsureForeignKey adds the foreign key unless it already exists. When the
// referencing column's type differs from the referenced column's, the
// referencing column is rewritten first so constraint creation cannot fail on
// a type mismatch.
func (g *Guard) EnsureForeignKey(ctx context.Context, fk ForeignKey) (bool, error) {
	if err := checkIdents(fk.Constraint, fk.Table, fk.Column, fk.RefTable, fk.RefColumn); err != nil {
		return false, err
	}
	exists, err := g.constraintExists(ctx, fk.Table, fk.Constraint)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	colType, err := g.ColumnType(ctx, fk.Table, fk.Column)
	if err != nil {
		return false, err
	}
	if colType == "" {
		return false, fmt.Errorf("column %s.%s does not exist", fk.Table, fk.Column)
	}
	refType, err := g.ColumnType(ctx, fk.RefTable, fk.RefColumn)
	if err != nil {
		return false, err
	}
	if refType == "" {
		return false, fmt.Errorf("referenced column %s.%s does not exist", fk.RefTable, fk.RefColumn)
	}

	if !TypesAligned(colType, refType) {
		g.log.Warn().
			Str("table", fk.Table).
			Str("column", fk.Column).
			Str("have", colType).
			Str("want", refType).
			Msg("column type mismatch, rewriting before adding foreign key")
		if err := g.AlignColumn(ctx, fk.Table, fk.Column, refType); err != nil {
			return false, err
		}
	}

	_, err = g.pool.Exec(ctx, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		fk.Table, fk.Constraint, fk.Column, fk.RefTable, fk.RefColumn))
	if err != nil {
		return false, fmt.Errorf("add foreign key %s on %s(%s): %w", fk.Constraint, fk.Table, fk.Column, err)
	}
	g.log.Info().Str("table", fk.Table).Str("constraint", fk.Constraint).Msg("foreign key added")
	return true, nil
}

// AlignColumn rewrites a column to the given information_schema data type,
// casting existing values.
func (g *Guard) AlignColumn(ctx context.Context, table, column, dataType string) error {
	ddl, ok := DDLType(dataType)
	if !ok {
		return fmt.Errorf("cannot align %s.%s: unsupported target type %q", table, column, dataType)
	}
	_, err := g.pool.Exec(ctx, fmt.Sprintf(
		"ALTER TABLE %s ALTER COLUMN %s TYPE %s USING (%s::%s)", table, column, ddl, column, ddl))
	if err != nil {
		return fmt.Errorf("alter %s.%s to %s: %w", table, column, ddl, err)
	}
	return nil
}

// TypesAligned reports whether two information_schema data types are the same
// after normalizing the integer aliases Postgres reports.
func TypesAligned(a, b string) bool {
	return normalizeType(a) == normalizeType(b)
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "bigint", "int8", "bigserial":
		return "bigint"
	case "integer", "int", "int4", "serial":
		return "integer"
	case "smallint", "int2", "smallserial":
		return "smallint"
	case "character varying", "varchar":
		return "character varying"
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}

// DDLType maps an information_schema data type to the type name usable in
// ALTER COLUMN. Only the types the reporting schema can reasonably need are
// supported.
func DDLType(dataType string) (string, bool) {
	switch normalizeType(dataType) {
	case "bigint":
		return "BIGINT", true
	case "integer":
		return "INTEGER", true
	case "smallint":
		return "SMALLINT", true
	case "text":
		return "TEXT", true
	case "character varying":
		return "VARCHAR", true
	case "date":
		return "DATE", true
	default:
		return "", false
	}
}

func checkIdents(idents ...string) error {
	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return fmt.Errorf("invalid SQL identifier: %q", id)
		}
	}
	return nil
}
