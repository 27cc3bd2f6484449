// Package db runs parameterized queries against the CRM relational store
// (PostgreSQL via lib/pq) and returns rows as ordered field mappings with
// values normalized to canonical text forms.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Querier is the query-execution contract the tool pipelines depend on.
// All user-influenced filter values must arrive through args as bound
// parameters, never interpolated into the query text.
type Querier interface {
	Run(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Executor implements Querier over database/sql. The *sql.DB pool handles
// connection acquire/release per call; no long-lived transactions.
type Executor struct {
	db *sql.DB
}

var _ Querier = (*Executor)(nil)

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*Executor, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &Executor{db: sqlDB}, nil
}

// NewExecutor wraps an existing pool, mainly for tests.
func NewExecutor(sqlDB *sql.DB) *Executor {
	return &Executor{db: sqlDB}
}

// Close releases the underlying pool.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Run executes one parameterized query and returns the full result set.
// Database errors propagate to the caller — unlike LLM failures, a DB
// failure aborts the pipeline.
func (e *Executor) Run(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	var result []Row
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}

		values := make([]any, len(columns))
		for i, v := range raw {
			values[i] = normalizeValue(v, columnTypes[i])
		}
		result = append(result, NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return result, nil
}

// normalizeValue converts driver values to the canonical forms the
// pipelines serialize: ISO-8601 dates, float64 numerics, plain strings.
// NULL in a nullable numeric column becomes 0, matching the downstream
// contract that quantity/price fields are always numbers.
func normalizeValue(v any, colType *sql.ColumnType) any {
	if v == nil {
		if isNumericType(colType) {
			return float64(0)
		}
		return nil
	}

	switch val := v.(type) {
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case []byte:
		s := string(val)
		// lib/pq hands NUMERIC/DECIMAL back as bytes.
		if isNumericType(colType) {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return s
	case int64:
		return val
	case float64:
		return val
	default:
		return val
	}
}

func isNumericType(colType *sql.ColumnType) bool {
	if colType == nil {
		return false
	}
	switch strings.ToUpper(colType.DatabaseTypeName()) {
	case "NUMERIC", "DECIMAL", "FLOAT4", "FLOAT8", "INT2", "INT4", "INT8", "MONEY":
		return true
	}
	return false
}

// Placeholders renders "$offset+1,...,$offset+n" for IN clauses. Values
// still travel as bound parameters; only the placeholder list is built
// here.
func Placeholders(n, offset int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return strings.Join(parts, ",")
}
