package database

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// QueryResult holds the results of a query execution. Every cell is already
// rendered as a string.
type QueryResult struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int64
	Duration     time.Duration
	IsSelect     bool
}

// Query executes a statement and returns structured results. Statements that
// produce rows are run with QueryContext, everything else with ExecContext.
func Query(ctx context.Context, conn *Connection, query string, args ...any) (*QueryResult, error) {
	start := time.Now()

	if returnsRows(query) {
		return executeSelect(ctx, conn, query, args, start)
	}
	return executeExec(ctx, conn, query, args, start)
}

func executeSelect(ctx context.Context, conn *Connection, query string, args []any, start time.Time) (*QueryResult, error) {
	rows, err := conn.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{
		Columns:  columns,
		Rows:     make([][]string, 0),
		IsSelect: true,
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	result.RowsAffected = int64(len(result.Rows))
	return result, nil
}

func executeExec(ctx context.Context, conn *Connection, query string, args []any, start time.Time) (*QueryResult, error) {
	res, err := conn.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Rows:     make([][]string, 0),
		Duration: time.Since(start),
	}
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	return result, nil
}

var rowKeywords = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"VALUES":  true,
	"TABLE":   true,
	"SHOW":    true,
	"EXPLAIN": true,
	"PRAGMA":  true,
}

// returnsRows guesses from the leading keyword whether a statement yields a
// result set.
func returnsRows(query string) bool {
	upper := strings.ToUpper(strings.TrimLeft(query, " \t\r\n("))
	first := upper
	if i := strings.IndexAny(upper, " \t\r\n(;"); i >= 0 {
		first = upper[:i]
	}
	if rowKeywords[first] {
		return true
	}
	return strings.Contains(upper, " RETURNING ")
}

// FormatValue renders a scanned value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return `\x` + hex.EncodeToString(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
