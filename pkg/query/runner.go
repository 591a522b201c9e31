package query

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	// Snowflake driver
	_ "github.com/snowflakedb/gosnowflake"

	"github.com/stellans/sheetsync/pkg/errors"
	"github.com/stellans/sheetsync/pkg/logger"
)

// driverName is the database/sql driver registered by gosnowflake.
const driverName = "snowflake"

// dateLayouts are the formats tried when coercing date-looking strings.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Runner executes one SQL statement per call against the warehouse. A fresh
// connection is opened for each call and always closed before returning, so
// no connection outlives a single query.
type Runner struct {
	driver string
	dsn    string
	log    *zap.Logger
}

// NewRunner creates a Runner from the opaque connection parameter mapping.
func NewRunner(params map[string]string) *Runner {
	return &Runner{
		driver: driverName,
		dsn:    buildDSN(params),
		log:    logger.With(zap.String("component", "query-runner")),
	}
}

// Run executes sqlText verbatim and materializes the full result set.
func (r *Runner) Run(ctx context.Context, sqlText string) (*Table, error) {
	db, err := sql.Open(r.driver, r.dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open warehouse connection")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "query execution failed")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to read result columns")
	}

	table := &Table{
		Columns: make([]Column, len(names)),
	}
	for i, name := range names {
		table.Columns[i] = Column{Name: name, Type: TypeText}
	}

	for rows.Next() {
		values := make([]any, len(names))
		scanTargets := make([]any, len(names))
		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to scan result row")
		}

		for i, v := range values {
			values[i] = coerceValue(v)
		}

		table.Rows = append(table.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to read result set")
	}

	inferColumnTypes(table)

	r.log.Debug("query executed",
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumCols()))

	return table, nil
}

// buildDSN builds a Snowflake connection string from the opaque parameter
// mapping. Format: user:password@account/database/schema?k=v&...
// The five positional keys are lifted out; every other key passes through as
// a query parameter, sorted so the DSN is deterministic.
func buildDSN(params map[string]string) string {
	positional := map[string]bool{
		"user":     true,
		"password": true,
		"account":  true,
		"database": true,
		"schema":   true,
	}

	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		params["user"], params["password"], params["account"],
		params["database"], params["schema"])

	extra := make([]string, 0, len(params))
	for k, v := range params {
		if !positional[k] {
			extra = append(extra, fmt.Sprintf("%s=%s", k, url.QueryEscape(v)))
		}
	}
	sort.Strings(extra)

	if len(extra) > 0 {
		dsn = dsn + "?" + strings.Join(extra, "&")
	}

	return dsn
}

// coerceValue applies the column typing policy: numeric-looking strings are
// coerced to numbers, date-looking strings are parsed to time.Time,
// driver-native typed values pass through untouched.
func coerceValue(v any) any {
	var s string

	switch value := v.(type) {
	case []byte:
		s = string(value)
	case string:
		s = value
	default:
		return v
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}

	return s
}

// inferColumnTypes derives each column's type from its first non-nil value.
func inferColumnTypes(t *Table) {
	for col := range t.Columns {
		for _, row := range t.Rows {
			if row[col] == nil {
				continue
			}

			switch row[col].(type) {
			case int64:
				t.Columns[col].Type = TypeInteger
			case float64:
				t.Columns[col].Type = TypeFloat
			case bool:
				t.Columns[col].Type = TypeBool
			case time.Time:
				t.Columns[col].Type = TypeTime
			default:
				t.Columns[col].Type = TypeText
			}
			break
		}
	}
}
