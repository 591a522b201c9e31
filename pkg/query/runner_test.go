package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stellans/sheetsync/pkg/errors"
)

// mockRunner wires a Runner to a sqlmock-backed driver. Each test needs a
// unique DSN because sqlmock registers the connection globally.
func mockRunner(t *testing.T, dsn string) (*Runner, sqlmock.Sqlmock) {
	t.Helper()

	_, mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)

	runner := &Runner{
		driver: "sqlmock",
		dsn:    dsn,
		log:    zap.NewNop(),
	}

	return runner, mock
}

func TestRunMaterializesRows(t *testing.T) {
	runner, mock := mockRunner(t, "run_materializes_rows")

	mock.ExpectQuery("SELECT region, revenue, as_of FROM sales").
		WillReturnRows(sqlmock.NewRows([]string{"REGION", "REVENUE", "AS_OF"}).
			AddRow("emea", "1234.5", "2024-03-01").
			AddRow("apac", "987", "2024-03-01 08:30:00"))
	mock.ExpectClose()

	table, err := runner.Run(context.Background(), "SELECT region, revenue, as_of FROM sales")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, 3, table.NumCols())

	// Numeric-looking strings coerced, date-looking strings parsed.
	assert.Equal(t, "emea", table.Rows[0][0])
	assert.Equal(t, float64(1234.5), table.Rows[0][1])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), table.Rows[0][2])
	assert.Equal(t, int64(987), table.Rows[1][1])
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), table.Rows[1][2])

	assert.Equal(t, TypeText, table.Columns[0].Type)
	assert.Equal(t, TypeFloat, table.Columns[1].Type)
	assert.Equal(t, TypeTime, table.Columns[2].Type)
}

func TestRunQueryError(t *testing.T) {
	runner, mock := mockRunner(t, "run_query_error")

	mock.ExpectQuery("SELECT broken").
		WillReturnError(fmt.Errorf("SQL compilation error: syntax error"))
	mock.ExpectClose()

	_, err := runner.Run(context.Background(), "SELECT broken")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))
	assert.Contains(t, err.Error(), "SQL compilation error")
}

func TestRunEmptyResult(t *testing.T) {
	runner, mock := mockRunner(t, "run_empty_result")

	mock.ExpectQuery("SELECT region FROM sales WHERE 1=0").
		WillReturnRows(sqlmock.NewRows([]string{"REGION"}))
	mock.ExpectClose()

	table, err := runner.Run(context.Background(), "SELECT region FROM sales WHERE 1=0")
	require.NoError(t, err)

	assert.Equal(t, 0, table.NumRows())
	assert.Equal(t, 1, table.NumCols())
	assert.Equal(t, TypeText, table.Columns[0].Type)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(map[string]string{
		"user":      "reporting",
		"password":  "hunter2",
		"account":   "xy12345.us-east-1",
		"database":  "ANALYTICS",
		"schema":    "PUBLIC",
		"warehouse": "REPORTING_WH",
		"role":      "REPORTER",
	})

	assert.Equal(t,
		"reporting:hunter2@xy12345.us-east-1/ANALYTICS/PUBLIC?role=REPORTER&warehouse=REPORTING_WH",
		dsn)
}

func TestBuildDSNPassesUnknownParamsThrough(t *testing.T) {
	dsn := buildDSN(map[string]string{
		"user":          "u",
		"password":      "p",
		"account":       "a",
		"database":      "d",
		"schema":        "s",
		"authenticator": "externalbrowser",
	})

	assert.Equal(t, "u:p@a/d/s?authenticator=externalbrowser", dsn)
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"integer string", "42", int64(42)},
		{"float string", "3.14", float64(3.14)},
		{"date string", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"timestamp string", "2024-03-01 08:30:00", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"plain string", "emea", "emea"},
		{"bytes", []byte("99"), int64(99)},
		{"native int", int64(7), int64(7)},
		{"native bool", true, true},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceValue(tt.in))
		})
	}
}
