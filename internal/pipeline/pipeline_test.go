package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellans/sheetsync/pkg/config"
	"github.com/stellans/sheetsync/pkg/errors"
	"github.com/stellans/sheetsync/pkg/query"
	"github.com/stellans/sheetsync/pkg/sheets"
)

// mockRunner records executed statements and returns a canned table.
type mockRunner struct {
	calls  []string
	table  *query.Table
	failOn string
}

func (m *mockRunner) Run(ctx context.Context, sqlText string) (*query.Table, error) {
	m.calls = append(m.calls, sqlText)
	if m.failOn != "" && m.failOn == sqlText {
		return nil, errors.New(errors.ErrorTypeQuery, "query execution failed")
	}
	if m.table != nil {
		return m.table, nil
	}
	return &query.Table{Columns: []query.Column{{Name: "A", Type: query.TypeText}}}, nil
}

type publishCall struct {
	workbookID string
	worksheet  string
	grid       [][]any
	freeze     config.Freeze
}

// mockWriter records publishes.
type mockWriter struct {
	calls []publishCall
}

func (m *mockWriter) Publish(ctx context.Context, workbookID, worksheetName string, table sheets.Grid, freeze config.Freeze) error {
	m.calls = append(m.calls, publishCall{
		workbookID: workbookID,
		worksheet:  worksheetName,
		grid:       table.Grid(),
		freeze:     freeze,
	})
	return nil
}

func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func enabledTask(t *testing.T, worksheet, sql string) config.Task {
	t.Helper()
	return config.Task{
		Enabled:       true,
		WorkbookID:    "wb-1",
		WorksheetName: worksheet,
		QueryFile:     writeQueryFile(t, sql),
	}
}

func TestRunPublishesEnabledTask(t *testing.T) {
	runner := &mockRunner{
		table: &query.Table{
			Columns: []query.Column{
				{Name: "REGION", Type: query.TypeText},
				{Name: "REVENUE", Type: query.TypeFloat},
				{Name: "O'Brien's Total", Type: query.TypeFloat},
			},
			Rows: [][]any{
				{"emea", float64(1), float64(2)},
				{"apac", float64(3), float64(4)},
			},
		},
	}
	writer := &mockWriter{}

	row := 1
	col := 2
	task := enabledTask(t, "Revenue", "SELECT region, revenue, obriens FROM sales")
	task.Freeze = config.Freeze{Row: &row, Col: &col}

	err := New(runner, writer).Run(context.Background(), []config.Task{task})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "SELECT region, revenue, obriens FROM sales", runner.calls[0])

	require.Len(t, writer.calls, 1)
	call := writer.calls[0]
	assert.Equal(t, "wb-1", call.workbookID)
	assert.Equal(t, "Revenue", call.worksheet)
	assert.Equal(t, 1, call.freeze.Rows())
	assert.Equal(t, 2, call.freeze.Cols())

	// 2 data rows x 3 columns, plus the header row; apostrophes stripped.
	require.Len(t, call.grid, 3)
	assert.Len(t, call.grid[0], 3)
	assert.Equal(t, "OBriens Total", call.grid[0][2])
}

func TestRunSkipsDisabledTasks(t *testing.T) {
	runner := &mockRunner{}
	writer := &mockWriter{}

	tasks := []config.Task{
		{Enabled: false, WorkbookID: "wb-1", WorksheetName: "Churn", QueryFile: "never-read.sql"},
		enabledTask(t, "Revenue", "SELECT 1"),
	}

	err := New(runner, writer).Run(context.Background(), tasks)
	require.NoError(t, err)

	// Exactly one query and one publish, for the enabled task only.
	require.Len(t, runner.calls, 1)
	require.Len(t, writer.calls, 1)
	assert.Equal(t, "Revenue", writer.calls[0].worksheet)
}

func TestRunInvalidTaskFailsBeforeQuery(t *testing.T) {
	runner := &mockRunner{}
	writer := &mockWriter{}

	tests := []struct {
		name   string
		mutate func(*config.Task)
	}{
		{"missing workbook_id", func(task *config.Task) { task.WorkbookID = "" }},
		{"missing worksheet_name", func(task *config.Task) { task.WorksheetName = "" }},
		{"missing query_file", func(task *config.Task) { task.QueryFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := enabledTask(t, "Revenue", "SELECT 1")
			tt.mutate(&task)

			err := New(runner, writer).Run(context.Background(), []config.Task{task})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Empty(t, runner.calls)
			assert.Empty(t, writer.calls)
		})
	}
}

func TestRunQueryFileNotFound(t *testing.T) {
	runner := &mockRunner{}
	writer := &mockWriter{}

	task := config.Task{
		Enabled:       true,
		WorkbookID:    "wb-1",
		WorksheetName: "Revenue",
		QueryFile:     filepath.Join(t.TempDir(), "missing.sql"),
	}

	err := New(runner, writer).Run(context.Background(), []config.Task{task})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.Empty(t, runner.calls)
}

func TestRunEmptyQueryFile(t *testing.T) {
	runner := &mockRunner{}
	writer := &mockWriter{}

	task := enabledTask(t, "Revenue", "   \n\t")

	err := New(runner, writer).Run(context.Background(), []config.Task{task})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.Contains(t, err.Error(), "empty")
	assert.Empty(t, runner.calls)
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	runner := &mockRunner{failOn: "SELECT second"}
	writer := &mockWriter{}

	tasks := []config.Task{
		enabledTask(t, "First", "SELECT first"),
		enabledTask(t, "Second", "SELECT second"),
		enabledTask(t, "Third", "SELECT third"),
	}

	err := New(runner, writer).Run(context.Background(), tasks)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))

	// The third task's query and publish are never invoked.
	assert.Equal(t, []string{"SELECT first", "SELECT second"}, runner.calls)
	require.Len(t, writer.calls, 1)
	assert.Equal(t, "First", writer.calls[0].worksheet)
}

func TestRunNoTasks(t *testing.T) {
	runner := &mockRunner{}
	writer := &mockWriter{}

	require.NoError(t, New(runner, writer).Run(context.Background(), nil))
	assert.Empty(t, runner.calls)
	assert.Empty(t, writer.calls)
}
