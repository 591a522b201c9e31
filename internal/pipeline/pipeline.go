// Package pipeline runs the configured tasks in order: read the query file,
// execute it against the warehouse, publish the result to the destination
// worksheet. Tasks are independent but not isolated: the first error aborts
// the remaining queue.
package pipeline

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/stellans/sheetsync/pkg/config"
	"github.com/stellans/sheetsync/pkg/errors"
	"github.com/stellans/sheetsync/pkg/logger"
	"github.com/stellans/sheetsync/pkg/query"
	"github.com/stellans/sheetsync/pkg/sheets"
)

// QueryRunner executes one SQL statement and materializes the result.
type QueryRunner interface {
	Run(ctx context.Context, sqlText string) (*query.Table, error)
}

// SheetWriter replaces the contents of one worksheet with a table.
type SheetWriter interface {
	Publish(ctx context.Context, workbookID, worksheetName string, table sheets.Grid, freeze config.Freeze) error
}

// Pipeline drives the task list sequentially.
type Pipeline struct {
	runner QueryRunner
	writer SheetWriter
	log    *zap.Logger
}

// New creates a Pipeline over a query runner and a sheet writer.
func New(runner QueryRunner, writer SheetWriter) *Pipeline {
	return &Pipeline{
		runner: runner,
		writer: writer,
		log:    logger.With(zap.String("component", "pipeline")),
	}
}

// Run processes the tasks in their stored order. Disabled tasks are skipped
// entirely. Any error is fatal to the run: it propagates immediately and no
// later task is started.
func (p *Pipeline) Run(ctx context.Context, tasks []config.Task) error {
	published := 0

	for i, task := range tasks {
		if !task.Enabled {
			continue
		}

		if err := p.runTask(ctx, task); err != nil {
			return errors.Wrap(err, typeOf(err), "task failed").
				WithDetail("task_index", i).
				WithDetail("worksheet", task.WorksheetName)
		}

		published++
	}

	p.log.Info("all tasks completed", zap.Int("published", published))

	return nil
}

func (p *Pipeline) runTask(ctx context.Context, task config.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	log := logger.WithContext(ctx).With(zap.String("worksheet", task.WorksheetName))

	sqlText, err := readQueryFile(task.QueryFile)
	if err != nil {
		return err
	}

	log.Debug("running query", zap.String("query_file", task.QueryFile))

	table, err := p.runner.Run(ctx, sqlText)
	if err != nil {
		return err
	}

	table.SanitizeColumnNames()

	return p.writer.Publish(ctx, task.WorkbookID, task.WorksheetName, table, task.Freeze)
}

// readQueryFile reads one literal SQL statement from a file. A missing file
// and an empty file are distinct configuration errors.
func readQueryFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to read query file").
			WithDetail("path", path)
	}

	sqlText := string(data)
	if strings.TrimSpace(sqlText) == "" {
		return "", errors.New(errors.ErrorTypeFile, "query file is empty").
			WithDetail("path", path)
	}

	return sqlText, nil
}

// typeOf preserves the structured type of an error when re-wrapping it.
func typeOf(err error) errors.ErrorType {
	for _, t := range []errors.ErrorType{
		errors.ErrorTypeConfig,
		errors.ErrorTypeValidation,
		errors.ErrorTypeFile,
		errors.ErrorTypeConnection,
		errors.ErrorTypeQuery,
		errors.ErrorTypeAuthentication,
		errors.ErrorTypeNotFound,
	} {
		if errors.IsType(err, t) {
			return t
		}
	}
	return errors.ErrorTypeInternal
}
