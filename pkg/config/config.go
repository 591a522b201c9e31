// Package config defines the configuration for a sheetsync run.
//
// A configuration document has three top-level sections:
//   - connection_params: warehouse connection settings, passed through to the
//     driver without field-level validation
//   - sheets_params: Google Sheets settings, at minimum the credential file
//   - tasks: the ordered list of query-to-worksheet tasks
//
// connection_params stays an opaque key/value mapping so that engine-specific
// settings (authenticator, ocspFailOpen, ...) do not require code changes.
package config

import (
	"fmt"

	"github.com/stellans/sheetsync/pkg/errors"
)

// DefaultPath is the configuration file used when no path is supplied.
const DefaultPath = "configuration.yaml"

// Config is the root configuration document.
type Config struct {
	// Connection holds the warehouse connection parameters. Required.
	Connection map[string]string `yaml:"connection_params"`

	// Sheets holds the Google Sheets parameters. Required.
	Sheets *SheetsParams `yaml:"sheets_params"`

	// Tasks is the ordered task list. May be empty.
	Tasks []Task `yaml:"tasks"`
}

// SheetsParams configures access to the Google Sheets service.
type SheetsParams struct {
	// CredentialFile is the path to the service-account key file. Required.
	CredentialFile string `yaml:"credential_file"`
}

// Task is one configured unit of work: a query file plus a destination
// worksheet. Disabled tasks are skipped without validation.
type Task struct {
	Enabled       bool   `yaml:"enabled"`
	WorkbookID    string `yaml:"workbook_id"`
	WorksheetName string `yaml:"worksheet_name"`
	QueryFile     string `yaml:"query_file"`
	Freeze        Freeze `yaml:"freeze,omitempty"`
}

// Freeze configures the frozen rows/columns applied after publishing.
// Absent values fall back to the defaults (1 row, 2 columns); an explicit
// zero disables freezing for that dimension.
type Freeze struct {
	Row *int `yaml:"row,omitempty"`
	Col *int `yaml:"col,omitempty"`
}

// Rows returns the number of rows to freeze.
func (f Freeze) Rows() int {
	if f.Row == nil {
		return 1
	}
	return *f.Row
}

// Cols returns the number of columns to freeze.
func (f Freeze) Cols() int {
	if f.Col == nil {
		return 2
	}
	return *f.Col
}

// Validate checks that the required sections are present. It runs before any
// warehouse or Sheets call is attempted.
func (c *Config) Validate() error {
	if c.Connection == nil {
		return errors.New(errors.ErrorTypeConfig, "missing required section 'connection_params'")
	}

	if c.Sheets == nil {
		return errors.New(errors.ErrorTypeConfig, "missing required section 'sheets_params'")
	}

	if c.Sheets.CredentialFile == "" {
		return errors.New(errors.ErrorTypeConfig, "missing 'credential_file' in 'sheets_params'")
	}

	return nil
}

// Validate checks that an enabled task carries every required field. A
// missing field on an enabled task is a fatal configuration error, not a
// skip.
func (t Task) Validate() error {
	if !t.Enabled {
		return nil
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"workbook_id", t.WorkbookID},
		{"worksheet_name", t.WorksheetName},
		{"query_file", t.QueryFile},
	} {
		if field.value == "" {
			return errors.New(errors.ErrorTypeValidation,
				fmt.Sprintf("enabled task must provide '%s'", field.name))
		}
	}

	return nil
}
