// Package sheetsync publishes the results of Snowflake queries to Google
// Sheets worksheets, driven by a declarative YAML task list.
//
// Each task names a query file, a destination workbook and worksheet, and an
// optional freeze-pane setting. For every enabled task, sheetsync executes
// the SQL file against the warehouse, sanitizes the result's column names,
// clears the destination worksheet and writes the full result as a grid with
// the header row first. The publish strategy is always full replacement:
// nothing in the tab survives a run.
//
// # Quick Start
//
// Declare the connection, the Sheets credential and the task list in
// configuration.yaml:
//
//	connection_params:
//	  user: reporting
//	  password: ${SNOWFLAKE_PASSWORD}
//	  account: xy12345.us-east-1
//	  warehouse: REPORTING_WH
//	  database: ANALYTICS
//	  schema: PUBLIC
//	  role: REPORTER
//	sheets_params:
//	  credential_file: service-account.json
//	tasks:
//	  - enabled: true
//	    workbook_id: 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms
//	    worksheet_name: Revenue
//	    query_file: queries/revenue.sql
//	    freeze:
//	      row: 1
//	      col: 2
//
// then run the tasks:
//
//	sheetsync run --config_path configuration.yaml
//
// Execution is fully sequential and errors are never downgraded: the first
// failing task aborts the remaining queue and the process exits non-zero.
// Scheduling is the caller's responsibility; sheetsync performs exactly one
// pass over the task list per invocation.
package sheetsync
