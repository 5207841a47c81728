package data

import (
	_ "embed"
)

// SampleEmployeesCSV is a small org chart: 1000 manages itself, 1001 and 1004 report to 1000,
// 1002 and 1003 report to 1001. Rows are not in manager order.
//
//go:embed sample/employees.csv
var SampleEmployeesCSV []byte

// SampleDBInfoJSON holds four structurally valid records (two HIGH) and two invalid ones
//
//go:embed sample/db_info.json
var SampleDBInfoJSON []byte
