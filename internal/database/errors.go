package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
)

// MySQL and SQL Server error numbers for key and reference violations
var (
	mysqlConstraintErrors = map[uint16]bool{
		1062: true, // duplicate entry
		1216: true, 1217: true, // foreign key (legacy)
		1451: true, 1452: true, // foreign key
		3819: true, // check constraint
		1048: true, // column cannot be null
	}
	mssqlConstraintErrors = map[int32]bool{
		547:  true, // foreign key / check
		2601: true, // duplicate key in unique index
		2627: true, // unique constraint
		515:  true, // cannot insert null
	}
)

// IsConstraintViolation reports whether err is a referential, uniqueness,
// check or not-null violation raised by the storage engine
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConstraintErrors[myErr.Number]
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return mssqlConstraintErrors[msErr.Number]
	}

	// pure-go sqlite reports "constraint failed: FOREIGN KEY constraint failed (787)"
	return strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}

// ConstraintDetail extracts the human readable part of a storage failure,
// e.g. `Key (owner_id)=(42) is not present in table "employee".`
func ConstraintDetail(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return pgErr.Detail
		}
		return pgErr.Message
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Message
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Error()
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Message
	}

	return err.Error()
}
