package db

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sijms/go-ora/v2/network"
)

// SQL states the statement executor treats as transient.
const (
	StateConnectionFailure    = "08S01"
	StateSerializationFailure = "40001"
)

// sqlStater is implemented by errors that carry their own SQL state.
type sqlStater interface {
	SQLState() string
}

// SQLState extracts the five-character SQL state from a driver error, or
// returns "" when the error carries none.
func SQLState(err error) string {
	if err == nil {
		return ""
	}

	var s sqlStater
	if errors.As(err, &s) {
		return s.SQLState()
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return string(myErr.SQLState[:])
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return StateSerializationFailure
		}
		return ""
	}

	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return oracleState(oraErr.ErrCode)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return StateConnectionFailure
	}
	return ""
}

// oracleState maps the ORA- codes that have a transient meaning onto the
// matching SQL state class.
func oracleState(code int) string {
	switch code {
	case 8177: // can't serialize access for this transaction
		return StateSerializationFailure
	case 3113, 3114, 12541: // end-of-file on channel, not connected, no listener
		return StateConnectionFailure
	}
	return ""
}
