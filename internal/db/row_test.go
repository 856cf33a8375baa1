package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowAccessors(t *testing.T) {
	r := NewRow([]string{"column_name", "Nullable", "column_size", "is_autoincrement", "remarks", "non_unique"},
		[]any{[]byte("email"), int64(1), "120", "YES", nil, false})

	s, ok := r.String(LabelColumnName)
	assert.True(t, ok)
	assert.Equal(t, "email", s)

	_, ok = r.String("REMARKS")
	assert.False(t, ok)
	assert.True(t, r.Has("REMARKS"))
	assert.False(t, r.Has("TYPE_NAME"))

	n, err := r.Int(LabelNullable)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = r.Int(LabelColumnSize)
	require.NoError(t, err)
	assert.Equal(t, 120, n)
	n, err = r.Int("REMARKS")
	require.NoError(t, err)
	assert.Zero(t, n)

	b, err := r.Bool(LabelIsAutoincrement)
	require.NoError(t, err)
	assert.True(t, b)
	b, err = r.Bool(LabelNonUnique)
	require.NoError(t, err)
	assert.False(t, b)

	bad := Row{LabelColumnSize: "wide"}
	_, err = bad.Int(LabelColumnSize)
	assert.Error(t, err)
	_, err = bad.Bool(LabelColumnSize)
	assert.Error(t, err)

	assert.Equal(t, 10, mustInt(t, Row{LabelColumnSize: "10.0"}, LabelColumnSize))
}

func mustInt(t *testing.T, r Row, label string) int {
	t.Helper()
	n, err := r.Int(label)
	require.NoError(t, err)
	return n
}

func TestRowRequiredInt(t *testing.T) {
	r := Row{LabelKeySeq: int64(2), LabelOrdinalPosition: nil}

	n, err := r.RequiredInt(LabelKeySeq)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = r.RequiredInt(LabelOrdinalPosition)
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.ErrorContains(t, err, "ORDINAL_POSITION is NULL")

	_, err = r.RequiredInt(LabelNullable)
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.ErrorContains(t, err, "no NULLABLE column")
}

func TestSQLState(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ""},
		{"pgx", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"}), StateSerializationFailure},
		{"pq", &pq.Error{Code: "08S01"}, StateConnectionFailure},
		{"mysql", &mysql.MySQLError{Number: 1213, SQLState: [5]byte{'4', '0', '0', '0', '1'}}, StateSerializationFailure},
		{"mysql invalid conn", mysql.ErrInvalidConn, StateConnectionFailure},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, StateSerializationFailure},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, ""},
		{"oracle serialize", &network.OracleError{ErrCode: 8177}, StateSerializationFailure},
		{"oracle eof", &network.OracleError{ErrCode: 3113}, StateConnectionFailure},
		{"oracle unique", &network.OracleError{ErrCode: 1}, ""},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), StateConnectionFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLState(tt.err))
		})
	}
}

func TestParseDeclaredType(t *testing.T) {
	tests := []struct {
		in          string
		name        string
		size, scale int
	}{
		{"VARCHAR(20)", "VARCHAR", 20, 0},
		{"numeric( 10, 2 )", "NUMERIC", 10, 2},
		{"unsigned big int", "UNSIGNED BIG INT", 0, 0},
		{"", "", 0, 0},
		{"weird[type]", "WEIRD[TYPE]", 0, 0},
	}
	for _, tt := range tests {
		name, size, scale := parseDeclaredType(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.size, size, tt.in)
		assert.Equal(t, tt.scale, scale, tt.in)
	}
}

func TestTypeCodes(t *testing.T) {
	assert.Equal(t, "INTEGER", sqliteTypeCode("MEDIUMINT").String())
	assert.Equal(t, "VARCHAR", sqliteTypeCode("NVARCHAR").String())
	assert.Equal(t, "BLOB", sqliteTypeCode("").String())
	assert.Equal(t, "DOUBLE", sqliteTypeCode("DOUBLE PRECISION").String())
	assert.Equal(t, "NUMERIC", sqliteTypeCode("MONEY").String())

	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", oracleTypeName("timestamp(6) with time zone"))
	assert.Equal(t, "INTERVAL DAY TO SECOND", oracleTypeName("INTERVAL DAY(2) TO SECOND(6)"))
	assert.Equal(t, "VARCHAR2", oracleTypeName("VARCHAR2"))
}
