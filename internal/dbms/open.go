package dbms

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/schema"
)

// OpenPostgres opens a PostgreSQL source. A configured URL wins over the
// individual connection fields.
func OpenPostgres(ctx context.Context, conn schema.Connection, maxConns int) (db.Source, error) {
	return db.OpenPostgres(ctx, postgresURL(conn, 5432), maxConns)
}

// OpenCockroach opens a CockroachDB source.
func OpenCockroach(ctx context.Context, conn schema.Connection, maxConns int) (db.Source, error) {
	return db.OpenCockroach(ctx, postgresURL(conn, 26257), maxConns)
}

// OpenMySQL opens a MySQL or MariaDB source. A configured URL is taken as a
// go-sql-driver DSN.
func OpenMySQL(ctx context.Context, conn schema.Connection, maxConns int) (db.Source, error) {
	dsn := conn.URL
	if dsn == "" {
		cfg := mysql.NewConfig()
		cfg.User = conn.Username
		cfg.Passwd = conn.Password
		cfg.Net = "tcp"
		cfg.Addr = hostPort(conn.Host, conn.Port, 3306)
		cfg.DBName = conn.Database
		if len(conn.Params) > 0 {
			cfg.Params = conn.Params
		}
		dsn = cfg.FormatDSN()
	}
	return db.OpenMySQL(ctx, dsn, maxConns)
}

// OpenSQLite opens a SQLite file named by the URL or the database field.
func OpenSQLite(ctx context.Context, conn schema.Connection, maxConns int) (db.Source, error) {
	path := conn.URL
	if path == "" {
		path = conn.Database
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite connection needs a database path")
	}
	return db.OpenSQLite(ctx, path, maxConns)
}

// OpenOracle opens an Oracle source; the database field names the service.
func OpenOracle(ctx context.Context, conn schema.Connection, maxConns int) (db.Source, error) {
	connString := conn.URL
	if connString == "" {
		port := conn.Port
		if port == 0 {
			port = 1521
		}
		connString = db.OracleURL(conn.Host, port, conn.Database, conn.Username, conn.Password)
	}
	return db.OpenOracle(ctx, connString, maxConns)
}

func postgresURL(conn schema.Connection, defaultPort int) string {
	if conn.URL != "" {
		return conn.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   hostPort(conn.Host, conn.Port, defaultPort),
		Path:   "/" + conn.Database,
	}
	if conn.Username != "" {
		u.User = url.UserPassword(conn.Username, conn.Password)
	}
	if len(conn.Params) > 0 {
		q := url.Values{}
		for k, v := range conn.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func hostPort(host string, port, defaultPort int) string {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
