//go:build !sqlcipher

package storage

import (
	"database/sql"
	"errors"
)

var errNoSQLCipher = errors.New("this build has no sqlcipher support")

func openSecureSQLite(string, string) (*sql.DB, error) {
	return nil, errNoSQLCipher
}

func secureSQLiteSupported() bool {
	return false
}
