package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesTablesInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, s := range schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + s.table + " ").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS students").WillReturnError(errors.New("access denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "students"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DSN("fest", "secret", "db", "3306", "festival")
	assert.Contains(t, dsn, "fest:secret@tcp(db:3306)/festival")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestAddrOfHidesCredentials(t *testing.T) {
	assert.Equal(t, "db:3306", addrOf(DSN("fest", "secret", "db", "3306", "festival")))
	assert.Equal(t, "?", addrOf("::not a dsn"))
}
