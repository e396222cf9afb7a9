package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(Options{User: "root", Password: "pw", Host: "db", Port: 3306, Name: "links"})
	assert.Equal(t, "root:pw@tcp(db:3306)/links?charset=utf8mb4&parseTime=True&loc=Local", dsn)

	assert.Equal(t, "custom", MySQLDSN(Options{DSN: "custom"}))
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(Options{User: "u", Password: "p", Host: "pg", Port: 5432, Name: "links", SSLMode: "require"})
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=links sslmode=require", dsn)
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	db, err := Open(Options{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	defer Close(db)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "oracle"})
	assert.Error(t, err)
}
