package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BuildMySQLDSN(t *testing.T) {
	// arrange
	d := DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "pustaka", Password: "rahasia", DBName: "perpus"}

	// act
	dsn := buildMySQLDSN(d)

	// assert
	assert.Equal(t, "pustaka:rahasia@tcp(db:3306)/perpus?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true", dsn)
}

func Test_BuildPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "pustaka", Password: "rahasia", DBName: "perpus", SSLMode: "disable"}

	dsn := buildPostgresDSN(d)

	assert.Contains(t, dsn, "host=db port=5432")
	assert.Contains(t, dsn, "dbname=perpus sslmode=disable")
}
