package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SALE_MAX_RETRIES", "")
	t.Setenv("TAX_RATE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Sale.MaxRetries)
	assert.Equal(t, "0.16", cfg.Sale.TaxRate.String())
	assert.Equal(t, 5*time.Second, cfg.Sale.LockTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SALE_MAX_RETRIES", "7")
	t.Setenv("SALE_LOCK_TIMEOUT", "250ms")
	t.Setenv("TAX_RATE", "0.08")
	t.Setenv("DB_DRIVER", "mysql")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Sale.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Sale.LockTimeout)
	assert.Equal(t, "0.08", cfg.Sale.TaxRate.String())
	assert.Equal(t, "mysql", cfg.Database.Driver)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SALE_MAX_RETRIES", "many")
	t.Setenv("SALE_LOCK_TIMEOUT", "soon")
	t.Setenv("TAX_RATE", "sixteen")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Sale.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Sale.LockTimeout)
	assert.Equal(t, "0.16", cfg.Sale.TaxRate.String())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", User: "u", Password: "p", Name: "n", Port: "5432", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", pg.DSN())

	my := DatabaseConfig{Driver: "mysql", Host: "db", User: "u", Password: "p", Name: "n", Port: "3306"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=Local", my.DSN())

	url := DatabaseConfig{Driver: "postgres", URL: "postgres://x"}
	assert.Equal(t, "postgres://x", url.DSN())
}
