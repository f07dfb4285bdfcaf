package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "LEDGER_STORE", "LEDGER_DATA_FILE", "DATABASE_URL", "KAFKA_BROKERS", "KAFKA_TOPIC", "BACKUP_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "data/ledger.json", cfg.DataFile)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "ledger_changed", cfg.KafkaTopic)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEDGER_STORE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger?sslmode=disable")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")

	cfg := Load()

	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://ledger@localhost/ledger?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
}

func TestNewLoggerAndLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("not-a-level", &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	LogError(logger, "ledger", "Save", "persist snapshot", map[string]string{"customer": "c-1"}, errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "ledger", entry["module"])
	assert.Equal(t, "Save", entry["funcName"])
	assert.NotNil(t, entry["data"])
}
