package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends accepted by LEDGER_STORE.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPAddr     string
	Store        string
	DataFile     string
	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string
	BackupDir    string
	LogLevel     string
}

// Load reads .env when present and then the process environment. Variables
// already set in the environment win over .env.
func Load() Config {
	godotenv.Load()

	return Config{
		HTTPAddr:     stringFromEnv("HTTP_ADDR", ":8080"),
		Store:        strings.ToLower(stringFromEnv("LEDGER_STORE", StoreFile)),
		DataFile:     stringFromEnv("LEDGER_DATA_FILE", "data/ledger.json"),
		DatabaseURL:  stringFromEnv("DATABASE_URL", ""),
		KafkaBrokers: listFromEnv("KAFKA_BROKERS"),
		KafkaTopic:   stringFromEnv("KAFKA_TOPIC", "ledger_changed"),
		BackupDir:    stringFromEnv("BACKUP_DIR", "backups"),
		LogLevel:     stringFromEnv("LOG_LEVEL", "info"),
	}
}

func stringFromEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func listFromEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
