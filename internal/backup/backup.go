// Package backup writes and reads backup files holding a full ledger snapshot.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
)

// FileName is the timestamped name a backup taken at t is saved under.
func FileName(t time.Time) string {
	return fmt.Sprintf("debts_backup_%s.json", t.UTC().Format("2006-01-02_15-04-05"))
}

// Export writes snap as pretty-printed JSON.
func Export(w io.Writer, snap models.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// WriteFile exports snap into dir and returns the path of the new file.
func WriteFile(dir string, snap models.Snapshot, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(now))

	var buf bytes.Buffer
	if err := Export(&buf, snap); err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write backup %s: %w", path, err)
	}
	return path, nil
}

// Decode parses a backup document. It fails with ledger.ErrValidation when the
// document is not JSON or has no customers array. exchangeRates is optional.
func Decode(r io.Reader) (models.RestoreData, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return models.RestoreData{}, fmt.Errorf("read backup: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.RestoreData{}, fmt.Errorf("%w: backup is not a JSON object: %v", ledger.ErrValidation, err)
	}

	rawCustomers, ok := doc["customers"]
	if !ok || !isArray(rawCustomers) {
		return models.RestoreData{}, fmt.Errorf("%w: backup has no customers array", ledger.ErrValidation)
	}

	data := models.RestoreData{Customers: []models.Customer{}}
	if err := json.Unmarshal(rawCustomers, &data.Customers); err != nil {
		return models.RestoreData{}, fmt.Errorf("%w: malformed customers: %v", ledger.ErrValidation, err)
	}
	if rawRates, ok := doc["exchangeRates"]; ok && !isNull(rawRates) {
		if err := json.Unmarshal(rawRates, &data.ExchangeRates); err != nil {
			return models.RestoreData{}, fmt.Errorf("%w: malformed exchangeRates: %v", ledger.ErrValidation, err)
		}
	}
	return data, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
