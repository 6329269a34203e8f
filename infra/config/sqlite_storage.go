package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage persists merchant credential sets so provider
// configurations survive restarts.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStorage opens (and if needed creates) the credential database
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", dbPath, err)
	}

	connStr := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000"
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db, path: dbPath}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS merchant_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id TEXT NOT NULL,
		provider_name TEXT NOT NULL,
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(tenant_id, provider_name)
	);
	CREATE INDEX IF NOT EXISTS idx_merchant_provider ON merchant_configs(tenant_id, provider_name);
	`
	_, err := s.db.Exec(query)
	return err
}

// Tenant and provider names are stored lowercased so persisted rows resolve
// under the same keys the in-memory store uses.
func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// SaveConfig inserts or replaces the credential set for a tenant/provider pair
func (s *SQLiteStorage) SaveConfig(tenantID, providerName string, config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID, providerName = normalizeKey(tenantID), normalizeKey(providerName)

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	query := `
	INSERT INTO merchant_configs (tenant_id, provider_name, config_data, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(tenant_id, provider_name)
	DO UPDATE SET config_data = excluded.config_data, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, tenantID, providerName, string(configJSON)); err != nil {
		return fmt.Errorf("failed to save config for tenant %s, provider %s: %w", tenantID, providerName, err)
	}
	return nil
}

// LoadConfig returns the credential set for a tenant/provider pair
func (s *SQLiteStorage) LoadConfig(tenantID, providerName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID, providerName = normalizeKey(tenantID), normalizeKey(providerName)

	var configJSON string
	err := s.db.QueryRow(
		`SELECT config_data FROM merchant_configs WHERE tenant_id = ? AND provider_name = ?`,
		tenantID, providerName,
	).Scan(&configJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no configuration found for tenant %s, provider %s", tenantID, providerName)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var config map[string]string
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

// LoadAllConfigs returns every stored credential set keyed by tenant_provider
func (s *SQLiteStorage) LoadAllConfigs() (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT tenant_id, provider_name, config_data FROM merchant_configs ORDER BY tenant_id, provider_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant configs: %w", err)
	}
	defer rows.Close()

	configs := make(map[string]map[string]string)
	for rows.Next() {
		var tenantID, providerName, configJSON string
		if err := rows.Scan(&tenantID, &providerName, &configJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var config map[string]string
		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			continue
		}
		// rows written before keys were normalized may still carry mixed case
		configs[normalizeKey(tenantID)+"_"+normalizeKey(providerName)] = config
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return configs, nil
}

// DeleteConfig removes the credential set for a tenant/provider pair
func (s *SQLiteStorage) DeleteConfig(tenantID, providerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID, providerName = normalizeKey(tenantID), normalizeKey(providerName)

	result, err := s.db.Exec(
		`DELETE FROM merchant_configs WHERE tenant_id = ? AND provider_name = ?`,
		tenantID, providerName,
	)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no configuration found for tenant %s, provider %s", tenantID, providerName)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
