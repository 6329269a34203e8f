package config

import (
	"fmt"
	"strings"
	"sync"
)

// ProviderConfig holds per-tenant payment provider credentials. It is an
// explicit mapping built once at startup and passed by reference; there is
// no ambient global state. Persistence through SQLite is optional, and the
// store falls back to memory-only mode without it.
type ProviderConfig struct {
	configs map[string]map[string]string
	storage *SQLiteStorage
	mu      sync.RWMutex
}

// NewProviderConfig creates a provider configuration store. storage may be
// nil for memory-only operation.
func NewProviderConfig(storage *SQLiteStorage) (*ProviderConfig, error) {
	c := &ProviderConfig{
		configs: make(map[string]map[string]string),
		storage: storage,
	}

	if storage != nil {
		persisted, err := storage.LoadAllConfigs()
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted provider configs: %w", err)
		}
		for key, cfg := range persisted {
			c.configs[key] = cfg
		}
	}

	return c, nil
}

func configKey(tenantID, providerName string) string {
	return strings.ToLower(tenantID) + "_" + strings.ToLower(providerName)
}

// SetConfig stores the credential set for a tenant and provider
func (c *ProviderConfig) SetConfig(tenantID, providerName string, config map[string]string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if len(config) == 0 {
		return fmt.Errorf("config cannot be empty")
	}

	c.mu.Lock()
	c.configs[configKey(tenantID, providerName)] = config
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SaveConfig(tenantID, providerName, config); err != nil {
			return fmt.Errorf("failed to persist config: %w", err)
		}
	}
	return nil
}

// GetConfig returns the credential set for a tenant and provider
func (c *ProviderConfig) GetConfig(tenantID, providerName string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, ok := c.configs[configKey(tenantID, providerName)]
	if !ok {
		return nil, fmt.Errorf("no configuration found for tenant %s, provider %s", tenantID, providerName)
	}

	// copy so callers cannot mutate the stored map
	out := make(map[string]string, len(config))
	for k, v := range config {
		out[k] = v
	}
	return out, nil
}

// DeleteConfig removes the credential set for a tenant and provider
func (c *ProviderConfig) DeleteConfig(tenantID, providerName string) error {
	key := configKey(tenantID, providerName)

	c.mu.Lock()
	_, ok := c.configs[key]
	delete(c.configs, key)
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("no configuration found for tenant %s, provider %s", tenantID, providerName)
	}

	if c.storage != nil {
		if err := c.storage.DeleteConfig(tenantID, providerName); err != nil {
			return fmt.Errorf("failed to delete persisted config: %w", err)
		}
	}
	return nil
}

// Providers lists the provider names configured for a tenant
func (c *ProviderConfig) Providers(tenantID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prefix := strings.ToLower(tenantID) + "_"
	var names []string
	for key := range c.configs {
		if strings.HasPrefix(key, prefix) {
			names = append(names, strings.TrimPrefix(key, prefix))
		}
	}
	return names
}
