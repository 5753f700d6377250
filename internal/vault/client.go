// Package vault sources LLM provider API keys from HashiCorp Vault so
// credentials never live in config files.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"strategy-builder/config"
)

// ProviderKey is an LLM provider credential stored in Vault.
type ProviderKey struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model,omitempty"`
}

// Client wraps the HashiCorp Vault client. With Vault disabled it degrades
// to an in-process store seeded from config, which keeps development and
// tests working without a Vault server.
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu    sync.RWMutex
	cache map[string]*ProviderKey // provider -> key cache
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config: cfg,
			cache:  make(map[string]*ProviderKey),
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
		cache:  make(map[string]*ProviderKey),
	}, nil
}

// StoreProviderKey stores a provider credential in Vault.
func (c *Client) StoreProviderKey(ctx context.Context, key ProviderKey) error {
	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[key.Provider] = &key
		c.mu.Unlock()
		return nil
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"provider": key.Provider,
			"api_key":  key.APIKey,
			"model":    key.Model,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(key.Provider), secretData); err != nil {
		return fmt.Errorf("failed to store provider key in vault: %w", err)
	}

	c.mu.Lock()
	c.cache[key.Provider] = &key
	c.mu.Unlock()
	return nil
}

// GetProviderKey retrieves a provider credential, preferring the cache.
func (c *Client) GetProviderKey(ctx context.Context, provider string) (*ProviderKey, error) {
	c.mu.RLock()
	if cached, ok := c.cache[provider]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	if !c.config.Enabled {
		return nil, fmt.Errorf("provider key not found and vault is disabled")
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath(provider))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider key from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("provider key not found")
	}

	// KV v2 nests the payload under "data"
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected vault secret format")
	}

	key := &ProviderKey{Provider: provider}
	if v, ok := data["api_key"].(string); ok {
		key.APIKey = v
	}
	if v, ok := data["model"].(string); ok {
		key.Model = v
	}
	if key.APIKey == "" {
		return nil, fmt.Errorf("provider key is empty")
	}

	c.mu.Lock()
	c.cache[provider] = key
	c.mu.Unlock()
	return key, nil
}

func (c *Client) secretPath(provider string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, provider)
}
