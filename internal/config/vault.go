package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"prepcoach/internal/errors"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KVv2 paths read at startup. Empty paths are skipped.
type VaultSecrets struct {
	// Credentials holds the keys "email", "password" and optionally "token"
	Credentials string `mapstructure:"credentials"`
	// TLSCerts holds the keys "cert", "key" and "ca" with PEM content
	TLSCerts string `mapstructure:"tlsCerts"`
}

// VaultSecret is one version of a KVv2 secret.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// secretReader is what ApplyVaultSecrets needs from Vault
type secretReader interface {
	ReadKV(path string) (*VaultSecret, error)
}

// VaultClient reads KVv2 secrets for the CLI
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil when
// the integration is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Vault is unreachable", "address", apiCfg.Address)
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiCfg.Address, err)
	}
	logger.Debug("Connected to Vault",
		"address", apiCfg.Address,
		"namespace", cfg.Namespace,
		"token", maskSecret(token),
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	if cfg.TokenFile == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	raw, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read vault token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("vault token is required but %s is empty", cfg.TokenFile)
	}
	return token, nil
}

// ReadKV reads the latest version of a KVv2 secret.
func (vc *VaultClient) ReadKV(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	raw, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	secret, err := decodeKV2(raw, path)
	if err != nil {
		return nil, err
	}
	vc.logger.Debug("Read secret from Vault", "path", path, "version", secret.Version, "keys", len(secret.Data))
	return secret, nil
}

// decodeKV2 unwraps the data and metadata envelope of a KVv2 response
func decodeKV2(raw *api.Secret, path string) (*VaultSecret, error) {
	if raw == nil || raw.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	data, ok := raw.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	secret := &VaultSecret{Data: data}

	// Metadata is informational; a missing version is reported as zero
	if meta, ok := raw.Data["metadata"].(map[string]any); ok {
		if v, present := meta["version"]; present {
			version, err := kvVersion(v)
			if err != nil {
				return nil, fmt.Errorf("secret at %s: %w", path, err)
			}
			secret.Version = version
		}
	}
	return secret, nil
}

// kvVersion accepts the numeric shapes Vault and JSON decoding produce
func kvVersion(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse version %q: %w", n, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unexpected version type %T", v)
	}
}

// ApplyVaultSecrets overlays login credentials and client TLS material from
// Vault onto cfg. Vault values win over every other source.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}
	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		logger.LogError(err, "Failed to initialize Vault client")
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(client, cfg, logger)
}

func applySecrets(reader secretReader, cfg *Config, logger *errors.Logger) error {
	if path := cfg.Vault.Secrets.Credentials; path != "" {
		secret, err := reader.ReadKV(path)
		if err != nil {
			return fmt.Errorf("failed to load credentials from vault: %w", err)
		}
		n := overlayStrings(secret.Data, map[string]*string{
			"email":    &cfg.Auth.Email,
			"password": &cfg.Auth.Password,
			"token":    &cfg.Auth.Token,
		})
		if n == 0 {
			logger.Warn("Vault credentials secret has no usable fields", "path", path)
		} else {
			logger.Info("Applied credentials from Vault", "path", path, "fields", n)
		}
	}

	if path := cfg.Vault.Secrets.TLSCerts; path != "" {
		secret, err := reader.ReadKV(path)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		n := overlayTLS(&cfg.API.TLS, secret.Data)
		logger.Info("Applied TLS material from Vault", "path", path, "fields", n)
	}
	return nil
}

// overlayStrings copies every non-empty string value into its target and
// returns how many were copied
func overlayStrings(data map[string]any, targets map[string]*string) int {
	n := 0
	for key, target := range targets {
		if value, ok := data[key].(string); ok && value != "" {
			*target = value
			n++
		}
	}
	return n
}

// tlsSecret is the expected shape of the TLS secret
type tlsSecret struct {
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
	CA   string `mapstructure:"ca"`
}

// overlayTLS applies inline PEM content, which replaces the file of the same kind
func overlayTLS(tls *TLSConfig, data map[string]any) int {
	var s tlsSecret
	if err := mapstructure.WeakDecode(data, &s); err != nil {
		return 0
	}
	n := 0
	for _, f := range []struct {
		value   string
		content *string
		file    *string
	}{
		{s.Cert, &tls.CertContent, &tls.CertFile},
		{s.Key, &tls.KeyContent, &tls.KeyFile},
		{s.CA, &tls.CAContent, &tls.CAFile},
	} {
		if f.value == "" {
			continue
		}
		*f.content = f.value
		*f.file = ""
		n++
	}
	return n
}

// maskSecret keeps only enough of a value to tell secrets apart in logs
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}
