package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"prepcoach/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeSecrets serves KVv2 secrets from memory
type fakeSecrets map[string]map[string]any

func (f fakeSecrets) ReadKV(path string) (*VaultSecret, error) {
	data, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return &VaultSecret{Data: data, Version: 1}, nil
}

func TestKVVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "int", input: 3, expected: 3},
		{name: "json number", input: float64(42), expected: 42},
		{name: "numeric string", input: "42", expected: 42},
		{name: "garbage string", input: "latest", expectError: true},
		{name: "slice", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kvVersion(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecodeKV2(t *testing.T) {
	t.Run("data and version", func(t *testing.T) {
		secret, err := decodeKV2(&api.Secret{Data: map[string]any{
			"data":     map[string]any{"email": "a@b.c"},
			"metadata": map[string]any{"version": float64(7)},
		}}, "secret/data/login")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"email": "a@b.c"}, secret.Data)
		assert.Equal(t, int64(7), secret.Version)
	})

	t.Run("missing metadata reports version zero", func(t *testing.T) {
		secret, err := decodeKV2(&api.Secret{Data: map[string]any{
			"data": map[string]any{},
		}}, "secret/data/login")
		require.NoError(t, err)
		assert.Zero(t, secret.Version)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := decodeKV2(nil, "secret/data/missing")
		assert.ErrorContains(t, err, "secret not found")
	})

	t.Run("kv version 1 layout", func(t *testing.T) {
		_, err := decodeKV2(&api.Secret{Data: map[string]any{"email": "a@b.c"}}, "secret/login")
		assert.ErrorContains(t, err, "not in KVv2 format")
	})

	t.Run("bad version", func(t *testing.T) {
		_, err := decodeKV2(&api.Secret{Data: map[string]any{
			"data":     map[string]any{},
			"metadata": map[string]any{"version": true},
		}}, "secret/data/login")
		assert.Error(t, err)
	})
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("inline token wins", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: "/nonexistent"})
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("empty token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("\n"), 0600))

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.ErrorContains(t, err, "is empty")
	})

	t.Run("unreadable token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestOverlayStrings(t *testing.T) {
	auth := AuthConfig{Email: "old@example.com", Password: "old"}

	n := overlayStrings(map[string]any{
		"email":    "candidate@example.com",
		"password": "s3cret",
		"token":    "",
		"ignored":  "value",
	}, map[string]*string{
		"email":    &auth.Email,
		"password": &auth.Password,
		"token":    &auth.Token,
	})

	assert.Equal(t, 2, n)
	assert.Equal(t, "candidate@example.com", auth.Email)
	assert.Equal(t, "s3cret", auth.Password)
	assert.Empty(t, auth.Token)
}

func TestOverlayTLS(t *testing.T) {
	tls := TLSConfig{CAFile: "/etc/ssl/ca.pem", CertFile: "/etc/ssl/client.pem"}

	n := overlayTLS(&tls, map[string]any{"ca": "ca-content", "key": ""})

	assert.Equal(t, 1, n)
	assert.Equal(t, "ca-content", tls.CAContent)
	assert.Empty(t, tls.CAFile, "inline CA replaces the configured file")
	assert.Equal(t, "/etc/ssl/client.pem", tls.CertFile)
	assert.Empty(t, tls.KeyContent)
}

func TestApplySecrets(t *testing.T) {
	logger := newTestLogger()

	t.Run("credentials and certificates", func(t *testing.T) {
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{
			Credentials: "secret/data/prepcoach/login",
			TLSCerts:    "secret/data/prepcoach/tls",
		}}}
		reader := fakeSecrets{
			"secret/data/prepcoach/login": {"email": "a@b.c", "password": "pw", "token": "tok"},
			"secret/data/prepcoach/tls":   {"cert": "cert-content", "key": "key-content", "ca": "ca-content"},
		}

		require.NoError(t, applySecrets(reader, cfg, logger))
		assert.Equal(t, "a@b.c", cfg.Auth.Email)
		assert.Equal(t, "pw", cfg.Auth.Password)
		assert.Equal(t, "tok", cfg.Auth.Token)
		assert.Equal(t, "cert-content", cfg.API.TLS.CertContent)
		assert.Equal(t, "key-content", cfg.API.TLS.KeyContent)
		assert.Equal(t, "ca-content", cfg.API.TLS.CAContent)
	})

	t.Run("missing credentials secret", func(t *testing.T) {
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{Credentials: "secret/data/missing"}}}
		assert.ErrorContains(t, applySecrets(fakeSecrets{}, cfg, logger), "failed to load credentials from vault")
	})

	t.Run("missing tls secret", func(t *testing.T) {
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{TLSCerts: "secret/data/missing"}}}
		assert.ErrorContains(t, applySecrets(fakeSecrets{}, cfg, logger), "failed to load TLS certificates from vault")
	})

	t.Run("no paths configured", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, applySecrets(fakeSecrets{}, cfg, logger))
		assert.Empty(t, cfg.Auth.Email)
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false, Secrets: VaultSecrets{Credentials: "secret/data/login"}}}
	require.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
	assert.Empty(t, cfg.Auth.Email)
}

func TestVaultClientNil(t *testing.T) {
	var vc *VaultClient
	_, err := vc.ReadKV("secret/data/login")
	assert.ErrorContains(t, err, "not initialized")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****mnop", maskSecret("abcdefghijklmnop"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
