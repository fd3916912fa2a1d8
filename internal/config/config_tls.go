package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig holds TLS settings for connections to the backend
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "system", "custom", "mutual"
	CertFile string `mapstructure:"certFile"` // Client certificate file (PEM, mutual mode)
	KeyFile  string `mapstructure:"keyFile"`  // Client private key file (PEM, mutual mode)
	CAFile   string `mapstructure:"caFile"`   // CA bundle used to verify the backend (PEM)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion         string `mapstructure:"minVersion"`         // Minimum TLS version: "1.2", "1.3"
	InsecureSkipVerify bool   `mapstructure:"insecureSkipVerify"` // Skip certificate verification (dev only)
	ServerName         string `mapstructure:"serverName"`         // Expected server name
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.API.TLS

	if err := validateTLSMode(tls); err != nil {
		return err
	}

	if err := validateTLSVersion(tls); err != nil {
		return err
	}

	return nil
}

// validateTLSMode validates the TLS mode and associated requirements
func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "system", "":
		return nil
	case "custom":
		return validateCustomModeTLS(tls)
	case "mutual":
		return validateMutualModeTLS(tls)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'system', 'custom', or 'mutual')", tls.Mode)
	}
}

// validateCustomModeTLS validates a custom CA configuration
func validateCustomModeTLS(tls TLSConfig) error {
	if err := validateCARequired(tls); err != nil {
		return err
	}
	return validateCANoDuplicateSource(tls)
}

// validateMutualModeTLS validates TLS configuration for mutual mode
func validateMutualModeTLS(tls TLSConfig) error {
	if err := validateCertAndKeyRequired(tls, "mutual mode"); err != nil {
		return err
	}

	if err := validateNoDuplicateCertSources(tls); err != nil {
		return err
	}

	return validateCANoDuplicateSource(tls)
}

// validateCertAndKeyRequired checks that both certificate and key are provided
func validateCertAndKeyRequired(tls TLSConfig, mode string) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return fmt.Errorf("client certificate and key are required for %s (provide either files or content)", mode)
	}
	return nil
}

// validateCARequired checks that a CA bundle is provided
func validateCARequired(tls TLSConfig) error {
	if tls.CAFile == "" && tls.CAContent == "" {
		return fmt.Errorf("CA certificate is required for custom TLS mode (provide either caFile or caContent)")
	}
	return nil
}

// validateNoDuplicateCertSources ensures no duplicate sources for cert and key
func validateNoDuplicateCertSources(tls TLSConfig) error {
	if tls.CertFile != "" && tls.CertContent != "" {
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	}
	if tls.KeyFile != "" && tls.KeyContent != "" {
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}
	return nil
}

// validateCANoDuplicateSource ensures no duplicate sources for CA
func validateCANoDuplicateSource(tls TLSConfig) error {
	if tls.CAFile != "" && tls.CAContent != "" {
		return fmt.Errorf("cannot specify both caFile and caContent - choose one")
	}
	return nil
}

// validateTLSVersion validates the TLS version configuration
func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

// BuildClientTLS returns the tls.Config for outbound requests, or nil when the
// system defaults apply unchanged.
func (t TLSConfig) BuildClientTLS() (*tls.Config, error) {
	if (t.Mode == "system" || t.Mode == "") && !t.InsecureSkipVerify && t.ServerName == "" && t.MinVersion != "1.3" {
		return nil, nil
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify, // #nosec G402 -- opt-in for local development
	}
	if t.MinVersion == "1.3" {
		cfg.MinVersion = tls.VersionTLS13
	}

	caPEM, err := readPEM(t.CAFile, t.CAContent)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	if len(caPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certificates found in CA bundle")
		}
		cfg.RootCAs = pool
	}

	if t.Mode == "mutual" {
		certPEM, err := readPEM(t.CertFile, t.CertContent)
		if err != nil {
			return nil, fmt.Errorf("failed to read client certificate: %w", err)
		}
		keyPEM, err := readPEM(t.KeyFile, t.KeyContent)
		if err != nil {
			return nil, fmt.Errorf("failed to read client key: %w", err)
		}
		pair, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	return cfg, nil
}

// readPEM returns inline content if set, otherwise the contents of path
func readPEM(path, content string) ([]byte, error) {
	if content != "" {
		return []byte(content), nil
	}
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
}
