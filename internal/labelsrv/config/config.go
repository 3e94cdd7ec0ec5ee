// Package config loads the labelsrv configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type ConfigParam struct {
	ServerPort        string `toml:"server_port"`
	HandleCORS        bool   `toml:"handle_cors"`
	AllowedOrigin     string `toml:"allowed_origin"`
	CatalogDsn        string `toml:"catalog_dsn"`
	ShopifyAPIVersion string `toml:"shopify_api_version"`
	ShopifyAPISecret  string `toml:"shopify_api_secret"`
	TokenTTL          string `toml:"token_ttl"`
	SweepInterval     string `toml:"sweep_interval"`
	CompressPayloads  bool   `toml:"compress_payloads"`
	TokenCryptKey     string `toml:"token_crypt_key"`
	MaxBarcodeRetries int    `toml:"max_barcode_retries"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func LoadConfig(filename string) error {
	if filename == "" {
		cfg = defaultConfig()
		return nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	var cp ConfigParam
	if _, err := toml.Decode(string(content), &cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	applyDefaults(&cp)
	cfg = &cp
	return nil
}

func defaultConfig() *ConfigParam {
	cp := &ConfigParam{
		ServerPort: "8196",
		HandleCORS: true,
	}
	applyDefaults(cp)
	return cp
}

func applyDefaults(cp *ConfigParam) {
	if cp.ServerPort == "" {
		cp.ServerPort = "8196"
	}
	if cp.ShopifyAPIVersion == "" {
		cp.ShopifyAPIVersion = "2024-07"
	}
	if cp.TokenTTL == "" {
		cp.TokenTTL = "15m"
	}
	if cp.SweepInterval == "" {
		cp.SweepInterval = "1m"
	}
	if cp.MaxBarcodeRetries <= 0 {
		cp.MaxBarcodeRetries = 10
	}
}

// TokenTTLDuration returns the download token expiry window.
func (cp *ConfigParam) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(cp.TokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// SweepIntervalDuration returns the background sweep period. Zero disables
// the sweeper; lazy expiry in Redeem keeps the service correct without it.
func (cp *ConfigParam) SweepIntervalDuration() time.Duration {
	if cp.SweepInterval == "0" {
		return 0
	}
	d, err := time.ParseDuration(cp.SweepInterval)
	if err != nil || d < 0 {
		return time.Minute
	}
	return d
}

func init() {
	if err := LoadConfig(""); err != nil {
		panic(err)
	}
}
