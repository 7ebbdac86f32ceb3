package main

import (
	"crypto/rand"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"slices"
	"strings"
	"time"
)

type Config struct {
	Listen         string
	ThumbnailDir   string `yaml:"thumbnail-dir"`
	DataDir        string `yaml:"data-dir"`
	Network        string
	Lnd            LndConfig
	Credentials    map[UserKey]string
	Administrators []UserKey
	Orders         OrdersConfig
	Rates          RatesConfig
	WalletAssist   bool `yaml:"wallet-assist"`
}

func (config *Config) cookieKey() []byte {
	cookieKeyFileName := config.DataDir + ".cookie"
	cookieKey, err := os.ReadFile(cookieKeyFileName)
	if err == nil {
		return cookieKey
	}

	cookieKey = make([]byte, 32)
	if _, err := rand.Read(cookieKey); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(cookieKeyFileName, cookieKey, 0400); err != nil {
		log.Fatal(err)
	}

	return cookieKey
}

type UserKey string

func defaultConfig() Config {
	return Config{
		Listen:       "127.0.0.1:8089",
		ThumbnailDir: "/etc/payreqd/thumbnails",
		DataDir:      "/var/lib/payreqd",
		Network:      "mainnet",
		Lnd: LndConfig{
			Address:      "127.0.0.1:10009",
			CertFile:     "/var/lib/lnd/tls.cert",
			MacaroonFile: "/var/lib/lnd/data/chain/bitcoin/mainnet/admin.macaroon",
			CacheSize:    1024,
			FeeLimit:     100,
		},
		Orders: OrdersConfig{
			LabelPrefix: "Blocktank",
			Expiry:      1 * time.Hour,
			MinAmount:   1_000,
			MaxAmount:   10_000_000,
		},
		Rates: RatesConfig{
			RefreshPeriod: 1 * time.Minute,
		},
		WalletAssist: true,
	}
}

func loadConfig(configFileName string) *Config {
	configData, err := os.ReadFile(configFileName)
	if err != nil {
		log.Fatal(err)
	}

	config, err := parseConfig(configData)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func parseConfig(configData []byte) (*Config, error) {
	config := defaultConfig()
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	if !strings.HasSuffix(config.ThumbnailDir, pathSeparator) {
		config.ThumbnailDir += pathSeparator
	}
	if !strings.HasSuffix(config.DataDir, pathSeparator) {
		config.DataDir += pathSeparator
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if networkParams(config.Network) == nil {
		return invalidConfigValue("network", config.Network)
	}
	for _, user := range config.Administrators {
		if _, userExists := config.Credentials[user]; !userExists {
			return invalidConfigValue("administrators", user)
		}
	}

	orders := config.Orders
	if strings.TrimSpace(orders.LabelPrefix) == "" {
		return invalidConfigValue("orders.label-prefix", orders.LabelPrefix)
	}
	if orders.Expiry < 1*time.Minute || orders.Expiry > 7*24*time.Hour {
		return invalidConfigValue("orders.expiry", orders.Expiry)
	}
	if orders.MinAmount < 1 || orders.MinAmount > orders.MaxAmount {
		return invalidConfigValue("orders.min-amount", orders.MinAmount)
	}
	if orders.MaxAmount > 21_000_000*satsPerBitcoin {
		return invalidConfigValue("orders.max-amount", orders.MaxAmount)
	}

	rates := config.Rates
	if rates.Currency != "" && !slices.Contains(supportedCurrencies(), rates.Currency) {
		return invalidConfigValue("rates.currency", rates.Currency)
	}
	if rates.RefreshPeriod < 10*time.Second {
		return invalidConfigValue("rates.refresh-period", rates.RefreshPeriod)
	}

	return nil
}

type ConfigError struct {
	Property string
	Value    any
}

func (err *ConfigError) Error() string {
	return "Invalid config value " + err.Property + ": " + fmt.Sprint(err.Value)
}

func invalidConfigValue(property string, value any) error {
	return &ConfigError{property, value}
}
