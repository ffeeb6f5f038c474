package config

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/apps/prices"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/monitor"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/net/kafka"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/net/redis"
)

// Config structure
type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Database DatabaseClusterConfig `mapstructure:"database"`
	Ledger   LedgerConfig          `mapstructure:"ledger"`
	Kafka    kafka.Config          `mapstructure:"kafka"`
	Redis    redis.Config          `mapstructure:"redis"`
	Crons    Crons                 `mapstructure:"crons"`
	Prices   prices.Config         `mapstructure:"prices"`
}

// ServerConfig structure
type ServerConfig struct {
	Monitoring monitor.Config `mapstructure:"monitoring"`
	API        APIConfig      `mapstructure:"api"`
}

// APIConfig structure
type APIConfig struct {
	Port      int
	KeepAlive bool `mapstructure:"keep_alive"`
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// LedgerConfig holds the trading policy applied at process scope
type LedgerConfig struct {
	FeeRate         string        `mapstructure:"fee_rate"`
	MinPositionSize string        `mapstructure:"min_position_size"`
	PlaceTimeout    time.Duration `mapstructure:"place_timeout"`
	// QuoteAssets may only be used as quote; every other asset may only be used as base
	QuoteAssets []string `mapstructure:"quote_assets"`
}

func (cfg LedgerConfig) GetFeeRate() (*decimal.Big, error) {
	rate, err := conv.FromString(cfg.FeeRate)
	if err != nil {
		return nil, errors.Wrapf(err, "ledger.fee_rate %q", cfg.FeeRate)
	}
	return rate, nil
}

func (cfg LedgerConfig) GetMinPositionSize() (*decimal.Big, error) {
	size, err := conv.FromString(cfg.MinPositionSize)
	if err != nil {
		return nil, errors.Wrapf(err, "ledger.min_position_size %q", cfg.MinPositionSize)
	}
	return size, nil
}

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	// Driver selects the store implementation: postgres or memory
	Driver      string         `mapstructure:"driver"`
	Writer      DatabaseConfig `mapstructure:"writer"`
	Reader      DatabaseConfig `mapstructure:"reader"`
	Isolation   string         `mapstructure:"isolation"`
	LockTimeout time.Duration  `mapstructure:"lock_timeout"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Host            string
	Username        string
	Password        string
	Name            string
	SSLmode         string `mapstructure:"sslmode"`
	ApplicationName string `mapstructure:"application_name"`
	Port            int
	MaxOpenConns    int `mapstructure:"max_open_conns"`
}

// LoadConfig Load server configuration from the yaml file
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")                       // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")                   // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/papertrade_ledger/") // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()
	SetDefaultVariables(viper.GetViper())

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}

func SetDefaultVariables(v *viper.Viper) {
	v.SetDefault("server.api.port", 8080)
	v.SetDefault("server.monitoring.enabled", false)
	v.SetDefault("server.monitoring.port", 9090)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.isolation", "read_committed")
	v.SetDefault("database.lock_timeout", "3s")
	v.SetDefault("database.writer.sslmode", "disable")
	v.SetDefault("database.reader.sslmode", "disable")

	v.SetDefault("ledger.fee_rate", "0.001")
	v.SetDefault("ledger.min_position_size", "0.01")
	v.SetDefault("ledger.place_timeout", "5s")
	v.SetDefault("ledger.quote_assets", []string{"USD", "EUR", "USDT", "USDC"})

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topics.trades", "papertrade_trades")
	v.SetDefault("kafka.topics.portfolios", "papertrade_portfolios")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("prices.enabled", false)
	v.SetDefault("prices.interval", "1s")
	v.SetDefault("prices.max_age", "10s")
}
