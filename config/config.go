package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cookedzera/farcaster-spin/logging"
	"github.com/cookedzera/farcaster-spin/spin"
)

// Config holds all application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Logging     logging.Config `mapstructure:"logging"`
	Chain       ChainConfig    `mapstructure:"chain"`
	Identity    IdentityConfig `mapstructure:"identity"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// RedisConfig holds Redis connection configuration. An empty Addr disables
// the attempt history store.
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// KafkaConfig holds Kafka configuration. Empty brokers disable event
// publication.
type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	SpinResultsTopic string   `mapstructure:"spin_results_topic"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// ChainConfig holds the on-chain deployment and client tuning. The contract
// section feeds spin.ValidateConfig at startup.
type ChainConfig struct {
	RPCURL              string             `mapstructure:"rpc_url"`
	ChainID             int64              `mapstructure:"chain_id"`
	WheelGameAddress    string             `mapstructure:"wheel_game_address"`
	RewardTokens        []spin.TokenConfig `mapstructure:"reward_tokens"`
	Confirmations       uint64             `mapstructure:"confirmations"`
	ConfirmationTimeout time.Duration      `mapstructure:"confirmation_timeout"`
	GasLimit            uint64             `mapstructure:"gas_limit"`
	PollInterval        time.Duration      `mapstructure:"poll_interval"`
	// OperatorKey is the hex private key of the spinning account when the
	// service runs in operator mode. Supplied via env in production.
	OperatorKey string `mapstructure:"operator_key"`
}

// ContractConfig extracts the raw contract configuration for validation.
func (c *ChainConfig) ContractConfig() spin.ContractConfig {
	return spin.ContractConfig{
		WheelGameAddress: c.WheelGameAddress,
		RewardTokens:     c.RewardTokens,
		ChainID:          c.ChainID,
	}
}

// IdentityConfig holds directory lookup configuration
type IdentityConfig struct {
	DirectoryBaseURL string        `mapstructure:"directory_base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from a YAML file using Viper
func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// LoadByEnv loads configuration based on environment using Viper
func LoadByEnv(configDir string) (*Config, error) {
	v := viper.New()

	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	env := viper.GetString("ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("config-%s", env))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Kafka.SpinResultsTopic == "" {
		c.Kafka.SpinResultsTopic = "wheel.spin.results"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Chain.Confirmations == 0 {
		c.Chain.Confirmations = 1
	}
	if c.Chain.ConfirmationTimeout == 0 {
		c.Chain.ConfirmationTimeout = 90 * time.Second
	}
	if c.Chain.PollInterval == 0 {
		c.Chain.PollInterval = 2 * time.Second
	}
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = 3 * time.Second
	}
}

// IsDevelopment returns true if environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
