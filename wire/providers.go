package wire

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/chain"
	"github.com/cookedzera/farcaster-spin/config"
	"github.com/cookedzera/farcaster-spin/db/redis"
	"github.com/cookedzera/farcaster-spin/events/kafka"
	"github.com/cookedzera/farcaster-spin/identity"
	"github.com/cookedzera/farcaster-spin/logging"
	"github.com/cookedzera/farcaster-spin/pkg/providers"
	"github.com/cookedzera/farcaster-spin/provider"
	"github.com/cookedzera/farcaster-spin/server"
	"github.com/cookedzera/farcaster-spin/spin"
	"github.com/cookedzera/farcaster-spin/wallet"
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvideValidatedConfig validates the contract deployment section. A
// validation failure is returned, not swallowed; callers decide whether to
// boot degraded with a nil config.
func ProvideValidatedConfig(cfg *config.Config) (*spin.ValidatedConfig, error) {
	return spin.ValidateConfig(cfg.Chain.ContractConfig())
}

// ProvideChainClient provides the on-chain wheel contract client
func ProvideChainClient(ctx context.Context, cfg *config.Config, validated *spin.ValidatedConfig, logger zerolog.Logger) (*chain.Client, error) {
	return chain.Dial(ctx, cfg.Chain.RPCURL, validated, chain.Config{
		GasLimit:     cfg.Chain.GasLimit,
		PollInterval: cfg.Chain.PollInterval,
	}, logger)
}

// ProvideLedger provides the reward balance ledger
func ProvideLedger(contract *chain.Client, logger zerolog.Logger) *spin.Ledger {
	return spin.NewLedger(contract, logger)
}

// ProvideSessionProvider provides the wallet session provider
func ProvideSessionProvider(logger zerolog.Logger) *wallet.SessionProvider {
	return wallet.NewSessionProvider(logger)
}

// ProvideAttemptStore provides the Redis-backed attempt store. Returns a nil
// interface when Redis is not configured.
func ProvideAttemptStore(cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) spin.AttemptStore {
	if cfg.Redis.Addr == "" || redisClient == nil {
		return nil
	}
	return provider.NewAttemptStore(redisClient, logger)
}

// ProvideEventPublisher provides the Kafka spin result publisher. Returns a
// nil interface when no brokers are configured.
func ProvideEventPublisher(cfg *config.Config, logger zerolog.Logger) spin.EventPublisher {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.SpinResultsTopic,
		Logger:  logger,
	})
	if producer == nil {
		return nil
	}
	return producer
}

// ProvideOrchestrator provides the spin orchestrator
func ProvideOrchestrator(
	cfg *config.Config,
	validated *spin.ValidatedConfig,
	sessions *wallet.SessionProvider,
	contract *chain.Client,
	ledger *spin.Ledger,
	store spin.AttemptStore,
	events spin.EventPublisher,
	logger zerolog.Logger,
) *spin.Orchestrator {
	return spin.NewOrchestrator(spin.OrchestratorOptions{
		Config:              validated,
		Sessions:            sessions,
		Contract:            contract,
		Ledger:              ledger,
		Store:               store,
		Events:              events,
		Logger:              logger,
		Confirmations:       cfg.Chain.Confirmations,
		ConfirmationTimeout: cfg.Chain.ConfirmationTimeout,
	})
}

// ProvideDirectory provides the identity directory client
func ProvideDirectory(cfg *config.Config, logger zerolog.Logger) providers.Directory {
	return provider.NewDirectoryProvider(cfg.Identity, logger)
}

// ProvideResolver provides the identity resolver
func ProvideResolver(cfg *config.Config, directory providers.Directory, logger zerolog.Logger) *identity.Resolver {
	return identity.NewResolver(directory, cfg.Identity.Timeout, logger)
}

// ProvideServerOptions provides server options
func ProvideServerOptions(
	cfg *config.Config,
	logger zerolog.Logger,
	orchestrator *spin.Orchestrator,
	ledger *spin.Ledger,
	sessions *wallet.SessionProvider,
	resolver *identity.Resolver,
	validated *spin.ValidatedConfig,
) server.Options {
	return server.Options{
		Config:         cfg,
		Logger:         logger,
		Orchestrator:   orchestrator,
		Ledger:         ledger,
		Sessions:       sessions,
		Resolver:       resolver,
		ContractConfig: validated,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
	ProvideValidatedConfig,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// RedisSet is the wire provider set for Redis
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideAttemptStore,
)

// ChainSet is the wire provider set for the on-chain client and ledger
var ChainSet = wire.NewSet(
	ProvideChainClient,
	ProvideLedger,
)

// SpinSet is the wire provider set for the spin flow
var SpinSet = wire.NewSet(
	ProvideSessionProvider,
	ProvideEventPublisher,
	ProvideOrchestrator,
)

// IdentitySet is the wire provider set for identity resolution
var IdentitySet = wire.NewSet(
	ProvideDirectory,
	ProvideResolver,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// DefaultSet is the default wire provider set including all common providers
var DefaultSet = wire.NewSet(
	LoggingSet,
	ChainSet,
	SpinSet,
	IdentitySet,
	ServerSet,
)

// FullSet includes all providers including Redis
var FullSet = wire.NewSet(
	DefaultSet,
	RedisSet,
)
