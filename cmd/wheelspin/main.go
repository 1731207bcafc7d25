package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

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

var (
	version    = getVersion()
	configPath = "config.yaml"
)

// getVersion returns the module version from build info
func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "wheelspin",
		Short:   "Farcaster wheel spin service",
		Version: version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the wheel spin HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to config file")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	app, cleanup, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	app.OnShutdown(cleanup)

	app.UseCommonMiddlewares()
	app.RegisterHealthCheck()
	app.RegisterWheelRoutes()

	return app.Run()
}

// buildApp assembles the full dependency graph. A contract config that fails
// validation does not abort startup: the service boots degraded and every
// spin terminates with a not_configured outcome, which is the surface the
// client knows how to render.
func buildApp(cfg *config.Config, logger zerolog.Logger) (*server.App, func(), error) {
	ctx := context.Background()

	validated, err := spin.ValidateConfig(cfg.Chain.ContractConfig())
	if err != nil {
		logger.Error().Err(err).Msg("Contract configuration is not usable, booting degraded")
		validated = nil
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var contract providers.WheelContract
	sessions := wallet.NewSessionProvider(logger)
	if validated != nil {
		client, err := chain.Dial(ctx, cfg.Chain.RPCURL, validated, chain.Config{
			GasLimit:     cfg.Chain.GasLimit,
			PollInterval: cfg.Chain.PollInterval,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to chain rpc: %w", err)
		}
		contract = client
		cleanups = append(cleanups, client.Close)

		if cfg.Chain.OperatorKey != "" {
			signer, err := wallet.NewPrivateKeySigner(cfg.Chain.OperatorKey)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("failed to load operator key: %w", err)
			}
			sessions.Connect(signer, validated.ChainID())
		} else {
			logger.Warn().Msg("No operator key configured, spins will fail until a wallet connects")
		}
	}

	ledger := spin.NewLedger(contract, logger)

	var store spin.AttemptStore
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
		store = provider.NewAttemptStore(redisClient, logger)
	}

	var events spin.EventPublisher
	if producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.SpinResultsTopic,
		Logger:  logger,
	}); producer != nil {
		events = producer
		cleanups = append(cleanups, func() { _ = producer.Close() })
	}

	orchestrator := spin.NewOrchestrator(spin.OrchestratorOptions{
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

	directory := provider.NewDirectoryProvider(cfg.Identity, logger)
	resolver := identity.NewResolver(directory, cfg.Identity.Timeout, logger)

	// An account switch invalidates the per-session identity cache.
	var lastAddress string
	sessions.OnChange(func(s wallet.Session) {
		addr := ""
		if s.Connected {
			addr = s.Address.Hex()
		}
		if addr != lastAddress {
			lastAddress = addr
			resolver.Reset()
		}
	})

	app := server.New(server.Options{
		Config:         cfg,
		Logger:         logger,
		Orchestrator:   orchestrator,
		Ledger:         ledger,
		Sessions:       sessions,
		Resolver:       resolver,
		ContractConfig: validated,
	})

	return app, cleanup, nil
}
