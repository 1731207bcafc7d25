package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/auth"
	"github.com/cookedzera/farcaster-spin/config"
	"github.com/cookedzera/farcaster-spin/identity"
	"github.com/cookedzera/farcaster-spin/middleware"
	"github.com/cookedzera/farcaster-spin/spin"
	"github.com/cookedzera/farcaster-spin/wallet"
)

// App is the wheel-spin HTTP application.
type App struct {
	engine     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	onShutdown []func()

	orchestrator *spin.Orchestrator
	ledger       *spin.Ledger
	sessions     *wallet.SessionProvider
	resolver     *identity.Resolver
	contractCfg  *spin.ValidatedConfig

	spinHandler     *SpinHandler
	identityHandler *IdentityHandler
}

// Options holds server construction options. ContractConfig may be nil when
// startup validation failed; the API then reports not_configured outcomes
// instead of refusing to boot.
type Options struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Orchestrator   *spin.Orchestrator
	Ledger         *spin.Ledger
	Sessions       *wallet.SessionProvider
	Resolver       *identity.Resolver
	ContractConfig *spin.ValidatedConfig
}

// New creates the application.
func New(opts Options) *App {
	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		engine:       gin.New(),
		config:       opts.Config,
		logger:       opts.Logger,
		orchestrator: opts.Orchestrator,
		ledger:       opts.Ledger,
		sessions:     opts.Sessions,
		resolver:     opts.Resolver,
		contractCfg:  opts.ContractConfig,
	}

	app.spinHandler = NewSpinHandler(app)
	app.identityHandler = NewIdentityHandler(app)

	return app
}

// UseCommonMiddlewares adds the common middleware chain.
func (a *App) UseCommonMiddlewares() {
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))
	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// RegisterHealthCheck adds health check endpoints.
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	configured := a.contractCfg != nil
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"service":    a.config.Environment,
		"configured": configured,
	})
}

// RegisterWheelRoutes registers the game API.
//
// Routes:
//   - POST /api/wheel/spin              -> SpinHandler.Spin
//   - GET  /api/wheel/spin/:id          -> SpinHandler.Get
//   - POST /api/wheel/spin/:id/recheck  -> SpinHandler.Recheck
//   - POST /api/wheel/spin/:id/ack      -> SpinHandler.Acknowledge
//   - GET  /api/wheel/rewards           -> SpinHandler.Rewards
//   - GET  /api/wheel/status            -> SpinHandler.Status
//   - GET  /api/identity/me             -> IdentityHandler.Me
func (a *App) RegisterWheelRoutes() {
	api := a.engine.Group("/api")
	api.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	{
		wheel := api.Group("/wheel")
		{
			wheel.POST("/spin", a.spinHandler.Spin)
			wheel.GET("/spin/:id", a.spinHandler.Get)
			wheel.POST("/spin/:id/recheck", a.spinHandler.Recheck)
			wheel.POST("/spin/:id/ack", a.spinHandler.Acknowledge)
			wheel.GET("/rewards", a.spinHandler.Rewards)
			wheel.GET("/status", a.spinHandler.Status)
		}
		api.GET("/identity/me", a.identityHandler.Me)
	}

	a.logger.Info().Msg("Wheel game routes registered: /api/wheel")
}

// Router returns the Gin engine for custom route registration.
func (a *App) Router() *gin.Engine {
	return a.engine
}

// OnShutdown registers a function to be called on shutdown.
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server and blocks until an interrupt signal.
func (a *App) Run() error {
	a.start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

// RunWithContext starts the HTTP server and blocks until ctx is cancelled.
func (a *App) RunWithContext(ctx context.Context) error {
	errChan := make(chan error, 1)
	a.startWith(errChan)

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) start() {
	a.startWith(nil)
}

func (a *App) startWith(errChan chan error) {
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if errChan != nil {
				errChan <- err
				return
			}
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
