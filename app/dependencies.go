package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/IACMS/IACMS/config"
	"github.com/IACMS/IACMS/permissions"
	"github.com/IACMS/IACMS/repositories"
	"github.com/IACMS/IACMS/repositories/postgres"
	"github.com/IACMS/IACMS/sessions"
	"github.com/IACMS/IACMS/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users repositories.UserRepository
	Cases repositories.CaseRepository

	// Sessions
	SessionStore sessions.Store
	Sessions     *sessions.Manager
	Cookies      *sessions.CookieCodec

	// Tokens
	TokenValidator *token.Validator
	TokenIssuer    *token.Issuer

	// Permissions
	PermissionCache *permissions.Cache
	Authority       permissions.Authority
	Grants          *permissions.Resolver

	stopCh chan struct{}
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		stopCh: make(chan struct{}),
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initSessions(cfg)
	deps.initTokens(cfg)
	deps.initPermissions(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	repos := factory.NewRepositories()
	d.Users = repos.Users
	d.Cases = repos.Cases
	d.SessionStore = factory.NewSessionStore()

	d.Logger.Info("repositories initialized")
	return nil
}

// initSessions initializes the session manager and cookie codec
func (d *Dependencies) initSessions(cfg *config.Config) {
	d.Sessions = sessions.NewManager(d.SessionStore, cfg.Auth.SessionTTL, nil, d.Logger)

	var blockKey []byte
	if cfg.Auth.SessionBlockKey != "" {
		blockKey = []byte(cfg.Auth.SessionBlockKey)
	}
	d.Cookies = sessions.NewCookieCodec(
		[]byte(cfg.Auth.SessionHashKey),
		blockKey,
		cfg.Auth.CookieSecure,
		cfg.Auth.SessionTTL,
	)
}

// initTokens initializes the token validator and issuer
func (d *Dependencies) initTokens(cfg *config.Config) {
	secret := []byte(cfg.Auth.TokenSecret)
	d.TokenValidator = token.NewValidator(secret, cfg.Auth.TokenIssuer)
	d.TokenIssuer = token.NewIssuer(secret, cfg.Auth.TokenIssuer,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, nil)
}

// initPermissions initializes the grant cache, authority client and resolver
func (d *Dependencies) initPermissions(cfg *config.Config) {
	d.PermissionCache = permissions.NewCache(cfg.Authority.CacheSize, cfg.Authority.CacheTTL, nil)
	d.Authority = permissions.NewHTTPAuthority(
		cfg.Authority.BaseURL,
		&http.Client{Timeout: cfg.Authority.Timeout},
		d.Logger,
	)
	d.Grants = permissions.NewResolver(d.PermissionCache, d.Authority, cfg.Authority.Timeout, d.Logger)
}

// StartWorkers launches the background maintenance goroutines: the expired
// session sweeper and the cache cleanup worker. They run until Close.
func (d *Dependencies) StartWorkers() {
	go d.Sessions.StartSweeper(d.Config.Auth.SweepInterval, d.stopCh)
	go d.PermissionCache.StartCleanupWorker(d.Config.Authority.CacheTTL, d.stopCh)
	d.Logger.Info("background workers started")
}

// Close stops background workers and releases held resources.
func (d *Dependencies) Close() error {
	close(d.stopCh)
	if d.RepoFactory != nil {
		return d.RepoFactory.Close()
	}
	return nil
}
