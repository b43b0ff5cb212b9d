package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mcpadmin/dal"
	"mcpadmin/middelware"
	"mcpadmin/models"
	"mcpadmin/repository"
	"mcpadmin/services"
	"mcpadmin/utils/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// Controller is the assembled application: storage, services, the session
// state machine and the gateway handlers on top of it
type Controller struct {
	Session  *SessionController
	Gateway  *GatewayController
	Services services.ServiceContainerInterface

	config *models.Config
	store  dal.KeyValueStore
	repo   *repository.Repository
	logger logger.Logger
}

func NewController(ctx context.Context, cfg *models.Config, log logger.Logger) (*Controller, error) {
	store, err := dal.NewStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return NewControllerWithStore(cfg, store, log)
}

// NewControllerWithStore wires the application over an existing store
func NewControllerWithStore(cfg *models.Config, store dal.KeyValueStore, log logger.Logger) (*Controller, error) {
	repo, err := repository.NewRepository(store, cfg, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	transport := middelware.NewTransport(http.DefaultTransport, log)
	sessionClient := &http.Client{
		Jar:       repo.Cookies,
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}
	bearerClient := &http.Client{
		Jar:     repo.Cookies,
		Timeout: cfg.RequestTimeout,
		Transport: &oauth2.Transport{
			Source: repo.Tokens,
			Base:   transport,
		},
	}

	svc := services.NewService(cfg, sessionClient, bearerClient, log)
	session := NewSessionController(SessionDependencies{
		Tokens:       repo.Tokens,
		Preferences:  repo.Preferences,
		TokenSvc:     svc.GetTokenService(),
		Profiles:     svc.GetProfileService(),
		Auth:         svc.GetAuthService(),
		Jar:          repo.Cookies,
		BearerClient: bearerClient,
	}, log)

	return &Controller{
		Session:  session,
		Gateway:  NewGatewayController(session, svc.GetAuthService(), svc.GetOrganizationService(), log),
		Services: svc,
		config:   cfg,
		store:    store,
		repo:     repo,
		logger:   log,
	}, nil
}

// HasStoredSession reports whether a session cookie survived from an earlier run
func (c *Controller) HasStoredSession() bool {
	return c.repo.Cookies.HasSession()
}

// Close releases the storage backend
func (c *Controller) Close() error {
	return c.store.Close()
}

// Router builds the gateway engine with middleware and routes
func (c *Controller) Router() *gin.Engine {
	r := gin.New()

	logging := middelware.NewLoggingMiddleware(c.logger)
	r.Use(
		middelware.RequestID(),
		middelware.NewCORSMiddleware(c.config).CORS(),
		logging.StructuredLogger(),
		logging.Recovery(),
	)

	c.Gateway.RegisterRoutes(r, c.config.GatewayBasePath, c.config.AppVersion)
	return r
}

// Serve runs the gateway until ctx is cancelled
func (c *Controller) Serve(ctx context.Context) error {
	addr := c.config.GatewayHost + ":" + c.config.GatewayPort
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Infof("Gateway listening on http://%s%s", addr, c.config.GatewayBasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.logger.Info("Shutting down gateway")
	return srv.Shutdown(shutdownCtx)
}
