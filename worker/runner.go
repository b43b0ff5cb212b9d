package worker

import (
	"fmt"

	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

// Service wraps the token refresher for easy integration
type Service struct {
	refresher *TokenRefresher
	logger    logger.Logger
}

// NewService creates a new worker service
func NewService(session Session, cfg *models.Config, log logger.Logger) (*Service, error) {
	refresher, err := NewTokenRefresher(session, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create token refresher: %w", err)
	}

	return &Service{
		refresher: refresher,
		logger:    log,
	}, nil
}

// StartInBackground starts the refresh schedule; cron runs it on its own goroutine
func (s *Service) StartInBackground() error {
	s.logger.Info("Starting token refresh worker in background")
	return s.refresher.Start()
}

// Stop stops the token refresh worker
func (s *Service) Stop() error {
	s.logger.Info("Stopping token refresh worker")
	return s.refresher.Stop()
}

// Refresher returns the underlying refresher
func (s *Service) Refresher() *TokenRefresher {
	return s.refresher
}

// GetHealthStatus returns a health status for monitoring
func (s *Service) GetHealthStatus() map[string]interface{} {
	status := s.refresher.GetStatus()

	health := map[string]interface{}{
		"worker_running": status.Running,
		"schedule":       status.Schedule,
		"runs":           status.Runs,
		"healthy":        status.Running && status.LastError == "",
	}
	if !status.LastRun.IsZero() {
		health["last_run"] = status.LastRun
	}
	if status.LastError != "" {
		health["error_message"] = status.LastError
	}
	return health
}
