package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/robfig/cron"
)

// DefaultSchedule re-issues the access token ahead of its five minute lifetime
const DefaultSchedule = "@every 4m"

// Session is the part of the session controller the refresher drives
type Session interface {
	GetState() models.SessionState
	InFlight() bool
	Refresh(ctx context.Context) (models.SessionState, error)
}

// TokenRefresher silently re-issues the access token on a cron schedule
type TokenRefresher struct {
	session  Session
	schedule string
	timeout  time.Duration
	logger   logger.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc

	lastRun   time.Time
	lastError error
	runs      int
}

func NewTokenRefresher(session Session, cfg *models.Config, log logger.Logger) (*TokenRefresher, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	schedule := cfg.RefreshSchedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule '%s': %w", schedule, err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &TokenRefresher{
		session:  session,
		schedule: schedule,
		timeout:  timeout,
		logger:   log,
	}, nil
}

// Start schedules the refresh job
func (r *TokenRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("token refresher is already running")
	}

	c := cron.New()
	if err := c.AddFunc(r.schedule, r.tick); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.cron = c
	r.cron.Start()
	r.isRunning = true

	r.logger.Infof("Token refresher started with schedule: %s", r.schedule)
	return nil
}

// Stop halts the schedule and cancels a refresh in progress
func (r *TokenRefresher) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return nil
	}

	r.cron.Stop()
	r.cancel()
	r.isRunning = false

	r.logger.Info("Token refresher stopped")
	return nil
}

// IsRunning reports whether the schedule is active
func (r *TokenRefresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// RunOnce refreshes the token now. It reports false without error when the
// session is signed out or busy with another transition.
func (r *TokenRefresher) RunOnce(ctx context.Context) (bool, error) {
	state := r.session.GetState()
	if state.Status != models.SessionReady && state.Status != models.SessionNoOrganization {
		r.logger.Debugf("Skipping token refresh in state %s", state.Status)
		return false, nil
	}
	if r.session.InFlight() {
		r.logger.Debug("Skipping token refresh while a transition is in flight")
		return false, nil
	}

	_, err := r.session.Refresh(ctx)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastError = err
	r.runs++
	r.mu.Unlock()

	switch {
	case err == nil:
		r.logger.Debug("Access token refreshed")
		return true, nil
	case errors.Is(err, models.ErrTransitionInProgress), errors.Is(err, models.ErrStaleTransition):
		r.logger.Debugf("Token refresh superseded: %v", err)
		return false, nil
	default:
		return false, err
	}
}

func (r *TokenRefresher) tick() {
	r.mu.Lock()
	parent := r.ctx
	r.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("Token refresh panicked: %v", rec)
		}
	}()

	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Warnf("Token refresh failed: %v", err)
	}
}

// Status is a snapshot for health reporting
type Status struct {
	Running   bool      `json:"running"`
	Schedule  string    `json:"schedule"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// GetStatus returns the refresher's current status
func (r *TokenRefresher) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := Status{
		Running:  r.isRunning,
		Schedule: r.schedule,
		Runs:     r.runs,
		LastRun:  r.lastRun,
	}
	if r.lastError != nil {
		status.LastError = r.lastError.Error()
	}
	return status
}
