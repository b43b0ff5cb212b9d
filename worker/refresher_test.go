package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockSession implements Session for testing
type MockSession struct {
	mock.Mock

	mu       sync.Mutex
	status   models.SessionStatus
	inFlight bool
}

func (m *MockSession) GetState() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.SessionState{Status: m.status}
}

func (m *MockSession) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

func (m *MockSession) Refresh(ctx context.Context) (models.SessionState, error) {
	args := m.Called(ctx)
	return m.GetState(), args.Error(0)
}

func (m *MockSession) set(status models.SessionStatus, inFlight bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.inFlight = inFlight
}

// TokenRefresherTestSuite covers the refresh schedule
type TokenRefresherTestSuite struct {
	suite.Suite
	ctx       context.Context
	session   *MockSession
	config    *models.Config
	refresher *TokenRefresher
}

func (suite *TokenRefresherTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.session = &MockSession{status: models.SessionReady}
	suite.config = &models.Config{
		RefreshSchedule: "@every 1s",
		RequestTimeout:  time.Second,
	}

	var err error
	suite.refresher, err = NewTokenRefresher(suite.session, suite.config, logger.NewNopLogger())
	suite.Require().NoError(err)
}

func (suite *TokenRefresherTestSuite) TearDownTest() {
	suite.refresher.Stop()
}

func TestTokenRefresherTestSuite(t *testing.T) {
	suite.Run(t, new(TokenRefresherTestSuite))
}

func (suite *TokenRefresherTestSuite) TestNewTokenRefresherValidation() {
	log := logger.NewNopLogger()

	_, err := NewTokenRefresher(nil, suite.config, log)
	suite.Error(err)
	_, err = NewTokenRefresher(suite.session, nil, log)
	suite.Error(err)
	_, err = NewTokenRefresher(suite.session, suite.config, nil)
	suite.Error(err)

	_, err = NewTokenRefresher(suite.session, &models.Config{RefreshSchedule: "every now and then"}, log)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid refresh schedule")

	r, err := NewTokenRefresher(suite.session, &models.Config{}, log)
	suite.Require().NoError(err)
	suite.Equal(DefaultSchedule, r.GetStatus().Schedule)
	suite.Equal(30*time.Second, r.timeout)
}

func (suite *TokenRefresherTestSuite) TestRunOnceSkipsSignedOutSessions() {
	for _, status := range []models.SessionStatus{models.SessionChecking, models.SessionUnauthenticated, models.SessionRefreshing} {
		suite.session.set(status, false)
		refreshed, err := suite.refresher.RunOnce(suite.ctx)
		suite.NoError(err)
		suite.False(refreshed, string(status))
	}
	suite.session.AssertNotCalled(suite.T(), "Refresh", mock.Anything)
}

func (suite *TokenRefresherTestSuite) TestRunOnceSkipsWhileInFlight() {
	suite.session.set(models.SessionReady, true)

	refreshed, err := suite.refresher.RunOnce(suite.ctx)

	suite.NoError(err)
	suite.False(refreshed)
	suite.session.AssertNotCalled(suite.T(), "Refresh", mock.Anything)
}

func (suite *TokenRefresherTestSuite) TestRunOnceRefreshes() {
	suite.session.On("Refresh", mock.Anything).Return(nil)

	for _, status := range []models.SessionStatus{models.SessionReady, models.SessionNoOrganization} {
		suite.session.set(status, false)
		refreshed, err := suite.refresher.RunOnce(suite.ctx)
		suite.NoError(err)
		suite.True(refreshed)
	}

	suite.session.AssertNumberOfCalls(suite.T(), "Refresh", 2)
	status := suite.refresher.GetStatus()
	suite.Equal(2, status.Runs)
	suite.Empty(status.LastError)
	suite.False(status.LastRun.IsZero())
}

func (suite *TokenRefresherTestSuite) TestRunOnceReportsFailures() {
	suite.session.On("Refresh", mock.Anything).Return(models.ErrTokenIssuance).Once()

	refreshed, err := suite.refresher.RunOnce(suite.ctx)

	suite.ErrorIs(err, models.ErrTokenIssuance)
	suite.False(refreshed)
	suite.Equal(models.ErrTokenIssuance.Error(), suite.refresher.GetStatus().LastError)
}

func (suite *TokenRefresherTestSuite) TestRunOnceIgnoresLostRaces() {
	suite.session.On("Refresh", mock.Anything).Return(models.ErrTransitionInProgress).Once()
	suite.session.On("Refresh", mock.Anything).Return(models.ErrStaleTransition).Once()

	for i := 0; i < 2; i++ {
		refreshed, err := suite.refresher.RunOnce(suite.ctx)
		suite.NoError(err)
		suite.False(refreshed)
	}
}

func (suite *TokenRefresherTestSuite) TestStartStop() {
	suite.False(suite.refresher.IsRunning())

	suite.Require().NoError(suite.refresher.Start())
	suite.True(suite.refresher.IsRunning())
	suite.Error(suite.refresher.Start())

	suite.NoError(suite.refresher.Stop())
	suite.False(suite.refresher.IsRunning())
	suite.NoError(suite.refresher.Stop())

	// restart after stop
	suite.NoError(suite.refresher.Start())
	suite.True(suite.refresher.IsRunning())
}

func (suite *TokenRefresherTestSuite) TestScheduleFires() {
	suite.session.On("Refresh", mock.Anything).Return(nil)

	suite.Require().NoError(suite.refresher.Start())

	suite.Eventually(func() bool {
		return suite.refresher.GetStatus().Runs > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestServiceHealthStatus(t *testing.T) {
	session := &MockSession{status: models.SessionReady}
	session.On("Refresh", mock.Anything).Return(errors.New("backend down"))

	svc, err := NewService(session, &models.Config{RefreshSchedule: "@every 1h"}, logger.NewNopLogger())
	assert.NoError(t, err)

	health := svc.GetHealthStatus()
	assert.Equal(t, false, health["worker_running"])
	assert.Equal(t, false, health["healthy"])

	assert.NoError(t, svc.StartInBackground())
	health = svc.GetHealthStatus()
	assert.Equal(t, true, health["worker_running"])
	assert.Equal(t, true, health["healthy"])

	_, err = svc.Refresher().RunOnce(context.Background())
	assert.Error(t, err)
	health = svc.GetHealthStatus()
	assert.Equal(t, false, health["healthy"])
	assert.Equal(t, "backend down", health["error_message"])

	assert.NoError(t, svc.Stop())
	assert.False(t, svc.Refresher().IsRunning())

	_, err = NewService(session, &models.Config{RefreshSchedule: "bogus"}, logger.NewNopLogger())
	assert.Error(t, err)
}
