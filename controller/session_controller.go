package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mcpadmin/models"
	"mcpadmin/rbac"
	"mcpadmin/repository"
	"mcpadmin/services"
	"mcpadmin/utils/logger"

	"golang.org/x/sync/singleflight"
)

// Transition is a request to move the session to another state
type Transition interface {
	Name() string
}

// Bootstrap establishes the session from the stored credential and preference
type Bootstrap struct{}

// SwitchOrganization activates another membership of the current user
type SwitchOrganization struct {
	OrganizationID string
}

// ToggleActiveRole flips an Admin between acting as Admin and as Member
type ToggleActiveRole struct{}

// Logout ends the session and wipes client storage
type Logout struct{}

// Refresh silently re-issues the token for the current scope
type Refresh struct{}

func (Bootstrap) Name() string          { return "bootstrap" }
func (SwitchOrganization) Name() string { return "switch_organization" }
func (ToggleActiveRole) Name() string   { return "toggle_role" }
func (Logout) Name() string             { return "logout" }
func (Refresh) Name() string            { return "refresh" }

// CacheInvalidator drops data fetched under an organization scope
type CacheInvalidator interface {
	InvalidateOrganization(orgID string)
	InvalidateAll()
}

// errToggleIgnored aborts a toggle for users that are not Admin
var errToggleIgnored = errors.New("role toggle not applicable")

type noopCache struct{}

func (noopCache) InvalidateOrganization(string) {}
func (noopCache) InvalidateAll()                {}

// SessionDependencies are the collaborators of a SessionController
type SessionDependencies struct {
	Tokens      repository.TokenStoreInterface
	Preferences repository.PreferenceRepositoryInterface
	TokenSvc    services.TokenServiceInterface
	Profiles    services.ProfileServiceInterface
	Auth        services.AuthServiceInterface

	// Optional
	Jar          repository.SessionJar
	Cache        CacheInvalidator
	BearerClient *http.Client
}

// SessionController owns the access token and the active organization and
// role. Every state change goes through a transition; observers receive a
// copy of the state after each change.
type SessionController struct {
	tokens   repository.TokenStoreInterface
	prefs    repository.PreferenceRepositoryInterface
	tokenSvc services.TokenServiceInterface
	profiles services.ProfileServiceInterface
	auth     services.AuthServiceInterface
	jar      repository.SessionJar
	cache    CacheInvalidator
	bearer   *http.Client
	logger   logger.Logger

	mu    sync.Mutex
	state models.SessionState
	// owner is the transition id currently in flight, 0 when idle
	owner uint64

	subMu       sync.Mutex
	subscribers []subscriber
	nextSub     int

	refreshGroup singleflight.Group
}

type subscriber struct {
	id int
	fn func(models.SessionState)
}

func NewSessionController(deps SessionDependencies, log logger.Logger) *SessionController {
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	return &SessionController{
		tokens:   deps.Tokens,
		prefs:    deps.Preferences,
		tokenSvc: deps.TokenSvc,
		profiles: deps.Profiles,
		auth:     deps.Auth,
		jar:      deps.Jar,
		cache:    cache,
		bearer:   deps.BearerClient,
		logger:   log,
		state:    models.SessionState{Status: models.SessionChecking},
	}
}

// GetState returns a snapshot of the current state
func (c *SessionController) GetState() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// InFlight reports whether a transition is running
func (c *SessionController) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner != 0
}

// Subscribe registers fn to be called synchronously, in subscription order,
// after every state change. The returned func removes the subscription.
func (c *SessionController) Subscribe(fn func(models.SessionState)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.subscribers = append(c.subscribers, subscriber{id: id, fn: fn})

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subscribers {
			if s.id == id {
				c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (c *SessionController) notify(state models.SessionState) {
	c.subMu.Lock()
	subs := append([]subscriber(nil), c.subscribers...)
	c.subMu.Unlock()

	for _, s := range subs {
		s.fn(state.Clone())
	}
}

// Dispatch runs a transition and returns the resulting state
func (c *SessionController) Dispatch(ctx context.Context, t Transition) (models.SessionState, error) {
	start := time.Now()

	var err error
	switch tr := t.(type) {
	case Bootstrap:
		err = c.bootstrap(ctx)
	case SwitchOrganization:
		err = c.switchOrganization(ctx, tr.OrganizationID)
	case ToggleActiveRole:
		err = c.toggleActiveRole(ctx)
	case Logout:
		err = c.logout(ctx)
	case Refresh:
		err = c.refresh(ctx)
	default:
		return c.GetState(), fmt.Errorf("unknown transition %T", t)
	}

	sessionTransitionDuration.WithLabelValues(t.Name()).Observe(time.Since(start).Seconds())
	sessionTransitions.WithLabelValues(t.Name(), outcome(err)).Inc()

	return c.GetState(), err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrTransitionInProgress):
		return "rejected"
	case errors.Is(err, models.ErrStaleTransition):
		return "stale"
	default:
		return "error"
	}
}

func (c *SessionController) Bootstrap(ctx context.Context) (models.SessionState, error) {
	return c.Dispatch(ctx, Bootstrap{})
}

func (c *SessionController) SwitchOrganization(ctx context.Context, orgID string) (models.SessionState, error) {
	return c.Dispatch(ctx, SwitchOrganization{OrganizationID: orgID})
}

// ToggleActiveRole returns the active role after the toggle
func (c *SessionController) ToggleActiveRole(ctx context.Context) (models.Role, error) {
	state, err := c.Dispatch(ctx, ToggleActiveRole{})
	return state.ActiveRole, err
}

func (c *SessionController) Logout(ctx context.Context) (models.SessionState, error) {
	return c.Dispatch(ctx, Logout{})
}

func (c *SessionController) Refresh(ctx context.Context) (models.SessionState, error) {
	return c.Dispatch(ctx, Refresh{})
}

// begin claims the controller for a new transition. Guarded transitions fail
// while another one is in flight; unguarded ones preempt it. mutate runs under
// the lock with the new transition id already assigned.
func (c *SessionController) begin(guarded bool, mutate func(s *models.SessionState) error) (uint64, error) {
	c.mu.Lock()
	if guarded && c.owner != 0 {
		c.mu.Unlock()
		return 0, models.ErrTransitionInProgress
	}

	next := c.state
	next.TransitionID++
	if mutate != nil {
		if err := mutate(&next); err != nil {
			c.mu.Unlock()
			return 0, err
		}
	}
	c.state = next
	c.owner = next.TransitionID
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.notify(snapshot)
	return snapshot.TransitionID, nil
}

// apply commits the outcome of transition id unless a newer transition has
// started since, in which case the outcome is discarded.
func (c *SessionController) apply(id uint64, mutate func(s *models.SessionState)) error {
	c.mu.Lock()
	if c.state.TransitionID != id {
		c.mu.Unlock()
		c.logger.Debugf("Discarding result of superseded transition %d", id)
		return models.ErrStaleTransition
	}
	mutate(&c.state)
	if c.owner == id {
		c.owner = 0
	}
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.notify(snapshot)
	return nil
}

// release gives up ownership without changing state
func (c *SessionController) release(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == id {
		c.owner = 0
	}
}

func (c *SessionController) issue(ctx context.Context, scope *models.ActAs) (*models.AccessToken, error) {
	token, err := c.tokenSvc.IssueToken(ctx, scope)
	observeTokenIssuance(scope != nil, err)
	return token, err
}

func (c *SessionController) persistOrganization(ctx context.Context, org *models.ActiveOrganization) {
	if err := c.prefs.SetActiveOrganization(ctx, org.OrgID, org.OrgName, org.UserRole); err != nil {
		c.logger.Warnf("Failed to persist organization preference: %v", err)
	}
}

func (c *SessionController) persistOverride(ctx context.Context, orgID string, override *models.Role) {
	var err error
	if override != nil {
		err = c.prefs.SetActiveRole(ctx, orgID, *override)
	} else {
		err = c.prefs.ClearActiveRole(ctx)
	}
	if err != nil {
		c.logger.Warnf("Failed to persist role override: %v", err)
	}
}

func (c *SessionController) clearPreferences(ctx context.Context) {
	if err := c.prefs.ClearActiveOrganization(ctx); err != nil {
		c.logger.Warnf("Failed to clear organization preference: %v", err)
	}
	if err := c.prefs.ClearActiveRole(ctx); err != nil {
		c.logger.Warnf("Failed to clear role override: %v", err)
	}
}

// unauthenticated resets s to the signed-out state. Must be called under mu.
func (c *SessionController) unauthenticated(s *models.SessionState, cause error) {
	c.tokens.Clear()
	c.tokenSvc.ClearActAs()
	*s = models.SessionState{
		Status:       models.SessionUnauthenticated,
		TransitionID: s.TransitionID,
	}
	if cause != nil {
		s.LastError = cause.Error()
	}
}

func (c *SessionController) bootstrap(ctx context.Context) error {
	id, err := c.begin(true, func(s *models.SessionState) error {
		s.Status = models.SessionChecking
		s.LastError = ""
		return nil
	})
	if err != nil {
		return err
	}

	pref, _ := c.prefs.GetStoredPreference(ctx)
	c.tokenSvc.ClearActAs()

	base, err := c.issue(ctx, nil)
	if err != nil {
		if errors.Is(err, models.ErrAuthRequired) {
			c.logger.Debug("No valid session credential")
			return c.apply(id, func(s *models.SessionState) { c.unauthenticated(s, nil) })
		}
		c.logger.Warnf("Bootstrap token request failed: %v", err)
		if applyErr := c.apply(id, func(s *models.SessionState) { c.unauthenticated(s, err) }); applyErr != nil {
			return applyErr
		}
		return err
	}

	profile, err := c.profiles.GetProfile(ctx, base.Value)
	if err != nil {
		c.logger.Errorf("Failed to fetch profile: %v", err)
		if applyErr := c.apply(id, func(s *models.SessionState) { c.unauthenticated(s, err) }); applyErr != nil {
			return applyErr
		}
		return err
	}

	chosen, stale := ReconcileOrganization(profile, pref)
	if stale {
		c.logger.Infof("Discarding stored organization %s: %v", pref.OrganizationID, models.ErrOrganizationMismatch)
		c.clearPreferences(ctx)
		pref = nil
	}

	if chosen == nil {
		return c.apply(id, func(s *models.SessionState) {
			c.tokens.Set(base)
			*s = models.SessionState{
				Status:       models.SessionNoOrganization,
				User:         profile,
				TransitionID: s.TransitionID,
			}
		})
	}

	trueRole := chosen.Role
	var override *models.Role
	if pref != nil && pref.ActingRole != nil {
		if effective := rbac.EffectiveRole(trueRole, pref.ActingRole); effective != trueRole {
			override = &effective
		} else {
			c.persistOverride(ctx, chosen.OrganizationID, nil)
		}
	}
	active := &models.ActiveOrganization{
		OrgID:    chosen.OrganizationID,
		OrgName:  chosen.OrganizationName,
		UserRole: trueRole,
	}

	// the backend scope always carries the true role
	want := &models.ActAs{OrganizationID: chosen.OrganizationID, Role: trueRole}
	token := base
	if !want.Equal(c.tokenSvc.CurrentActAs()) {
		token, err = c.issue(ctx, want)
		if err != nil {
			c.logger.Errorf("Failed to issue token for organization %s: %v", chosen.OrganizationID, err)
			applyErr := c.apply(id, func(s *models.SessionState) {
				c.clearPreferences(ctx)
				c.unauthenticated(s, err)
			})
			if applyErr != nil {
				return applyErr
			}
			return err
		}
	}

	return c.apply(id, func(s *models.SessionState) {
		c.tokens.Set(token)
		c.persistOrganization(ctx, active)
		*s = models.SessionState{
			Status:             models.SessionReady,
			User:               profile,
			ActiveOrganization: active,
			RoleOverride:       override,
			ActiveRole:         rbac.EffectiveRole(trueRole, override),
			TransitionID:       s.TransitionID,
		}
		c.logger.Infof("Session ready in organization %s as %s", active.OrgID, s.ActiveRole)
	})
}

// scopeChangeFailed settles a failed re-issuance during a switch or toggle.
// A request that never reached the backend restores the previous state; a
// backend rejection ends the session.
func (c *SessionController) scopeChangeFailed(id uint64, previous models.SessionState, restorePrefs func(), err error) error {
	recoverable := models.IsTransportFailure(err)
	applyErr := c.apply(id, func(s *models.SessionState) {
		restorePrefs()
		if recoverable {
			prev := previous.Clone()
			prev.TransitionID = s.TransitionID
			prev.LastError = err.Error()
			*s = prev
			return
		}
		c.unauthenticated(s, err)
	})
	if applyErr != nil {
		return applyErr
	}
	if recoverable {
		c.logger.Warnf("Scope change failed, keeping previous session: %v", err)
	} else {
		c.logger.Errorf("Scope change rejected, ending session: %v", err)
	}
	return err
}

func (c *SessionController) switchOrganization(ctx context.Context, orgID string) error {
	var (
		previous models.SessionState
		target   models.OrganizationMembership
	)

	id, err := c.begin(true, func(s *models.SessionState) error {
		if !s.Status.Authenticated() {
			return models.ErrNotAuthenticated
		}
		m, ok := s.User.Membership(orgID)
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrUnknownOrganization, orgID)
		}
		previous = s.Clone()
		previous.TransitionID = 0
		target = m

		// override is per organization and never carries over
		c.persistOrganization(ctx, &models.ActiveOrganization{OrgID: m.OrganizationID, OrgName: m.OrganizationName, UserRole: m.Role})
		c.persistOverride(ctx, m.OrganizationID, nil)

		s.Status = models.SessionRefreshing
		s.ActiveOrganization = &models.ActiveOrganization{OrgID: m.OrganizationID, OrgName: m.OrganizationName, UserRole: m.Role}
		s.RoleOverride = nil
		s.ActiveRole = m.Role
		s.LastError = ""
		return nil
	})
	if err != nil {
		return err
	}

	token, err := c.issue(ctx, &models.ActAs{OrganizationID: target.OrganizationID, Role: target.Role})
	if err != nil {
		return c.scopeChangeFailed(id, previous, func() {
			if previous.ActiveOrganization == nil {
				c.clearPreferences(ctx)
				return
			}
			c.persistOrganization(ctx, previous.ActiveOrganization)
			c.persistOverride(ctx, previous.ActiveOrganization.OrgID, previous.RoleOverride)
		}, err)
	}

	if err := c.apply(id, func(s *models.SessionState) {
		c.tokens.Set(token)
		s.Status = models.SessionReady
	}); err != nil {
		return err
	}

	if previous.ActiveOrganization != nil {
		c.cache.InvalidateOrganization(previous.ActiveOrganization.OrgID)
	}
	c.logger.Infof("Switched to organization %s as %s", target.OrganizationID, target.Role)
	return nil
}

func (c *SessionController) toggleActiveRole(ctx context.Context) error {
	var (
		previous models.SessionState
		orgID    string
		trueRole models.Role
	)

	id, err := c.begin(true, func(s *models.SessionState) error {
		if !s.Status.Authenticated() {
			return models.ErrNotAuthenticated
		}
		if s.Status != models.SessionReady || s.ActiveOrganization == nil {
			return models.ErrNoActiveOrganization
		}
		orgID = s.ActiveOrganization.OrgID
		trueRole = s.ActiveOrganization.UserRole
		if trueRole != models.RoleAdmin {
			return errToggleIgnored
		}
		previous = s.Clone()
		previous.TransitionID = 0

		var next *models.Role
		if s.RoleOverride == nil {
			member := models.RoleMember
			next = &member
		}
		c.persistOverride(ctx, orgID, next)

		s.Status = models.SessionRefreshing
		s.RoleOverride = next
		s.ActiveRole = rbac.EffectiveRole(trueRole, next)
		s.LastError = ""
		return nil
	})
	if errors.Is(err, errToggleIgnored) {
		c.logger.Debugf("Role toggle ignored for %s in organization %s", trueRole, orgID)
		return nil
	}
	if err != nil {
		return err
	}

	// scope unchanged: the true role is always sent
	token, err := c.issue(ctx, &models.ActAs{OrganizationID: orgID, Role: trueRole})
	if err != nil {
		return c.scopeChangeFailed(id, previous, func() {
			c.persistOverride(ctx, orgID, previous.RoleOverride)
		}, err)
	}

	var role models.Role
	if err := c.apply(id, func(s *models.SessionState) {
		c.tokens.Set(token)
		s.Status = models.SessionReady
		role = s.ActiveRole
	}); err != nil {
		return err
	}

	c.cache.InvalidateOrganization(orgID)
	c.logger.Infof("Acting as %s in organization %s", role, orgID)
	return nil
}

func (c *SessionController) logout(ctx context.Context) error {
	// logout preempts any transition in flight
	id, _ := c.begin(false, nil)

	if err := c.auth.Logout(ctx); err != nil {
		c.logger.Warnf("Backend logout failed, clearing local session anyway: %v", err)
	}

	err := c.apply(id, func(s *models.SessionState) {
		if err := c.prefs.ClearAll(ctx); err != nil {
			c.logger.Warnf("Failed to clear client storage: %v", err)
		}
		if c.jar != nil {
			if err := c.jar.Reset(); err != nil {
				c.logger.Warnf("Failed to reset cookie jar: %v", err)
			}
		}
		c.unauthenticated(s, nil)
	})
	if err != nil {
		return err
	}

	c.cache.InvalidateAll()
	c.logger.Info("Logged out")
	return nil
}

func (c *SessionController) refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		return nil, c.refreshOnce(ctx)
	})
	return err
}

func (c *SessionController) refreshOnce(ctx context.Context) error {
	var scope *models.ActAs

	id, err := c.begin(true, func(s *models.SessionState) error {
		switch s.Status {
		case models.SessionReady:
			scope = &models.ActAs{OrganizationID: s.ActiveOrganization.OrgID, Role: s.ActiveOrganization.UserRole}
		case models.SessionNoOrganization:
		default:
			return models.ErrNotAuthenticated
		}
		return nil
	})
	if err != nil {
		return err
	}

	token, err := c.issue(ctx, scope)
	if err != nil {
		if models.IsTransportFailure(err) {
			c.release(id)
			c.logger.Warnf("Silent refresh failed, will retry: %v", err)
			return err
		}
		c.logger.Errorf("Silent refresh rejected, ending session: %v", err)
		if applyErr := c.apply(id, func(s *models.SessionState) { c.unauthenticated(s, err) }); applyErr != nil {
			return applyErr
		}
		return err
	}

	return c.apply(id, func(s *models.SessionState) {
		c.tokens.Set(token)
	})
}

// HTTPClient returns a client that authenticates with the current access
// token, for the CRUD collections consumed outside this package
func (c *SessionController) HTTPClient() *http.Client {
	return c.bearer
}

// CheckPermission evaluates perms against the active role
func (c *SessionController) CheckPermission(perms []rbac.Permission, mode rbac.Mode) bool {
	return rbac.CheckMultiplePermissions(c.GetState().ActiveRole, perms, mode)
}

// Permissions lists the permissions of the active role
func (c *SessionController) Permissions() []rbac.Permission {
	return rbac.GetPermissionsForRole(c.GetState().ActiveRole)
}

// CanActOn evaluates an ownership-aware permission for the current user
func (c *SessionController) CanActOn(perm rbac.Permission, ownerID string) bool {
	state := c.GetState()
	actor := ""
	if state.User != nil {
		actor = state.User.UserID
	}
	return rbac.CanActOn(state.ActiveRole, perm, actor, ownerID)
}
