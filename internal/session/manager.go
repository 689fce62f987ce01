// Package session implements the Session Manager: it establishes, persists
// and restores the identity of the single user of a client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/auth"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/credentials"
	"github.com/dmitrijs2005/cribfeed/internal/localstore"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/google/uuid"
)

// Config tunes the Manager.
type Config struct {
	// SecretKey signs session tokens.
	SecretKey []byte
	// TokenValidity bounds how long a persisted session can be restored.
	TokenValidity time.Duration
	// OperationTimeout bounds login and register round-trips.
	OperationTimeout time.Duration
	// PasswordCost is the bcrypt cost for new accounts (0 = default).
	PasswordCost int
}

// RegisterRequest carries the registration form.
type RegisterRequest struct {
	Email              string
	Password           string
	DisplayName        string
	Role               models.Role
	CreativeDiscipline string
}

// Validate reports every missing field at once.
func (r RegisterRequest) Validate() error {
	var fields []string
	if strings.TrimSpace(r.Email) == "" {
		fields = append(fields, "email")
	}
	if r.Password == "" {
		fields = append(fields, "password")
	}
	if strings.TrimSpace(r.DisplayName) == "" {
		fields = append(fields, "displayName")
	}
	if !r.Role.Valid() {
		fields = append(fields, "role")
	}
	if r.Role == models.RoleArtist && strings.TrimSpace(r.CreativeDiscipline) == "" {
		fields = append(fields, "creativeDiscipline")
	}
	if len(fields) > 0 {
		return common.NewValidationError("missing required fields", fields...)
	}
	return nil
}

// Manager owns the Session. Only one login or register may be in flight;
// a second one is rejected with common.ErrInProgress.
type Manager struct {
	mu        sync.Mutex
	state     State
	current   *models.Account
	token     string
	lastError string

	creds     credentials.Store
	storage   localstore.Storage
	navigator Navigator
	logger    logging.Logger
	cfg       Config
}

// NewManager builds a Manager in the none state. Call Restore to pick up a
// persisted session.
func NewManager(creds credentials.Store, storage localstore.Storage, navigator Navigator, logger logging.Logger, cfg Config) *Manager {
	if navigator == nil {
		navigator = NavigatorFunc(func(Route) {})
	}
	return &Manager{
		creds:     creds,
		storage:   storage,
		navigator: navigator,
		logger:    logger.With("module", "session"),
		cfg:       cfg,
	}
}

// Snapshot returns a copy of the Session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{State: m.state, LastError: m.lastError, Token: m.token}
	if m.current != nil {
		s.CurrentUser = m.current.Clone()
	}
	return s
}

// CurrentUser returns the signed-in account or nil.
func (m *Manager) CurrentUser() *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.state != StateAuthenticated {
		return nil
	}
	return m.current.Clone()
}

// Token returns the session token of the signed-in account, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return ""
	}
	return m.token
}

// Restore loads the persisted session. It never fails: a missing, malformed
// or foreign record leaves the Session signed out. Restore counts as an
// identity operation, so a concurrent Login, Register or Logout gets
// ErrInProgress, and a Restore during one returns the current snapshot.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	if err := m.begin(); err != nil {
		return m.Snapshot()
	}

	acc, token := m.loadPersisted(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if acc == nil {
		m.state, m.current, m.token = StateNone, nil, ""
	} else {
		m.state, m.current, m.token = StateAuthenticated, acc, token
		m.logger.Info(ctx, "session restored", "account_id", acc.ID)
	}
	return m.snapshotLocked()
}

// Login authenticates with email and password. On success the session is
// persisted and navigation to the home feed is requested. On failure the
// Session returns to none with LastError set, and the error is returned.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.Account, error) {
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError("missing required fields", missing...)
	}

	if err := m.begin(); err != nil {
		return nil, err
	}

	opCtx, cancel := m.withTimeout(ctx)
	defer cancel()

	acc, err := m.authenticate(opCtx, email, password)
	if err != nil {
		return nil, m.fail(opCtx, "login", err)
	}
	return m.succeed(opCtx, acc)
}

// Register creates an account with zeroed counters and signs it in exactly
// like a successful Login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := m.begin(); err != nil {
		return nil, err
	}

	opCtx, cancel := m.withTimeout(ctx)
	defer cancel()

	acc, err := m.createAccount(opCtx, req)
	if err != nil {
		return nil, m.fail(opCtx, "register", err)
	}
	return m.succeed(opCtx, acc)
}

// Logout signs out, removes the persisted session and requests navigation
// to the landing page. The in-memory session is cleared even when removing
// the persisted record fails; that failure is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StatePending {
		m.mu.Unlock()
		return common.ErrInProgress
	}
	var accountID string
	if m.current != nil {
		accountID = m.current.ID
	}
	m.state, m.current, m.token, m.lastError = StateNone, nil, "", ""
	m.mu.Unlock()

	err := m.clearPersisted(ctx)
	m.logger.Info(ctx, "logged out", "account_id", accountID)
	m.navigator.NavigateTo(RouteLanding)

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StatePending {
		return common.ErrInProgress
	}
	m.state = StatePending
	m.lastError = ""
	return nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.cfg.OperationTimeout)
}

func (m *Manager) authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	ok, err := m.creds.Verify(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		return nil, common.ErrAuthentication
	}

	acc, err := m.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAuthentication
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

func (m *Manager) createAccount(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	_, err := m.creds.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, common.ErrAccountExists
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("find account: %w", err)
	}

	hash, err := credentials.HashPassword(req.Password, m.cfg.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &models.Account{
		ID:          uuid.NewString(),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Email:       strings.TrimSpace(req.Email),
		Role:        req.Role,
	}
	if req.Role == models.RoleArtist {
		acc.CreativeDiscipline = models.Optional(strings.TrimSpace(req.CreativeDiscipline))
	}

	if err := m.creds.Add(ctx, acc, hash); err != nil {
		return nil, err
	}
	return acc, nil
}

func (m *Manager) succeed(ctx context.Context, acc *models.Account) (*models.Account, error) {
	token, err := auth.GenerateToken(acc.ID, m.cfg.SecretKey, m.cfg.TokenValidity)
	if err != nil {
		return nil, m.fail(ctx, "issue token", err)
	}
	if err := m.persist(ctx, acc, token); err != nil {
		return nil, m.fail(ctx, "persist session", err)
	}

	m.mu.Lock()
	m.state, m.current, m.token, m.lastError = StateAuthenticated, acc.Clone(), token, ""
	m.mu.Unlock()

	m.logger.Info(ctx, "authenticated", "account_id", acc.ID)
	m.navigator.NavigateTo(RouteHome)
	return acc.Clone(), nil
}

func (m *Manager) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s: %w", op, common.ErrTimeout)
	}

	msg := err.Error()
	if errors.Is(err, common.ErrAuthentication) {
		msg = common.InvalidCredentialsMessage
	}

	m.mu.Lock()
	m.state, m.current, m.token, m.lastError = StateNone, nil, "", msg
	m.mu.Unlock()

	if clearErr := m.clearPersisted(context.WithoutCancel(ctx)); clearErr != nil {
		m.logger.Error(ctx, "failed to clear persisted session", "error", clearErr)
	}
	m.logger.Warn(ctx, "identity operation failed", "op", op, "error", err)
	return err
}

func (m *Manager) persist(ctx context.Context, acc *models.Account, token string) error {
	raw, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	if err := m.storage.Set(ctx, common.SessionAccountKey, string(raw)); err != nil {
		return err
	}
	return m.storage.Set(ctx, common.SessionTokenKey, token)
}

func (m *Manager) clearPersisted(ctx context.Context) error {
	return errors.Join(
		m.storage.Remove(ctx, common.SessionAccountKey),
		m.storage.Remove(ctx, common.SessionTokenKey),
	)
}

// loadPersisted returns the stored account and its token, or nil when
// there is no usable record. Unusable records are removed.
func (m *Manager) loadPersisted(ctx context.Context) (*models.Account, string) {
	raw, ok, err := m.storage.Get(ctx, common.SessionAccountKey)
	if err != nil {
		m.logger.Warn(ctx, "failed to read persisted session", "error", err)
		return nil, ""
	}
	if !ok {
		return nil, ""
	}

	var acc models.Account
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		m.discard(ctx, "malformed session record", err)
		return nil, ""
	}
	if err := acc.Validate(); err != nil {
		m.discard(ctx, "invalid session record", err)
		return nil, ""
	}

	token, ok, err := m.storage.Get(ctx, common.SessionTokenKey)
	if err != nil {
		m.logger.Warn(ctx, "failed to read persisted token", "error", err)
		return nil, ""
	}
	if !ok {
		token, err = auth.GenerateToken(acc.ID, m.cfg.SecretKey, m.cfg.TokenValidity)
		if err != nil {
			m.logger.Error(ctx, "failed to issue token for restored session", "error", err)
			return nil, ""
		}
		if err := m.storage.Set(ctx, common.SessionTokenKey, token); err != nil {
			m.logger.Warn(ctx, "failed to persist reissued token", "error", err)
		}
		return &acc, token
	}

	userID, err := auth.GetUserIDFromToken(token, m.cfg.SecretKey)
	if err != nil {
		m.discard(ctx, "unusable session token", err)
		return nil, ""
	}
	if userID != acc.ID {
		m.discard(ctx, "session token belongs to another account", nil)
		return nil, ""
	}
	return &acc, token
}

func (m *Manager) discard(ctx context.Context, reason string, err error) {
	m.logger.Warn(ctx, "discarding persisted session", "reason", reason, "error", err)
	if clearErr := m.clearPersisted(ctx); clearErr != nil {
		m.logger.Error(ctx, "failed to clear persisted session", "error", clearErr)
	}
}
