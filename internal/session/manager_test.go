package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/auth"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/credentials"
	"github.com/dmitrijs2005/cribfeed/internal/localstore"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testSecret = []byte("session-test-secret")

type routeLog struct {
	mu     sync.Mutex
	routes []Route
}

func (r *routeLog) NavigateTo(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *routeLog) all() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() Config {
	return Config{
		SecretKey:        testSecret,
		TokenValidity:    time.Hour,
		OperationTimeout: time.Second,
		PasswordCost:     bcrypt.MinCost,
	}
}

func seedAccount(t *testing.T, store credentials.Store) *models.Account {
	t.Helper()
	acc := &models.Account{
		ID:                 "1",
		DisplayName:        "Amara Okafor",
		Email:              "amara@example.com",
		Role:               models.RoleArtist,
		CreativeDiscipline: models.Optional("Visual Art"),
		Followers:          1247,
	}
	hash, err := credentials.HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Add(context.Background(), acc, hash))
	return acc
}

type fixture struct {
	creds   *credentials.MemoryStore
	storage *localstore.MemoryStorage
	routes  *routeLog
	mgr     *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		creds:   credentials.NewMemoryStore(),
		storage: localstore.NewMemoryStorage(),
		routes:  &routeLog{},
	}
	seedAccount(t, f.creds)
	f.mgr = NewManager(f.creds, f.storage, f.routes, discardLogger(), testConfig())
	return f
}

func (f *fixture) persisted(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := f.storage.Get(context.Background(), common.SessionAccountKey)
	require.NoError(t, err)
	return v, ok
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.mgr.Login(ctx, "amara@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "1", acc.ID)

	snap := f.mgr.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, "Amara Okafor", snap.CurrentUser.DisplayName)

	raw, ok := f.persisted(t)
	require.True(t, ok)
	var stored models.Account
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "1", stored.ID)
	assert.Equal(t, 1247, stored.Followers)

	userID, err := auth.GetUserIDFromToken(f.mgr.Token(), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "1", userID)

	assert.Equal(t, []Route{RouteHome}, f.routes.all())
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Login(context.Background(), "  AMARA@example.com", "password")
	require.NoError(t, err)
	assert.True(t, f.mgr.Snapshot().Authenticated())
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Login(context.Background(), "amara@example.com", "nope")
	require.ErrorIs(t, err, common.ErrAuthentication)

	snap := f.mgr.Snapshot()
	assert.Equal(t, StateNone, snap.State)
	assert.Nil(t, snap.CurrentUser)
	assert.Equal(t, common.InvalidCredentialsMessage, snap.LastError)

	_, ok := f.persisted(t)
	assert.False(t, ok)
	assert.Empty(t, f.routes.all())
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Login(context.Background(), "ghost@example.com", "password")
	require.ErrorIs(t, err, common.ErrAuthentication)
	assert.Equal(t, common.InvalidCredentialsMessage, f.mgr.Snapshot().LastError)
}

func TestLogin_FailureAfterSuccessSignsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "amara@example.com", "password")
	require.NoError(t, err)

	_, err = f.mgr.Login(ctx, "amara@example.com", "wrong")
	require.Error(t, err)

	assert.Nil(t, f.mgr.CurrentUser())
	_, ok := f.persisted(t)
	assert.False(t, ok)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Login(context.Background(), " ", "")
	require.ErrorIs(t, err, common.ErrValidation)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"email", "password"}, verr.Fields)
	assert.Equal(t, StateNone, f.mgr.Snapshot().State)
	assert.Empty(t, f.mgr.Snapshot().LastError)
}

// blockingStore parks Verify until release is closed.
type blockingStore struct {
	credentials.Store
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Verify(ctx context.Context, email, password string) (bool, error) {
	close(s.entered)
	select {
	case <-s.release:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return s.Store.Verify(ctx, email, password)
}

func TestLogin_ConcurrentAttemptRejected(t *testing.T) {
	mem := credentials.NewMemoryStore()
	seedAccount(t, mem)
	store := &blockingStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	mgr := NewManager(store, localstore.NewMemoryStorage(), nil, discardLogger(), testConfig())

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := mgr.Login(ctx, "amara@example.com", "password")
		done <- err
	}()

	<-store.entered
	assert.True(t, mgr.Snapshot().Pending())

	_, err := mgr.Login(ctx, "amara@example.com", "password")
	assert.ErrorIs(t, err, common.ErrInProgress)
	assert.ErrorIs(t, err, common.ErrConcurrency)

	_, err = mgr.Register(ctx, RegisterRequest{Email: "x@y.z", Password: "p", DisplayName: "X", Role: models.RoleViewer})
	assert.ErrorIs(t, err, common.ErrInProgress)

	assert.ErrorIs(t, mgr.Logout(ctx), common.ErrInProgress)

	close(store.release)
	require.NoError(t, <-done)
	assert.True(t, mgr.Snapshot().Authenticated())
}

func TestLogin_Timeout(t *testing.T) {
	mem := credentials.NewMemoryStore()
	seedAccount(t, mem)
	store := &blockingStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	cfg := testConfig()
	cfg.OperationTimeout = 20 * time.Millisecond
	mgr := NewManager(store, localstore.NewMemoryStorage(), nil, discardLogger(), cfg)

	_, err := mgr.Login(context.Background(), "amara@example.com", "password")
	require.ErrorIs(t, err, common.ErrTimeout)

	snap := mgr.Snapshot()
	assert.Equal(t, StateNone, snap.State)
	assert.NotEmpty(t, snap.LastError)
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.mgr.Register(ctx, RegisterRequest{
		Email:              "new@example.com",
		Password:           "s3cret",
		DisplayName:        "  New Artist ",
		Role:               models.RoleArtist,
		CreativeDiscipline: "Ceramics",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "New Artist", acc.DisplayName)
	assert.Equal(t, "Ceramics", acc.Label())
	assert.Zero(t, acc.Followers)
	assert.Zero(t, acc.WorksPublished)

	assert.Equal(t, 2, f.creds.Len())
	assert.True(t, f.mgr.Snapshot().Authenticated())
	assert.Equal(t, []Route{RouteHome}, f.routes.all())

	require.NoError(t, f.mgr.Logout(ctx))
	_, err = f.mgr.Login(ctx, "new@example.com", "s3cret")
	require.NoError(t, err)
}

func TestRegister_ViewerHasDefaultLabel(t *testing.T) {
	f := newFixture(t)

	acc, err := f.mgr.Register(context.Background(), RegisterRequest{
		Email: "v@example.com", Password: "p", DisplayName: "Viewer", Role: models.RoleViewer,
		CreativeDiscipline: "ignored",
	})
	require.NoError(t, err)
	assert.Nil(t, acc.CreativeDiscipline)
	assert.Equal(t, models.DefaultLabel, acc.Label())
}

func TestRegister_ExistingEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Register(context.Background(), RegisterRequest{
		Email: "Amara@Example.com", Password: "p", DisplayName: "Dup", Role: models.RoleViewer,
	})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.ErrorIs(t, err, common.ErrAccountExists)

	assert.Equal(t, 1, f.creds.Len())
	snap := f.mgr.Snapshot()
	assert.Equal(t, StateNone, snap.State)
	assert.NotEmpty(t, snap.LastError)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		req    RegisterRequest
		fields []string
	}{
		{
			name:   "empty form",
			req:    RegisterRequest{},
			fields: []string{"email", "password", "displayName", "role"},
		},
		{
			name:   "artist without discipline",
			req:    RegisterRequest{Email: "a@b.c", Password: "p", DisplayName: "A", Role: models.RoleArtist},
			fields: []string{"creativeDiscipline"},
		},
		{
			name:   "unknown role",
			req:    RegisterRequest{Email: "a@b.c", Password: "p", DisplayName: "A", Role: "curator"},
			fields: []string{"role"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.mgr.Register(context.Background(), tt.req)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.fields, verr.Fields)
			assert.Equal(t, 1, f.creds.Len())
		})
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "amara@example.com", "password")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Logout(ctx))

	snap := f.mgr.Snapshot()
	assert.Equal(t, StateNone, snap.State)
	assert.Nil(t, snap.CurrentUser)
	assert.Empty(t, f.mgr.Token())

	_, ok := f.persisted(t)
	assert.False(t, ok)
	assert.Equal(t, []Route{RouteHome, RouteLanding}, f.routes.all())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted", func(t *testing.T) {
		f := newFixture(t)
		snap := f.mgr.Restore(ctx)
		assert.Equal(t, StateNone, snap.State)
	})

	t.Run("round trip through a new manager", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.mgr.Login(ctx, "amara@example.com", "password")
		require.NoError(t, err)

		next := NewManager(f.creds, f.storage, nil, discardLogger(), testConfig())
		snap := next.Restore(ctx)
		require.True(t, snap.Authenticated())
		assert.Equal(t, "1", snap.CurrentUser.ID)
		assert.Equal(t, "Visual Art", snap.CurrentUser.Label())
		assert.Equal(t, f.mgr.Token(), snap.Token)
	})

	t.Run("malformed record is discarded", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.storage.Set(ctx, common.SessionAccountKey, "{not json"))

		snap := f.mgr.Restore(ctx)
		assert.Equal(t, StateNone, snap.State)
		_, ok := f.persisted(t)
		assert.False(t, ok)
	})

	t.Run("record missing required fields is discarded", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.storage.Set(ctx, common.SessionAccountKey, `{"id":"1","email":"a@b.c"}`))

		snap := f.mgr.Restore(ctx)
		assert.Equal(t, StateNone, snap.State)
		_, ok := f.persisted(t)
		assert.False(t, ok)
	})

	t.Run("token for another account is discarded", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.mgr.Login(ctx, "amara@example.com", "password")
		require.NoError(t, err)

		foreign, err := auth.GenerateToken("2", testSecret, time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.storage.Set(ctx, common.SessionTokenKey, foreign))

		snap := NewManager(f.creds, f.storage, nil, discardLogger(), testConfig()).Restore(ctx)
		assert.Equal(t, StateNone, snap.State)
		_, ok := f.persisted(t)
		assert.False(t, ok)
	})

	t.Run("missing token is reissued", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.mgr.Login(ctx, "amara@example.com", "password")
		require.NoError(t, err)
		require.NoError(t, f.storage.Remove(ctx, common.SessionTokenKey))

		snap := NewManager(f.creds, f.storage, nil, discardLogger(), testConfig()).Restore(ctx)
		require.True(t, snap.Authenticated())

		userID, err := auth.GetUserIDFromToken(snap.Token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "1", userID)
	})
}

type failingStorage struct {
	localstore.Storage
	setErr error
}

func (s *failingStorage) Set(context.Context, string, string) error { return s.setErr }

func TestLogin_PersistFailureIsAFailure(t *testing.T) {
	mem := credentials.NewMemoryStore()
	seedAccount(t, mem)
	storage := &failingStorage{Storage: localstore.NewMemoryStorage(), setErr: errors.New("disk full")}
	routes := &routeLog{}
	mgr := NewManager(mem, storage, routes, discardLogger(), testConfig())

	_, err := mgr.Login(context.Background(), "amara@example.com", "password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, StateNone, mgr.Snapshot().State)
	assert.Empty(t, routes.all())
}

func TestRegisterThenSignInAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.mgr.Register(ctx, RegisterRequest{
		Email: "a@x.com", Password: "secret1", DisplayName: "A", Role: models.RoleArtist, CreativeDiscipline: "Music",
	})
	require.NoError(t, err)
	assert.Equal(t, "Music", acc.Label())
	assert.Zero(t, acc.Followers+acc.Following+acc.Collaborations+acc.WorksPublished)
	require.NoError(t, f.mgr.Logout(ctx))

	_, err = f.mgr.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, common.ErrAuthentication)
	assert.Equal(t, StateNone, f.mgr.Snapshot().State)
	assert.Equal(t, common.InvalidCredentialsMessage, f.mgr.Snapshot().LastError)

	again, err := f.mgr.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.ID)
	assert.True(t, f.mgr.Snapshot().Authenticated())
	assert.Empty(t, f.mgr.Snapshot().LastError)
}

// gatedStorage holds the first Get until release is closed.
type gatedStorage struct {
	localstore.Storage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.Storage.Get(ctx, key)
}

func TestRestore_IsExclusiveWithLogin(t *testing.T) {
	ctx := context.Background()
	mem := credentials.NewMemoryStore()
	seedAccount(t, mem)
	storage := &gatedStorage{
		Storage: localstore.NewMemoryStorage(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	mgr := NewManager(mem, storage, nil, discardLogger(), testConfig())

	restored := make(chan Snapshot, 1)
	go func() { restored <- mgr.Restore(ctx) }()
	<-storage.entered

	assert.Equal(t, StatePending, mgr.Snapshot().State)
	_, err := mgr.Login(ctx, "amara@example.com", "password")
	assert.ErrorIs(t, err, common.ErrInProgress)
	assert.ErrorIs(t, mgr.Logout(ctx), common.ErrInProgress)
	assert.Equal(t, StatePending, mgr.Restore(ctx).State, "a second restore does not wait")

	close(storage.release)
	assert.Equal(t, StateNone, (<-restored).State)

	_, err = mgr.Login(ctx, "amara@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, mgr.Snapshot().State)

	_, ok, err := storage.Get(ctx, common.SessionAccountKey)
	require.NoError(t, err)
	assert.True(t, ok, "memory and disk agree")
}
