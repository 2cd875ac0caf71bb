package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/quickfix/internal/assistant"
	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/pkg/database"
)

const (
	testUserID = "3b0d7f1e-5d1a-4c52-9a53-2f4b8f1c0a01"
	testEmail  = "anna@example.com"
)

// fakeIdentity simulates the identity provider.
type fakeIdentity struct {
	identity  *models.Identity
	err       error
	recovered []string
	signedOut []string
}

func (f *fakeIdentity) SignUp(_ context.Context, email, _, fullName string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Identity{UserID: testUserID, Email: email, FullName: fullName}, nil
}

func (f *fakeIdentity) SignIn(context.Context, string, string) (*models.Identity, error) {
	return f.identity, f.err
}

func (f *fakeIdentity) Recover(_ context.Context, email string) error {
	f.recovered = append(f.recovered, email)
	return f.err
}

func (f *fakeIdentity) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(context.Context, assistant.Prompt) (string, error) {
	return f.reply, f.err
}

// recordingPublisher keeps published event types.
type recordingPublisher struct {
	mu    sync.Mutex
	types []events.Type
}

func (p *recordingPublisher) Publish(_ context.Context, typ events.Type, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, typ)
	return nil
}

type testServer struct {
	*Server
	mock      sqlmock.Sqlmock
	redis     *miniredis.Miniredis
	identity  *fakeIdentity
	completer *fakeCompleter
	published *recordingPublisher
	imageDir  string
}

// setupTestServer initializes a test instance of the API server.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	// Setup mock PostgreSQL
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "sqlmock")

	// Setup mock Redis
	miniRedis := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})

	imageDir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            ":8080",
			Environment:     "development",
			MaxRequests:     1000,
			RateWindow:      time.Minute,
			RequestTimeout:  5 * time.Second,
			CacheExpiration: time.Second,
			IdempotencyTTL:  time.Hour,
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Expiration: time.Hour,
		},
		AI:      config.AIConfig{HistoryLimit: 10},
		Storage: config.StorageConfig{Dir: imageDir, MaxImageSize: 1 << 20},
	}

	reg := prometheus.NewRegistry()
	ts := &testServer{
		mock:      mock,
		redis:     miniRedis,
		identity:  &fakeIdentity{},
		completer: &fakeCompleter{reply: "Turn off the water first."},
		published: &recordingPublisher{},
		imageDir:  imageDir,
	}
	server, err := NewServer(cfg, &database.Clients{DB: db, Redis: redisClient}, Deps{
		Identity:  ts.identity,
		Assistant: ts.completer,
		Publisher: ts.published,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	ts.Server = server
	return ts
}

// login starts a session directly and returns its bearer token.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	token, _, err := ts.sessions.Start(context.Background(), testUserID, testEmail, "provider-token")
	require.NoError(t, err)
	return token
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (ts *testServer) do(t *testing.T, r request) *http.Response {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Error
}

func profileRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "full_name", "email", "avatar_url", "accepted_terms", "balance",
		"unread_messages", "ai_conversations_count", "specialist_tasks_count", "created_at", "updated_at",
	}).AddRow("p-1", testUserID, "Kiss Anna", testEmail, nil, true, "5000.00", 1, 2, 3, now, now)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, request{method: http.MethodGet, path: "/api/profile"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
}

func TestRevokedSessionIsRejected(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)
	ts.redis.FlushAll()

	resp := ts.do(t, request{method: http.MethodGet, path: "/api/profile", token: token})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionStoreOutageIsRetryable(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)
	ts.redis.Close()

	resp := ts.do(t, request{method: http.MethodGet, path: "/api/profile", token: token})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	body := decodeError(t, resp)
	assert.Equal(t, "SESSION_LOADING", body.Code)
	assert.True(t, body.Retryable)
}

func TestHandleGetProfile(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	ts.mock.ExpectQuery("FROM profiles WHERE user_id").
		WithArgs(testUserID).
		WillReturnRows(profileRows())

	resp := ts.do(t, request{method: http.MethodGet, path: "/api/profile", token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Profile models.Profile `json:"profile"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, testUserID, out.Profile.UserID)
	assert.Equal(t, "5000", out.Profile.Balance.String())
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestHandleUpdateSettingsRejectsUnknownLanguage(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	resp := ts.do(t, request{
		method: http.MethodPut,
		path:   "/api/settings",
		token:  token,
		body:   map[string]any{"language": "xx", "dark_mode": true},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "language", body.Field)
}

func TestInvalidPathID(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	resp := ts.do(t, request{method: http.MethodGet, path: "/api/tasks/not-a-uuid", token: token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, request{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
