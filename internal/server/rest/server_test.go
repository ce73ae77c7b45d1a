package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskmaster/internal/logging"
	"github.com/dmitrijs2005/taskmaster/internal/server/auth"
	"github.com/dmitrijs2005/taskmaster/internal/server/config"
	"github.com/dmitrijs2005/taskmaster/internal/server/metrics"
	"github.com/dmitrijs2005/taskmaster/internal/server/models"
	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskmaster/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

const testSecret = "test-secret"

func testConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.SecretKey = testSecret
	c.BcryptCost = bcrypt.MinCost
	c.ShutdownTimeout = time.Second
	return &c
}

type testEnv struct {
	handler http.Handler
	server  *Server
	logs    *bytes.Buffer
}

func newTestEnvWith(t *testing.T, us UserService, ts TaskService) *testEnv {
	t.Helper()
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	s := NewServer(testConfig(), l, us, ts, metrics.New())
	return &testEnv{handler: s.Handler(), server: s, logs: &buf}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	cfg := testConfig()
	return newTestEnvWith(t, services.NewUserService(rm, cfg), services.NewTaskService(rm))
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, name, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res services.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rec).Error
}

// --- scenarios ---

func TestTaskLifecycle(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw123")

	rec := e.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Task](t, rec)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "", created.Description)

	rec = e.do(t, http.MethodPut, "/api/tasks/"+itoa(created.ID), token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Task](t, rec)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	rec = e.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Task](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = e.do(t, http.MethodDelete, "/api/tasks/"+itoa(created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgTaskDeleted, decode[messageResponse](t, rec).Message)

	rec = e.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = e.do(t, http.MethodDelete, "/api/tasks/"+itoa(created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgTaskNotFound, errorOf(t, rec))
}

func TestAuthEndpoints(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw123")

	t.Run("register response hides the password", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Bob", "email": "bob@x.com", "password": "secret",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "$2a$")

		res := decode[services.AuthResult](t, rec)
		assert.Equal(t, &models.PublicUser{ID: 2, Name: "Bob", Email: "bob@x.com"}, res.User)
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Other", "email": "ann@x.com", "password": "x",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgUserExists, errorOf(t, rec))
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "All fields are required", errorOf(t, rec))

		rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email and password required", errorOf(t, rec))
	})

	t.Run("login", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "pw123"})
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[services.AuthResult](t, rec)
		assert.Equal(t, "Ann", res.User.Name)

		me := e.do(t, http.MethodGet, "/api/auth/me", res.Token, nil)
		assert.Equal(t, http.StatusOK, me.Code)
	})

	t.Run("bad password and unknown email answer identically", func(t *testing.T) {
		a := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "nope"})
		b := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "pw123"})

		assert.Equal(t, http.StatusBadRequest, a.Code)
		assert.Equal(t, a.Code, b.Code)
		assert.Equal(t, a.Body.String(), b.Body.String())
		assert.Equal(t, msgInvalidCredentials, errorOf(t, a))
	})

	t.Run("me", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.PublicUser{ID: 1, Name: "Ann", Email: "ann@x.com"}, decode[models.PublicUser](t, rec))
	})

	t.Run("me for a user that no longer exists", func(t *testing.T) {
		ghost, err := auth.GenerateToken(99, "ghost@x.com", []byte(testSecret), time.Hour)
		require.NoError(t, err)

		rec := e.do(t, http.MethodGet, "/api/auth/me", ghost, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, msgUserNotFound, errorOf(t, rec))
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	expired, err := auth.GenerateToken(1, "a@x", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	forged, err := auth.GenerateToken(1, "a@x", []byte("someone-else"), time.Hour)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodPut, "/api/tasks/1"},
		{http.MethodDelete, "/api/tasks/1"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := e.do(t, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, msgTokenRequired, errorOf(t, rec))

			for _, bad := range []string{"garbage", expired, forged} {
				rec = e.do(t, rt.method, rt.path, bad, nil)
				assert.Equal(t, http.StatusForbidden, rec.Code)
				assert.Equal(t, msgInvalidToken, errorOf(t, rec))
			}
		})
	}
}

func TestAuthorizationHeaderShapes(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw123")

	tests := []struct {
		header string
		want   int
	}{
		{"Bearer " + token, http.StatusOK},
		{"bearer " + token, http.StatusOK},
		{"Bearer", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{token, http.StatusUnauthorized},
		{"Bearer not.a.jwt", http.StatusForbidden},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", tt.header)
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "header %q", tt.header)
	}
}

func TestTaskOwnershipIsolation(t *testing.T) {
	e := newTestEnv(t)
	a := e.register(t, "A", "a@x.com", "pw")
	b := e.register(t, "B", "b@x.com", "pw")

	rec := e.do(t, http.MethodPost, "/api/tasks", a, map[string]string{"title": "A's"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[models.Task](t, rec)

	rec = e.do(t, http.MethodGet, "/api/tasks", b, nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	for _, id := range []string{itoa(task.ID), "9999"} {
		rec = e.do(t, http.MethodPut, "/api/tasks/"+id, b, map[string]string{"title": "hijacked"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, msgTaskNotFound, errorOf(t, rec))

		rec = e.do(t, http.MethodDelete, "/api/tasks/"+id, b, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/api/tasks", a, nil)
	list := decode[[]models.Task](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "A's", list[0].Title)
}

func TestTaskValidation(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw")

	rec := e.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title is required", errorOf(t, rec))

	rec = e.do(t, http.MethodPost, "/api/tasks", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty body behaves like {}")
	assert.Equal(t, "Title is required", errorOf(t, rec))

	rec = e.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "t", "status": "done"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/tasks", token, `{"title": 42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidBody, errorOf(t, rec))

	rec = e.do(t, http.MethodPost, "/api/tasks", token, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "t", "description": "d", "status": "in-progress"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[models.Task](t, rec)
	path := "/api/tasks/" + itoa(task.ID)

	rec = e.do(t, http.MethodPut, path, token, map[string]string{"title": "", "status": "completed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPut, path, token, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPut, path, token, `{"status": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/tasks", token, nil)
	list := decode[[]models.Task](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, task, list[0], "failed updates change nothing")
}

func TestUpdateMergesOnlyGivenFields(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw")

	rec := e.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "t", "description": "d"})
	task := decode[models.Task](t, rec)

	rec = e.do(t, http.MethodPut, "/api/tasks/"+itoa(task.ID), token, map[string]string{"description": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Task](t, rec)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, task.CreatedAt, got.CreatedAt)
	assert.Equal(t, task.UserID, got.UserID)
}

func TestNonNumericTaskIDIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw")

	for _, id := range []string{"abc", "0", "-1", "1.5", "99999999999999999999"} {
		rec := e.do(t, http.MethodPut, "/api/tasks/"+id, token, map[string]string{"title": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, msgTaskNotFound, errorOf(t, rec))

		rec = e.do(t, http.MethodDelete, "/api/tasks/"+id, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/anything/at/all", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "errors carry CORS headers too")
}

func TestUnknownRoutes(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgRouteNotFound, errorOf(t, rec))

	rec = e.do(t, http.MethodGet, "/api/auth/register", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, msgMethodNotAllowed, errorOf(t, rec))

	rec = e.do(t, http.MethodPatch, "/api/tasks/1", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	e.server.now = func() time.Time { return fixed }
	e.handler = e.server.Handler()

	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, healthResponse{Status: "ok", Service: "taskmaster", Time: "2026-03-04T05:06:07Z"}, decode[healthResponse](t, rec))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "Ann", "ann@x.com", "pw")
	e.do(t, http.MethodPut, "/api/tasks/7", token, map[string]string{"title": "x"})
	e.do(t, http.MethodGet, "/api/tasks", "", nil)

	rec := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `taskmaster_http_requests_total{method="PUT",path="/api/tasks/{id}",status="404"} 1`)
	assert.Contains(t, body, `taskmaster_http_requests_total{method="POST",path="/api/auth/register",status="201"} 1`)
	assert.Contains(t, body, `taskmaster_auth_failures_total{reason="missing_token"} 1`)
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	generated := rec.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, e.logs.String(), `"request_id":"abc-123"`)
	assert.Contains(t, e.logs.String(), `"msg":"request served"`)
}

// --- failure paths with fakes ---

type fakeUsers struct {
	claims *auth.Claims
	err    error
}

func (f *fakeUsers) Register(context.Context, string, string, string) (*services.AuthResult, error) {
	return nil, f.err
}
func (f *fakeUsers) Login(context.Context, string, string) (*services.AuthResult, error) {
	return nil, f.err
}
func (f *fakeUsers) VerifyToken(string) (*auth.Claims, error) { return f.claims, nil }
func (f *fakeUsers) GetCurrentUser(context.Context, int64) (*models.User, error) {
	return nil, f.err
}

type fakeTasks struct{ err error }

func (f *fakeTasks) List(context.Context, int64) ([]*models.Task, error) { return nil, f.err }
func (f *fakeTasks) Create(context.Context, int64, services.CreateTaskInput) (*models.Task, error) {
	return nil, f.err
}
func (f *fakeTasks) Update(context.Context, int64, int64, models.TaskPatch) (*models.Task, error) {
	return nil, f.err
}
func (f *fakeTasks) Delete(context.Context, int64, int64) error { return f.err }

func TestInternalErrorsAreHidden(t *testing.T) {
	leak := errors.New("pq: connection refused to 10.0.0.5")
	e := newTestEnvWith(t, &fakeUsers{claims: &auth.Claims{UserID: 1}, err: leak}, &fakeTasks{err: leak})

	calls := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/auth/register", map[string]string{"name": "a", "email": "b", "password": "c"}},
		{http.MethodPost, "/api/auth/login", map[string]string{"email": "b", "password": "c"}},
		{http.MethodGet, "/api/auth/me", nil},
		{http.MethodGet, "/api/tasks", nil},
		{http.MethodPost, "/api/tasks", map[string]string{"title": "t"}},
		{http.MethodPut, "/api/tasks/1", map[string]string{"title": "t"}},
		{http.MethodDelete, "/api/tasks/1", nil},
	}

	for _, c := range calls {
		rec := e.do(t, c.method, c.path, "tok", c.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, c.path)
		assert.Equal(t, msgServerError, errorOf(t, rec))
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	}
	assert.Contains(t, e.logs.String(), "10.0.0.5", "the cause is logged server-side")
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	e := newTestEnv(t)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.server.Serve(ctx, lis) }()

	url := "http://" + lis.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	cfg := testConfig()
	cfg.EndpointAddrHTTP = lis.Addr().String()
	l := logging.Discard()
	s := NewServer(cfg, l, &fakeUsers{}, &fakeTasks{}, metrics.New())

	assert.Error(t, s.Run(context.Background()))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
