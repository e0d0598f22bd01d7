package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/rolegate/app"
	"github.com/upb/rolegate/config"
	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"github.com/upb/rolegate/routes"
	"github.com/upb/rolegate/utils"
	"go.uber.org/zap/zaptest"
)

func TestInitLogger(t *testing.T) {
	t.Run("default json logger", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"})
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync()
	})

	t.Run("development console logger", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{LogLevel: "debug", LogFormat: "console"})
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync()
	})

	t.Run("invalid log level", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{LogLevel: "invalid", LogFormat: "json"})
		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("defaults when not set", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{})
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync()
	})
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig(t), newMemoryRepositories())

	t.Run("health check returns ok", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("not ready without database", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "not_ready", body["status"])
	})
}

func TestAPIEndpoints(t *testing.T) {
	repos := newMemoryRepositories()
	ts := newTestServer(t, testConfig(t), repos)

	unauthenticated := []struct {
		name   string
		method string
		path   string
	}{
		{"list users", http.MethodGet, "/api/v1/users"},
		{"create user", http.MethodPost, "/api/v1/users"},
		{"get user", http.MethodGet, "/api/v1/users/admin"},
		{"delete user", http.MethodDelete, "/api/v1/users/admin"},
		{"list consumers", http.MethodGet, "/api/v1/consumers"},
		{"register consumer", http.MethodPost, "/api/v1/consumers"},
		{"get consumer", http.MethodGet, "/api/v1/consumers/billing-service"},
		{"update consumer", http.MethodPut, "/api/v1/consumers/billing-service"},
		{"delete consumer", http.MethodDelete, "/api/v1/consumers/billing-service"},
	}

	for _, tc := range unauthenticated {
		t.Run(tc.name+" without credentials", func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "endpoint: %s %s", tc.method, tc.path)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var message string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&message))
			assert.Equal(t, utils.AuthorizationFailureMessage, message)
		})
	}

	t.Run("bootstrap admin lists users", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/users", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Basic YWRtaW46c2VjcmV0")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown login is reported", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/users", nil)
		require.NoError(t, err)
		req.SetBasicAuth("ghost", "secret")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body utils.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "identity_not_found", body.Error)
		assert.Equal(t, "User with login [ghost] does not exist", body.Message)
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/nonexistent")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.MetricsEnabled = true
	ts := newTestServer(t, cfg, newMemoryRepositories())

	resp, err := http.Get(ts.URL + "/api/v1/users")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rolegate_authz_decisions")
	assert.Contains(t, string(body), `outcome="denied"`)
}

func TestCORSMiddleware(t *testing.T) {
	ts := newTestServer(t, testConfig(t), newMemoryRepositories())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/users", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNewServer(t *testing.T) {
	t.Run("plain HTTP when TLS disabled", func(t *testing.T) {
		cfg := testConfig(t)

		srv, err := newServer(cfg, http.NotFoundHandler())
		require.NoError(t, err)
		assert.Equal(t, "localhost:8443", srv.Addr)
		assert.Nil(t, srv.TLSConfig)
	})

	t.Run("client certificates verified if given", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.TLS.Enabled = true
		cfg.Server.TLS.ClientCAFile = writeCAFile(t)

		srv, err := newServer(cfg, http.NotFoundHandler())
		require.NoError(t, err)
		require.NotNil(t, srv.TLSConfig)
		assert.Equal(t, tls.VerifyClientCertIfGiven, srv.TLSConfig.ClientAuth)
		assert.NotNil(t, srv.TLSConfig.ClientCAs)
	})

	t.Run("TLS without client CA does not request certificates", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.TLS.Enabled = true

		srv, err := newServer(cfg, http.NotFoundHandler())
		require.NoError(t, err)
		assert.Equal(t, tls.NoClientCert, srv.TLSConfig.ClientAuth)
	})

	t.Run("invalid client CA file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.TLS.Enabled = true
		cfg.Server.TLS.ClientCAFile = filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(cfg.Server.TLS.ClientCAFile, []byte("not a certificate"), 0o600))

		_, err := newServer(cfg, http.NotFoundHandler())
		assert.Error(t, err)
	})
}

func TestIntegrationWithRealDependencies(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	cfg := testConfig(t)
	logger := zaptest.NewLogger(t)

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
		return
	}
	defer deps.Close(ctx)

	ts := httptest.NewServer(routes.SetupRoutes(deps))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body["status"])
}

// Test helpers

func newTestServer(t *testing.T, cfg *config.Config, repos *repositories.Repositories) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	cfg.Auth.BootstrapAdminLogin = "admin"
	cfg.Auth.BootstrapAdminPassword = "secret"

	deps, err := app.NewDependenciesFromRepositories(cfg, zaptest.NewLogger(t), repos, passthroughTxManager{})
	require.NoError(t, err)
	require.NoError(t, deps.EnsureBootstrapAdmin(ctx))

	ts := httptest.NewServer(routes.SetupRoutes(deps))
	t.Cleanup(func() {
		ts.Close()
		_ = deps.Close(ctx)
	})
	return ts
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8443,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            5432,
			User:            getEnvOrDefault("DB_USER", "rolegate"),
			Password:        getEnvOrDefault("DB_PASSWORD", "rolegate"),
			Database:        getEnvOrDefault("DB_NAME", "rolegate_test"),
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: config.AuthConfig{
			BcryptCost: 4,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "error",
			LogFormat:      "json",
			MetricsEnabled: false,
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func writeCAFile(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "rolegate test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (r *memoryUsers) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Login]; ok {
		return repositories.ErrDuplicate
	}
	r.users[user.Login] = user
	return nil
}

func (r *memoryUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[login]; ok {
		return user, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *memoryUsers) List(context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	return list, nil
}

func (r *memoryUsers) Delete(_ context.Context, login string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[login]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.users, login)
	return nil
}

type memoryConsumers struct{}

func (memoryConsumers) Create(context.Context, *models.Consumer) error { return nil }

func (memoryConsumers) GetByConsumerID(context.Context, string) (*models.Consumer, error) {
	return nil, repositories.ErrNotFound
}

func (memoryConsumers) List(context.Context) ([]*models.Consumer, error) { return nil, nil }

func (memoryConsumers) UpdateDescription(context.Context, string, string) error {
	return repositories.ErrNotFound
}

func (memoryConsumers) Delete(context.Context, string) error { return repositories.ErrNotFound }

func newMemoryRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:     &memoryUsers{users: make(map[string]*models.User)},
		Consumers: memoryConsumers{},
	}
}

type passthroughTx struct{ ctx context.Context }

func (passthroughTx) Commit() error              { return nil }
func (passthroughTx) Rollback() error            { return nil }
func (t passthroughTx) Context() context.Context { return t.ctx }

type passthroughTxManager struct{}

func (passthroughTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return passthroughTx{ctx: ctx}, nil
}

func (passthroughTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, passthroughTx{ctx: ctx})
}
