package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/handlers"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/middleware"
	"github.com/serroba/linkstats/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBaseURL  = "http://short.test"
	iPhoneUA     = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	germanClient = "203.0.113.5"
)

var testSecret = []byte("handler-test-secret")

type mapLocator map[string]string

func (m mapLocator) Country(ip string) string {
	return m[ip]
}

type testServer struct {
	router  http.Handler
	store   *store.MemoryStore
	created chan *analytics.LinkCreatedEvent
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	memStore := store.NewMemoryStore()

	codes, err := links.NewCodeGenerator()
	require.NoError(t, err)

	keys, err := links.NewEditKeyGenerator()
	require.NoError(t, err)

	registry := links.NewRegistry(memStore, links.NopInvalidator{}, codes, keys, logger)
	pipeline := clicks.NewPipeline(
		memStore,
		memStore,
		mapLocator{germanClient: "Germany"},
		messaging.NopPublish[analytics.LinkClickedEvent](),
		"",
		logger,
	)

	created := make(chan *analytics.LinkCreatedEvent, 100)
	publishCreated := func(_ context.Context, event *analytics.LinkCreatedEvent) error {
		created <- event

		return nil
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(
		middleware.RequestMeta(api),
		middleware.Identity(api, testSecret, logger),
	)

	handlers.RegisterRoutes(api,
		handlers.NewLinkHandler(registry, analytics.NewAggregator(memStore), testBaseURL, publishCreated, logger),
		handlers.NewRedirectHandler(pipeline, logger),
	)

	return &testServer{router: router, store: memStore, created: created}
}

type request struct {
	method  string
	path    string
	body    any
	user    string
	editKey string
	headers map[string]string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}

	req := httptest.NewRequest(r.method, r.path, &body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if r.user != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, r.user))
	}

	if r.editKey != "" {
		req.Header.Set(middleware.EditKeyHeader, r.editKey)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

func tokenFor(t *testing.T, user string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)

	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

// createLink creates a link through the API and returns its body.
func (s *testServer) createLink(t *testing.T, user string, body map[string]any) handlers.LinkBody {
	t.Helper()

	if body == nil {
		body = map[string]any{"longURL": "https://example.com/some/long/path"}
	}

	w := s.do(t, request{method: http.MethodPost, path: "/links", body: body, user: user})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[handlers.LinkBody](t, w)
}
