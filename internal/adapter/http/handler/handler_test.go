package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/internal/service"
	"pix-webhook-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub services ---

type stubWebhookService struct {
	authErr error

	mu        sync.Mutex
	processed []domain.DepositNotification
	done      chan struct{}
}

func (s *stubWebhookService) Authenticate(ctx context.Context, scope, header string) error {
	return s.authErr
}

func (s *stubWebhookService) Process(ctx context.Context, scope string, n domain.DepositNotification) {
	s.mu.Lock()
	s.processed = append(s.processed, n)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
}

func (s *stubWebhookService) processedList() []domain.DepositNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DepositNotification, len(s.processed))
	copy(out, s.processed)
	return out
}

type stubAuthService struct {
	token string
	err   error
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return s.token, time.Now().Add(time.Hour), nil
}

type stubReportingService struct {
	rows []domain.TransactionSummary
	got  ports.TransactionListParams
}

func (s *stubReportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.TransactionSummary, error) {
	s.got = params
	return s.rows, nil
}

type stubSecretService struct {
	configured bool
	rotation   *ports.SecretRotation
}

func (s *stubSecretService) Configured(ctx context.Context, scope string) (bool, error) {
	return s.configured, nil
}

func (s *stubSecretService) Rotate(ctx context.Context, scope string, force bool) (*ports.SecretRotation, error) {
	return s.rotation, nil
}

// --- harness ---

type routerFixture struct {
	router     *gin.Engine
	webhookSvc *stubWebhookService
	reporting  *stubReportingService
	secrets    *stubSecretService
	dispatcher *service.Dispatcher
	tokenSvc   *service.JWTTokenService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	webhookSvc := &stubWebhookService{done: make(chan struct{}, 16)}
	reporting := &stubReportingService{}
	secrets := &stubSecretService{}
	tokenSvc := service.NewJWTTokenService("handler-test-secret", time.Hour, "test")
	dispatcher := service.NewDispatcher(1, 16, time.Second, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = dispatcher.Shutdown(ctx)
	})

	router := SetupRouter(RouterDeps{
		WebhookSvc:   webhookSvc,
		Dispatcher:   dispatcher,
		AuthSvc:      &stubAuthService{token: "session-token"},
		ReportingSvc: reporting,
		SecretSvc:    secrets,
		TokenSvc:     tokenSvc,
		Logger:       zerolog.Nop(),
	})

	return &routerFixture{
		router:     router,
		webhookSvc: webhookSvc,
		reporting:  reporting,
		secrets:    secrets,
		dispatcher: dispatcher,
		tokenSvc:   tokenSvc,
	}
}

func (fx *routerFixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func (fx *routerFixture) bearer(t *testing.T) map[string]string {
	t.Helper()
	token, _, err := fx.tokenSvc.Generate("admin")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func (fx *routerFixture) waitProcessed(t *testing.T) {
	t.Helper()
	select {
	case <-fx.webhookSvc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never reached processing")
	}
}

// --- webhook endpoint ---

func TestWebhookEndpoint_AcceptedReturns200(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodPost, "/depix/webhooks/deposit", gin.H{
		"qrId": "qr-1", "status": "depix_sent",
	}, map[string]string{"Authorization": "Basic whatever"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String(), "webhook contract is the status code alone")

	fx.waitProcessed(t)
	processed := fx.webhookSvc.processedList()
	require.Len(t, processed, 1)
	assert.Equal(t, "qr-1", processed[0].QrID)
	assert.Equal(t, "depix_sent", *processed[0].Status)
}

func TestWebhookEndpoint_StoreScopedRoute(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodPost, "/depix/webhooks/deposit/store-7", gin.H{"qrId": "qr-2"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	fx.waitProcessed(t)
	require.Len(t, fx.webhookSvc.processedList(), 1)
}

func TestWebhookEndpoint_Unauthorized(t *testing.T) {
	fx := newRouterFixture(t)
	fx.webhookSvc.authErr = apperror.ErrWebhookUnauthorized()

	w := fx.do(http.MethodPost, "/depix/webhooks/deposit", gin.H{"qrId": "qr-1"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SEC_001")
	// Nothing is queued for an unauthenticated caller.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fx.webhookSvc.processedList())
}

func TestWebhookEndpoint_UnknownScope(t *testing.T) {
	fx := newRouterFixture(t)
	fx.webhookSvc.authErr = apperror.ErrScopeNotConfigured()

	w := fx.do(http.MethodPost, "/depix/webhooks/deposit/ghost-store", gin.H{"qrId": "qr-1"}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookEndpoint_MalformedBody(t *testing.T) {
	fx := newRouterFixture(t)

	// Missing required qrId
	w := fx.do(http.MethodPost, "/depix/webhooks/deposit", gin.H{"status": "pending"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Invalid JSON
	req := httptest.NewRequest(http.MethodPost, "/depix/webhooks/deposit", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- operator API ---

func TestLoginEndpoint(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "admin", "password": "pw",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "session-token")
}

func TestLoginEndpoint_MissingFields(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionsEndpoint_RequiresAuth(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodGet, "/api/v1/transactions?store_id=store-1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = fx.do(http.MethodGet, "/api/v1/transactions?store_id=store-1", nil,
		map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransactionsEndpoint_List(t *testing.T) {
	fx := newRouterFixture(t)
	status := domain.DepixStatusDepixSent
	fx.reporting.rows = []domain.TransactionSummary{{
		InvoiceID: "inv-1",
		Created:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		QrID:      "qr-1",
		StatusRaw: "depix_sent",
		Status:    &status,
	}}

	w := fx.do(http.MethodGet,
		"/api/v1/transactions?store_id=store-1&status=depix_sent&from=2026-03-01&to=2026-03-02",
		nil, fx.bearer(t))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), "inv-1")

	assert.Equal(t, "store-1", fx.reporting.got.StoreID)
	require.NotNil(t, fx.reporting.got.Status)
	assert.Equal(t, "depix_sent", *fx.reporting.got.Status)
	require.NotNil(t, fx.reporting.got.From)
	require.NotNil(t, fx.reporting.got.To)
	// The bare-date upper bound is inclusive through end of day.
	assert.True(t, fx.reporting.got.To.After(time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)))
}

func TestTransactionsEndpoint_RequiresStoreID(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodGet, "/api/v1/transactions", nil, fx.bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionsEndpoint_BadDate(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodGet, "/api/v1/transactions?store_id=s&from=yesterday", nil, fx.bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSecretStatusEndpoint(t *testing.T) {
	fx := newRouterFixture(t)
	fx.secrets.configured = true

	w := fx.do(http.MethodGet, "/api/v1/settings/secret", nil, fx.bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"configured":true`)
	assert.Contains(t, w.Body.String(), `"scope":"server"`)
}

func TestRotateSecretEndpoint(t *testing.T) {
	fx := newRouterFixture(t)
	fx.secrets.rotation = &ports.SecretRotation{
		Scope:      "server",
		Secret:     "aabbccdd",
		WebhookURL: "https://pay.example.com/depix/webhooks/deposit",
	}

	w := fx.do(http.MethodPost, "/api/v1/settings/secret/rotate", gin.H{"scope": "server"}, fx.bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aabbccdd")
	assert.Contains(t, w.Body.String(), "webhook_url")
}

func TestRotateSecretEndpoint_RequiresScope(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodPost, "/api/v1/settings/secret/rotate", gin.H{}, fx.bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint_NoCheckers(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
