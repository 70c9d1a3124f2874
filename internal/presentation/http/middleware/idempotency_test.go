package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/infrastructure/database"
	"github.com/sangkips/restaurant-pos-api/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type finalizeStub struct {
	calls   atomic.Int32
	entered chan struct{}
	proceed chan struct{}
	status  int
}

func (h *finalizeStub) handle(c *gin.Context) {
	n := h.calls.Add(1)
	if h.entered != nil {
		h.entered <- struct{}{}
		<-h.proceed
	}
	c.JSON(h.status, gin.H{"invoice_no": fmt.Sprintf("20260115-%03d", n)})
}

func newIdempotentRouter(t *testing.T, user uuid.UUID, h *finalizeStub) *gin.Engine {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:mw_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	r := gin.New()
	r.POST("/invoices", func(c *gin.Context) {
		c.Set("user_id", user)
		c.Next()
	}, IdempotencyRequired(IdempotencyConfig{
		Repo: repository.NewIdempotencyRepository(db),
		Log:  zap.NewNop(),
	}), h.handle)
	return r
}

func post(r http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyConcurrentRequestsRunOnce(t *testing.T) {
	h := &finalizeStub{entered: make(chan struct{}), proceed: make(chan struct{}), status: http.StatusCreated}
	r := newIdempotentRouter(t, uuid.New(), h)

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() { firstDone <- post(r, "order-42", `{"items":[1]}`) }()
	<-h.entered

	// The first request holds the key while its handler runs.
	second := post(r, "order-42", `{"items":[1]}`)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	close(h.proceed)
	first := <-firstDone
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Contains(t, first.Body.String(), "20260115-001")

	h.entered = nil
	replay := post(r, "order-42", `{"items":[1]}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestIdempotencyFailedRequestReleasesKey(t *testing.T) {
	h := &finalizeStub{status: http.StatusServiceUnavailable}
	r := newIdempotentRouter(t, uuid.New(), h)

	assert.Equal(t, http.StatusServiceUnavailable, post(r, "k", `{}`).Code)

	h.status = http.StatusCreated
	retry := post(r, "k", `{}`)
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Empty(t, retry.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestIdempotencyKeyReuseWithDifferentBody(t *testing.T) {
	h := &finalizeStub{status: http.StatusCreated}
	r := newIdempotentRouter(t, uuid.New(), h)

	require.Equal(t, http.StatusCreated, post(r, "k", `{"discount":"20"}`).Code)
	assert.Equal(t, http.StatusConflict, post(r, "k", `{"discount":"10"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "", `{}`).Code)
	assert.Equal(t, int32(1), h.calls.Load())
}
