package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/icondo/parcel-service/internal/config"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics("icondo")
	m.RecordRequest("/api/parcels", http.MethodPost, http.StatusCreated, 20*time.Millisecond)
	m.RecordError("/api/parcels/:id/collect", http.MethodPut, apperrors.CodeNotFoundOrAlreadyCollected)
	m.ParcelReceived()
	m.ParcelReceived()
	m.ParcelCollected()
	m.NotificationDelivered("redis", nil)
	m.NotificationDelivered("redis", errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues(http.MethodPost, "/api/parcels", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCount.WithLabelValues(http.MethodPut, "/api/parcels/:id/collect", apperrors.CodeNotFoundOrAlreadyCollected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.parcelsReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parcelsCollected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("redis", "error")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.ParcelReceived()
		nilMetrics.RecordRequest("/", http.MethodGet, 200, 0)
	})
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics("icondo")

	app := fiber.New()
	app.Use(RequestIDMiddleware(), RequestLogger(zap.New(core), metrics))
	app.Get("/ok", func(c *fiber.Ctx) error {
		assert.NotEmpty(t, RequestID(c))
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/gone", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("parcel", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.Header.Get(fiber.HeaderXRequestID))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/gone", nil))
	require.NoError(t, err)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusNotFound, logs.All()[1].ContextMap()["status"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestCount.WithLabelValues(http.MethodGet, "/gone", "404")))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
