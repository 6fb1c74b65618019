package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelError, getLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getLogLevel(""))
}

func TestPaymentAuditIsStructured(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.LogPaymentAudit(context.Background(), "signature_invalid", "u-1", "order_1", map[string]interface{}{"ip": "10.0.0.1"})

	out := buf.String()
	assert.Contains(t, out, `"msg":"Payment Audit"`)
	assert.Contains(t, out, `"reason":"signature_invalid"`)
	assert.Contains(t, out, `"order_id":"order_1"`)
	assert.Contains(t, out, `"ip":"10.0.0.1"`)
}

func TestCompensationAlertLogsAtError(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "error")

	log.LogInventoryChange(context.Background(), "e-1", 2, "CANCELLATION", "b-1", 10)
	assert.Empty(t, buf.String())

	log.LogCompensationAlert(context.Background(), "e-1", 2, "order_1", errors.New("db down"))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"alert":"operator"`)
}
