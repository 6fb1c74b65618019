package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with domain specific helpers
type Logger struct {
	*slog.Logger
}

// New creates a logger that writes to stdout. Text output in gin debug mode, JSON otherwise.
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter creates a logger writing to w at the given level
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	level := getLogLevel(levelStr)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("user_id", userID))}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// WithComponent tags every record with the emitting component
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", name))}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Business logic logging methods

// LogBookingCreated logs a new pending reservation bound to a payment order
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, eventID, userID, orderID string) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
		slog.String("order_id", orderID),
	)
}

// LogBookingConfirmed logs a fulfilled booking
func (l *Logger) LogBookingConfirmed(ctx context.Context, bookingID, eventID, orderID string, available int) {
	l.Logger.InfoContext(ctx,
		"Booking Confirmed",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("order_id", orderID),
		slog.Int("available_tickets", available),
	)
}

// LogBookingCancelled logs when a booking is cancelled
func (l *Logger) LogBookingCancelled(ctx context.Context, bookingID, eventID, userID string) {
	l.Logger.InfoContext(ctx,
		"Booking Cancelled",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)
}

// LogInventoryChange logs a ledger movement
func (l *Logger) LogInventoryChange(ctx context.Context, eventID string, delta int, reason, reference string, available int) {
	l.Logger.InfoContext(ctx,
		"Inventory Changed",
		slog.String("event_id", eventID),
		slog.Int("delta", delta),
		slog.String("reason", reason),
		slog.String("reference", reference),
		slog.Int("available_tickets", available),
	)
}

// Security logging methods

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogPaymentAudit records a payment security signal such as a bad signature or a tampered amount
func (l *Logger) LogPaymentAudit(ctx context.Context, reason, userID, orderID string, fields map[string]interface{}) {
	args := []interface{}{
		slog.String("audit", "payment"),
		slog.String("reason", reason),
		slog.String("user_id", userID),
		slog.String("order_id", orderID),
	}
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.WarnContext(ctx, "Payment Audit", args...)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Operations

// LogCompensationAlert is the operator alert raised when a compensation could not be applied inline
func (l *Logger) LogCompensationAlert(ctx context.Context, eventID string, quantity int, reference string, err error) {
	l.Logger.ErrorContext(ctx,
		"Compensation Pending",
		slog.String("alert", "operator"),
		slog.String("event_id", eventID),
		slog.Int("quantity", quantity),
		slog.String("reference", reference),
		slog.String("error", err.Error()),
	)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}
