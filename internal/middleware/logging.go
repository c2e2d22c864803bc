package middleware

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger. Production emits JSON lines,
// everything else gets the text handler.
var Logger *slog.Logger

func init() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var base slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if os.Getenv("APP_ENV") == "production" {
		base = slog.NewJSONHandler(os.Stdout, opts)
	}
	Logger = slog.New(requestAttrHandler{base})
}

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
	ctxKeyTraceID
)

// requestAttrHandler stamps every record with the request correlation values
// that ContextMiddleware placed on the context, so service and repository
// logs line up with the access log without threading attrs by hand.
type requestAttrHandler struct {
	slog.Handler
}

func (h requestAttrHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		r.AddAttrs(slog.String("request_id", v))
	}
	if v, ok := ctx.Value(ctxKeyUserID).(uint); ok {
		r.AddAttrs(slog.Uint64("user_id", uint64(v)))
	}
	if v, ok := ctx.Value(ctxKeyTraceID).(string); ok {
		r.AddAttrs(slog.String("trace_id", v))
	}
	return h.Handler.Handle(ctx, r)
}

// ContextMiddleware copies the request id, trace id, and (when auth already
// ran) the user id from Fiber locals onto the request context, where
// requestAttrHandler picks them up.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if v, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, ctxKeyRequestID, v)
		}
		if v, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, ctxKeyUserID, v)
		}
		if v, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, ctxKeyTraceID, v)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger writes one access-log line per request after the handler
// chain returns.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			Logger.ErrorContext(c.UserContext(), "request failed", attrs...)
			return err
		}
		Logger.InfoContext(c.UserContext(), "request processed", attrs...)
		return nil
	}
}
