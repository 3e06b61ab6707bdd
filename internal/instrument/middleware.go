package instrument

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TraceHeader carries the request trace id in both directions.
const TraceHeader = "X-Trace-ID"

type ctxKey int

const traceIDKey ctxKey = iota

// WithTraceID stores a trace id on ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the trace id stored on ctx, or "".
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// Middleware propagates (or generates) a trace id for each request and logs
// the request outcome at debug level, 5xx responses at severe level.
func Middleware(m Monitor) fiber.Handler {
	m = OrNoop(m)
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.SetUserContext(WithTraceID(c.UserContext(), traceID))
		c.Set(TraceHeader, traceID)

		start := time.Now()
		if err := c.Next(); err != nil {
			// Render the error now so the logged status is the one sent.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		kv := []any{
			"trace_id", traceID,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
		}
		if status >= fiber.StatusInternalServerError {
			m.Severe("request failed", kv...)
		} else {
			m.Debug("request", kv...)
		}
		return nil
	}
}
