package middleware

import (
	"time"

	"github.com/valyala/fasthttp"

	"sitepulse/internal/logging"
)

// RequestLogger logs method, path, status, and duration of every request.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)

		status := ctx.Response.StatusCode()
		ev := logging.Info()
		if status >= fasthttp.StatusInternalServerError {
			ev = logging.Error()
		} else if status >= fasthttp.StatusBadRequest {
			ev = logging.Warn()
		}
		ev.Bytes("method", ctx.Method()).
			Bytes("path", ctx.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", ctx.RemoteIP().String()).
			Msg("request")
	}
}
