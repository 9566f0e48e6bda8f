package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"sitepulse/internal/logging"
	"sitepulse/internal/metrics"
)

// Metrics serves the Prometheus text exposition of g. ?project= keeps
// only the series labelled with that project id.
func Metrics(g prometheus.Gatherer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		body, err := metrics.Encode(g, string(ctx.QueryArgs().Peek("project")))
		if err != nil {
			logging.Error().Err(err).Msg("encode metrics")
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to encode metrics")
			return
		}
		ctx.SetContentType(metrics.ContentType())
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(body)
	}
}

func Healthz(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString("ok")
}

func Root(ctx *fasthttp.RequestCtx) {
	jsonResponse(ctx, fasthttp.StatusOK, "Hello from sitepulse", nil)
}
