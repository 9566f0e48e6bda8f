package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/valyala/fasthttp"

	"sitepulse/internal/apperr"
	"sitepulse/internal/auth"
	httpctx "sitepulse/internal/http/ctx"
	"sitepulse/internal/logging"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// MustActor returns the authenticated caller, or sends 401 and returns (nil, false).
func MustActor(ctx *fasthttp.RequestCtx) (*auth.Claims, bool) {
	c, ok := httpctx.ActorFromCtx(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return c, true
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, msg string, data any) {
	body, err := json.Marshal(envelope{Success: code < 400, Message: msg, Data: data})
	if err != nil {
		logging.Error().Err(err).Msg("encode response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"success":false,"message":"failed to encode response","data":null}`)
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	jsonResponse(ctx, code, msg, nil)
}

// failure reports err with the status its kind maps to. The message is
// prefix followed by the error text, e.g. "Error updating site: site not found".
func failure(ctx *fasthttp.RequestCtx, prefix string, err error) {
	code := apperr.HTTPStatus(err)
	if code >= fasthttp.StatusInternalServerError {
		logging.Error().Err(err).Bytes("path", ctx.Path()).Msg(prefix)
	}
	errResponse(ctx, code, prefix+": "+err.Error())
}

// decodeJSON reads the request body into dst, sending 400 on failure.
func decodeJSON(ctx *fasthttp.RequestCtx, dst any) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		errResponse(ctx, fasthttp.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	s, _ := ctx.UserValue(name).(string)
	return s
}

// queryInt returns the named query parameter, def when absent, or an
// error when it is present but not an integer >= lo.
func queryInt(ctx *fasthttp.RequestCtx, name string, def, lo int) (int, error) {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < lo {
		return 0, apperr.Validationf("%s must be an integer >= %d", name, lo)
	}
	return n, nil
}
