package middleware

import (
	"bytes"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"

	"sitepulse/internal/auth"
	httpctx "sitepulse/internal/http/ctx"
)

// BearerAuth validates access tokens and stores the caller's claims on the request.
func BearerAuth(tokens *auth.JWTManager) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			header := ctx.Request.Header.Peek("Authorization")
			if len(header) == 0 {
				unauthorized(ctx, "missing Authorization header")
				return
			}

			const prefix = "Bearer "
			if !bytes.HasPrefix(header, []byte(prefix)) {
				unauthorized(ctx, "invalid Authorization header")
				return
			}

			token := strings.TrimSpace(string(header[len(prefix):]))
			if token == "" {
				unauthorized(ctx, "empty bearer token")
				return
			}

			claims, err := tokens.Verify(token, auth.AccessToken)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					unauthorized(ctx, "token expired")
					return
				}
				unauthorized(ctx, "invalid token")
				return
			}

			httpctx.SetUserToken(ctx, token)
			httpctx.SetActor(ctx, claims)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"success":false,"message":"` + msg + `","data":null}`)
}
