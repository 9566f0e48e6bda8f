package ctx

import (
	"github.com/valyala/fasthttp"

	"sitepulse/internal/auth"
)

const (
	ActorKey     = "actor"
	UserTokenKey = "userToken"
)

func SetUserToken(ctx *fasthttp.RequestCtx, token string) {
	ctx.SetUserValue(UserTokenKey, token)
}

func UserTokenFromCtx(ctx *fasthttp.RequestCtx) (string, bool) {
	v := ctx.UserValue(UserTokenKey)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SetActor stores the verified access-token claims of the caller.
func SetActor(ctx *fasthttp.RequestCtx, claims *auth.Claims) {
	ctx.SetUserValue(ActorKey, claims)
}

func ActorFromCtx(ctx *fasthttp.RequestCtx) (*auth.Claims, bool) {
	v := ctx.UserValue(ActorKey)
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok && c != nil
}
