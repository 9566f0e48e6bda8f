package handlers

import (
	"github.com/valyala/fasthttp"

	"sitepulse/internal/users"
)

func Signup(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var in users.SignupInput
		if !decodeJSON(ctx, &in) {
			return
		}
		sess, err := svc.Signup(ctx, in)
		if err != nil {
			failure(ctx, "Error signing up", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, "User created successfully", sess)
	}
}

func Signin(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var in users.SigninInput
		if !decodeJSON(ctx, &in) {
			return
		}
		sess, err := svc.Signin(ctx, in)
		if err != nil {
			failure(ctx, "Error signing in", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Signed in successfully", sess)
	}
}

func Refresh(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var in struct {
			RefreshToken string `json:"refresh_token"`
		}
		if !decodeJSON(ctx, &in) {
			return
		}
		access, err := svc.Refresh(ctx, in.RefreshToken)
		if err != nil {
			failure(ctx, "Error refreshing token", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Token refreshed successfully", map[string]string{
			"access_token": access,
			"token_type":   "bearer",
		})
	}
}

// Signout only acknowledges the request; tokens are stateless and expire on their own.
func Signout() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustActor(ctx); !ok {
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Signed out successfully", nil)
	}
}
