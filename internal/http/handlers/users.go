package handlers

import (
	"github.com/valyala/fasthttp"

	"sitepulse/internal/users"
)

// resolveUserID maps the {id} path value "me" to the caller.
func resolveUserID(ctx *fasthttp.RequestCtx, self string) string {
	id := pathParam(ctx, "id")
	if id == "me" || id == "" {
		return self
	}
	return id
}

func GetUser(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		u, err := svc.Get(ctx, resolveUserID(ctx, actor.UserID))
		if err != nil {
			failure(ctx, "Error fetching user", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "User fetched successfully", u)
	}
}

// FindUser serves GET /users?email= and GET /users/email/{email}.
func FindUser(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		email := pathParam(ctx, "email")
		if email == "" {
			email = string(ctx.QueryArgs().Peek("email"))
		}
		if email == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "email query parameter is required")
			return
		}
		u, err := svc.GetByEmail(ctx, email)
		if err != nil {
			failure(ctx, "Error fetching user", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "User fetched successfully", u)
	}
}

func UpdateUser(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		var in users.UpdateInput
		if !decodeJSON(ctx, &in) {
			return
		}
		u, err := svc.Update(ctx, resolveUserID(ctx, actor.UserID), in)
		if err != nil {
			failure(ctx, "Error updating user", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "User updated successfully", u)
	}
}

func DeleteUser(svc *users.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		id := resolveUserID(ctx, actor.UserID)
		if err := svc.Delete(ctx, id); err != nil {
			failure(ctx, "Error deleting user", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "User deleted successfully", map[string]string{"id": id})
	}
}
