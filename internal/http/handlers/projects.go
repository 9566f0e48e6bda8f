package handlers

import (
	"github.com/valyala/fasthttp"

	"sitepulse/internal/projects"
)

func CreateProject(svc *projects.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		var in projects.CreateInput
		if !decodeJSON(ctx, &in) {
			return
		}
		p, err := svc.Create(ctx, in, actor.UserID)
		if err != nil {
			failure(ctx, "Error creating project", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, "Project created successfully", p)
	}
}

// ListProjects serves GET /projects with an optional user_id filter.
func ListProjects(svc *projects.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		list, err := svc.List(ctx, string(ctx.QueryArgs().Peek("user_id")))
		if err != nil {
			failure(ctx, "Error fetching projects", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Projects fetched successfully", list)
	}
}

func GetProject(svc *projects.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		d, err := svc.Get(ctx, pathParam(ctx, "id"))
		if err != nil {
			failure(ctx, "Error fetching project", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Project fetched successfully", d)
	}
}

func UpdateProject(svc *projects.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		var in projects.UpdateInput
		if !decodeJSON(ctx, &in) {
			return
		}
		p, err := svc.Update(ctx, pathParam(ctx, "id"), in, actor.UserID)
		if err != nil {
			failure(ctx, "Error updating project", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Project updated successfully", p)
	}
}

func DeleteProject(svc *projects.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := pathParam(ctx, "id")
		if err := svc.Delete(ctx, id); err != nil {
			failure(ctx, "Error deleting project", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Project deleted successfully", map[string]string{"p_id": id})
	}
}
