package handlers

import (
	"github.com/valyala/fasthttp"

	"sitepulse/internal/sites"
)

func CreateSite(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		var in sites.CreateSiteInput
		if !decodeJSON(ctx, &in) {
			return
		}
		site, err := svc.CreateSite(ctx, in, actor.UserID)
		if err != nil {
			failure(ctx, "Error creating site", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, "Site created successfully", site)
	}
}

func UpdateSite(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		var patch sites.SitePatch
		if !decodeJSON(ctx, &patch) {
			return
		}
		site, err := svc.UpdateSite(ctx, pathParam(ctx, "id"), patch, actor.UserID)
		if err != nil {
			failure(ctx, "Error updating site", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Site updated successfully", site)
	}
}

func DeleteSite(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		site, err := svc.DeleteSite(ctx, pathParam(ctx, "id"))
		if err != nil {
			failure(ctx, "Error deleting site", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Site deleted successfully", map[string]string{"site_id": site.ID})
	}
}

func GetSite(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		site, err := svc.GetSite(ctx, pathParam(ctx, "id"))
		if err != nil {
			failure(ctx, "Error fetching site", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Site fetched successfully", site)
	}
}

// ListSites serves GET /sites?skip=&limit=.
func ListSites(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		skip, err := queryInt(ctx, "skip", 0, 0)
		if err != nil {
			failure(ctx, "Error fetching sites", err)
			return
		}
		limit, err := queryInt(ctx, "limit", 10, 1)
		if err != nil {
			failure(ctx, "Error fetching sites", err)
			return
		}
		list, err := svc.ListSites(ctx, skip, limit)
		if err != nil {
			failure(ctx, "Error fetching sites", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Sites fetched successfully", list)
	}
}

func ListProjectSites(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		list, err := svc.ListByProject(ctx, pathParam(ctx, "id"))
		if err != nil {
			failure(ctx, "Error fetching project sites", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Sites fetched successfully", list)
	}
}

// ListUserSites serves GET /users/{id}/sites; "me" is the caller.
func ListUserSites(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := MustActor(ctx)
		if !ok {
			return
		}
		list, err := svc.ListByUser(ctx, resolveUserID(ctx, actor.UserID))
		if err != nil {
			failure(ctx, "Error fetching user sites", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Sites fetched successfully", list)
	}
}

// AnalyticsHistory serves GET /sites/{id}/analytics/history?days=N.
func AnalyticsHistory(svc *sites.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		days, err := queryInt(ctx, "days", 0, 1)
		if err != nil {
			failure(ctx, "Error fetching analytics history", err)
			return
		}
		resp, err := svc.AnalyticsHistory(ctx, pathParam(ctx, "id"), days)
		if err != nil {
			failure(ctx, "Error fetching analytics history", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, "Analytics history fetched successfully", resp)
	}
}
