// Package server wires the HTTP routes and the global middleware chain.
package server

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"sitepulse/internal/auth"
	"sitepulse/internal/http/handlers"
	appmw "sitepulse/internal/http/middleware"
	"sitepulse/internal/projects"
	"sitepulse/internal/sites"
	"sitepulse/internal/users"
)

type Deps struct {
	Sites      *sites.Service
	Projects   *projects.Service
	Users      *users.Service
	Tokens     *auth.JWTManager
	Gatherer   prometheus.Gatherer
	CORSOrigin string
}

// NewRouter registers every route. Everything under /api/v1 requires a
// bearer access token except signup, signin, and refresh.
func NewRouter(d Deps) *router.Router {
	r := router.New()
	authed := appmw.BearerAuth(d.Tokens)

	r.GET("/", handlers.Root)
	r.GET("/healthz", handlers.Healthz)
	r.GET("/metrics", handlers.Metrics(d.Gatherer))

	v1 := r.Group("/api/v1")

	v1.POST("/users/signup", handlers.Signup(d.Users))
	v1.POST("/users/signin", handlers.Signin(d.Users))
	v1.POST("/users/refresh", handlers.Refresh(d.Users))
	v1.POST("/users/signout", authed(handlers.Signout()))
	v1.GET("/users", authed(handlers.FindUser(d.Users)))
	v1.GET("/users/email/{email}", authed(handlers.FindUser(d.Users)))
	v1.GET("/users/{id}", authed(handlers.GetUser(d.Users)))
	v1.PUT("/users/{id}", authed(handlers.UpdateUser(d.Users)))
	v1.DELETE("/users/{id}", authed(handlers.DeleteUser(d.Users)))
	v1.GET("/users/{id}/sites", authed(handlers.ListUserSites(d.Sites)))

	v1.POST("/projects", authed(handlers.CreateProject(d.Projects)))
	v1.GET("/projects", authed(handlers.ListProjects(d.Projects)))
	v1.GET("/projects/{id}", authed(handlers.GetProject(d.Projects)))
	v1.PUT("/projects/{id}", authed(handlers.UpdateProject(d.Projects)))
	v1.DELETE("/projects/{id}", authed(handlers.DeleteProject(d.Projects)))
	v1.GET("/projects/{id}/sites", authed(handlers.ListProjectSites(d.Sites)))

	v1.POST("/sites", authed(handlers.CreateSite(d.Sites)))
	v1.GET("/sites", authed(handlers.ListSites(d.Sites)))
	v1.GET("/sites/{id}", authed(handlers.GetSite(d.Sites)))
	v1.PUT("/sites/{id}", authed(handlers.UpdateSite(d.Sites)))
	v1.DELETE("/sites/{id}", authed(handlers.DeleteSite(d.Sites)))
	v1.GET("/sites/{id}/analytics/history", authed(handlers.AnalyticsHistory(d.Sites)))

	return r
}

// Handler returns the router wrapped in the global middleware chain:
// request logger, then CORS, then routing.
func Handler(d Deps) fasthttp.RequestHandler {
	r := NewRouter(d)
	return appmw.RequestLogger(appmw.CORS(d.CORSOrigin)(r.Handler))
}
