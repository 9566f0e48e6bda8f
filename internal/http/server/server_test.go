package server_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"sitepulse/internal/auth"
	"sitepulse/internal/db/dbtest"
	"sitepulse/internal/http/server"
	"sitepulse/internal/metrics"
	"sitepulse/internal/projects"
	"sitepulse/internal/sites"
	"sitepulse/internal/users"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t       *testing.T
	handler fasthttp.RequestHandler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gdb := dbtest.Open(t)
	tokens, err := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.SiteMutations, metrics.AnalyticsSnapshots)

	h := server.Handler(server.Deps{
		Sites:      sites.NewService(gdb, 7),
		Projects:   projects.NewService(gdb),
		Users:      users.NewService(gdb, tokens),
		Tokens:     tokens,
		Gatherer:   reg,
		CORSOrigin: "*",
	})
	return &harness{t: t, handler: h}
}

func (h *harness) do(method, uri, token string, body any) (*fasthttp.Response, envelope) {
	h.t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h.handler(&ctx)

	resp := &fasthttp.Response{}
	ctx.Response.CopyTo(resp)
	var env envelope
	if ct := string(resp.Header.ContentType()); ct == "application/json" {
		require.NoError(h.t, json.Unmarshal(resp.Body(), &env), string(resp.Body()))
	}
	return resp, env
}

func (h *harness) signup(email string) (token, userID string) {
	h.t.Helper()
	resp, env := h.do("POST", "/api/v1/users/signup", "", map[string]string{
		"email": email, "name": "Tester", "password": "secret1",
	})
	require.Equal(h.t, fasthttp.StatusCreated, resp.StatusCode(), env.Message)
	var sess struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &sess))
	return sess.AccessToken, sess.User.ID
}

func TestSiteLifecycle(t *testing.T) {
	h := newHarness(t)
	token, userID := h.signup("ann@example.com")

	resp, env := h.do("POST", "/api/v1/projects", token, map[string]string{"name": "Farm"})
	require.Equal(t, fasthttp.StatusCreated, resp.StatusCode(), env.Message)
	var project struct {
		ID string `json:"p_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &project))

	resp, env = h.do("POST", "/api/v1/sites", token, map[string]any{
		"name":       "North field",
		"project_id": project.ID,
		"analytics":  map[string]any{"temp": map[string]any{"unit": "C", "value": 20}},
	})
	require.Equal(t, fasthttp.StatusCreated, resp.StatusCode(), env.Message)
	assert.True(t, env.Success)
	var site struct {
		ID        string `json:"id"`
		CreatedBy string `json:"created_by"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &site))
	assert.Equal(t, userID, site.CreatedBy)
	assert.Equal(t, "active", site.Status)

	resp, env = h.do("PUT", "/api/v1/sites/"+site.ID, token, map[string]any{
		"analytics": map[string]any{"temp": map[string]any{"unit": "C", "value": 25}},
	})
	require.Equal(t, fasthttp.StatusOK, resp.StatusCode(), env.Message)

	resp, env = h.do("GET", "/api/v1/sites/"+site.ID+"/analytics/history?days=7", token, nil)
	require.Equal(t, fasthttp.StatusOK, resp.StatusCode(), env.Message)
	var hist struct {
		History []json.RawMessage `json:"history"`
		Chart   map[string]struct {
			Unit   string `json:"unit"`
			Values []struct {
				X string  `json:"x"`
				Y float64 `json:"y"`
			} `json:"values"`
		} `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.Len(t, hist.History, 1)
	require.Len(t, hist.Chart["temp"].Values, 1)
	assert.Equal(t, 20.0, hist.Chart["temp"].Values[0].Y)

	resp, env = h.do("GET", "/api/v1/projects/"+project.ID, token, nil)
	require.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	var detail struct {
		Project struct {
			SitesAddedTotal int64 `json:"sites_added_total"`
		} `json:"project"`
		Sites []json.RawMessage `json:"sites"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.EqualValues(t, 1, detail.Project.SitesAddedTotal)
	assert.Len(t, detail.Sites, 1)

	resp, env = h.do("DELETE", "/api/v1/sites/"+site.ID, token, nil)
	require.Equal(t, fasthttp.StatusOK, resp.StatusCode(), env.Message)
	assert.JSONEq(t, `{"site_id":"`+site.ID+`"}`, string(env.Data))

	resp, env = h.do("DELETE", "/api/v1/sites/"+site.ID, token, nil)
	assert.Equal(t, fasthttp.StatusNotFound, resp.StatusCode())
	assert.False(t, env.Success)
	assert.Equal(t, "Error deleting site: site not found", env.Message)
	assertNullData(t, resp)
}

// assertNullData checks that the body carries a data key set to null.
func assertNullData(t *testing.T, resp *fasthttp.Response) {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body(), &body), string(resp.Body()))
	require.Contains(t, body, "data")
	assert.Nil(t, body["data"])
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)
	token, _ := h.signup("ann@example.com")

	resp, env := h.do("POST", "/api/v1/sites", token, map[string]any{"name": "", "project_id": "P1"})
	assert.Equal(t, fasthttp.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, env.Message, "Error creating site")

	resp, _ = h.do("POST", "/api/v1/sites", token, map[string]any{"name": "Orphan", "project_id": "P-MISSING"})
	assert.Equal(t, fasthttp.StatusNotFound, resp.StatusCode())

	resp, _ = h.do("GET", "/api/v1/sites/S-MISSING/analytics/history", token, nil)
	assert.Equal(t, fasthttp.StatusNotFound, resp.StatusCode())

	resp, _ = h.do("GET", "/api/v1/sites/S-MISSING/analytics/history?days=0", token, nil)
	assert.Equal(t, fasthttp.StatusBadRequest, resp.StatusCode())

	resp, _ = h.do("POST", "/api/v1/users/signup", "", map[string]string{
		"email": "ann@example.com", "name": "Ann", "password": "secret1",
	})
	assert.Equal(t, fasthttp.StatusConflict, resp.StatusCode())
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	resp, env := h.do("GET", "/api/v1/sites", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, resp.StatusCode())
	assert.False(t, env.Success)
	assertNullData(t, resp)

	resp, _ = h.do("GET", "/api/v1/sites", "garbage", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, resp.StatusCode())

	token, userID := h.signup("ann@example.com")
	resp, env = h.do("GET", "/api/v1/users/me", token, nil)
	require.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, userID, u.ID)
	assert.NotContains(t, string(env.Data), "password")

	for _, uri := range []string{"/api/v1/users/email/ANN@example.com", "/api/v1/users?email=ann@example.com"} {
		resp, env = h.do("GET", uri, token, nil)
		require.Equal(t, fasthttp.StatusOK, resp.StatusCode(), uri)
		var byEmail struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &byEmail))
		assert.Equal(t, userID, byEmail.ID, uri)
	}

	resp, _ = h.do("GET", "/api/v1/users/email/nobody@example.com", token, nil)
	assert.Equal(t, fasthttp.StatusNotFound, resp.StatusCode())
}

func TestCORSAndHealth(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do("OPTIONS", "/api/v1/sites", "", nil)
	assert.Equal(t, fasthttp.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "*", string(resp.Header.Peek("Access-Control-Allow-Origin")))

	resp, _ = h.do("GET", "/healthz", "", nil)
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.Equal(t, "ok", string(resp.Body()))

	resp, env := h.do("GET", "/", "", nil)
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.True(t, env.Success)
	assertNullData(t, resp)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	token, _ := h.signup("ann@example.com")

	_, env := h.do("POST", "/api/v1/projects", token, map[string]string{"name": "Farm"})
	var project struct {
		ID string `json:"p_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &project))
	resp, _ := h.do("POST", "/api/v1/sites", token, map[string]any{"name": "North field", "project_id": project.ID})
	require.Equal(t, fasthttp.StatusCreated, resp.StatusCode())

	resp, _ = h.do("GET", "/metrics?project="+project.ID, "", nil)
	require.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `sitepulse_site_mutations_total{op="create",project="`+project.ID+`"}`)
}
