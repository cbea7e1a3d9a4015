package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coolmember/internal/api/util"
	"coolmember/internal/config"
	"coolmember/internal/core/model"
	"coolmember/internal/core/repository"
	"coolmember/internal/core/service"
	"coolmember/internal/localstore"
	"coolmember/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "access-secret"

type testAPI struct {
	t       *testing.T
	server  *httptest.Server
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T, testLogin bool) *testAPI {
	t.Helper()
	store := localstore.NewStore(localstore.NewMemoryKV(), zerolog.Nop())
	local := repository.NewLocalMemberRepository(store)
	repo := repository.NewFallbackMemberRepository(nil, local, repository.FallbackOptions{Logger: zerolog.Nop()})
	m := metrics.New()

	h := NewRouter(service.NewMemberService(repo), config.ServerConfig{CORSMaxAge: 600}, config.AuthConfig{
		AccessSecret:  testSecret,
		RefreshSecret: "refresh-secret",
		TestLogin:     testLogin,
	}, m, zerolog.Nop())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, metrics: m}
}

func tokenFor(t *testing.T, owner string) string {
	t.Helper()
	token, err := util.IssueToken(owner, owner+"@example.com", time.Hour, testSecret, time.Now())
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body interface{}) (*http.Response, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, data
}

func newMemberBody(name, group string) model.MemberFields {
	return model.MemberFields{
		Name:        name,
		PhoneNumber: "555-0100",
		Address:     "1 Main Street",
		MemberID:    "CM-1",
		BloodGroup:  group,
	}
}

func TestMemberCRUD(t *testing.T) {
	api := newTestAPI(t, false)
	token := tokenFor(t, "owner-1")

	resp, body := api.do(http.MethodPost, "/api/members", token, newMemberBody("Ada Lovelace", "A+"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created model.Member
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)

	resp, body = api.do(http.MethodGet, "/api/members/get?id="+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Member
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created, got)

	resp, body = api.do(http.MethodPatch, "/api/members/update?id="+created.ID, token, map[string]string{"bloodGroup": "O-"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated model.Member
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "O-", updated.BloodGroup)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	resp, body = api.do(http.MethodGet, "/api/members/list?q=ada", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Member
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	resp, _ = api.do(http.MethodDelete, "/api/members/delete?id="+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = api.do(http.MethodGet, "/api/members/get?id="+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), created.ID)
}

func TestEmptyListIsArray(t *testing.T) {
	api := newTestAPI(t, false)
	resp, body := api.do(http.MethodGet, "/api/members/list", tokenFor(t, "nobody"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t, false)
	token := tokenFor(t, "owner-1")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"missing token", http.MethodGet, "/api/members/list", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/members/list", "garbage", nil, http.StatusUnauthorized},
		{"invalid blood group", http.MethodPost, "/api/members", token, newMemberBody("Ada", "Q"), http.StatusBadRequest},
		{"empty patch", http.MethodPut, "/api/members/update?id=x", token, map[string]string{}, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/members/update?id=nope", token, map[string]string{"name": "x"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/members/delete?id=nope", token, nil, http.StatusNotFound},
		{"delete without id", http.MethodDelete, "/api/members/delete", token, nil, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/members", token, nil, http.StatusMethodNotAllowed},
		{"bad months", http.MethodGet, "/api/dashboard?months=x", token, nil, http.StatusBadRequest},
		{"months above ceiling", http.MethodGet, "/api/dashboard?months=2000000", token, nil, http.StatusBadRequest},
		{"negative months", http.MethodGet, "/api/dashboard?months=-1", token, nil, http.StatusBadRequest},
		{"recent above ceiling", http.MethodGet, "/api/dashboard?recent=1000", token, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := api.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}
}

func TestMembersAreOwnerScoped(t *testing.T) {
	api := newTestAPI(t, false)
	alice := tokenFor(t, "alice")
	bob := tokenFor(t, "bob")

	resp, body := api.do(http.MethodPost, "/api/members", alice, newMemberBody("Ada", "A+"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.Member
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ = api.do(http.MethodGet, "/api/members/get?id="+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(http.MethodDelete, "/api/members/delete?id="+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = api.do(http.MethodGet, "/api/members/list", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
}

func TestDashboard(t *testing.T) {
	api := newTestAPI(t, false)
	token := tokenFor(t, "owner-1")

	for _, group := range []string{"A+", "A+", "O-", "B+"} {
		resp, _ := api.do(http.MethodPost, "/api/members", token, newMemberBody("m", group))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := api.do(http.MethodGet, "/api/dashboard?months=3&recent=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		TotalMembers         int               `json:"totalMembers"`
		MostCommonBloodGroup string            `json:"mostCommonBloodGroup"`
		RecentMembers        []model.Member    `json:"recentMembers"`
		MonthlyNewMembers    []json.RawMessage `json:"monthlyNewMembers"`
		Backend              string            `json:"backend"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 4, out.TotalMembers)
	assert.Equal(t, "A+", out.MostCommonBloodGroup)
	assert.Len(t, out.RecentMembers, 2)
	assert.Len(t, out.MonthlyNewMembers, 3)
	assert.Equal(t, "local", out.Backend)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, false)

	resp, body := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","backend":"local"}`, string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))

	resp, body = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `coolmember_http_requests_total{method="GET",route="/health",status="200"} 1`), string(body))
}

func TestPreflight(t *testing.T) {
	api := newTestAPI(t, false)
	resp, _ := api.do(http.MethodOptions, "/api/members", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestTestLogin(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		api := newTestAPI(t, false)
		resp, _ := api.do(http.MethodPost, "/api/auth/test-login", "", map[string]string{"email": "a@b.c"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("enabled", func(t *testing.T) {
		api := newTestAPI(t, true)
		resp, body := api.do(http.MethodPost, "/api/auth/test-login", "", map[string]string{"email": "Ada@Example.com"})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var login struct {
			AccessToken string `json:"access_token"`
			OwnerID     string `json:"owner_id"`
		}
		require.NoError(t, json.Unmarshal(body, &login))
		assert.NotEmpty(t, login.OwnerID)

		resp, _ = api.do(http.MethodGet, "/api/members/list", login.AccessToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
