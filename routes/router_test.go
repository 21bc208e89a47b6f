package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnpportal/portal/config"
	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/services"
	"github.com/tnpportal/portal/store"
	"github.com/tnpportal/portal/utils"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	users  *store.UserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:          testSecret,
		GinMode:            "test",
		DBDriver:           "sqlite",
		DatabaseURI:        "file::memory:",
		LogLevel:           "silent",
		RateLimitPerMinute: 6000,
		AllowedOrigins:     []string{"*"},
		MaxBodyBytes:       1 << 20,
	}
	db, err := config.InitDatabase(cfg, store.Models()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	postStore := store.NewPostStore(db)
	userStore := store.NewUserStore(db)
	query := services.NewQueryEngine(postStore, nil)
	verifier := services.NewTokenVerifier(testSecret, userStore, utils.NewTokenBlacklist(nil))

	r := SetupRouter(Dependencies{
		Config:   cfg,
		Posts:    services.NewPostService(postStore, query),
		Query:    query,
		Verifier: verifier,
		Revoker:  verifier,
	})
	return &testEnv{router: r, users: userStore}
}

func (e *testEnv) login(t *testing.T, name string, role models.Role, active bool) string {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: role, Active: active}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	token, err := utils.GenerateToken(testSecret, u.ID, u.Name, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "missing data in %v", body)
	return d
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	w, _ := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestOversizedBodyIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", models.RoleUser, true)

	w, body := env.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title":   "Big",
		"content": strings.Repeat("a", 2<<20),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "request body too large", body["message"])

	w, body = env.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title":   "Fine",
		"content": "<p>Small enough to fit in the limit.</p>",
	})
	assert.Equal(t, http.StatusCreated, w.Code, body)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", models.RoleUser, true)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request payload")
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", models.RoleUser, true)

	w, body := env.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title":    "Campus drive",
		"content":  "<p>Campus drive next Monday for all branches.</p>",
		"category": "placement",
		"tags":     []string{"drive", "campus"},
		"featured": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := data(t, body)
	id := created["id"].(string)
	assert.Equal(t, "asha", created["author"])
	assert.Equal(t, "Campus drive next Monday for all branches.", created["excerpt"])
	assert.Equal(t, float64(1), created["reading_time"])
	assert.NotEmpty(t, created["formatted_date"])

	w, body = env.do(t, http.MethodGet, "/api/posts/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), data(t, body)["views"])
	assert.NotEmpty(t, data(t, body)["content"])

	w, body = env.do(t, http.MethodPost, "/api/posts/"+id+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["likes"])
	assert.Equal(t, true, body["success"])

	w, body = env.do(t, http.MethodPut, "/api/posts/"+id, token, map[string]interface{}{"featured": false, "title": "Campus drive (updated)"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, data(t, body)["featured"])
	assert.Equal(t, "Campus drive (updated)", data(t, body)["title"])
	assert.Equal(t, "placement", data(t, body)["category"])

	w, body = env.do(t, http.MethodGet, "/api/posts/featured/list", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["data"])

	w, _ = env.do(t, http.MethodDelete, "/api/posts/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/posts/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", models.RoleUser, true)

	w, body := env.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title":    "",
		"content":  "short",
		"category": "blog",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "content")
	assert.Contains(t, errs, "category")
}

func TestMutationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/posts", "", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/posts", "not-a-jwt", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	inactive := env.login(t, "ghost", models.RoleUser, false)
	w, body := env.do(t, http.MethodPost, "/api/posts", inactive, map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "user not found or inactive", body["message"])
}

func TestExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	u := &models.User{Name: "late", Email: "late@example.com", Active: true}
	require.NoError(t, env.users.CreateUser(context.Background(), u))
	token, err := utils.GenerateToken(testSecret, u.ID, u.Name, -time.Minute)
	require.NoError(t, err)

	w, body := env.do(t, http.MethodPost, "/api/posts/some-id/like", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token has expired, please log in again", body["message"])
}

func TestForeignPostIsForbiddenUnlessModerator(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "asha", models.RoleUser, true)
	other := env.login(t, "ravi", models.RoleUser, true)
	mod := env.login(t, "mod", models.RoleModerator, true)

	w, body := env.do(t, http.MethodPost, "/api/posts", owner, map[string]interface{}{
		"title":   "Mine",
		"content": "<p>Only I may edit this post.</p>",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := data(t, body)["id"].(string)

	w, _ = env.do(t, http.MethodPut, "/api/posts/"+id, other, map[string]interface{}{"title": "Theirs"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/posts/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/posts/"+id, mod, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", models.RoleUser, true)

	create := func(title, category string, tags ...string) {
		w, _ := env.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
			"title":    title,
			"content":  "<p>" + title + " details for students.</p>",
			"category": category,
			"tags":     tags,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	for i := 0; i < 12; i++ {
		create(fmt.Sprintf("Job %d", i), "job", "hiring")
	}
	create("Python training", "training", "python")
	create("Go internship", "internship", "go", "hiring")

	w, body := env.do(t, http.MethodGet, "/api/posts?page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := data(t, body)
	pagination := page["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["current"])
	assert.Equal(t, float64(3), pagination["pages"])
	assert.Equal(t, float64(14), pagination["total"])
	assert.Equal(t, true, pagination["has_next"])
	assert.Equal(t, true, pagination["has_prev"])
	posts := page["posts"].([]interface{})
	require.Len(t, posts, 5)
	assert.NotContains(t, posts[0].(map[string]interface{}), "content")

	w, body = env.do(t, http.MethodGet, "/api/posts/category/training", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, body)["posts"], 1)

	w, body = env.do(t, http.MethodGet, "/api/posts/search/internship", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, body)["posts"], 1)

	w, body = env.do(t, http.MethodGet, "/api/posts?tags=python,go&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, body)["posts"], 2)

	w, body = env.do(t, http.MethodGet, "/api/posts?category=job&tags=go", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := data(t, body)
	assert.Empty(t, empty["posts"])
	assert.Equal(t, float64(0), empty["pagination"].(map[string]interface{})["pages"])

	w, body = env.do(t, http.MethodGet, "/api/posts?page=9", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	beyond := data(t, body)
	assert.Empty(t, beyond["posts"])
	assert.Equal(t, false, beyond["pagination"].(map[string]interface{})["has_next"])
	assert.Equal(t, true, beyond["pagination"].(map[string]interface{})["has_prev"])

	w, _ = env.do(t, http.MethodGet, "/api/posts/category/blog", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", models.RoleAdmin, true)

	w, body := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asha", data(t, body)["name"])
	assert.Equal(t, "admin", data(t, body)["role"])

	w, _ = env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token revoked", body["message"])
}
