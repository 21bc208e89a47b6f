package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnpportal/portal/services"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, services.DefaultPageSize},
		{"3", "25", 3, 25},
		{"0", "-4", 1, services.DefaultPageSize},
		{"abc", "1000", 1, services.MaxPageSize},
	}
	for _, tc := range cases {
		page, limit := parsePagination(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page, tc.page)
		assert.Equal(t, tc.wantLimit, limit, tc.limit)
	}
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags(""))
	assert.Nil(t, splitTags("  "))
	assert.Equal(t, []string{"go", " rust"}, splitTags("go, rust"))
}

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
	}{
		{&services.ValidationError{Fields: map[string]string{"title": "is required"}}, http.StatusBadRequest},
		{&services.AuthError{Reason: "invalid token"}, http.StatusUnauthorized},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", services.ErrNotFound), http.StatusNotFound},
		{&services.StoreError{Op: "list posts", Err: errors.New("connection reset")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/posts", nil)

		respondError(ctx, tc.err, "server error while fetching posts")

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.NotContains(t, w.Body.String(), "connection reset")
	}
}
