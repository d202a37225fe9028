package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	cases := []struct {
		name   string
		checks map[string]Check
		status int
	}{
		{"all healthy", map[string]Check{"database": ok}, http.StatusOK},
		{"one down", map[string]Check{"database": ok, "redis": down}, http.StatusServiceUnavailable},
		{"no checks", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHandler("service-frontdesk", tc.checks).RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
