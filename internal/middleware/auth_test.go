package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func tokenFor(t *testing.T, id uint, role model.UserRole) string {
	t.Helper()
	u := &model.User{Role: role, Email: "x@uni.edu"}
	u.ID = id
	token, err := util.GenerateJWT(u, secret, time.Hour)
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	staff := r.Group("/staff", AuthMiddleware(secret), RoleMiddleware(model.Professor))
	staff.GET("", func(c *gin.Context) {
		id, _ := util.CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID})
	})
	r.GET("/ws", AuthMiddleware(secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndRoleGate(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"student", tokenFor(t, 1, model.Student), http.StatusForbidden},
		{"professor", tokenFor(t, 2, model.Professor), http.StatusOK},
		{"admin passes every role gate", tokenFor(t, 3, model.Admin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/staff", tt.token)
			assert.Equal(t, tt.want, w.Code)
			if tt.want >= 400 {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	r := newRouter()
	w := do(r, "/ws?token="+tokenFor(t, 1, model.Student), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRoleMiddlewareWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RoleMiddleware(model.Admin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(r, "/", "").Code)
}
