package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lms_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUserNotFound, http.StatusNotFound},
		{ErrDuplicateAttempt, http.StatusConflict},
		{ErrAccountPending, http.StatusForbidden},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{FieldError("batch", "required"), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", ErrQuizNotFound), http.StatusNotFound},
		{ErrAIUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestAppErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := &AppError{Kind: ErrConflict, Message: "x", Err: cause}
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
}

func TestHandleErrorBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, FieldError("rollNo", "rollNo is a required field"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, "rollNo is a required field", body.Fields["rollNo"])
}

func TestHandleErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, errors.New("dial tcp 10.0.0.3:3306: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

type bindTarget struct {
	Name  string `json:"name" binding:"required,notblank"`
	Email string `json:"email" binding:"required,email"`
	Batch string `json:"batch" binding:"required"`
}

func TestTranslateBindErrorUsesJSONNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got error
	r.POST("/", func(c *gin.Context) {
		var req bindTarget
		got = TranslateBindError(c.ShouldBindJSON(&req))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  ","email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var appErr *AppError
	require.ErrorAs(t, got, &appErr)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "batch")
	assert.Equal(t, "batch is a required field", appErr.Fields["batch"])
}

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{Role: model.Professor, Email: "p@uni.edu"}
	user.ID = 7
	token, err := GenerateJWT(user, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Role: model.Professor, Email: "p@uni.edu"}, claims.Identity())

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT(user, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := CurrentIdentity(c)
	assert.False(t, ok)

	SetIdentity(c, Identity{UserID: 3, Role: model.Student})
	id, ok := CurrentIdentity(c)
	require.True(t, ok)
	assert.Equal(t, uint(3), id.UserID)

	fromCtx, ok := IdentityFrom(c.Request.Context())
	require.True(t, ok)
	assert.False(t, fromCtx.IsStaff())
}
