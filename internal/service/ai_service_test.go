package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms_backend/internal/config"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIServiceComplete(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL + "/v1/", APIKey: "k", Model: "m"})
	out, err := ai.Complete(context.Background(), []AIChatMessage{{Role: "user", Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
	assert.Equal(t, "m", got.Model)
	require.Len(t, got.Messages, 1)
}

func TestAIServiceErrors(t *testing.T) {
	ai := NewAIService(config.AIConfig{})
	_, err := ai.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, util.ErrAIUnavailable)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ai.UpdateConfig(config.AIConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err = ai.Complete(context.Background(), nil)
	assert.Equal(t, 503, util.StatusOf(err))
}
