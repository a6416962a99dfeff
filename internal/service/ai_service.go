package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/util"
)

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatCompleter 聊天补全接口，测试中可替换
type ChatCompleter interface {
	Complete(ctx context.Context, messages []AIChatMessage) (string, error)
}

// AIService 调用 OpenAI 兼容的 /chat/completions 接口
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{config: cfg, client: &http.Client{Timeout: 60 * time.Second}}
}

// UpdateConfig 配置热更新时调用
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

func (s *AIService) current() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *AIService) Complete(ctx context.Context, messages []AIChatMessage) (string, error) {
	cfg := s.current()
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return "", util.ErrAIUnavailable
	}

	jsonData, err := json.Marshal(ChatCompletionRequest{Model: cfg.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &util.AppError{Kind: util.ErrUnavailable, Message: "ai service request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &util.AppError{
			Kind:    util.ErrUnavailable,
			Message: "ai service returned an error",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", &util.AppError{Kind: util.ErrUnavailable, Message: "ai service returned an error", Err: fmt.Errorf("%s", result.Error.Message)}
	}
	if len(result.Choices) == 0 {
		return "", &util.AppError{Kind: util.ErrUnavailable, Message: "ai returned no choices"}
	}
	return result.Choices[0].Message.Content, nil
}
