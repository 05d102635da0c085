package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	SiteURL string
	AppName string
	Client  *http.Client
}

func NewOpenRouterProvider(baseURL, apiKey, siteURL, appName string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

type openRouterMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatReq struct {
	Model     string          `json:"model"`
	Messages  []openRouterMsg `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Stream    bool            `json:"stream"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message openRouterMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenRouterProvider) Chat(ctx context.Context, req Request) (string, error) {
	if p.Client == nil {
		return "", p.wrap(req.Model, ClassOther, errors.New("http client is nil"))
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", p.wrap(req.Model, ClassOther, errors.New("api key is required"))
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", p.wrap(req.Model, ClassOther, errors.New("model is required"))
	}

	msgs := make([]openRouterMsg, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openRouterMsg{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openRouterMsg{Role: m.Role, Content: m.Content})
	}

	b, err := json.Marshal(openRouterChatReq{
		Model:     req.Model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
		Stream:    false,
	})
	if err != nil {
		return "", p.wrap(req.Model, ClassOther, err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", p.wrap(req.Model, ClassOther, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.SiteURL != "" {
		httpReq.Header.Set("HTTP-Referer", p.SiteURL)
	}
	if p.AppName != "" {
		httpReq.Header.Set("X-Title", p.AppName)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", p.wrap(req.Model, ClassTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", p.wrap(req.Model, classifyStatus(resp.StatusCode), errors.New(msg))
	}

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", p.wrap(req.Model, ClassOther, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", p.wrap(req.Model, classifyText(decoded.Error.Message), errors.New(decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 {
		return "", p.wrap(req.Model, ClassOther, errors.New("empty response"))
	}
	return decoded.Choices[0].Message.Content, nil
}

func (p *OpenRouterProvider) wrap(model string, class ErrorClass, err error) error {
	return &Error{Class: class, Provider: p.Name(), Model: model, Err: err}
}
