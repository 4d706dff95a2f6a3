package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized 后端返回 401；凭证保持不变，直到用户主动登出
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrMalformedResponse 响应缺少必需字段
	ErrMalformedResponse = errors.New("api: malformed response")
)

// TokenSource 每次请求时读取当前凭证（*session.Store 的 AdminToken / FamilyToken）
type TokenSource func(ctx context.Context) (string, error)

// Clients 共享同一后端的两个 HTTP 客户端，各自附带不同的凭证
type Clients struct {
	Admin  *resty.Client
	Family *resty.Client
}

// NewClients 创建客户端对
func NewClients(baseURL string, timeout time.Duration, admin, family TokenSource, logger *zap.Logger) *Clients {
	return &Clients{
		Admin:  newClient(baseURL, timeout, admin, "admin", logger),
		Family: newClient(baseURL, timeout, family, "family", logger),
	}
}

func newClient(baseURL string, timeout time.Duration, tokens TokenSource, name string, logger *zap.Logger) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0). // 轮询本身就是重试
		SetHeader("Accept", "application/json")

	// 凭证在请求时读取，登录/登出后无需重建客户端
	client.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
		token, err := tokens(r.Context())
		if err != nil {
			return fmt.Errorf("failed to read %s credential: %w", name, err)
		}
		if token != "" {
			r.SetAuthToken(token)
		}
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("Backend request completed",
			zap.String("client", name),
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
		)
		return nil
	})

	return client
}

// getJSON 执行 GET 并解码响应体
func getJSON(ctx context.Context, client *resty.Client, path string, out any) error {
	resp, err := client.R().SetContext(ctx).Get(path)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case resp.IsError():
		return fmt.Errorf("request %s failed: status %d", path, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrMalformedResponse, err)
	}
	return nil
}
