package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blues/fundhive/internal/funding"
	"github.com/shopspring/decimal"
)

// APIClient 通过 HTTP 接口访问权威存储，实现 funding.Authority
type APIClient struct {
	BaseURL string
	Client  *http.Client
}

// New 创建 API 客户端
func New(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var _ funding.Authority = (*APIClient)(nil)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type contributeBody struct {
	ContributorId string          `json:"contributorId"`
	Amount        decimal.Decimal `json:"amount"`
	RewardTier    string          `json:"rewardTier,omitempty"`
}

// Submit 提交出资
func (a *APIClient) Submit(ctx context.Context, entry funding.Entry, who funding.Contributor) (funding.State, error) {
	if who.ID == "" {
		return funding.State{}, funding.NewValidationError(entry.ProjectID, "User ID required")
	}

	body, err := json.Marshal(contributeBody{
		ContributorId: entry.Contributor,
		Amount:        entry.Amount,
		RewardTier:    entry.RewardTier,
	})
	if err != nil {
		return funding.State{}, funding.NewValidationError(entry.ProjectID, err.Error())
	}

	path := fmt.Sprintf("/api/posts/%s/%s", url.PathEscape(entry.ProjectID), entry.Kind.Route())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return funding.State{}, funding.NewTransientError(entry.ProjectID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-user-id", who.ID)
	if who.Name != "" {
		req.Header.Set("x-user-name", who.Name)
	}
	if who.Avatar != "" {
		req.Header.Set("x-user-picture", who.Avatar)
	}
	if entry.RequestID != "" {
		req.Header.Set("X-Request-ID", entry.RequestID)
	}

	var result struct {
		Project funding.State `json:"project"`
	}
	if err := a.do(req, entry.ProjectID, &result); err != nil {
		return funding.State{}, err
	}
	return result.Project, nil
}

// Fetch 读取单个项目的筹资状态
func (a *APIClient) Fetch(ctx context.Context, projectID string) (funding.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/api/projects/"+url.PathEscape(projectID), nil)
	if err != nil {
		return funding.State{}, funding.NewTransientError(projectID, err)
	}

	var result struct {
		Project funding.State `json:"project"`
	}
	if err := a.do(req, projectID, &result); err != nil {
		return funding.State{}, err
	}
	return result.Project, nil
}

// LoadAll 读取所有项目的筹资状态，用于初始化本地预测存储
func (a *APIClient) LoadAll(ctx context.Context) ([]funding.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/api/projects", nil)
	if err != nil {
		return nil, funding.NewTransientError("", err)
	}

	var result struct {
		Posts []funding.State `json:"posts"`
	}
	if err := a.do(req, "", &result); err != nil {
		return nil, err
	}
	return result.Posts, nil
}

// do 发送请求并按状态码归类错误
func (a *APIClient) do(req *http.Request, projectID string, out interface{}) error {
	resp, err := a.Client.Do(req)
	if err != nil {
		return funding.NewTransientError(projectID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return funding.NewTransientError(projectID, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return funding.NewTransientError(projectID, fmt.Errorf("status %d: invalid response: %w", resp.StatusCode, err))
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return funding.NewValidationError(projectID, env.Message)
	case resp.StatusCode == http.StatusNotFound:
		return funding.NewNotFoundError(projectID)
	case resp.StatusCode >= 300 || !env.Success:
		return funding.NewTransientError(projectID, errors.New(env.Message))
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return funding.NewTransientError(projectID, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
