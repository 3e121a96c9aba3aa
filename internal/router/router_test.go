package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blues/fundhive/internal/config"
	"github.com/blues/fundhive/internal/repository"
	"github.com/blues/fundhive/internal/scoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubScorer struct {
	text string
	err  error
}

func (s stubScorer) Score(context.Context, string) (string, error) {
	return s.text, s.err
}

func newTestServer(t *testing.T, scorer scoring.Scorer) *httptest.Server {
	t.Helper()
	db, err := repository.Init(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	cfg := &config.Config{Trending: config.TrendingConfig{Limit: 5}}
	srv := httptest.NewServer(Setup(db, scoring.NewAnalyzer(scorer), cfg))
	t.Cleanup(func() {
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return srv
}

func call(t *testing.T, method, url, body, user string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("x-user-id", user)
		req.Header.Set("x-user-name", "Tester")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func createProject(t *testing.T, srv *httptest.Server, goal string) string {
	t.Helper()
	status, env := call(t, http.MethodPost, srv.URL+"/api/projects",
		`{"title":"SolarTech","description":"Rooftop solar","category":"energy","fundingGoal":`+goal+`,"equityOffered":10,"duration":30}`,
		"owner")
	require.Equal(t, http.StatusCreated, status, env.Message)

	var data struct {
		Project struct {
			ID string `json:"id"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Project.ID)
	return data.Project.ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateProjectRequiresIdentity(t *testing.T) {
	srv := newTestServer(t, nil)

	status, env := call(t, http.MethodPost, srv.URL+"/api/projects", `{"title":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User ID required", env.Message)

	status, _ = call(t, http.MethodPost, srv.URL+"/api/projects", `{"title":"x"}`, "owner")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, http.MethodPost, srv.URL+"/api/projects",
		`{"title":"x","description":"y","category":"z","fundingGoal":100,"equityOffered":150,"duration":3}`, "owner")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestContributeFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createProject(t, srv, "10000")

	status, env := call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/invest", `{"contributorId":"alice","amount":5000}`, "alice")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/crowdfund", `{"amount":"2000","rewardTier":"VIP Supporter"}`, "bob")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Crowdfunding successful", env.Message)

	var result struct {
		Project struct {
			ID             string `json:"id"`
			CurrentFunding string `json:"currentFunding"`
			Version        int64  `json:"version"`
		} `json:"project"`
		Trending struct {
			FundingPercentage float64 `json:"fundingPercentage"`
			HoursLeft         int64   `json:"hoursLeft"`
		} `json:"trending"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, id, result.Project.ID)
	assert.Equal(t, "7000", result.Project.CurrentFunding)
	assert.Equal(t, int64(2), result.Project.Version)
	assert.Equal(t, 70.0, result.Trending.FundingPercentage)
	assert.InDelta(t, 30*24, result.Trending.HoursLeft, 1)

	status, env = call(t, http.MethodGet, srv.URL+"/api/projects/"+id+"/contributions?page=1&page_size=1", "", "")
	require.Equal(t, http.StatusOK, status)
	var records struct {
		Records []struct {
			ContributorId string `json:"contributorId"`
			Kind          string `json:"kind"`
			RewardTier    string `json:"rewardTier"`
		} `json:"records"`
		Pagination struct {
			Total     int64 `json:"total"`
			TotalPage int64 `json:"totalPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Equal(t, int64(2), records.Pagination.Total)
	assert.Equal(t, int64(2), records.Pagination.TotalPage)
	require.Len(t, records.Records, 1)

	status, env = call(t, http.MethodGet, srv.URL+"/api/projects/"+id+"/stats", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"contributorCount":2`)

	status, env = call(t, http.MethodGet, srv.URL+"/api/projects", "", "")
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Posts []struct {
			ID                string  `json:"id"`
			FundingPercentage float64 `json:"fundingPercentage"`
		} `json:"posts"`
		Trending []struct {
			ID                string  `json:"id"`
			FundingPercentage float64 `json:"fundingPercentage"`
		} `json:"trending"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Posts, 1)
	require.Len(t, list.Trending, 1)
	assert.Equal(t, id, list.Trending[0].ID)
	assert.Equal(t, 70.0, list.Trending[0].FundingPercentage)
}

func TestContributeErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createProject(t, srv, "10000")

	status, _ := call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/invest", `{"amount":10}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/invest", `{"amount":0}`, "alice")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/invest", `{"amount":10,"rewardTier":"VIP Supporter"}`, "alice")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, http.MethodPost, srv.URL+"/api/posts/999/invest", `{"amount":10}`, "alice")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, http.MethodGet, srv.URL+"/api/projects/999", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	// 无法解析的项目ID与不存在的项目一样返回 404
	for _, path := range []string{"/api/projects/abc", "/api/projects/abc/stats", "/api/projects/abc/contributions"} {
		status, _ = call(t, http.MethodGet, srv.URL+path, "", "")
		assert.Equal(t, http.StatusNotFound, status, path)
	}
	status, _ = call(t, http.MethodPost, srv.URL+"/api/posts/abc/invest", `{"amount":10}`, "alice")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, http.MethodPost, srv.URL+"/api/ai-analysis", `{"projectId":"abc"}`, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/invest", `{"amount":"0.001"}`, "alice")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAnalysis(t *testing.T) {
	srv := newTestServer(t, stubScorer{text: "Score: 88\n- Clear market"})
	id := createProject(t, srv, "10000")

	status, env := call(t, http.MethodPost, srv.URL+"/api/ai-analysis", `{"projectId":"`+id+`","creditScore":750}`, "")
	require.Equal(t, http.StatusOK, status)
	var a struct {
		Score    int      `json:"score"`
		Report   []string `json:"report"`
		Fallback bool     `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 88, a.Score)
	assert.Equal(t, []string{"Clear market"}, a.Report)
	assert.False(t, a.Fallback)
}

func TestAnalysisFallback(t *testing.T) {
	srv := newTestServer(t, stubScorer{err: errors.New("groq down")})
	id := createProject(t, srv, "10000")

	status, env := call(t, http.MethodPost, srv.URL+"/api/ai-analysis", `{"projectId":"`+id+`","creditScore":750}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"fallback":true`)
	assert.Contains(t, string(env.Data), `"score":75`)

	// 评分失败不影响筹资状态
	status, env = call(t, http.MethodGet, srv.URL+"/api/projects/"+id, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"currentFunding":"0"`)
}

func TestRewards(t *testing.T) {
	srv := newTestServer(t, nil)
	status, env := call(t, http.MethodGet, srv.URL+"/api/rewards", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Premium Backer")
}

func TestDeleteProject(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createProject(t, srv, "10000")

	status, _ := call(t, http.MethodDelete, srv.URL+"/api/posts/"+id, "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, http.MethodDelete, srv.URL+"/api/posts/"+id, "", "mallory")
	assert.Equal(t, http.StatusForbidden, status)

	status, env := call(t, http.MethodDelete, srv.URL+"/api/posts/"+id, "", "owner")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = call(t, http.MethodGet, srv.URL+"/api/projects/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, http.MethodPost, srv.URL+"/api/posts/"+id+"/invest", `{"amount":10}`, "alice")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, http.MethodDelete, srv.URL+"/api/posts/"+id, "", "owner")
	assert.Equal(t, http.StatusNotFound, status)
}
