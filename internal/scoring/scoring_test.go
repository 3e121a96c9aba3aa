package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/blues/fundhive/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summary = Summary{
	Title:          "SolarTech Solutions",
	FundingGoal:    decimal.NewFromInt(10000),
	EquityOffered:  decimal.NewFromInt(15),
	CurrentFunding: decimal.NewFromInt(5000),
	CreditScore:    780,
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(summary)
	assert.Contains(t, prompt, "Title: SolarTech Solutions\n")
	assert.Contains(t, prompt, "Funding Goal: $10000\n")
	assert.Contains(t, prompt, "Equity Offered: 15%\n")
	assert.Contains(t, prompt, "Current Funding: $5000\n")
	assert.Contains(t, prompt, "CIBIL Score: 780")
}

func TestParseAnalysis(t *testing.T) {
	text := "Score: 82\n\nReport:\n- Solid traction\n  -   Experienced team  \nnot a bullet\n-Low burn"
	a := ParseAnalysis(text)
	assert.Equal(t, 82, a.Score)
	assert.Equal(t, []string{"Solid traction", "Experienced team", "Low burn"}, a.Report)
	assert.False(t, a.Fallback)
}

func TestParseAnalysisDefaults(t *testing.T) {
	a := ParseAnalysis("The idea looks promising overall.")
	assert.Equal(t, DefaultScore, a.Score)
	assert.Equal(t, []string{"No detailed analysis provided by AI."}, a.Report)
	assert.False(t, a.Fallback, "a missing score token is not a failure")

	assert.Equal(t, 100, ParseAnalysis("Score: 250").Score)
	assert.Equal(t, DefaultScore, ParseAnalysis("score: 10").Score)
}

type stubScorer struct {
	text   string
	err    error
	prompt string
}

func (s *stubScorer) Score(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestAnalyzer(t *testing.T) {
	ok := &stubScorer{text: "Score: 64\n- Niche market"}
	a := NewAnalyzer(ok).Analyze(context.Background(), summary)
	assert.Equal(t, 64, a.Score)
	assert.Equal(t, []string{"Niche market"}, a.Report)
	assert.Equal(t, BuildPrompt(summary), ok.prompt)

	failing := &stubScorer{err: errors.New("timeout")}
	a = NewAnalyzer(failing).Analyze(context.Background(), summary)
	assert.True(t, a.Fallback)
	assert.Equal(t, DefaultScore, a.Score)
	assert.Len(t, a.Report, 4)
	assert.Contains(t, a.Reason, "timeout")

	a = NewAnalyzer(nil).Analyze(context.Background(), summary)
	assert.True(t, a.Fallback)
}

func TestGroqScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mixtral-8x7b-32768", req.Model)
		assert.Equal(t, 500, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Score: 91\n- Great"}}]}`))
	}))
	defer srv.Close()

	g := NewGroqScorer(config.ScoringConfig{
		Endpoint:  srv.URL,
		APIKey:    "secret",
		Model:     "mixtral-8x7b-32768",
		MaxTokens: 500,
	})
	text, err := g.Score(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Score: 91\n- Great", text)

	a := NewAnalyzer(g).Analyze(context.Background(), summary)
	assert.Equal(t, 91, a.Score)
}

func TestGroqScorerFailures(t *testing.T) {
	responses := []struct {
		status int
		body   string
	}{
		{http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{http.StatusOK, `{"choices":[]}`},
		{http.StatusOK, `not json`},
		{http.StatusOK, `{"error":{"message":"rate limited"}}`},
	}
	var mu sync.Mutex
	next := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[next]
		next++
		mu.Unlock()
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	defer srv.Close()

	g := NewGroqScorer(config.ScoringConfig{Endpoint: srv.URL})
	for range responses {
		_, err := g.Score(context.Background(), "x")
		assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
	}

	srv.Close()
	_, err := g.Score(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrUnavailable))
}
