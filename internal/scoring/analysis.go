package scoring

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultScore 未能从回复中解析出评分时使用的默认分数
const DefaultScore = 75

// ErrUnavailable 评分服务不可用
var ErrUnavailable = errors.New("scoring service unavailable")

var scorePattern = regexp.MustCompile(`Score: (\d+)`)

// Summary 评分所需的项目摘要
type Summary struct {
	Title          string          `json:"title"`
	FundingGoal    decimal.Decimal `json:"fundingGoal"`
	EquityOffered  decimal.Decimal `json:"equityOffered"`
	CurrentFunding decimal.Decimal `json:"currentFunding"`
	CreditScore    int             `json:"creditScore"`
}

// Analysis 评分结果
type Analysis struct {
	Score    int      `json:"score"`
	Report   []string `json:"report"`
	Fallback bool     `json:"fallback"`
	Reason   string   `json:"reason,omitempty"`
}

// Scorer 外部评分服务
type Scorer interface {
	Score(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt 构造评分提示词
func BuildPrompt(s Summary) string {
	return fmt.Sprintf("Generate a business analysis score (out of 100) and a pointwise business analysis report for the following idea:\n\n"+
		"Title: %s\nFunding Goal: $%s\nEquity Offered: %s%%\nCurrent Funding: $%s\nCIBIL Score: %d",
		s.Title, s.FundingGoal, s.EquityOffered, s.CurrentFunding, s.CreditScore)
}

// ParseAnalysis 解析评分服务返回的自由文本
//
// 回复没有固定格式，找不到评分时使用 DefaultScore，这不是错误。
func ParseAnalysis(text string) Analysis {
	score := DefaultScore
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			score = clampScore(n)
		}
	}

	var report []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") {
			report = append(report, strings.TrimSpace(line[1:]))
		}
	}
	if len(report) == 0 {
		report = []string{"No detailed analysis provided by AI."}
	}

	return Analysis{Score: score, Report: report}
}

// FallbackAnalysis 评分服务失败时返回的替代结果，Fallback 恒为 true
func FallbackAnalysis(reason string) Analysis {
	return Analysis{
		Score: DefaultScore,
		Report: []string{
			"Strong funding progress indicates market interest.",
			"CIBIL score suggests good financial reliability.",
			"Equity offered is competitive but may dilute control.",
			"Consider diversifying funding sources for stability.",
		},
		Fallback: true,
		Reason:   reason,
	}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// Analyzer 调用评分服务，失败时返回替代结果而不是错误
type Analyzer struct {
	scorer Scorer
}

// NewAnalyzer 创建分析器，scorer 为 nil 时总是返回替代结果
func NewAnalyzer(scorer Scorer) *Analyzer {
	return &Analyzer{scorer: scorer}
}

// Analyze 分析项目
func (a *Analyzer) Analyze(ctx context.Context, s Summary) Analysis {
	if a.scorer == nil {
		return FallbackAnalysis(ErrUnavailable.Error())
	}
	text, err := a.scorer.Score(ctx, BuildPrompt(s))
	if err != nil {
		return FallbackAnalysis("Failed to fetch AI analysis: " + err.Error())
	}
	return ParseAnalysis(text)
}
