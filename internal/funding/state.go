package funding

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind 出资类型
type Kind string

const (
	KindInvestment Kind = "investment" // 股权投资
	KindCrowdfund  Kind = "crowdfund"  // 众筹支持
)

// Valid 是否为已知的出资类型
func (k Kind) Valid() bool {
	return k == KindInvestment || k == KindCrowdfund
}

// Route 对应的接口路径片段
func (k Kind) Route() string {
	if k == KindInvestment {
		return "invest"
	}
	return "crowdfund"
}

// KindFromRoute 根据接口路径片段解析出资类型
func KindFromRoute(route string) (Kind, bool) {
	switch route {
	case "invest":
		return KindInvestment, true
	case "crowdfund":
		return KindCrowdfund, true
	}
	return "", false
}

// AmountScale 金额保留的小数位数，与存储列 numeric(20,2) 一致
const AmountScale = 2

// FitsScale 金额是否没有超出 AmountScale 的小数位
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountScale))
}

// State 项目的权威筹资状态
type State struct {
	ID             string          `json:"id"`
	FundingGoal    decimal.Decimal `json:"fundingGoal"`
	EquityOffered  decimal.Decimal `json:"equityOffered"`
	CurrentFunding decimal.Decimal `json:"currentFunding"`
	StartDate      time.Time       `json:"startDate"`
	DurationDays   int             `json:"durationDays"`

	// Version 每次权威存储成功入账后递增，用于丢弃过期的确认结果
	Version int64 `json:"version"`
}

// Deadline 筹资截止时间
func (s State) Deadline() time.Time {
	return s.StartDate.Add(time.Duration(s.DurationDays) * 24 * time.Hour)
}

// Contributor 出资人身份，由请求元数据带入
type Contributor struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Entry 一次出资请求，提交后不可修改
type Entry struct {
	RequestID   string          `json:"requestId"`
	ProjectID   string          `json:"projectId"`
	Contributor string          `json:"contributorId"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"kind"`
	RewardTier  string          `json:"rewardTier,omitempty"`
}

// RewardTier 众筹回报档位，仅供展示，不参与金额计算
type RewardTier struct {
	Amount      decimal.Decimal `json:"amount"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
}

// RewardTiers 众筹回报档位目录
var RewardTiers = []RewardTier{
	{Amount: decimal.NewFromInt(50), Title: "Early Supporter", Description: "Get exclusive updates and behind-the-scenes content"},
	{Amount: decimal.NewFromInt(200), Title: "Premium Backer", Description: "Early access to the product + exclusive updates"},
	{Amount: decimal.NewFromInt(500), Title: "VIP Supporter", Description: "All previous rewards + personalized thank you video"},
}

// LookupRewardTier 按标题查找回报档位
func LookupRewardTier(title string) (RewardTier, bool) {
	for _, tier := range RewardTiers {
		if tier.Title == title {
			return tier, true
		}
	}
	return RewardTier{}, false
}

// Validate 在任何状态变更之前校验出资请求
func (e Entry) Validate() error {
	if e.ProjectID == "" {
		return validationError(e.ProjectID, "项目ID不能为空")
	}
	if e.Contributor == "" {
		return validationError(e.ProjectID, "出资人身份缺失")
	}
	if !e.Amount.IsPositive() {
		return validationError(e.ProjectID, "出资金额必须大于0")
	}
	if !FitsScale(e.Amount) {
		return validationError(e.ProjectID, "出资金额最多保留两位小数")
	}
	if !e.Kind.Valid() {
		return validationError(e.ProjectID, "未知的出资类型: "+string(e.Kind))
	}
	if e.RewardTier != "" {
		if e.Kind != KindCrowdfund {
			return validationError(e.ProjectID, "只有众筹支持可以选择回报档位")
		}
		if _, ok := LookupRewardTier(e.RewardTier); !ok {
			return validationError(e.ProjectID, "未知的回报档位: "+e.RewardTier)
		}
	}
	return nil
}
