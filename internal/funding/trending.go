package funding

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Trending 展示用的派生指标，每次读取时重新计算
type Trending struct {
	ProjectID         string  `json:"id"`
	FundingPercentage float64 `json:"fundingPercentage"`
	HoursLeft         int64   `json:"hoursLeft"`
}

// Projector 根据筹资状态和当前时间计算趋势指标
type Projector struct {
	now func() time.Time
}

// NewProjector 创建使用系统时钟的计算器
func NewProjector() *Projector {
	return &Projector{now: time.Now}
}

// NewProjectorWithClock 创建使用指定时钟的计算器
func NewProjectorWithClock(now func() time.Time) *Projector {
	return &Projector{now: now}
}

// Project 计算趋势指标
func (p *Projector) Project(s State) Trending {
	return Trending{
		ProjectID:         s.ID,
		FundingPercentage: FundingPercentage(s.CurrentFunding, s.FundingGoal),
		HoursLeft:         HoursLeft(s, p.now()),
	}
}

// FundingPercentage 筹资完成百分比，超额筹资时截断为 100
func FundingPercentage(current, goal decimal.Decimal) float64 {
	if !goal.IsPositive() || !current.IsPositive() {
		return 0
	}
	pct := current.Div(goal).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Round(2).InexactFloat64()
}

// HoursLeft 距截止时间的剩余整小时数，截止后恒为 0
func HoursLeft(s State, now time.Time) int64 {
	remaining := s.Deadline().Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Hour)
}
