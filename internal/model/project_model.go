package model

import (
	"strconv"
	"time"

	"github.com/blues/fundhive/internal/funding"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectModel 项目模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	OwnerId     string `json:"owner_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"index"`
	MediaURL    string `json:"media_url"`

	// 筹资信息，创建后除 CurrentAmount 外不可修改
	FundingGoal   decimal.Decimal `json:"funding_goal" gorm:"type:numeric(20,2);not null"`
	EquityOffered decimal.Decimal `json:"equity_offered" gorm:"type:numeric(5,2);not null"`
	CurrentAmount decimal.Decimal `json:"current_amount" gorm:"type:numeric(20,2);not null;default:0"`
	Version       int64           `json:"version" gorm:"not null;default:0"`

	// 时间信息
	StartDate    time.Time `json:"start_date" gorm:"not null"`
	DurationDays int       `json:"duration_days" gorm:"not null"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"default:'open';index"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "open"   // 筹资中
	ProjectStatusClosed ProjectStatus = "closed" // 已截止
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}

// AfterFind sqlite 以浮点数保存 numeric 列，读出后按两位小数还原
func (p *ProjectModel) AfterFind(tx *gorm.DB) error {
	p.FundingGoal = p.FundingGoal.Round(funding.AmountScale)
	p.EquityOffered = p.EquityOffered.Round(funding.AmountScale)
	p.CurrentAmount = p.CurrentAmount.Round(funding.AmountScale)
	return nil
}

// Deadline 筹资截止时间
func (p *ProjectModel) Deadline() time.Time {
	return p.StartDate.Add(time.Duration(p.DurationDays) * 24 * time.Hour)
}

// FundingState 转换为权威筹资状态
func (p *ProjectModel) FundingState() funding.State {
	return funding.State{
		ID:             FormatProjectId(p.Id),
		FundingGoal:    p.FundingGoal,
		EquityOffered:  p.EquityOffered,
		CurrentFunding: p.CurrentAmount,
		StartDate:      p.StartDate,
		DurationDays:   p.DurationDays,
		Version:        p.Version,
	}
}

// FormatProjectId 项目ID对外以字符串形式暴露
func FormatProjectId(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseProjectId 解析对外的项目ID
func ParseProjectId(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
