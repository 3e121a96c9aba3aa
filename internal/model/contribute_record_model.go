package model

import (
	"time"

	"github.com/blues/fundhive/internal/funding"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContributeRecordModel 出资记录，写入后不可修改
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	RequestId       string          `json:"request_id" gorm:"uniqueIndex;not null"`
	ProjectId       int64           `json:"project_id" gorm:"not null;index"`
	ContributorId   string          `json:"contributor_id" gorm:"not null;index"`
	ContributorName string          `json:"contributor_name"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	Kind            funding.Kind    `json:"kind" gorm:"not null"`
	RewardTier      string          `json:"reward_tier"`
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}

// AfterFind 读出后按两位小数还原金额
func (r *ContributeRecordModel) AfterFind(tx *gorm.DB) error {
	r.Amount = r.Amount.Round(funding.AmountScale)
	return nil
}
