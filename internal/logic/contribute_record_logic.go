package logic

import (
	"fmt"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContributeRecordLogic 出资记录业务逻辑
type ContributeRecordLogic struct {
	db *gorm.DB
}

// NewContributeRecordLogic 创建出资记录业务逻辑
func NewContributeRecordLogic(db *gorm.DB) *ContributeRecordLogic {
	return &ContributeRecordLogic{db: db}
}

// GetProjectContributeRecords 获取项目出资记录
func (c *ContributeRecordLogic) GetProjectContributeRecords(projectId int64, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var contributions []model.ContributeRecordModel
	var total int64

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	// 获取总数
	if err := c.db.Model(&model.ContributeRecordModel{}).Where("project_id = ?", projectId).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := c.db.Where("project_id = ?", projectId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Order("id DESC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}

	return contributions, total, nil
}

// KindStats 单一出资类型的统计
type KindStats struct {
	Count        int64           `json:"count"`
	Amount       decimal.Decimal `json:"amount"`
	Contributors int64           `json:"contributors"`
}

// ContributeStats 出资统计信息
type ContributeStats struct {
	TotalContributions int64                      `json:"totalContributions"`
	TotalAmount        decimal.Decimal            `json:"totalAmount"`
	UniqueContributors int64                      `json:"uniqueContributors"`
	AverageAmount      decimal.Decimal            `json:"averageAmount"`
	ByKind             map[funding.Kind]KindStats `json:"byKind"`
}

// GetContributeStats 获取出资统计信息
func (c *ContributeRecordLogic) GetContributeStats(projectId int64) (*ContributeStats, error) {
	var rows []struct {
		Kind         funding.Kind
		Count        int64
		Total        decimal.Decimal
		Contributors int64
	}
	if err := c.db.Model(&model.ContributeRecordModel{}).
		Select("kind, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total, COUNT(DISTINCT contributor_id) AS contributors").
		Where("project_id = ?", projectId).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取出资统计失败: %w", err)
	}

	var unique int64
	if err := c.db.Model(&model.ContributeRecordModel{}).
		Where("project_id = ?", projectId).
		Distinct("contributor_id").
		Count(&unique).Error; err != nil {
		return nil, fmt.Errorf("获取唯一出资人数量失败: %w", err)
	}

	stats := &ContributeStats{
		TotalAmount:        decimal.Zero,
		AverageAmount:      decimal.Zero,
		UniqueContributors: unique,
		ByKind:             make(map[funding.Kind]KindStats),
	}
	for _, row := range rows {
		row.Total = row.Total.Round(funding.AmountScale)
		stats.TotalContributions += row.Count
		stats.TotalAmount = stats.TotalAmount.Add(row.Total)
		stats.ByKind[row.Kind] = KindStats{Count: row.Count, Amount: row.Total, Contributors: row.Contributors}
	}

	// 平均出资金额
	if stats.TotalContributions > 0 {
		stats.AverageAmount = stats.TotalAmount.Div(decimal.NewFromInt(stats.TotalContributions)).Round(2)
	}

	return stats, nil
}
