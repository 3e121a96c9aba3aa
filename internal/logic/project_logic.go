package logic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxEquity = decimal.NewFromInt(100)

// ErrNotOwner 只有项目创建者可以删除项目
var ErrNotOwner = errors.New("only the project owner can delete it")

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db, now: time.Now}
}

// CreateProject 创建项目
func (p *ProjectLogic) CreateProject(project *model.ProjectModel) error {
	// 验证项目数据
	if err := p.validateProject(project); err != nil {
		return err
	}

	// 设置默认值
	project.Status = model.ProjectStatusOpen
	project.CurrentAmount = decimal.Zero
	project.Version = 0
	project.StartDate = p.now()

	if err := p.db.Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	return nil
}

// GetProjects 获取项目列表，最新的在前
func (p *ProjectLogic) GetProjects(category string) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel

	query := p.db.Order("created_at DESC").Order("id DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, funding.NewNotFoundError(model.FormatProjectId(id))
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// DeleteProject 删除项目及其出资记录
//
// 删除后该项目的出资请求返回项目不存在，客户端据此清除本地状态。
func (p *ProjectLogic) DeleteProject(id int64, ownerId string) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var project model.ProjectModel
		if err := tx.Select("id", "owner_id").First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return funding.NewNotFoundError(model.FormatProjectId(id))
			}
			return fmt.Errorf("获取项目失败: %w", err)
		}
		if project.OwnerId != ownerId {
			return ErrNotOwner
		}

		if err := tx.Where("project_id = ?", id).Delete(&model.ContributeRecordModel{}).Error; err != nil {
			return fmt.Errorf("删除出资记录失败: %w", err)
		}
		if err := tx.Delete(&model.ProjectModel{}, id).Error; err != nil {
			return fmt.Errorf("删除项目失败: %w", err)
		}
		return nil
	})
}

// GetTrending 获取筹资中的热门项目，按完成百分比降序
func (p *ProjectLogic) GetTrending(limit int) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := p.db.Where("status = ?", model.ProjectStatusOpen).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取热门项目失败: %w", err)
	}

	now := p.now()
	open := projects[:0]
	for _, project := range projects {
		if now.Before(project.Deadline()) {
			open = append(open, project)
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		pi := funding.FundingPercentage(open[i].CurrentAmount, open[i].FundingGoal)
		pj := funding.FundingPercentage(open[j].CurrentAmount, open[j].FundingGoal)
		if pi != pj {
			return pi > pj
		}
		return open[i].Id > open[j].Id
	})

	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

// ProjectStats 项目统计信息
type ProjectStats struct {
	ProjectId         string          `json:"projectId"`
	CurrentFunding    decimal.Decimal `json:"currentFunding"`
	FundingGoal       decimal.Decimal `json:"fundingGoal"`
	FundingPercentage float64         `json:"fundingPercentage"`
	HoursLeft         int64           `json:"hoursLeft"`
	ContributorCount  int64           `json:"contributorCount"`
	ContributionCount int64           `json:"contributionCount"`
	Status            string          `json:"status"`
}

// GetProjectStats 获取项目统计信息
func (p *ProjectLogic) GetProjectStats(id int64) (*ProjectStats, error) {
	project, err := p.GetProject(id)
	if err != nil {
		return nil, err
	}

	var counts struct {
		ContributorCount  int64
		ContributionCount int64
	}
	if err := p.db.Model(&model.ContributeRecordModel{}).
		Select("COUNT(DISTINCT contributor_id) AS contributor_count, COUNT(*) AS contribution_count").
		Where("project_id = ?", id).
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("获取项目统计信息失败: %w", err)
	}

	trending := funding.NewProjectorWithClock(p.now).Project(project.FundingState())
	return &ProjectStats{
		ProjectId:         trending.ProjectID,
		CurrentFunding:    project.CurrentAmount,
		FundingGoal:       project.FundingGoal,
		FundingPercentage: trending.FundingPercentage,
		HoursLeft:         trending.HoursLeft,
		ContributorCount:  counts.ContributorCount,
		ContributionCount: counts.ContributionCount,
		Status:            string(project.Status),
	}, nil
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.ProjectModel) error {
	if project.OwnerId == "" {
		return funding.NewValidationError("", "创建者身份缺失")
	}
	if strings.TrimSpace(project.Title) == "" {
		return funding.NewValidationError("", "项目标题不能为空")
	}
	if strings.TrimSpace(project.Description) == "" {
		return funding.NewValidationError("", "项目描述不能为空")
	}
	if strings.TrimSpace(project.Category) == "" {
		return funding.NewValidationError("", "项目分类不能为空")
	}
	if !project.FundingGoal.IsPositive() {
		return funding.NewValidationError("", "目标金额必须大于0")
	}
	if !funding.FitsScale(project.FundingGoal) || !funding.FitsScale(project.EquityOffered) {
		return funding.NewValidationError("", "金额和股权比例最多保留两位小数")
	}
	if !project.EquityOffered.IsPositive() || project.EquityOffered.GreaterThan(maxEquity) {
		return funding.NewValidationError("", "出让股权必须在0到100之间")
	}
	if project.DurationDays <= 0 {
		return funding.NewValidationError("", "筹资天数必须大于0")
	}
	return nil
}
