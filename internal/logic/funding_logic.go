package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FundingLogic 权威筹资存储，实现 funding.Authority
type FundingLogic struct {
	db *gorm.DB
}

// NewFundingLogic 创建权威筹资存储
func NewFundingLogic(db *gorm.DB) *FundingLogic {
	return &FundingLogic{db: db}
}

var _ funding.Authority = (*FundingLogic)(nil)

// Submit 原子地入账一笔出资并返回入账后的项目状态
//
// 同一个请求ID重复提交时不会再次入账，直接返回项目当前状态。
func (f *FundingLogic) Submit(ctx context.Context, entry funding.Entry, who funding.Contributor) (funding.State, error) {
	if entry.RequestID == "" {
		entry.RequestID = uuid.NewString()
	}
	if who.ID == "" {
		return funding.State{}, funding.NewValidationError(entry.ProjectID, "出资人身份缺失")
	}
	if entry.Contributor != who.ID {
		return funding.State{}, funding.NewValidationError(entry.ProjectID, "出资人与请求身份不一致")
	}
	if err := entry.Validate(); err != nil {
		return funding.State{}, err
	}

	projectId, ok := model.ParseProjectId(entry.ProjectID)
	if !ok {
		return funding.State{}, funding.NewNotFoundError(entry.ProjectID)
	}

	var state funding.State
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 幂等检查
		var existing model.ContributeRecordModel
		err := tx.Where("request_id = ?", entry.RequestID).Take(&existing).Error
		if err == nil {
			if existing.ProjectId != projectId {
				return funding.NewValidationError(entry.ProjectID, "请求ID已用于其他项目")
			}
			project, err := findProject(tx, projectId, entry.ProjectID)
			if err != nil {
				return err
			}
			state = project.FundingState()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 更新项目当前金额
		result := tx.Model(&model.ProjectModel{}).
			Where("id = ?", projectId).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("ROUND(current_amount + ?, 2)", entry.Amount),
				"version":        gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return funding.NewNotFoundError(entry.ProjectID)
		}

		// 创建出资记录
		record := model.ContributeRecordModel{
			RequestId:       entry.RequestID,
			ProjectId:       projectId,
			ContributorId:   who.ID,
			ContributorName: who.Name,
			Amount:          entry.Amount,
			Kind:            entry.Kind,
			RewardTier:      entry.RewardTier,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		project, err := findProject(tx, projectId, entry.ProjectID)
		if err != nil {
			return err
		}
		state = project.FundingState()
		return nil
	})
	if err != nil {
		var ce *funding.ContributionError
		if errors.As(err, &ce) {
			return funding.State{}, ce
		}
		return funding.State{}, funding.NewTransientError(entry.ProjectID, fmt.Errorf("入账失败: %w", err))
	}

	return state, nil
}

// Fetch 读取项目当前筹资状态
func (f *FundingLogic) Fetch(ctx context.Context, projectID string) (funding.State, error) {
	projectId, ok := model.ParseProjectId(projectID)
	if !ok {
		return funding.State{}, funding.NewNotFoundError(projectID)
	}
	project, err := findProject(f.db.WithContext(ctx), projectId, projectID)
	if err != nil {
		var ce *funding.ContributionError
		if errors.As(err, &ce) {
			return funding.State{}, ce
		}
		return funding.State{}, funding.NewTransientError(projectID, fmt.Errorf("获取项目失败: %w", err))
	}
	return project.FundingState(), nil
}

func findProject(db *gorm.DB, id int64, externalId string) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, funding.NewNotFoundError(externalId)
		}
		return nil, err
	}
	return &project, nil
}
