package handler

import (
	"time"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/logic"
	"github.com/blues/fundhive/internal/model"
	"github.com/blues/fundhive/internal/scoring"
	"github.com/shopspring/decimal"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Category      string          `json:"category" binding:"required"`
	FundingGoal   decimal.Decimal `json:"fundingGoal"`
	EquityOffered decimal.Decimal `json:"equityOffered"`
	Duration      int             `json:"duration"`
	MediaURL      string          `json:"mediaUrl"`
}

// ContributeRequest 出资请求
type ContributeRequest struct {
	ContributorId string          `json:"contributorId"`
	Amount        decimal.Decimal `json:"amount"`
	RewardTier    string          `json:"rewardTier"`
}

// AnalysisRequest AI 分析请求
type AnalysisRequest struct {
	ProjectId   string `json:"projectId" binding:"required"`
	CreditScore int    `json:"creditScore"`
}

// 项目相关响应模型

// ProjectResponse 项目响应模型，筹资字段与 funding.State 的 JSON 一致
type ProjectResponse struct {
	ID                string          `json:"id"`
	OwnerId           string          `json:"ownerId"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	MediaURL          string          `json:"mediaUrl,omitempty"`
	FundingGoal       decimal.Decimal `json:"fundingGoal"`
	EquityOffered     decimal.Decimal `json:"equityOffered"`
	CurrentFunding    decimal.Decimal `json:"currentFunding"`
	StartDate         time.Time       `json:"startDate"`
	DurationDays      int             `json:"durationDays"`
	Version           int64           `json:"version"`
	Status            string          `json:"status"`
	FundingPercentage float64         `json:"fundingPercentage"`
	HoursLeft         int64           `json:"hoursLeft"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// GetProjectsResponse 获取项目列表响应
type GetProjectsResponse struct {
	Posts    []ProjectResponse  `json:"posts"`
	Trending []funding.Trending `json:"trending"`
}

// GetProjectResponse 获取项目详情响应
type GetProjectResponse struct {
	Project ProjectResponse `json:"project"`
}

// ContributeResponse 出资成功响应，project 为入账后的权威状态
type ContributeResponse struct {
	Project  funding.State    `json:"project"`
	Trending funding.Trending `json:"trending"`
}

// 出资记录相关响应模型

// ContributeRecordResponse 出资记录响应模型
type ContributeRecordResponse struct {
	ID              int64           `json:"id"`
	ProjectID       string          `json:"projectId"`
	ContributorId   string          `json:"contributorId"`
	ContributorName string          `json:"contributorName,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Kind            funding.Kind    `json:"kind"`
	RewardTier      string          `json:"rewardTier,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// GetProjectContributeRecordsResponse 获取项目出资记录响应
type GetProjectContributeRecordsResponse struct {
	Records    []ContributeRecordResponse `json:"records"`
	Pagination Pagination                 `json:"pagination"`
}

// GetStatsResponse 获取项目统计响应
type GetStatsResponse struct {
	Project       *logic.ProjectStats    `json:"project"`
	Contributions *logic.ContributeStats `json:"contributions"`
}

// AnalysisResponse AI 分析响应
type AnalysisResponse struct {
	ProjectId string `json:"projectId"`
	scoring.Analysis
}

// 转换函数

// ToProjectResponse 将数据库模型转换为响应模型
func ToProjectResponse(project *model.ProjectModel, projector *funding.Projector) ProjectResponse {
	trending := projector.Project(project.FundingState())
	return ProjectResponse{
		ID:                model.FormatProjectId(project.Id),
		OwnerId:           project.OwnerId,
		Title:             project.Title,
		Description:       project.Description,
		Category:          project.Category,
		MediaURL:          project.MediaURL,
		FundingGoal:       project.FundingGoal,
		EquityOffered:     project.EquityOffered,
		CurrentFunding:    project.CurrentAmount,
		StartDate:         project.StartDate,
		DurationDays:      project.DurationDays,
		Version:           project.Version,
		Status:            string(project.Status),
		FundingPercentage: trending.FundingPercentage,
		HoursLeft:         trending.HoursLeft,
		CreatedAt:         project.CreatedAt,
	}
}

// ToProjectResponseList 将数据库模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel, projector *funding.Projector) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i := range projects {
		result[i] = ToProjectResponse(&projects[i], projector)
	}
	return result
}

// ToTrendingList 计算项目列表的趋势指标
func ToTrendingList(projects []model.ProjectModel, projector *funding.Projector) []funding.Trending {
	result := make([]funding.Trending, len(projects))
	for i := range projects {
		result[i] = projector.Project(projects[i].FundingState())
	}
	return result
}

// ToContributeRecordResponse 将出资记录数据库模型转换为响应模型
func ToContributeRecordResponse(record *model.ContributeRecordModel) ContributeRecordResponse {
	return ContributeRecordResponse{
		ID:              record.Id,
		ProjectID:       model.FormatProjectId(record.ProjectId),
		ContributorId:   record.ContributorId,
		ContributorName: record.ContributorName,
		Amount:          record.Amount,
		Kind:            record.Kind,
		RewardTier:      record.RewardTier,
		CreatedAt:       record.CreatedAt,
	}
}

// ToContributeRecordResponseList 将出资记录数据库模型列表转换为响应模型列表
func ToContributeRecordResponseList(records []model.ContributeRecordModel) []ContributeRecordResponse {
	result := make([]ContributeRecordResponse, len(records))
	for i := range records {
		result[i] = ToContributeRecordResponse(&records[i])
	}
	return result
}
