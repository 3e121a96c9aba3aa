package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/logger"
	"github.com/blues/fundhive/internal/logic"
	"github.com/blues/fundhive/internal/model"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectLogic    *logic.ProjectLogic
	contributeLogic *logic.ContributeRecordLogic
	projector       *funding.Projector
	trendingLimit   int
}

func NewProjectHandler(projectLogic *logic.ProjectLogic, contributeLogic *logic.ContributeRecordLogic, projector *funding.Projector, trendingLimit int) *ProjectHandler {
	return &ProjectHandler{
		projectLogic:    projectLogic,
		contributeLogic: contributeLogic,
		projector:       projector,
		trendingLimit:   trendingLimit,
	}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	who, _ := IdentityFrom(c)

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "All project fields are required")
		return
	}

	project := &model.ProjectModel{
		OwnerId:       who.ID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		MediaURL:      req.MediaURL,
		FundingGoal:   req.FundingGoal,
		EquityOffered: req.EquityOffered,
		DurationDays:  req.Duration,
	}

	// 调用logic层创建项目
	if err := h.projectLogic.CreateProject(project); err != nil {
		FailureResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Project created", GetProjectResponse{
		Project: ToProjectResponse(project, h.projector),
	})
}

// GetProjects 获取项目列表及热门项目
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectLogic.GetProjects(c.Query("category"))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	trending, err := h.projectLogic.GetTrending(h.trendingLimit)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", GetProjectsResponse{
		Posts:    ToProjectResponseList(projects, h.projector),
		Trending: ToTrendingList(trending, h.projector),
	})
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := model.ParseProjectId(c.Param("id"))
	if !ok {
		FailureResponse(c, funding.NewNotFoundError(c.Param("id")))
		return
	}

	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		FailureResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目详情成功", GetProjectResponse{
		Project: ToProjectResponse(project, h.projector),
	})
}

// DeleteProject 删除项目，仅限创建者
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	who, _ := IdentityFrom(c)

	id, ok := model.ParseProjectId(c.Param("id"))
	if !ok {
		FailureResponse(c, funding.NewNotFoundError(c.Param("id")))
		return
	}

	if err := h.projectLogic.DeleteProject(id, who.ID); err != nil {
		if errors.Is(err, logic.ErrNotOwner) {
			ErrorResponse(c, http.StatusForbidden, "Only the project owner can delete it")
			return
		}
		FailureResponse(c, err)
		return
	}

	logger.Info("Project %d deleted by %s", id, who.ID)
	SuccessResponse(c, http.StatusOK, "Project deleted", nil)
}

// GetProjectStats 获取项目统计信息
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	id, ok := model.ParseProjectId(c.Param("id"))
	if !ok {
		FailureResponse(c, funding.NewNotFoundError(c.Param("id")))
		return
	}

	projectStats, err := h.projectLogic.GetProjectStats(id)
	if err != nil {
		FailureResponse(c, err)
		return
	}

	contributeStats, err := h.contributeLogic.GetContributeStats(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目统计信息成功", GetStatsResponse{
		Project:       projectStats,
		Contributions: contributeStats,
	})
}
