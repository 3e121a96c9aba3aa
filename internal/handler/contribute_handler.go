package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/logger"
	"github.com/blues/fundhive/internal/logic"
	"github.com/blues/fundhive/internal/model"
	"github.com/gin-gonic/gin"
)

// ContributeHandler 出资处理器
type ContributeHandler struct {
	fundingLogic    *logic.FundingLogic
	contributeLogic *logic.ContributeRecordLogic
	projector       *funding.Projector
}

// NewContributeHandler 创建出资处理器
func NewContributeHandler(fundingLogic *logic.FundingLogic, contributeLogic *logic.ContributeRecordLogic, projector *funding.Projector) *ContributeHandler {
	return &ContributeHandler{
		fundingLogic:    fundingLogic,
		contributeLogic: contributeLogic,
		projector:       projector,
	}
}

// Invest 股权投资
func (h *ContributeHandler) Invest(c *gin.Context) {
	h.contribute(c, funding.KindInvestment, "Investment successful")
}

// Crowdfund 众筹支持
func (h *ContributeHandler) Crowdfund(c *gin.Context) {
	h.contribute(c, funding.KindCrowdfund, "Crowdfunding successful")
}

func (h *ContributeHandler) contribute(c *gin.Context, kind funding.Kind, message string) {
	who, _ := IdentityFrom(c)

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的出资请求")
		return
	}
	if req.ContributorId == "" {
		req.ContributorId = who.ID
	}

	entry := funding.Entry{
		RequestID:   c.GetHeader(HeaderRequestID),
		ProjectID:   c.Param("id"),
		Contributor: req.ContributorId,
		Amount:      req.Amount,
		Kind:        kind,
		RewardTier:  req.RewardTier,
	}

	state, err := h.fundingLogic.Submit(c.Request.Context(), entry, who)
	if err != nil {
		FailureResponse(c, err)
		return
	}

	logger.Info("Processed %s: %s from %s to project %s, now %s",
		kind, entry.Amount, who.ID, state.ID, state.CurrentFunding)

	SuccessResponse(c, http.StatusOK, message, ContributeResponse{
		Project:  state,
		Trending: h.projector.Project(state),
	})
}

// GetProjectContributeRecords 获取项目出资记录
func (h *ContributeHandler) GetProjectContributeRecords(c *gin.Context) {
	projectId, ok := model.ParseProjectId(c.Param("id"))
	if !ok {
		FailureResponse(c, funding.NewNotFoundError(c.Param("id")))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	// 调用logic层获取项目出资记录
	records, total, err := h.contributeLogic.GetProjectContributeRecords(projectId, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取项目出资记录成功", GetProjectContributeRecordsResponse{
		Records:    ToContributeRecordResponseList(records),
		Pagination: pagination,
	})
}

// GetRewardTiers 获取众筹回报档位
func (h *ContributeHandler) GetRewardTiers(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "获取回报档位成功", funding.RewardTiers)
}
