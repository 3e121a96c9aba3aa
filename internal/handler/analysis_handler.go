package handler

import (
	"net/http"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/logger"
	"github.com/blues/fundhive/internal/logic"
	"github.com/blues/fundhive/internal/model"
	"github.com/blues/fundhive/internal/scoring"
	"github.com/gin-gonic/gin"
)

// AnalysisHandler AI 分析处理器
type AnalysisHandler struct {
	projectLogic *logic.ProjectLogic
	analyzer     *scoring.Analyzer
}

// NewAnalysisHandler 创建 AI 分析处理器
func NewAnalysisHandler(projectLogic *logic.ProjectLogic, analyzer *scoring.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{
		projectLogic: projectLogic,
		analyzer:     analyzer,
	}
}

// Analyze 对项目进行评分，评分服务失败时返回标记为 fallback 的结果
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "projectId is required")
		return
	}

	id, ok := model.ParseProjectId(req.ProjectId)
	if !ok {
		FailureResponse(c, funding.NewNotFoundError(req.ProjectId))
		return
	}
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		FailureResponse(c, err)
		return
	}

	analysis := h.analyzer.Analyze(c.Request.Context(), scoring.Summary{
		Title:          project.Title,
		FundingGoal:    project.FundingGoal,
		EquityOffered:  project.EquityOffered,
		CurrentFunding: project.CurrentAmount,
		CreditScore:    req.CreditScore,
	})
	if analysis.Fallback {
		logger.Warn("Scoring unavailable for project %s: %s", req.ProjectId, analysis.Reason)
	}

	SuccessResponse(c, http.StatusOK, "AI analysis completed", AnalysisResponse{
		ProjectId: req.ProjectId,
		Analysis:  analysis,
	})
}
