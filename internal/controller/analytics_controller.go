package controller

import (
	"strconv"

	"nihongo_edu_backend/internal/service"
	"nihongo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	PerformanceService *service.PerformanceService
	RemediationService *service.RemediationService
}

func NewAnalyticsController(
	performanceService *service.PerformanceService,
	remediationService *service.RemediationService,
) *AnalyticsController {
	return &AnalyticsController{
		PerformanceService: performanceService,
		RemediationService: remediationService,
	}
}

// GetPerformance godoc
// @Summary Weakness report
// @Description Analyzes the user's answer and progress history
// @Tags analytics
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.WeaknessReport} "report"
// @Router /api/analytics/performance [get]
func (c *AnalyticsController) GetPerformance(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.PerformanceService.Analyze(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// GetStudyPlan godoc
// @Summary Remediation plan with study schedule
// @Description Derives priority areas, suggestions and a weekly plan from the weakness report
// @Tags analytics
// @Produce  json
// @Security ApiKeyAuth
// @Param   weeks query int false "schedule length in weeks" default(4)
// @Success 200 {object} util.Response{data=model.RemediationPlan} "plan"
// @Failure 400 {object} util.Response "weeks must be positive"
// @Router /api/analytics/study-plan [get]
func (c *AnalyticsController) GetStudyPlan(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	weeks := 4
	if raw := ctx.Query("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			util.BadRequest(ctx, "weeks must be an integer")
			return
		}
		weeks = parsed
	}

	report, err := c.PerformanceService.Analyze(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	plan, err := c.RemediationService.PlanWithSchedule(report, weeks)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, plan)
}
