package controller

import (
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/service"
	"nihongo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// LearningController exposes the student-facing adaptive loop: answer
// submission, progress, and personalized lesson generation.
type LearningController struct {
	AnswerService       *service.AnswerService
	ProgressService     *service.ProgressService
	PersonalizedService *service.PersonalizedContentService
}

func NewLearningController(
	answerService *service.AnswerService,
	progressService *service.ProgressService,
	personalizedService *service.PersonalizedContentService,
) *LearningController {
	return &LearningController{
		AnswerService:       answerService,
		ProgressService:     progressService,
		PersonalizedService: personalizedService,
	}
}

// SubmitAnswer godoc
// @Summary Submit an answer to a question
// @Description Evaluates the answer, records the attempt and returns feedback
// @Tags learning
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Param   qid path string true "question id"
// @Param   body body service.AnswerSubmission true "answer payload"
// @Success 200 {object} util.Response{data=service.SubmitResult} "evaluation result"
// @Failure 400 {object} util.Response "payload does not match question kind"
// @Failure 404 {object} util.Response "question not found"
// @Failure 409 {object} util.Response "attempt cap reached"
// @Router /api/lessons/{id}/questions/{qid}/answers [post]
func (c *LearningController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var sub service.AnswerSubmission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AnswerService.Submit(ctx.Request.Context(), user.UserID, ctx.Param("id"), ctx.Param("qid"), sub)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// GetProgress godoc
// @Summary Progress for one lesson
// @Tags learning
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Success 200 {object} util.Response{data=model.LessonProgress} "progress"
// @Failure 404 {object} util.Response "lesson not found"
// @Router /api/lessons/{id}/progress [get]
func (c *LearningController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.GetOrCreate(user.UserID, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

type MarkCompleteRequest struct {
	ContentID string `json:"contentId" binding:"required"`
	TimeSpent int    `json:"timeSpent"`
}

// MarkContentComplete godoc
// @Summary Mark a content item complete
// @Description Flags the item done and recomputes the lesson percentage
// @Tags learning
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Param   body body MarkCompleteRequest true "content item"
// @Success 200 {object} util.Response{data=model.LessonProgress} "updated progress"
// @Failure 404 {object} util.Response "lesson or content not found"
// @Router /api/lessons/{id}/progress [post]
func (c *LearningController) MarkContentComplete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req MarkCompleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressService.MarkComplete(ctx.Request.Context(), user.UserID, ctx.Param("id"), req.ContentID, req.TimeSpent)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// ResetProgress godoc
// @Summary Reset lesson progress
// @Description Clears progress and deletes the user's answers for the lesson
// @Tags learning
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Success 200 {object} util.Response{data=model.LessonProgress} "zeroed progress"
// @Failure 404 {object} util.Response "lesson not found"
// @Router /api/lessons/{id}/progress [delete]
func (c *LearningController) ResetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.Reset(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// ListProgress godoc
// @Summary Progress across all lessons
// @Tags learning
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.LessonProgress} "progress rows"
// @Router /api/progress [get]
func (c *LearningController) ListProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	rows, err := c.ProgressService.ListForUser(user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}

type GenerateLessonRequest struct {
	LessonType string `json:"lessonType" binding:"required,oneof=remedial advancement review"`
}

// GeneratePersonalizedLesson godoc
// @Summary Generate a personalized lesson
// @Description Builds a lesson targeting the user's current weaknesses
// @Tags learning
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body GenerateLessonRequest true "lesson type"
// @Success 201 {object} util.Response{data=model.Lesson} "generated lesson"
// @Failure 400 {object} util.Response "invalid lesson type"
// @Failure 502 {object} util.Response "content generation unavailable"
// @Router /api/lessons/personalized [post]
func (c *LearningController) GeneratePersonalizedLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req GenerateLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.PersonalizedService.GenerateLesson(ctx.Request.Context(), user.UserID, model.LessonType(req.LessonType))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, lesson)
}
