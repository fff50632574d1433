package controller

import (
	"strconv"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/service"
	"nihongo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// LessonController is the teacher-facing authoring surface.
type LessonController struct {
	ContentService *service.ContentService
}

func NewLessonController(contentService *service.ContentService) *LessonController {
	return &LessonController{ContentService: contentService}
}

// CreateLesson godoc
// @Summary Create a lesson
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.LessonRequest true "lesson"
// @Success 201 {object} util.Response{data=model.Lesson} "created"
// @Failure 400 {object} util.Response "invalid payload"
// @Router /api/lessons [post]
func (c *LessonController) CreateLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.ContentService.CreateLesson(user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, lesson)
}

// GetLesson godoc
// @Summary Lesson detail
// @Description Lesson with ordered contents and questions
// @Tags lessons
// @Produce  json
// @Param   id path string true "lesson id"
// @Success 200 {object} util.Response{data=model.Lesson} "lesson"
// @Failure 404 {object} util.Response "not found"
// @Router /api/lessons/{id} [get]
func (c *LessonController) GetLesson(ctx *gin.Context) {
	lesson, err := c.ContentService.GetLesson(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, lesson)
}

// ListLessons godoc
// @Summary List lessons
// @Tags lessons
// @Produce  json
// @Param   page query int false "page" default(1)
// @Param   limit query int false "page size" default(20)
// @Param   all query bool false "include unpublished (teachers)"
// @Success 200 {object} util.Response{data=util.PageResponse} "page of lessons"
// @Router /api/lessons [get]
func (c *LessonController) ListLessons(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	publishedOnly := true
	user := util.GetUserFromContext(ctx)
	if user != nil && user.Role != model.Student && ctx.Query("all") == "true" {
		publishedOnly = false
	}

	lessons, total, err := c.ContentService.ListLessons(publishedOnly, page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: lessons, Total: total, Page: page, Limit: limit})
}

// PublishLesson godoc
// @Summary Publish a lesson
// @Tags lessons
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Success 200 {object} util.Response{data=model.Lesson} "published lesson"
// @Failure 403 {object} util.Response "not the creator"
// @Failure 404 {object} util.Response "not found"
// @Router /api/lessons/{id}/publish [post]
func (c *LessonController) PublishLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	lesson, err := c.ContentService.PublishLesson(ctx.Param("id"), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, lesson)
}

// AddContent godoc
// @Summary Add a content item to a lesson
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Param   body body service.ContentItemRequest true "content item"
// @Success 201 {object} util.Response{data=model.LessonContent} "created"
// @Failure 400 {object} util.Response "invalid payload"
// @Failure 403 {object} util.Response "not the creator"
// @Router /api/lessons/{id}/contents [post]
func (c *LessonController) AddContent(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ContentItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	content, err := c.ContentService.AddContent(ctx.Param("id"), user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, content)
}

// AddQuestion godoc
// @Summary Add a question to a quiz content item
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "lesson id"
// @Param   cid path string true "content id"
// @Param   body body service.QuestionRequest true "question"
// @Success 201 {object} util.Response{data=model.Question} "created"
// @Failure 400 {object} util.Response "payload does not match question kind"
// @Failure 403 {object} util.Response "not the creator"
// @Router /api/lessons/{id}/contents/{cid}/questions [post]
func (c *LessonController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.ContentService.AddQuestion(ctx.Param("id"), ctx.Param("cid"), user.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, question)
}
