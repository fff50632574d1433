package controller

import (
	"strconv"

	"nihongo_edu_backend/internal/service"
	"nihongo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	ContentService *service.ContentService
}

func NewCatalogController(contentService *service.ContentService) *CatalogController {
	return &CatalogController{ContentService: contentService}
}

func catalogParams(ctx *gin.Context) (level, limit int) {
	level, _ = strconv.Atoi(ctx.Query("level"))
	limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	return level, limit
}

// ListKanji godoc
// @Summary Approved kanji
// @Tags catalog
// @Produce  json
// @Param   level query int false "JLPT level 1-5"
// @Param   limit query int false "max rows" default(50)
// @Success 200 {object} util.Response{data=[]model.Kanji} "kanji"
// @Router /api/catalog/kanji [get]
func (c *CatalogController) ListKanji(ctx *gin.Context) {
	level, limit := catalogParams(ctx)
	items, err := c.ContentService.ListKanji(level, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// ListVocabulary godoc
// @Summary Approved vocabulary
// @Tags catalog
// @Produce  json
// @Param   level query int false "JLPT level 1-5"
// @Param   limit query int false "max rows" default(50)
// @Success 200 {object} util.Response{data=[]model.Vocabulary} "vocabulary"
// @Router /api/catalog/vocabulary [get]
func (c *CatalogController) ListVocabulary(ctx *gin.Context) {
	level, limit := catalogParams(ctx)
	items, err := c.ContentService.ListVocabulary(level, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// ListGrammar godoc
// @Summary Approved grammar points
// @Tags catalog
// @Produce  json
// @Param   level query int false "JLPT level 1-5"
// @Param   limit query int false "max rows" default(50)
// @Success 200 {object} util.Response{data=[]model.GrammarPoint} "grammar points"
// @Router /api/catalog/grammar [get]
func (c *CatalogController) ListGrammar(ctx *gin.Context) {
	level, limit := catalogParams(ctx)
	items, err := c.ContentService.ListGrammar(level, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, items)
}
