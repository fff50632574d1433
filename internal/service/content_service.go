package service

import (
	"errors"
	"fmt"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/internal/util"

	"gorm.io/gorm"
)

// ContentService is the teacher-facing surface for authoring the regular
// lesson catalog the adaptive loop runs over.
type ContentService struct {
	LessonRepo   *repository.LessonRepository
	QuestionRepo *repository.QuestionRepository
	CatalogRepo  *repository.CatalogRepository
	DB           *gorm.DB
}

func NewContentService(
	lessonRepo *repository.LessonRepository,
	questionRepo *repository.QuestionRepository,
	catalogRepo *repository.CatalogRepository,
	db *gorm.DB,
) *ContentService {
	return &ContentService{
		LessonRepo:   lessonRepo,
		QuestionRepo: questionRepo,
		CatalogRepo:  catalogRepo,
		DB:           db,
	}
}

type LessonRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	CategoryID      uint   `json:"categoryId"`
	JLPTLevel       int    `json:"jlptLevel"`
	DifficultyLevel int    `json:"difficultyLevel"`
	IsPublished     bool   `json:"isPublished"`
}

func (s *ContentService) CreateLesson(creatorID uint, req LessonRequest) (*model.Lesson, error) {
	if req.JLPTLevel < 1 || req.JLPTLevel > 5 {
		return nil, fmt.Errorf("%w: JLPT level must be 1-5", util.ErrValidation)
	}
	difficulty := req.DifficultyLevel
	if difficulty == 0 {
		difficulty = 1
	}
	if difficulty < 1 || difficulty > 5 {
		return nil, fmt.Errorf("%w: difficulty level must be 1-5", util.ErrValidation)
	}

	lesson := &model.Lesson{
		Title:           req.Title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		JLPTLevel:       req.JLPTLevel,
		DifficultyLevel: difficulty,
		Type:            model.LessonRegular,
		IsPublished:     req.IsPublished,
		CreatorID:       creatorID,
	}
	if err := s.LessonRepo.Create(lesson); err != nil {
		return nil, fmt.Errorf("%w: create lesson: %v", util.ErrPersistence, err)
	}
	return lesson, nil
}

func (s *ContentService) GetLesson(id string) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByIDWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %s", util.ErrNotFound, id)
		}
		return nil, err
	}
	return lesson, nil
}

func (s *ContentService) ListLessons(publishedOnly bool, page, limit int) ([]model.Lesson, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.LessonRepo.List(publishedOnly, page, limit)
}

func (s *ContentService) PublishLesson(id string, creatorID uint) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %s", util.ErrNotFound, id)
		}
		return nil, err
	}
	if lesson.CreatorID != creatorID {
		return nil, fmt.Errorf("%w: lesson %s belongs to another teacher", util.ErrAccessDenied, id)
	}
	lesson.IsPublished = true
	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, fmt.Errorf("%w: publish lesson: %v", util.ErrPersistence, err)
	}
	return lesson, nil
}

type ContentItemRequest struct {
	Type          model.ContentType `json:"type" binding:"required"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	CatalogRef    *uint             `json:"catalogRef"`
	IsInteractive bool              `json:"isInteractive"`
	MaxAttempts   int               `json:"maxAttempts"`
	Order         int               `json:"order"`
}

func (s *ContentService) AddContent(lessonID string, creatorID uint, req ContentItemRequest) (*model.LessonContent, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %s", util.ErrNotFound, lessonID)
		}
		return nil, err
	}
	if lesson.CreatorID != creatorID {
		return nil, fmt.Errorf("%w: lesson %s belongs to another teacher", util.ErrAccessDenied, lessonID)
	}

	switch req.Type {
	case model.ContentKanji, model.ContentVocabulary, model.ContentGrammar, model.ContentText, model.ContentQuiz:
	default:
		return nil, fmt.Errorf("%w: unknown content type %q", util.ErrValidation, req.Type)
	}
	if req.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: maxAttempts cannot be negative", util.ErrValidation)
	}

	content := &model.LessonContent{
		LessonID:      lessonID,
		Type:          req.Type,
		Title:         req.Title,
		Body:          req.Body,
		CatalogRef:    req.CatalogRef,
		IsInteractive: req.IsInteractive || req.Type == model.ContentQuiz,
		MaxAttempts:   req.MaxAttempts,
		Order:         req.Order,
	}
	if err := s.LessonRepo.CreateContent(content); err != nil {
		return nil, fmt.Errorf("%w: create content: %v", util.ErrPersistence, err)
	}
	return content, nil
}

type QuestionRequest struct {
	Kind            model.QuestionKind   `json:"kind" binding:"required"`
	Prompt          string               `json:"prompt" binding:"required"`
	DifficultyLevel int                  `json:"difficultyLevel"`
	Points          int                  `json:"points"`
	Hint            string               `json:"hint"`
	Explanation     string               `json:"explanation"`
	Options         []OptionRequest      `json:"options"`
	AcceptedAnswers []string             `json:"acceptedAnswers"`
	Pairs           []model.MatchingPair `json:"pairs"`
}

type OptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
	Order     int    `json:"order"`
}

func (s *ContentService) AddQuestion(lessonID, contentID string, creatorID uint, req QuestionRequest) (*model.Question, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %s", util.ErrNotFound, lessonID)
		}
		return nil, err
	}
	if lesson.CreatorID != creatorID {
		return nil, fmt.Errorf("%w: lesson %s belongs to another teacher", util.ErrAccessDenied, lessonID)
	}
	content, err := s.LessonRepo.FindContent(lessonID, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: content %s", util.ErrNotFound, contentID)
		}
		return nil, err
	}
	if !content.IsInteractive {
		return nil, fmt.Errorf("%w: content %s is not interactive", util.ErrValidation, contentID)
	}

	if err := validateQuestionRequest(req); err != nil {
		return nil, err
	}

	payload := model.QuestionPayload{
		Kind:            req.Kind,
		AcceptedAnswers: req.AcceptedAnswers,
		Pairs:           req.Pairs,
	}
	raw, err := payload.Encode()
	if err != nil {
		return nil, err
	}

	difficulty := req.DifficultyLevel
	if difficulty == 0 {
		difficulty = 1
	}
	points := req.Points
	if points == 0 {
		points = 1
	}

	question := &model.Question{
		ContentID:       contentID,
		Kind:            req.Kind,
		Prompt:          req.Prompt,
		DifficultyLevel: difficulty,
		Points:          points,
		Hint:            req.Hint,
		Explanation:     req.Explanation,
		Payload:         raw,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(question).Error; err != nil {
			return err
		}
		for i, o := range req.Options {
			opt := model.Option{
				QuestionID: question.ID,
				Text:       o.Text,
				IsCorrect:  o.IsCorrect,
				Feedback:   o.Feedback,
				Order:      o.Order,
			}
			if opt.Order == 0 {
				opt.Order = i
			}
			if err := tx.Create(&opt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create question: %v", util.ErrPersistence, err)
	}
	return question, nil
}

func validateQuestionRequest(req QuestionRequest) error {
	switch req.Kind {
	case model.MultipleChoice, model.TrueFalse:
		if len(req.Options) < 2 {
			return fmt.Errorf("%w: %s question needs at least two options", util.ErrValidation, req.Kind)
		}
		correct := 0
		for _, o := range req.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: %s question needs exactly one correct option", util.ErrValidation, req.Kind)
		}
	case model.FillBlank:
		if len(req.AcceptedAnswers) == 0 {
			return fmt.Errorf("%w: fill_blank question needs acceptedAnswers", util.ErrValidation)
		}
	case model.Matching:
		if len(req.Pairs) < 2 {
			return fmt.Errorf("%w: matching question needs at least two pairs", util.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown question kind %q", util.ErrValidation, req.Kind)
	}
	return nil
}

func (s *ContentService) ListKanji(level, limit int) ([]model.Kanji, error) {
	return s.CatalogRepo.ListKanji(level, limit)
}

func (s *ContentService) ListVocabulary(level, limit int) ([]model.Vocabulary, error) {
	return s.CatalogRepo.ListVocabulary(level, limit)
}

func (s *ContentService) ListGrammar(level, limit int) ([]model.GrammarPoint, error) {
	return s.CatalogRepo.ListGrammar(level, limit)
}
