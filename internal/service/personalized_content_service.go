package service

import (
	"context"
	"errors"
	"fmt"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/internal/util"
	"nihongo_edu_backend/pkg/logger"
	"nihongo_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	catalogItemsPerLesson  = 5
	generatedQuizQuestions = 5
	personalizedCategory   = "Personalized"
)

// PersonalizedContentService assembles a lesson blueprint from a
// remediation plan, fills it with catalog items and generated content, and
// persists the whole lesson in one transaction. A generation failure aborts
// everything; no partial lesson is ever visible.
type PersonalizedContentService struct {
	Performance *PerformanceService
	Remediation *RemediationService
	CatalogRepo *repository.CatalogRepository
	UserRepo    *repository.UserRepository
	Generator   ContentGenerator
	DB          *gorm.DB
	Cfg         config.LearningConfig
}

func NewPersonalizedContentService(
	performance *PerformanceService,
	remediation *RemediationService,
	catalogRepo *repository.CatalogRepository,
	userRepo *repository.UserRepository,
	generator ContentGenerator,
	db *gorm.DB,
	cfg config.LearningConfig,
) *PersonalizedContentService {
	return &PersonalizedContentService{
		Performance: performance,
		Remediation: remediation,
		CatalogRepo: catalogRepo,
		UserRepo:    userRepo,
		Generator:   generator,
		DB:          db,
		Cfg:         cfg,
	}
}

// GenerateLesson runs the whole loop for one user: analyze, plan, assemble,
// persist. It returns the persisted lesson.
func (s *PersonalizedContentService) GenerateLesson(ctx context.Context, userID uint, lessonType model.LessonType) (*model.Lesson, error) {
	switch lessonType {
	case model.LessonRemedial, model.LessonAdvancement, model.LessonReview:
	default:
		return nil, fmt.Errorf("%w: unsupported lesson type %q", util.ErrValidation, lessonType)
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", util.ErrNotFound, userID)
		}
		return nil, err
	}

	report, err := s.Performance.Analyze(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan := s.Remediation.Plan(report)

	blueprint, err := s.Assemble(ctx, user, plan, lessonType)
	if err != nil {
		monitoring.LessonGenerations.WithLabelValues(string(lessonType), "generation_failed").Inc()
		return nil, err
	}

	lesson, err := s.Persist(ctx, blueprint, userID)
	if err != nil {
		monitoring.LessonGenerations.WithLabelValues(string(lessonType), "persist_failed").Inc()
		return nil, err
	}

	monitoring.LessonGenerations.WithLabelValues(string(lessonType), "ok").Inc()
	logger.Log.Info("personalized lesson created",
		zap.Uint("user", userID),
		zap.String("lesson", lesson.ID),
		zap.String("type", string(lessonType)))
	return lesson, nil
}

// Assemble builds the lesson blueprint: catalog references for the focus
// area, a generated explanation, and one adaptive quiz.
func (s *PersonalizedContentService) Assemble(ctx context.Context, user *model.User, plan *model.RemediationPlan, lessonType model.LessonType) (*model.LessonBlueprint, error) {
	focus, contentType := s.pickFocus(plan, lessonType)
	difficulty := s.targetDifficulty(plan, lessonType)

	items, keywords, err := s.catalogItems(contentType, user.TargetLevel)
	if err != nil {
		return nil, err
	}

	text, err := s.Generator.Generate(ctx, GenerationRequest{
		Kind:       GenerateLessonText,
		Topic:      focus,
		JLPTLevel:  user.TargetLevel,
		Difficulty: difficulty,
		Keywords:   keywords,
	})
	if err != nil {
		return nil, err
	}

	quiz, err := s.Generator.Generate(ctx, GenerationRequest{
		Kind:          GenerateQuiz,
		Topic:         focus,
		JLPTLevel:     user.TargetLevel,
		Difficulty:    difficulty,
		Keywords:      keywords,
		QuestionCount: generatedQuizQuestions,
	})
	if err != nil {
		return nil, err
	}
	// Reject structurally invalid questions here, before anything is written.
	for _, gq := range quiz.Questions {
		if err := validateGeneratedQuestion(gq); err != nil {
			return nil, err
		}
	}

	title := text.Title
	if title == "" {
		title = fmt.Sprintf("%s: %s", lessonTypeLabel(lessonType), focus)
	}

	blueprint := &model.LessonBlueprint{
		Title:           title,
		Description:     fmt.Sprintf("Personalized %s lesson targeting %s (JLPT N%d)", lessonType, focus, user.TargetLevel),
		Type:            lessonType,
		CategoryName:    personalizedCategory,
		JLPTLevel:       user.TargetLevel,
		DifficultyLevel: difficulty,
	}

	blueprint.Items = append(blueprint.Items, model.BlueprintItem{
		Type:  model.ContentText,
		Title: title,
		Body:  text.Text,
	})

	blueprint.Items = append(blueprint.Items, items...)

	blueprint.Items = append(blueprint.Items, model.BlueprintItem{
		Type:          model.ContentQuiz,
		Title:         fmt.Sprintf("Practice: %s", focus),
		IsInteractive: true,
		MaxAttempts:   3,
		Questions:     quiz.Questions,
	})

	return blueprint, nil
}

// pickFocus chooses what the lesson is about. Remedial lessons chase the
// top priority area, advancement lessons build on the strongest area,
// review lessons fall back to a general pass.
func (s *PersonalizedContentService) pickFocus(plan *model.RemediationPlan, lessonType model.LessonType) (string, model.ContentType) {
	switch lessonType {
	case model.LessonAdvancement:
		if len(plan.StrongAreas) > 0 {
			return plan.StrongAreas[0], model.ContentType(plan.StrongAreas[0])
		}
	case model.LessonRemedial, model.LessonReview:
		for _, area := range plan.PriorityAreas {
			if area.Type == model.AreaContentType {
				return area.Area, model.ContentType(area.Area)
			}
		}
		if len(plan.PriorityAreas) > 0 {
			return plan.PriorityAreas[0].Area, model.ContentVocabulary
		}
	}
	return "general review", model.ContentVocabulary
}

func (s *PersonalizedContentService) targetDifficulty(plan *model.RemediationPlan, lessonType model.LessonType) int {
	difficulty := 3
	for _, adj := range plan.DifficultyAdjustments {
		if adj.Scope != model.AdjustGlobal {
			continue
		}
		switch adj.Recommendation {
		case "decrease":
			difficulty = 2
		case "increase":
			difficulty = 4
		}
	}
	if lessonType == model.LessonAdvancement && difficulty < 5 {
		difficulty++
	}
	return difficulty
}

// catalogItems pulls approved catalog rows for the focus content type and
// turns them into blueprint items plus keyword hints for generation.
func (s *PersonalizedContentService) catalogItems(contentType model.ContentType, jlptLevel int) ([]model.BlueprintItem, []string, error) {
	var items []model.BlueprintItem
	var keywords []string

	switch contentType {
	case model.ContentKanji:
		rows, err := s.CatalogRepo.ListKanji(jlptLevel, catalogItemsPerLesson)
		if err != nil {
			return nil, nil, err
		}
		for _, k := range rows {
			ref := k.ID
			items = append(items, model.BlueprintItem{
				Type:       model.ContentKanji,
				Title:      k.Character,
				Body:       fmt.Sprintf("%s — on: %s, kun: %s", k.Meaning, k.Onyomi, k.Kunyomi),
				CatalogRef: &ref,
			})
			keywords = append(keywords, k.Character)
		}
	case model.ContentGrammar:
		rows, err := s.CatalogRepo.ListGrammar(jlptLevel, catalogItemsPerLesson)
		if err != nil {
			return nil, nil, err
		}
		for _, g := range rows {
			ref := g.ID
			items = append(items, model.BlueprintItem{
				Type:       model.ContentGrammar,
				Title:      g.Pattern,
				Body:       fmt.Sprintf("%s (%s) e.g. %s", g.Meaning, g.Structure, g.Example),
				CatalogRef: &ref,
			})
			keywords = append(keywords, g.Pattern)
		}
	default:
		rows, err := s.CatalogRepo.ListVocabulary(jlptLevel, catalogItemsPerLesson)
		if err != nil {
			return nil, nil, err
		}
		for _, v := range rows {
			ref := v.ID
			items = append(items, model.BlueprintItem{
				Type:       model.ContentVocabulary,
				Title:      v.Word,
				Body:       fmt.Sprintf("%s (%s) — %s", v.Reading, v.PartOfSpeech, v.Meaning),
				CatalogRef: &ref,
			})
			keywords = append(keywords, v.Word)
		}
	}
	return items, keywords, nil
}

// Persist writes the blueprint as category + lesson + contents + questions
// + options in a single transaction.
func (s *PersonalizedContentService) Persist(ctx context.Context, blueprint *model.LessonBlueprint, creatorID uint) (*model.Lesson, error) {
	var lesson *model.Lesson

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Where(model.Category{Name: blueprint.CategoryName}).
			Attrs(model.Category{Description: "Generated remedial and review lessons"}).
			FirstOrCreate(&category).Error; err != nil {
			return err
		}

		lesson = &model.Lesson{
			Title:           blueprint.Title,
			Description:     blueprint.Description,
			CategoryID:      category.ID,
			JLPTLevel:       blueprint.JLPTLevel,
			DifficultyLevel: blueprint.DifficultyLevel,
			Type:            blueprint.Type,
			IsPublished:     true,
			IsGenerated:     true,
			CreatorID:       creatorID,
		}
		if err := tx.Create(lesson).Error; err != nil {
			return err
		}

		for i, item := range blueprint.Items {
			content := model.LessonContent{
				LessonID:      lesson.ID,
				Type:          item.Type,
				Title:         item.Title,
				Body:          item.Body,
				CatalogRef:    item.CatalogRef,
				IsInteractive: item.IsInteractive,
				MaxAttempts:   item.MaxAttempts,
				Order:         i,
			}
			if err := tx.Create(&content).Error; err != nil {
				return err
			}

			for _, gq := range item.Questions {
				question, options, err := buildQuestion(content.ID, gq)
				if err != nil {
					return err
				}
				if err := tx.Create(question).Error; err != nil {
					return err
				}
				for _, opt := range options {
					opt.QuestionID = question.ID
					if err := tx.Create(&opt).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		// A generation sentinel surfacing here means a malformed question
		// slipped past Assemble; keep its class, the write is not at fault.
		if errors.Is(err, util.ErrUpstreamGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: persist personalized lesson: %v", util.ErrPersistence, err)
	}
	return lesson, nil
}

// validateGeneratedQuestion rejects structurally invalid generated questions.
func validateGeneratedQuestion(gq model.GeneratedQuestion) error {
	switch gq.Kind {
	case model.MultipleChoice, model.TrueFalse:
		if len(gq.Options) < 2 {
			return fmt.Errorf("%w: generated %s question needs at least two options", util.ErrUpstreamGeneration, gq.Kind)
		}
		correct := 0
		for _, o := range gq.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: generated %s question needs exactly one correct option", util.ErrUpstreamGeneration, gq.Kind)
		}
	case model.FillBlank:
		if len(gq.AcceptedAnswers) == 0 {
			return fmt.Errorf("%w: generated fill_blank question has no accepted answers", util.ErrUpstreamGeneration)
		}
	case model.Matching:
		if len(gq.Pairs) < 2 {
			return fmt.Errorf("%w: generated matching question needs at least two pairs", util.ErrUpstreamGeneration)
		}
	default:
		return fmt.Errorf("%w: generated question has unknown kind %q", util.ErrUpstreamGeneration, gq.Kind)
	}
	return nil
}

// buildQuestion converts a generated question into the persisted shape.
func buildQuestion(contentID string, gq model.GeneratedQuestion) (*model.Question, []model.Option, error) {
	if err := validateGeneratedQuestion(gq); err != nil {
		return nil, nil, err
	}
	kind := gq.Kind

	payload := model.QuestionPayload{
		Kind:            kind,
		AcceptedAnswers: gq.AcceptedAnswers,
		Pairs:           gq.Pairs,
	}
	raw, err := payload.Encode()
	if err != nil {
		return nil, nil, err
	}

	difficulty := gq.DifficultyLevel
	if difficulty < 1 || difficulty > 5 {
		difficulty = 3
	}
	points := gq.Points
	if points <= 0 {
		points = 1
	}

	question := &model.Question{
		ContentID:       contentID,
		Kind:            kind,
		Prompt:          gq.Prompt,
		DifficultyLevel: difficulty,
		Points:          points,
		Hint:            gq.Hint,
		Explanation:     gq.Explanation,
		Payload:         raw,
	}

	options := make([]model.Option, 0, len(gq.Options))
	for i, o := range gq.Options {
		options = append(options, model.Option{
			Text:      o.Text,
			IsCorrect: o.IsCorrect,
			Feedback:  o.Feedback,
			Order:     i,
		})
	}
	return question, options, nil
}

func lessonTypeLabel(t model.LessonType) string {
	switch t {
	case model.LessonRemedial:
		return "Remedial focus"
	case model.LessonAdvancement:
		return "Next step"
	case model.LessonReview:
		return "Review"
	}
	return "Personalized"
}
