package service

import (
	"context"
	"fmt"
	"testing"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGenerator returns canned results per request kind and records every
// request it sees.
type fakeGenerator struct {
	textResult *GenerationResult
	textErr    error
	quizResult *GenerationResult
	quizErr    error
	requests   []GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerationRequest) (*GenerationResult, error) {
	f.requests = append(f.requests, req)
	if req.Kind == GenerateQuiz {
		return f.quizResult, f.quizErr
	}
	return f.textResult, f.textErr
}

func validQuizResult() *GenerationResult {
	return &GenerationResult{
		Questions: []model.GeneratedQuestion{
			{
				Kind:   model.MultipleChoice,
				Prompt: "Which reading fits?",
				Options: []model.GeneratedOption{
					{Text: "たべる", IsCorrect: true, Feedback: "Correct reading."},
					{Text: "のむ", IsCorrect: false},
				},
				DifficultyLevel: 2,
				Points:          2,
				Explanation:     "taberu means to eat.",
			},
			{
				Kind:            model.FillBlank,
				Prompt:          "ごはんを＿。",
				AcceptedAnswers: []string{"たべる", "食べる"},
			},
		},
	}
}

func newPersonalizedService(db *gorm.DB, gen ContentGenerator) *PersonalizedContentService {
	repos := newTestRepos(db)
	cfg := testLearningConfig()
	performance := NewPerformanceService(repos.answer, repos.progress, repos.lesson, cfg, noCache())
	remediation := NewRemediationService(cfg)
	return NewPersonalizedContentService(performance, remediation, repos.catalog, repos.user, gen, db, cfg)
}

func seedVocabulary(t *testing.T, db *gorm.DB, level, n int) []model.Vocabulary {
	t.Helper()
	rows := make([]model.Vocabulary, 0, n)
	for i := 0; i < n; i++ {
		v := model.Vocabulary{
			Word:      fmt.Sprintf("ことば%d", i),
			Reading:   fmt.Sprintf("kotoba%d", i),
			Meaning:   "word",
			JLPTLevel: level,
			Status:    model.CatalogApproved,
		}
		require.NoError(t, db.Create(&v).Error)
		rows = append(rows, v)
	}
	return rows
}

func TestGenerateLessonInputValidation(t *testing.T) {
	db := openTestDB(t)
	svc := newPersonalizedService(db, &fakeGenerator{})
	user := seedUser(t, db)

	_, err := svc.GenerateLesson(context.Background(), user.ID, model.LessonType("cram"))
	require.ErrorIs(t, err, util.ErrValidation)

	_, err = svc.GenerateLesson(context.Background(), 9999, model.LessonReview)
	require.ErrorIs(t, err, util.ErrNotFound)
}

func TestGenerateLessonPersistsWholeBlueprint(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vocab := seedVocabulary(t, db, user.TargetLevel, 3)

	gen := &fakeGenerator{
		textResult: &GenerationResult{Title: "Everyday Verbs", Text: "taberu, nomu, iku with example sentences."},
		quizResult: validQuizResult(),
	}
	svc := newPersonalizedService(db, gen)

	lesson, err := svc.GenerateLesson(context.Background(), user.ID, model.LessonReview)
	require.NoError(t, err)

	assert.Equal(t, "Everyday Verbs", lesson.Title)
	assert.Equal(t, model.LessonReview, lesson.Type)
	assert.Equal(t, user.TargetLevel, lesson.JLPTLevel)
	assert.Equal(t, user.ID, lesson.CreatorID)
	assert.True(t, lesson.IsPublished)
	assert.True(t, lesson.IsGenerated)

	var category model.Category
	require.NoError(t, db.Where("name = ?", "Personalized").First(&category).Error)
	assert.Equal(t, category.ID, lesson.CategoryID)

	var contents []model.LessonContent
	require.NoError(t, db.Where("lesson_id = ?", lesson.ID).Order("`order`").Find(&contents).Error)
	require.Len(t, contents, 5) // text + 3 vocabulary + quiz

	assert.Equal(t, model.ContentText, contents[0].Type)
	assert.Equal(t, "taberu, nomu, iku with example sentences.", contents[0].Body)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, model.ContentVocabulary, contents[i].Type)
		require.NotNil(t, contents[i].CatalogRef)
	}

	quiz := contents[4]
	assert.Equal(t, model.ContentQuiz, quiz.Type)
	assert.True(t, quiz.IsInteractive)
	assert.Equal(t, 3, quiz.MaxAttempts)
	assert.Equal(t, 4, quiz.Order)

	var questions []model.Question
	require.NoError(t, db.Where("content_id = ?", quiz.ID).Find(&questions).Error)
	require.Len(t, questions, 2)

	byKind := map[model.QuestionKind]model.Question{}
	for _, q := range questions {
		byKind[q.Kind] = q
	}

	mc := byKind[model.MultipleChoice]
	assert.Equal(t, 2, mc.Points)
	var optCount int64
	require.NoError(t, db.Model(&model.Option{}).Where("question_id = ?", mc.ID).Count(&optCount).Error)
	assert.EqualValues(t, 2, optCount)

	fb := byKind[model.FillBlank]
	assert.Equal(t, 1, fb.Points) // default
	payload, err := fb.DecodePayload()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"たべる", "食べる"}, payload.AcceptedAnswers)

	// both generation calls carry the catalog words as keywords
	require.Len(t, gen.requests, 2)
	assert.Equal(t, GenerateLessonText, gen.requests[0].Kind)
	assert.Equal(t, GenerateQuiz, gen.requests[1].Kind)
	assert.Equal(t, 5, gen.requests[1].QuestionCount)
	for _, req := range gen.requests {
		assert.Equal(t, user.TargetLevel, req.JLPTLevel)
		require.Len(t, req.Keywords, 3)
		assert.Equal(t, vocab[0].Word, req.Keywords[0])
	}
}

func TestGenerateLessonReusesCategory(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	seedVocabulary(t, db, user.TargetLevel, 1)

	gen := &fakeGenerator{
		textResult: &GenerationResult{Text: "short explanation"},
		quizResult: validQuizResult(),
	}
	svc := newPersonalizedService(db, gen)

	_, err := svc.GenerateLesson(context.Background(), user.ID, model.LessonReview)
	require.NoError(t, err)
	_, err = svc.GenerateLesson(context.Background(), user.ID, model.LessonReview)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Category{}).Where("name = ?", "Personalized").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerateLessonFallbackTitle(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	seedVocabulary(t, db, user.TargetLevel, 1)

	gen := &fakeGenerator{
		textResult: &GenerationResult{Text: "untitled body"},
		quizResult: validQuizResult(),
	}
	svc := newPersonalizedService(db, gen)

	lesson, err := svc.GenerateLesson(context.Background(), user.ID, model.LessonRemedial)
	require.NoError(t, err)
	assert.Equal(t, "Remedial focus: general review", lesson.Title)
}

func TestGenerateLessonUpstreamFailureWritesNothing(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	seedVocabulary(t, db, user.TargetLevel, 2)

	gen := &fakeGenerator{
		textResult: &GenerationResult{Title: "T", Text: "body"},
		quizErr:    fmt.Errorf("%w: upstream status 503", util.ErrUpstreamGeneration),
	}
	svc := newPersonalizedService(db, gen)

	_, err := svc.GenerateLesson(context.Background(), user.ID, model.LessonReview)
	require.ErrorIs(t, err, util.ErrUpstreamGeneration)

	var lessons, contents, categories int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	require.NoError(t, db.Model(&model.LessonContent{}).Count(&contents).Error)
	require.NoError(t, db.Model(&model.Category{}).Count(&categories).Error)
	assert.Zero(t, lessons)
	assert.Zero(t, contents)
	assert.Zero(t, categories)
}

// A structurally invalid generated question is an upstream fault: the error
// keeps the generation class and nothing is written.
func TestMalformedGeneratedQuizAbortsAssembly(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	seedVocabulary(t, db, user.TargetLevel, 2)

	bad := validQuizResult()
	bad.Questions[0].Options = bad.Questions[0].Options[:1] // one option only

	gen := &fakeGenerator{
		textResult: &GenerationResult{Title: "T", Text: "body"},
		quizResult: bad,
	}
	svc := newPersonalizedService(db, gen)

	_, err := svc.GenerateLesson(context.Background(), user.ID, model.LessonReview)
	require.ErrorIs(t, err, util.ErrUpstreamGeneration)
	require.NotErrorIs(t, err, util.ErrPersistence)

	var lessons, contents, categories, questions int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	require.NoError(t, db.Model(&model.LessonContent{}).Count(&contents).Error)
	require.NoError(t, db.Model(&model.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&model.Question{}).Count(&questions).Error)
	assert.Zero(t, lessons)
	assert.Zero(t, contents)
	assert.Zero(t, categories)
	assert.Zero(t, questions)
}

// Persist is the backstop: a bad question reaching it still rolls the whole
// transaction back and its error keeps the generation class.
func TestPersistRollsBackOnMalformedQuestion(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	svc := newPersonalizedService(db, &fakeGenerator{})

	blueprint := &model.LessonBlueprint{
		Title:           "T",
		CategoryName:    "Personalized",
		Type:            model.LessonReview,
		JLPTLevel:       5,
		DifficultyLevel: 3,
		Items: []model.BlueprintItem{
			{Type: model.ContentText, Title: "T", Body: "body"},
			{
				Type:          model.ContentQuiz,
				Title:         "Practice",
				IsInteractive: true,
				MaxAttempts:   3,
				Questions: []model.GeneratedQuestion{
					{Kind: model.MultipleChoice, Prompt: "p", Options: []model.GeneratedOption{{Text: "a", IsCorrect: true}}},
				},
			},
		},
	}

	_, err := svc.Persist(context.Background(), blueprint, user.ID)
	require.ErrorIs(t, err, util.ErrUpstreamGeneration)
	require.NotErrorIs(t, err, util.ErrPersistence)

	var lessons, contents, categories, questions int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	require.NoError(t, db.Model(&model.LessonContent{}).Count(&contents).Error)
	require.NoError(t, db.Model(&model.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&model.Question{}).Count(&questions).Error)
	assert.Zero(t, lessons)
	assert.Zero(t, contents)
	assert.Zero(t, categories)
	assert.Zero(t, questions)
}

func TestBuildQuestionRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		q    model.GeneratedQuestion
	}{
		{
			"multiple choice with one option",
			model.GeneratedQuestion{Kind: model.MultipleChoice, Prompt: "p", Options: []model.GeneratedOption{{Text: "a", IsCorrect: true}}},
		},
		{
			"multiple choice with two correct options",
			model.GeneratedQuestion{Kind: model.MultipleChoice, Prompt: "p", Options: []model.GeneratedOption{
				{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true},
			}},
		},
		{
			"true false with no correct option",
			model.GeneratedQuestion{Kind: model.TrueFalse, Prompt: "p", Options: []model.GeneratedOption{
				{Text: "True"}, {Text: "False"},
			}},
		},
		{
			"fill blank without accepted answers",
			model.GeneratedQuestion{Kind: model.FillBlank, Prompt: "p"},
		},
		{
			"matching with one pair",
			model.GeneratedQuestion{Kind: model.Matching, Prompt: "p", Pairs: []model.MatchingPair{{Prompt: "A", Answer: "1"}}},
		},
		{
			"unknown kind",
			model.GeneratedQuestion{Kind: model.QuestionKind("essay"), Prompt: "p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildQuestion("content-id", tt.q)
			require.ErrorIs(t, err, util.ErrUpstreamGeneration)
		})
	}
}

func TestBuildQuestionDefaults(t *testing.T) {
	q := model.GeneratedQuestion{
		Kind:   model.MultipleChoice,
		Prompt: "p",
		Options: []model.GeneratedOption{
			{Text: "a", IsCorrect: true},
			{Text: "b"},
		},
		DifficultyLevel: 9, // out of range
	}
	question, options, err := buildQuestion("content-id", q)
	require.NoError(t, err)
	assert.Equal(t, 3, question.DifficultyLevel)
	assert.Equal(t, 1, question.Points)
	require.Len(t, options, 2)
	assert.Equal(t, 0, options[0].Order)
	assert.Equal(t, 1, options[1].Order)
}

func TestPickFocus(t *testing.T) {
	svc := &PersonalizedContentService{}

	t.Run("remedial prefers content type areas", func(t *testing.T) {
		plan := &model.RemediationPlan{PriorityAreas: []model.PriorityArea{
			{Type: model.AreaTopic, Area: "Particles"},
			{Type: model.AreaContentType, Area: "kanji"},
		}}
		focus, contentType := svc.pickFocus(plan, model.LessonRemedial)
		assert.Equal(t, "kanji", focus)
		assert.Equal(t, model.ContentKanji, contentType)
	})

	t.Run("remedial falls back to top area", func(t *testing.T) {
		plan := &model.RemediationPlan{PriorityAreas: []model.PriorityArea{
			{Type: model.AreaTopic, Area: "Particles"},
		}}
		focus, contentType := svc.pickFocus(plan, model.LessonRemedial)
		assert.Equal(t, "Particles", focus)
		assert.Equal(t, model.ContentVocabulary, contentType)
	})

	t.Run("advancement builds on strongest area", func(t *testing.T) {
		plan := &model.RemediationPlan{StrongAreas: []string{"grammar", "vocabulary"}}
		focus, contentType := svc.pickFocus(plan, model.LessonAdvancement)
		assert.Equal(t, "grammar", focus)
		assert.Equal(t, model.ContentGrammar, contentType)
	})

	t.Run("empty plan means general review", func(t *testing.T) {
		focus, contentType := svc.pickFocus(&model.RemediationPlan{}, model.LessonReview)
		assert.Equal(t, "general review", focus)
		assert.Equal(t, model.ContentVocabulary, contentType)
	})
}

func TestTargetDifficulty(t *testing.T) {
	svc := &PersonalizedContentService{}

	plan := func(rec string) *model.RemediationPlan {
		if rec == "" {
			return &model.RemediationPlan{}
		}
		return &model.RemediationPlan{DifficultyAdjustments: []model.DifficultyAdjustment{
			{Scope: model.AdjustGlobal, Recommendation: rec},
			{Scope: model.AdjustContentType, Area: "kanji", Recommendation: "increase"}, // ignored
		}}
	}

	assert.Equal(t, 3, svc.targetDifficulty(plan(""), model.LessonReview))
	assert.Equal(t, 2, svc.targetDifficulty(plan("decrease"), model.LessonRemedial))
	assert.Equal(t, 4, svc.targetDifficulty(plan("increase"), model.LessonReview))
	assert.Equal(t, 4, svc.targetDifficulty(plan(""), model.LessonAdvancement))
	assert.Equal(t, 5, svc.targetDifficulty(plan("increase"), model.LessonAdvancement))
}

func TestCatalogItemsOnlyApprovedRows(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&model.Kanji{Character: "食", Meaning: "eat", JLPTLevel: 5, Status: model.CatalogApproved}).Error)
	require.NoError(t, db.Create(&model.Kanji{Character: "飲", Meaning: "drink", JLPTLevel: 5, Status: model.CatalogPending}).Error)
	require.NoError(t, db.Create(&model.Kanji{Character: "曖", Meaning: "dim", JLPTLevel: 1, Status: model.CatalogApproved}).Error)

	svc := newPersonalizedService(db, &fakeGenerator{})
	items, keywords, err := svc.catalogItems(model.ContentKanji, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "食", items[0].Title)
	assert.Equal(t, model.ContentKanji, items[0].Type)
	require.NotNil(t, items[0].CatalogRef)
	assert.Equal(t, []string{"食"}, keywords)
}
