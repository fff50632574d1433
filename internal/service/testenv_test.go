package service

import (
	"fmt"
	"testing"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB returns an isolated in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Lesson{},
		&model.LessonContent{},
		&model.Question{},
		&model.Option{},
		&model.Answer{},
		&model.LessonProgress{},
		&model.Kanji{},
		&model.Vocabulary{},
		&model.GrammarPoint{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type testRepos struct {
	user     *repository.UserRepository
	lesson   *repository.LessonRepository
	question *repository.QuestionRepository
	answer   *repository.AnswerRepository
	progress *repository.ProgressRepository
	catalog  *repository.CatalogRepository
}

func newTestRepos(db *gorm.DB) *testRepos {
	return &testRepos{
		user:     repository.NewUserRepository(db),
		lesson:   repository.NewLessonRepository(db),
		question: repository.NewQuestionRepository(db),
		answer:   repository.NewAnswerRepository(db),
		progress: repository.NewProgressRepository(db),
		catalog:  repository.NewCatalogRepository(db),
	}
}

func testLearningConfig() config.LearningConfig {
	return config.LearningConfig{
		AccuracyWeakThreshold:   70,
		AttemptsWeakThreshold:   2,
		CompletionWeakThreshold: 80,
		SevereAccuracy:          50,
		SevereCompletion:        50,
		StrongAccuracy:          80,
		QuizWeight:              40,
		CompletionWeight:        40,
		ActiveScore:             20,
		RecentScore:             10,
		ActiveWindowDays:        7,
		RecentWindowDays:        30,
		MaxPriorityAreas:        5,
		IncreaseDifficultyAbove: 85,
		DecreaseDifficultyBelow: 40,
		TypeIncreaseAbove:       90,
		TypeDecreaseBelow:       60,
	}
}

func noCache() *ReportCache {
	return NewReportCache(nil, 0)
}

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{
		Name:        "Hana",
		Email:       uuid.New().String() + "@example.com",
		Password:    "hashed",
		Role:        model.Student,
		TargetLevel: 5,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedQuizLesson creates a published lesson with one text item and one quiz
// item holding a question of every kind. maxAttempts applies to the quiz item.
func seedQuizLesson(t *testing.T, db *gorm.DB, creatorID uint, maxAttempts int) (*model.Lesson, *model.LessonContent, map[model.QuestionKind]*model.Question) {
	t.Helper()

	lesson := &model.Lesson{
		Title:       "Particles wa and ga",
		JLPTLevel:   5,
		Type:        model.LessonRegular,
		IsPublished: true,
		CreatorID:   creatorID,
	}
	require.NoError(t, db.Create(lesson).Error)

	text := &model.LessonContent{
		LessonID: lesson.ID,
		Type:     model.ContentText,
		Title:    "Explanation",
		Body:     "wa marks the topic, ga marks the subject.",
		Order:    0,
	}
	require.NoError(t, db.Create(text).Error)

	quiz := &model.LessonContent{
		LessonID:      lesson.ID,
		Type:          model.ContentQuiz,
		Title:         "Practice",
		IsInteractive: true,
		MaxAttempts:   maxAttempts,
		Order:         1,
	}
	require.NoError(t, db.Create(quiz).Error)

	questions := map[model.QuestionKind]*model.Question{}

	mc := &model.Question{
		ContentID:       quiz.ID,
		Kind:            model.MultipleChoice,
		Prompt:          "Which particle marks the topic?",
		DifficultyLevel: 2,
		Explanation:     "wa sets the topic of the sentence.",
	}
	require.NoError(t, db.Create(mc).Error)
	require.NoError(t, db.Create(&model.Option{QuestionID: mc.ID, Text: "wa", IsCorrect: true, Feedback: "Right, wa marks the topic.", Order: 0}).Error)
	require.NoError(t, db.Create(&model.Option{QuestionID: mc.ID, Text: "ga", IsCorrect: false, Feedback: "ga marks the subject.", Order: 1}).Error)
	questions[model.MultipleChoice] = mc

	tf := &model.Question{
		ContentID: quiz.ID,
		Kind:      model.TrueFalse,
		Prompt:    "ga can mark the topic.",
	}
	require.NoError(t, db.Create(tf).Error)
	require.NoError(t, db.Create(&model.Option{QuestionID: tf.ID, Text: "True", IsCorrect: false, Order: 0}).Error)
	require.NoError(t, db.Create(&model.Option{QuestionID: tf.ID, Text: "False", IsCorrect: true, Order: 1}).Error)
	questions[model.TrueFalse] = tf

	fbPayload, err := (&model.QuestionPayload{
		Kind:            model.FillBlank,
		AcceptedAnswers: []string{"は", "wa"},
	}).Encode()
	require.NoError(t, err)
	fb := &model.Question{
		ContentID: quiz.ID,
		Kind:      model.FillBlank,
		Prompt:    "わたし＿がくせいです。",
		Payload:   fbPayload,
	}
	require.NoError(t, db.Create(fb).Error)
	questions[model.FillBlank] = fb

	matchPayload, err := (&model.QuestionPayload{
		Kind: model.Matching,
		Pairs: []model.MatchingPair{
			{Prompt: "A", Answer: "1"},
			{Prompt: "B", Answer: "2"},
			{Prompt: "C", Answer: "3"},
		},
	}).Encode()
	require.NoError(t, err)
	match := &model.Question{
		ContentID: quiz.ID,
		Kind:      model.Matching,
		Prompt:    "Match the particles to their roles.",
		Payload:   matchPayload,
	}
	require.NoError(t, db.Create(match).Error)
	questions[model.Matching] = match

	return lesson, quiz, questions
}

func optionID(t *testing.T, db *gorm.DB, questionID string, correct bool) *uint {
	t.Helper()
	var opt model.Option
	require.NoError(t, db.Where("question_id = ? AND is_correct = ?", questionID, correct).First(&opt).Error)
	return &opt.ID
}
