package service

import (
	"context"
	"testing"

	"nihongo_edu_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPerformanceService(repos *testRepos) *PerformanceService {
	return NewPerformanceService(repos.answer, repos.progress, repos.lesson, testLearningConfig(), noCache())
}

func seedAnswer(t *testing.T, db *gorm.DB, userID uint, questionID string, correct bool, attempts int) {
	t.Helper()
	require.NoError(t, db.Create(&model.Answer{
		UserID:     userID,
		QuestionID: questionID,
		IsCorrect:  correct,
		Attempts:   attempts,
	}).Error)
}

func seedProgress(t *testing.T, db *gorm.DB, userID uint, lessonID string, pct int, completed bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.LessonProgress{
		UserID:             userID,
		LessonID:           lessonID,
		ProgressPercentage: pct,
		IsCompleted:        completed,
	}).Error)
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)

	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Empty(t, report.ContentTypeWeaknesses)
	assert.Empty(t, report.DifficultyWeaknesses)
	assert.Empty(t, report.TopicWeaknesses)
	assert.Equal(t, 0, report.QuizWeaknesses.TotalAnswers)
	assert.Equal(t, 0.0, report.QuizWeaknesses.Accuracy)
	assert.False(t, report.TimePatterns.IsActiveLearner)
	assert.Equal(t, 0.0, report.OverallScore)
}

func TestAnalyzeOverallScoreWorkedExample(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)
	lessonA, _, questions := seedQuizLesson(t, db, user.ID, 0)
	lessonB, _, _ := seedQuizLesson(t, db, user.ID, 0)

	// quiz component: 2 of 3 correct = 66.67% of 40 = 26.67
	seedAnswer(t, db, user.ID, questions[model.MultipleChoice].ID, true, 1)
	seedAnswer(t, db, user.ID, questions[model.TrueFalse].ID, true, 1)
	seedAnswer(t, db, user.ID, questions[model.FillBlank].ID, false, 2)

	// completion component: mean of 100 and 60 = 80% of 40 = 32
	seedProgress(t, db, user.ID, lessonA.ID, 100, true)
	seedProgress(t, db, user.ID, lessonB.ID, 60, false)

	// progress rows were just written, so the user counts as active: +20
	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	assert.InDelta(t, 78.67, report.OverallScore, 0.001)
	assert.True(t, report.TimePatterns.IsActiveLearner)
	assert.Equal(t, 2, report.TimePatterns.LessonsLast7Days)
	assert.Equal(t, 3, report.QuizWeaknesses.TotalAnswers)
	assert.Equal(t, 2, report.QuizWeaknesses.CorrectAnswers)
	assert.InDelta(t, 66.67, report.QuizWeaknesses.Accuracy, 0.001)
}

func TestContentTypeWeaknessFlags(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID, 0)

	// an interactive kanji drill alongside the quiz
	kanjiDrill := &model.LessonContent{
		LessonID:      lesson.ID,
		Type:          model.ContentKanji,
		Title:         "Kanji drill",
		IsInteractive: true,
		Order:         2,
	}
	require.NoError(t, db.Create(kanjiDrill).Error)
	drill := &model.Question{ContentID: kanjiDrill.ID, Kind: model.MultipleChoice, Prompt: "Reading of 水?"}
	require.NoError(t, db.Create(drill).Error)

	seedAnswer(t, db, user.ID, questions[model.MultipleChoice].ID, false, 1)
	seedAnswer(t, db, user.ID, questions[model.TrueFalse].ID, false, 1)
	seedAnswer(t, db, user.ID, questions[model.FillBlank].ID, true, 1)
	seedAnswer(t, db, user.ID, drill.ID, true, 1)

	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	quizStat, ok := report.ContentTypeWeaknesses[string(model.ContentQuiz)]
	require.True(t, ok)
	assert.InDelta(t, 33.33, quizStat.Accuracy, 0.001)
	assert.True(t, quizStat.IsWeakness)

	kanjiStat, ok := report.ContentTypeWeaknesses[string(model.ContentKanji)]
	require.True(t, ok)
	assert.Equal(t, 100.0, kanjiStat.Accuracy)
	assert.False(t, kanjiStat.IsWeakness)
}

func TestHighAttemptsFlagWeaknessDespiteAccuracy(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)
	_, _, questions := seedQuizLesson(t, db, user.ID, 0)

	// everything eventually correct, but at 3 attempts on average
	seedAnswer(t, db, user.ID, questions[model.MultipleChoice].ID, true, 3)
	seedAnswer(t, db, user.ID, questions[model.TrueFalse].ID, true, 3)

	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	stat := report.ContentTypeWeaknesses[string(model.ContentQuiz)]
	assert.Equal(t, 100.0, stat.Accuracy)
	assert.Equal(t, 3.0, stat.AverageAttempts)
	assert.True(t, stat.IsWeakness, "high attempt counts are a weakness even at full accuracy")
}

func TestTopicWeaknessFromCompletionAndAccuracy(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)

	lessonDone, _, doneQuestions := seedQuizLesson(t, db, user.ID, 0)
	lessonStalled, _, _ := seedQuizLesson(t, db, user.ID, 0)

	seedProgress(t, db, user.ID, lessonDone.ID, 100, true)
	seedProgress(t, db, user.ID, lessonStalled.ID, 40, false)
	seedAnswer(t, db, user.ID, doneQuestions[model.MultipleChoice].ID, true, 1)

	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	byID := map[string]model.TopicStat{}
	for _, topic := range report.TopicWeaknesses {
		byID[topic.LessonID] = topic
	}

	done := byID[lessonDone.ID]
	assert.False(t, done.IsWeakness)
	assert.Equal(t, lessonDone.Title, done.LessonTitle)
	assert.Equal(t, 100.0, done.CompletionRate)

	stalled := byID[lessonStalled.ID]
	assert.True(t, stalled.IsWeakness, "low completion flags the topic even without answers")
	assert.Equal(t, 40.0, stalled.CompletionRate)
}

func TestDifficultyWeaknesses(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)
	_, quiz, _ := seedQuizLesson(t, db, user.ID, 0)

	hard := &model.Question{ContentID: quiz.ID, Kind: model.MultipleChoice, Prompt: "hard", DifficultyLevel: 5}
	require.NoError(t, db.Create(hard).Error)
	seedAnswer(t, db, user.ID, hard.ID, false, 2)

	easy := &model.Question{ContentID: quiz.ID, Kind: model.MultipleChoice, Prompt: "easy", DifficultyLevel: 1}
	require.NoError(t, db.Create(easy).Error)
	seedAnswer(t, db, user.ID, easy.ID, true, 1)

	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	assert.True(t, report.DifficultyWeaknesses[5].IsWeakness)
	assert.False(t, report.DifficultyWeaknesses[1].IsWeakness)
}

func TestQuizStatsByKind(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newPerformanceService(repos)
	user := seedUser(t, db)
	_, _, questions := seedQuizLesson(t, db, user.ID, 0)

	seedAnswer(t, db, user.ID, questions[model.MultipleChoice].ID, true, 1)
	seedAnswer(t, db, user.ID, questions[model.FillBlank].ID, false, 1)
	seedAnswer(t, db, user.ID, questions[model.Matching].ID, false, 2)

	report, err := svc.Analyze(context.Background(), user.ID)
	require.NoError(t, err)

	byKind := report.QuizWeaknesses.AccuracyByKind
	assert.Equal(t, 100.0, byKind[string(model.MultipleChoice)])
	assert.Equal(t, 0.0, byKind[string(model.FillBlank)])
	assert.Equal(t, 0.0, byKind[string(model.Matching)])
}
