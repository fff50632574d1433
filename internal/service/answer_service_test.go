package service

import (
	"context"
	"testing"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnswerService(repos *testRepos) *AnswerService {
	return NewAnswerService(repos.question, repos.answer, repos.lesson, noCache())
}

func TestSubmitMultipleChoice(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 0)
	q := questions[model.MultipleChoice]

	t.Run("correct option", func(t *testing.T) {
		res, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{
			SelectedOptionID: optionID(t, db, q.ID, true),
		})
		require.NoError(t, err)
		assert.True(t, res.IsCorrect)
		assert.Equal(t, -1, res.AttemptsRemaining)
		assert.Equal(t, "Right, wa marks the topic.", res.Feedback)
		assert.Equal(t, q.Explanation, res.Explanation)
	})

	t.Run("wrong option keeps explanation hidden", func(t *testing.T) {
		res, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{
			SelectedOptionID: optionID(t, db, q.ID, false),
		})
		require.NoError(t, err)
		assert.False(t, res.IsCorrect)
		assert.Equal(t, "ga marks the subject.", res.Feedback)
		assert.Empty(t, res.Explanation)
	})

	t.Run("foreign option id rejected", func(t *testing.T) {
		bogus := uint(999999)
		_, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{
			SelectedOptionID: &bogus,
		})
		require.ErrorIs(t, err, util.ErrValidation)
	})
}

func TestSubmitFillBlank(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 0)
	q := questions[model.FillBlank]

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact match", "は", true},
		{"romaji variant", "wa", true},
		{"case insensitive", "WA", true},
		{"surrounding whitespace", "  wa  ", true},
		{"wrong answer", "ga", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.IsCorrect)
		})
	}
}

func TestSubmitMatchingAllOrNothing(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 0)
	q := questions[model.Matching]

	tests := []struct {
		name  string
		pairs []model.MatchingPair
		want  bool
	}{
		{
			"all correct",
			[]model.MatchingPair{{Prompt: "A", Answer: "1"}, {Prompt: "B", Answer: "2"}, {Prompt: "C", Answer: "3"}},
			true,
		},
		{
			"order does not matter",
			[]model.MatchingPair{{Prompt: "C", Answer: "3"}, {Prompt: "A", Answer: "1"}, {Prompt: "B", Answer: "2"}},
			true,
		},
		{
			"one wrong pair fails everything",
			[]model.MatchingPair{{Prompt: "A", Answer: "1"}, {Prompt: "B", Answer: "2"}, {Prompt: "C", Answer: "4"}},
			false,
		},
		{
			"missing pair fails",
			[]model.MatchingPair{{Prompt: "A", Answer: "1"}, {Prompt: "B", Answer: "2"}},
			false,
		},
		{
			"duplicate prompt fails",
			[]model.MatchingPair{{Prompt: "A", Answer: "1"}, {Prompt: "A", Answer: "1"}, {Prompt: "C", Answer: "3"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{Pairs: tt.pairs})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.IsCorrect)
		})
	}
}

func TestSubmitShapeValidation(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 0)

	tests := []struct {
		name string
		kind model.QuestionKind
		sub  AnswerSubmission
	}{
		{"choice without option", model.MultipleChoice, AnswerSubmission{Text: "wa"}},
		{"fill_blank without text", model.FillBlank, AnswerSubmission{}},
		{"fill_blank with blank text", model.FillBlank, AnswerSubmission{Text: "   "}},
		{"matching without pairs", model.Matching, AnswerSubmission{Text: "wa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := questions[tt.kind]
			_, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, tt.sub)
			require.ErrorIs(t, err, util.ErrValidation)

			// a rejected shape never creates an answer row
			_, err = repos.answer.FindByUserAndQuestion(user.ID, q.ID)
			require.Error(t, err)
		})
	}
}

func TestSubmitAttemptCap(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 3)
	q := questions[model.MultipleChoice]
	wrong := optionID(t, db, q.ID, false)

	for i := 1; i <= 3; i++ {
		res, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{SelectedOptionID: wrong})
		require.NoError(t, err)
		assert.Equal(t, 3-i, res.AttemptsRemaining)
	}

	// third wrong attempt reveals the explanation
	answer, err := repos.answer.FindByUserAndQuestion(user.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, answer.Attempts)

	// fourth submission is refused and does not touch the row
	_, err = svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{SelectedOptionID: wrong})
	require.ErrorIs(t, err, util.ErrAttemptsExceeded)

	answer, err = repos.answer.FindByUserAndQuestion(user.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, answer.Attempts)
}

func TestSubmitExplanationOnLastAttempt(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 2)
	q := questions[model.MultipleChoice]
	wrong := optionID(t, db, q.ID, false)

	res, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{SelectedOptionID: wrong})
	require.NoError(t, err)
	assert.Empty(t, res.Explanation)

	res, err = svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{SelectedOptionID: wrong})
	require.NoError(t, err)
	assert.Equal(t, 0, res.AttemptsRemaining)
	assert.Equal(t, q.Explanation, res.Explanation)
}

func TestSubmitUpsertOverwrites(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	lesson, _, questions := seedQuizLesson(t, db, user.ID+1, 0)
	q := questions[model.MultipleChoice]

	_, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{SelectedOptionID: optionID(t, db, q.ID, false)})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{SelectedOptionID: optionID(t, db, q.ID, true)})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Answer{}).Where("user_id = ? AND question_id = ?", user.ID, q.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	answer, err := repos.answer.FindByUserAndQuestion(user.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, answer.Attempts)
	assert.True(t, answer.IsCorrect)
}

func TestSubmitAccessChecks(t *testing.T) {
	db := openTestDB(t)
	repos := newTestRepos(db)
	svc := newAnswerService(repos)
	user := seedUser(t, db)
	creator := seedUser(t, db)

	lesson, _, questions := seedQuizLesson(t, db, creator.ID, 0)
	q := questions[model.MultipleChoice]

	t.Run("unknown question", func(t *testing.T) {
		_, err := svc.Submit(context.Background(), user.ID, lesson.ID, "missing", AnswerSubmission{})
		require.ErrorIs(t, err, util.ErrNotFound)
	})

	t.Run("question from another lesson", func(t *testing.T) {
		other, _, _ := seedQuizLesson(t, db, creator.ID, 0)
		_, err := svc.Submit(context.Background(), user.ID, other.ID, q.ID, AnswerSubmission{
			SelectedOptionID: optionID(t, db, q.ID, true),
		})
		require.ErrorIs(t, err, util.ErrNotFound)
	})

	t.Run("unpublished lesson blocked for students", func(t *testing.T) {
		require.NoError(t, db.Model(&model.Lesson{}).Where("id = ?", lesson.ID).Update("is_published", false).Error)
		_, err := svc.Submit(context.Background(), user.ID, lesson.ID, q.ID, AnswerSubmission{
			SelectedOptionID: optionID(t, db, q.ID, true),
		})
		require.ErrorIs(t, err, util.ErrAccessDenied)
	})

	t.Run("creator can use own unpublished lesson", func(t *testing.T) {
		_, err := svc.Submit(context.Background(), creator.ID, lesson.ID, q.ID, AnswerSubmission{
			SelectedOptionID: optionID(t, db, q.ID, true),
		})
		require.NoError(t, err)
	})
}
