package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/internal/util"
	"nihongo_edu_backend/pkg/monitoring"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnswerService scores one quiz submission against its question definition
// and enforces the content-level attempt cap. Progress recomputation is the
// caller's responsibility, not a side effect here.
type AnswerService struct {
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRepository
	LessonRepo   *repository.LessonRepository
	Cache        *ReportCache
}

func NewAnswerService(
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRepository,
	lessonRepo *repository.LessonRepository,
	cache *ReportCache,
) *AnswerService {
	return &AnswerService{
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
		LessonRepo:   lessonRepo,
		Cache:        cache,
	}
}

// AnswerSubmission is the caller's payload; exactly the fields matching the
// question kind must be set.
type AnswerSubmission struct {
	SelectedOptionID *uint                `json:"selectedOptionId,omitempty"`
	Text             string               `json:"text,omitempty"`
	Pairs            []model.MatchingPair `json:"pairs,omitempty"`
}

type SubmitResult struct {
	IsCorrect         bool   `json:"isCorrect"`
	AttemptsRemaining int    `json:"attemptsRemaining"` // -1 when unlimited
	Feedback          string `json:"feedback,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
}

func (s *AnswerService) Submit(ctx context.Context, userID uint, lessonID, questionID string, sub AnswerSubmission) (*SubmitResult, error) {
	question, err := s.QuestionRepo.FindWithContent(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: question %s", util.ErrNotFound, questionID)
		}
		return nil, err
	}
	if question.Content == nil || question.Content.LessonID != lessonID {
		return nil, fmt.Errorf("%w: question %s does not belong to lesson %s", util.ErrNotFound, questionID, lessonID)
	}

	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %s", util.ErrNotFound, lessonID)
		}
		return nil, err
	}
	if !lesson.IsPublished && lesson.CreatorID != userID {
		return nil, fmt.Errorf("%w: lesson %s is not accessible", util.ErrAccessDenied, lessonID)
	}

	// Shape check happens before any mutation.
	if err := validateShape(question.Kind, sub); err != nil {
		return nil, err
	}

	correct, feedback, err := s.evaluate(question, sub)
	if err != nil {
		return nil, err
	}

	answer, err := s.AnswerRepo.FindByUserAndQuestion(userID, questionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		answer = &model.Answer{UserID: userID, QuestionID: questionID}
	}

	maxAttempts := question.Content.MaxAttempts
	if maxAttempts > 0 && answer.Attempts >= maxAttempts {
		return nil, fmt.Errorf("%w: question %s allows %d attempts", util.ErrAttemptsExceeded, questionID, maxAttempts)
	}

	// Upsert-with-increment: overwrite the previous submission in place.
	answer.Attempts++
	answer.SelectedOptionID = sub.SelectedOptionID
	answer.TextAnswer = sub.Text
	answer.SubmittedPairs = nil
	if len(sub.Pairs) > 0 {
		raw, err := json.Marshal(sub.Pairs)
		if err != nil {
			return nil, fmt.Errorf("%w: encode pairs: %v", util.ErrValidation, err)
		}
		answer.SubmittedPairs = datatypes.JSON(raw)
	}
	answer.IsCorrect = correct
	answer.AnsweredAt = time.Now()

	if err := s.AnswerRepo.Save(answer); err != nil {
		return nil, fmt.Errorf("%w: save answer: %v", util.ErrPersistence, err)
	}

	s.Cache.Invalidate(ctx, userID)

	result := "incorrect"
	if correct {
		result = "correct"
	}
	monitoring.AnswerSubmissions.WithLabelValues(string(question.Kind), result).Inc()

	remaining := -1
	if maxAttempts > 0 {
		remaining = maxAttempts - answer.Attempts
	}

	res := &SubmitResult{
		IsCorrect:         correct,
		AttemptsRemaining: remaining,
		Feedback:          feedback,
	}
	// The explanation is only revealed once the question is settled.
	if correct || remaining == 0 {
		res.Explanation = question.Explanation
	}
	return res, nil
}

func validateShape(kind model.QuestionKind, sub AnswerSubmission) error {
	switch kind {
	case model.MultipleChoice, model.TrueFalse:
		if sub.SelectedOptionID == nil {
			return fmt.Errorf("%w: %s submission requires selectedOptionId", util.ErrValidation, kind)
		}
	case model.FillBlank:
		if strings.TrimSpace(sub.Text) == "" {
			return fmt.Errorf("%w: fill_blank submission requires text", util.ErrValidation)
		}
	case model.Matching:
		if len(sub.Pairs) == 0 {
			return fmt.Errorf("%w: matching submission requires pairs", util.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown question kind %q", util.ErrValidation, kind)
	}
	return nil
}

func (s *AnswerService) evaluate(question *model.Question, sub AnswerSubmission) (bool, string, error) {
	switch question.Kind {
	case model.MultipleChoice, model.TrueFalse:
		return s.evaluateChoice(question, *sub.SelectedOptionID)
	case model.FillBlank:
		return evaluateFillBlank(question, sub.Text)
	case model.Matching:
		return evaluateMatching(question, sub.Pairs)
	}
	return false, "", fmt.Errorf("%w: unknown question kind %q", util.ErrValidation, question.Kind)
}

func (s *AnswerService) evaluateChoice(question *model.Question, optionID uint) (bool, string, error) {
	for _, opt := range question.Options {
		if opt.ID == optionID {
			return opt.IsCorrect, opt.Feedback, nil
		}
	}
	return false, "", fmt.Errorf("%w: option %d does not belong to question %s", util.ErrValidation, optionID, question.ID)
}

func evaluateFillBlank(question *model.Question, text string) (bool, string, error) {
	payload, err := question.DecodePayload()
	if err != nil {
		return false, "", err
	}
	submitted := strings.TrimSpace(text)
	for _, accepted := range payload.AcceptedAnswers {
		if strings.EqualFold(submitted, strings.TrimSpace(accepted)) {
			return true, "", nil
		}
	}
	return false, "", nil
}

// evaluateMatching is all-or-nothing: every stored pair must be answered and
// answered correctly; one wrong pair fails the whole submission.
func evaluateMatching(question *model.Question, pairs []model.MatchingPair) (bool, string, error) {
	payload, err := question.DecodePayload()
	if err != nil {
		return false, "", err
	}
	if len(payload.Pairs) == 0 {
		return false, "", fmt.Errorf("%w: question %s has no stored pairs", util.ErrValidation, question.ID)
	}
	if len(pairs) != len(payload.Pairs) {
		return false, "", nil
	}

	want := make(map[string]string, len(payload.Pairs))
	for _, p := range payload.Pairs {
		want[strings.TrimSpace(p.Prompt)] = strings.TrimSpace(p.Answer)
	}
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		prompt := strings.TrimSpace(p.Prompt)
		if seen[prompt] {
			return false, "", nil
		}
		seen[prompt] = true
		answer, ok := want[prompt]
		if !ok || !strings.EqualFold(strings.TrimSpace(p.Answer), answer) {
			return false, "", nil
		}
	}
	return true, "", nil
}
