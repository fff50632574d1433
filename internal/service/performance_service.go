package service

import (
	"context"
	"math"
	"time"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/pkg/logger"

	"go.uber.org/zap"
)

// PerformanceService derives a multi-dimensional weakness report from a
// user's stored answer and progress history. It is a pure read over that
// history; the only side channel is the redis report cache.
type PerformanceService struct {
	AnswerRepo   *repository.AnswerRepository
	ProgressRepo *repository.ProgressRepository
	LessonRepo   *repository.LessonRepository
	Cfg          config.LearningConfig
	Cache        *ReportCache
}

func NewPerformanceService(
	answerRepo *repository.AnswerRepository,
	progressRepo *repository.ProgressRepository,
	lessonRepo *repository.LessonRepository,
	cfg config.LearningConfig,
	cache *ReportCache,
) *PerformanceService {
	return &PerformanceService{
		AnswerRepo:   answerRepo,
		ProgressRepo: progressRepo,
		LessonRepo:   lessonRepo,
		Cfg:          cfg,
		Cache:        cache,
	}
}

func (s *PerformanceService) Analyze(ctx context.Context, userID uint) (*model.WeaknessReport, error) {
	if cached := s.Cache.Get(ctx, userID); cached != nil {
		return cached, nil
	}

	answers, err := s.AnswerRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	progressRows, err := s.ProgressRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	report := &model.WeaknessReport{
		ContentTypeWeaknesses: s.contentTypeWeaknesses(answers),
		DifficultyWeaknesses:  s.difficultyWeaknesses(answers),
		QuizWeaknesses:        s.quizStats(answers),
		TimePatterns:          s.timePatterns(progressRows),
	}

	topics, err := s.topicWeaknesses(answers, progressRows)
	if err != nil {
		return nil, err
	}
	report.TopicWeaknesses = topics

	report.OverallScore = s.overallScore(answers, progressRows, report.TimePatterns)

	s.Cache.Set(ctx, userID, report)
	logger.Log.Debug("weakness report computed",
		zap.Uint("user", userID),
		zap.Int("answers", len(answers)),
		zap.Float64("overall", report.OverallScore))
	return report, nil
}

type groupAccumulator struct {
	correct  int
	total    int
	attempts int
}

func (g *groupAccumulator) add(a model.Answer) {
	g.total++
	g.attempts += a.Attempts
	if a.IsCorrect {
		g.correct++
	}
}

func (g *groupAccumulator) accuracy() float64 {
	if g.total == 0 {
		return 0
	}
	return float64(g.correct) / float64(g.total) * 100
}

func (g *groupAccumulator) avgAttempts() float64 {
	if g.total == 0 {
		return 0
	}
	return float64(g.attempts) / float64(g.total)
}

// contentTypeWeaknesses groups answers by the content type of the owning
// content item; a group is weak when accuracy is below the threshold or the
// average attempt count is above it.
func (s *PerformanceService) contentTypeWeaknesses(answers []model.Answer) map[string]model.DimensionStat {
	groups := map[string]*groupAccumulator{}
	for _, a := range answers {
		if a.Question == nil || a.Question.Content == nil {
			continue
		}
		key := string(a.Question.Content.Type)
		if groups[key] == nil {
			groups[key] = &groupAccumulator{}
		}
		groups[key].add(a)
	}

	out := make(map[string]model.DimensionStat, len(groups))
	for key, g := range groups {
		acc := g.accuracy()
		avg := g.avgAttempts()
		out[key] = model.DimensionStat{
			Accuracy:        round2(acc),
			CorrectAnswers:  g.correct,
			TotalAnswers:    g.total,
			AverageAttempts: round2(avg),
			IsWeakness:      acc < s.Cfg.AccuracyWeakThreshold || avg > s.Cfg.AttemptsWeakThreshold,
		}
	}
	return out
}

func (s *PerformanceService) difficultyWeaknesses(answers []model.Answer) map[int]model.DimensionStat {
	groups := map[int]*groupAccumulator{}
	for _, a := range answers {
		if a.Question == nil {
			continue
		}
		level := a.Question.DifficultyLevel
		if groups[level] == nil {
			groups[level] = &groupAccumulator{}
		}
		groups[level].add(a)
	}

	out := make(map[int]model.DimensionStat, len(groups))
	for level, g := range groups {
		acc := g.accuracy()
		out[level] = model.DimensionStat{
			Accuracy:        round2(acc),
			CorrectAnswers:  g.correct,
			TotalAnswers:    g.total,
			AverageAttempts: round2(g.avgAttempts()),
			IsWeakness:      acc < s.Cfg.AccuracyWeakThreshold,
		}
	}
	return out
}

// topicWeaknesses combines per-lesson completion with per-lesson quiz
// accuracy. A topic is weak when either signal falls below its threshold.
func (s *PerformanceService) topicWeaknesses(answers []model.Answer, progressRows []model.LessonProgress) ([]model.TopicStat, error) {
	byLesson := map[string]*groupAccumulator{}
	for _, a := range answers {
		if a.Question == nil || a.Question.Content == nil {
			continue
		}
		lessonID := a.Question.Content.LessonID
		if byLesson[lessonID] == nil {
			byLesson[lessonID] = &groupAccumulator{}
		}
		byLesson[lessonID].add(a)
	}

	completion := map[string]float64{}
	for _, p := range progressRows {
		completion[p.LessonID] = float64(p.ProgressPercentage)
	}

	ids := make([]string, 0, len(byLesson)+len(completion))
	seen := map[string]bool{}
	for id := range byLesson {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range completion {
		if !seen[id] {
			ids = append(ids, id)
		}
	}

	titles, err := s.LessonRepo.TitleMap(ids)
	if err != nil {
		return nil, err
	}

	stats := make([]model.TopicStat, 0, len(ids))
	for _, id := range ids {
		stat := model.TopicStat{
			LessonID:    id,
			LessonTitle: titles[id],
		}
		if rate, ok := completion[id]; ok {
			stat.CompletionRate = rate
		}
		if g, ok := byLesson[id]; ok {
			stat.QuizAccuracy = round2(g.accuracy())
			stat.TotalAnswers = g.total
		}
		weakCompletion := stat.CompletionRate < s.Cfg.CompletionWeakThreshold
		weakAccuracy := stat.TotalAnswers > 0 && stat.QuizAccuracy < s.Cfg.AccuracyWeakThreshold
		stat.IsWeakness = weakCompletion || weakAccuracy
		stats = append(stats, stat)
	}
	return stats, nil
}

func (s *PerformanceService) quizStats(answers []model.Answer) model.QuizStats {
	global := groupAccumulator{}
	byKind := map[string]*groupAccumulator{}
	for _, a := range answers {
		global.add(a)
		if a.Question == nil {
			continue
		}
		kind := string(a.Question.Kind)
		if byKind[kind] == nil {
			byKind[kind] = &groupAccumulator{}
		}
		byKind[kind].add(a)
	}

	accuracyByKind := make(map[string]float64, len(byKind))
	for kind, g := range byKind {
		accuracyByKind[kind] = round2(g.accuracy())
	}

	return model.QuizStats{
		Accuracy:        round2(global.accuracy()),
		TotalAnswers:    global.total,
		CorrectAnswers:  global.correct,
		AverageAttempts: round2(global.avgAttempts()),
		AccuracyByKind:  accuracyByKind,
	}
}

func (s *PerformanceService) timePatterns(progressRows []model.LessonProgress) model.TimePatterns {
	now := time.Now()
	activeCutoff := now.AddDate(0, 0, -s.Cfg.ActiveWindowDays)
	recentCutoff := now.AddDate(0, 0, -s.Cfg.RecentWindowDays)

	patterns := model.TimePatterns{}
	completed := 0
	for _, p := range progressRows {
		patterns.TotalTimeSpent += p.TimeSpent
		if p.IsCompleted {
			completed++
		}
		if p.UpdatedAt.After(activeCutoff) {
			patterns.LessonsLast7Days++
		}
		if p.UpdatedAt.After(recentCutoff) {
			patterns.LessonsLast30Days++
		}
	}
	if len(progressRows) > 0 {
		patterns.CompletionRate = round2(float64(completed) / float64(len(progressRows)) * 100)
	}
	patterns.IsActiveLearner = patterns.LessonsLast7Days > 0
	return patterns
}

// overallScore = quiz component + completion component + consistency
// component, per the configured weights, rounded to two decimals.
func (s *PerformanceService) overallScore(answers []model.Answer, progressRows []model.LessonProgress, patterns model.TimePatterns) float64 {
	quizComponent := 0.0
	if len(answers) > 0 {
		correct := 0
		for _, a := range answers {
			if a.IsCorrect {
				correct++
			}
		}
		quizComponent = float64(correct) / float64(len(answers)) * s.Cfg.QuizWeight
	}

	completionComponent := 0.0
	if len(progressRows) > 0 {
		sum := 0.0
		for _, p := range progressRows {
			sum += float64(p.ProgressPercentage)
		}
		mean := sum / float64(len(progressRows))
		completionComponent = mean / 100 * s.Cfg.CompletionWeight
	}

	consistencyComponent := 0.0
	switch {
	case patterns.IsActiveLearner:
		consistencyComponent = s.Cfg.ActiveScore
	case patterns.LessonsLast30Days > 0:
		consistencyComponent = s.Cfg.RecentScore
	}

	return round2(quizComponent + completionComponent + consistencyComponent)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
