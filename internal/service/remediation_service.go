package service

import (
	"fmt"
	"sort"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/util"
)

// RemediationService turns a weakness report into a ranked, bounded
// remediation plan: priority areas, canned content suggestions, a phased
// multi-week study plan and difficulty adjustments.
type RemediationService struct {
	Cfg config.LearningConfig
}

func NewRemediationService(cfg config.LearningConfig) *RemediationService {
	return &RemediationService{Cfg: cfg}
}

func (s *RemediationService) Plan(report *model.WeaknessReport) *model.RemediationPlan {
	areas := s.collectPriorityAreas(report)
	strong := s.strongAreas(report)

	return &model.RemediationPlan{
		PriorityAreas:         areas,
		ContentSuggestions:    s.contentSuggestions(areas),
		DifficultyAdjustments: s.difficultyAdjustments(report),
		StrongAreas:           strong,
	}
}

// maxStudyPlanWeeks bounds the horizon; the plan allocates one entry per week.
const maxStudyPlanWeeks = 52

// PlanWithSchedule is Plan plus a study plan over the requested horizon.
func (s *RemediationService) PlanWithSchedule(report *model.WeaknessReport, weeks int) (*model.RemediationPlan, error) {
	if weeks < 1 {
		return nil, fmt.Errorf("%w: study plan needs at least one week", util.ErrValidation)
	}
	if weeks > maxStudyPlanWeeks {
		return nil, fmt.Errorf("%w: study plan is capped at %d weeks", util.ErrValidation, maxStudyPlanWeeks)
	}
	plan := s.Plan(report)
	plan.StudyPlan = s.studyPlan(plan.PriorityAreas, plan.StrongAreas, weeks)
	return plan, nil
}

func (s *RemediationService) collectPriorityAreas(report *model.WeaknessReport) []model.PriorityArea {
	var areas []model.PriorityArea

	// Deterministic iteration keeps plans stable between calls.
	for _, key := range sortedKeys(report.ContentTypeWeaknesses) {
		stat := report.ContentTypeWeaknesses[key]
		if !stat.IsWeakness {
			continue
		}
		severity := model.SeverityMedium
		if stat.Accuracy < s.Cfg.SevereAccuracy {
			severity = model.SeverityHigh
		}
		areas = append(areas, model.PriorityArea{
			Type:     model.AreaContentType,
			Area:     key,
			Severity: severity,
			Details:  fmt.Sprintf("%.1f%% accuracy over %d answers, %.1f attempts on average", stat.Accuracy, stat.TotalAnswers, stat.AverageAttempts),
		})
	}

	for _, topic := range report.TopicWeaknesses {
		if !topic.IsWeakness {
			continue
		}
		severity := model.SeverityMedium
		if topic.CompletionRate < s.Cfg.SevereCompletion || (topic.TotalAnswers > 0 && topic.QuizAccuracy < s.Cfg.SevereAccuracy) {
			severity = model.SeverityHigh
		}
		areas = append(areas, model.PriorityArea{
			Type:     model.AreaTopic,
			Area:     topic.LessonTitle,
			Severity: severity,
			Details:  fmt.Sprintf("%.0f%% completed, %.1f%% quiz accuracy", topic.CompletionRate, topic.QuizAccuracy),
		})
	}

	for _, level := range sortedIntKeys(report.DifficultyWeaknesses) {
		stat := report.DifficultyWeaknesses[level]
		if !stat.IsWeakness {
			continue
		}
		severity := model.SeverityMedium
		if stat.Accuracy < s.Cfg.SevereAccuracy {
			severity = model.SeverityHigh
		}
		areas = append(areas, model.PriorityArea{
			Type:     model.AreaDifficulty,
			Area:     fmt.Sprintf("level %d", level),
			Severity: severity,
			Details:  fmt.Sprintf("%.1f%% accuracy at difficulty %d", stat.Accuracy, level),
		})
	}

	// High severity first; collection order breaks ties.
	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Severity == model.SeverityHigh && areas[j].Severity != model.SeverityHigh
	})

	max := s.Cfg.MaxPriorityAreas
	if max <= 0 {
		max = 5
	}
	if len(areas) > max {
		areas = areas[:max]
	}
	return areas
}

// strongAreas are content types with accuracy at or above the strong
// threshold and not flagged weak; they seed the advancement phase.
func (s *RemediationService) strongAreas(report *model.WeaknessReport) []string {
	var strong []string
	for _, key := range sortedKeys(report.ContentTypeWeaknesses) {
		stat := report.ContentTypeWeaknesses[key]
		if !stat.IsWeakness && stat.Accuracy >= s.Cfg.StrongAccuracy {
			strong = append(strong, key)
		}
	}
	return strong
}

func (s *RemediationService) contentSuggestions(areas []model.PriorityArea) []model.ContentSuggestion {
	suggestions := make([]model.ContentSuggestion, 0, len(areas))
	for _, area := range areas {
		switch {
		case area.Type == model.AreaContentType && area.Area == string(model.ContentKanji):
			suggestions = append(suggestions, model.ContentSuggestion{
				Area:        area.Area,
				LessonType:  model.LessonRemedial,
				Title:       "Kanji reinforcement drill",
				Description: "Stroke order review, reading recognition and meaning recall for your missed kanji",
			})
		case area.Type == model.AreaContentType && area.Area == string(model.ContentVocabulary):
			suggestions = append(suggestions, model.ContentSuggestion{
				Area:        area.Area,
				LessonType:  model.LessonRemedial,
				Title:       "Vocabulary recovery set",
				Description: "Context sentences and recall practice for recently missed words",
			})
		case area.Type == model.AreaContentType && area.Area == string(model.ContentGrammar):
			suggestions = append(suggestions, model.ContentSuggestion{
				Area:        area.Area,
				LessonType:  model.LessonRemedial,
				Title:       "Grammar pattern walkthrough",
				Description: "Step-by-step structure breakdowns with contrastive examples",
			})
		case area.Type == model.AreaTopic:
			suggestions = append(suggestions, model.ContentSuggestion{
				Area:        area.Area,
				LessonType:  model.LessonReview,
				Title:       fmt.Sprintf("Review: %s", area.Area),
				Description: "A condensed re-run of the lesson with fresh practice questions",
			})
		default:
			suggestions = append(suggestions, model.ContentSuggestion{
				Area:        area.Area,
				LessonType:  model.LessonRemedial,
				Title:       fmt.Sprintf("Targeted practice: %s", area.Area),
				Description: "Focused exercises pitched at the level you are struggling with",
			})
		}
	}
	return suggestions
}

// studyPlan partitions the horizon: weeks 1-2 remediate the top two
// priority areas, week 3 reinforces the next two, remaining weeks advance
// the user's strong areas.
func (s *RemediationService) studyPlan(areas []model.PriorityArea, strong []string, weeks int) []model.StudyWeek {
	areaNames := make([]string, len(areas))
	for i, a := range areas {
		areaNames[i] = a.Area
	}

	remediation := firstN(areaNames, 2)
	reinforcement := areaNames[min(2, len(areaNames)):min(4, len(areaNames))]

	advancement := strong
	if len(advancement) == 0 {
		advancement = []string{"general review"}
	}

	plan := make([]model.StudyWeek, 0, weeks)
	for week := 1; week <= weeks; week++ {
		switch {
		case week <= 2 && len(remediation) > 0:
			plan = append(plan, model.StudyWeek{
				Week:         week,
				Focus:        "remediation",
				TargetAreas:  remediation,
				LessonCount:  3,
				StudyMinutes: 150,
				Goal:         "Close the biggest gaps before moving on",
			})
		case week == 3 && len(reinforcement) > 0:
			plan = append(plan, model.StudyWeek{
				Week:         week,
				Focus:        "reinforcement",
				TargetAreas:  reinforcement,
				LessonCount:  2,
				StudyMinutes: 120,
				Goal:         "Consolidate the remaining weak areas",
			})
		default:
			plan = append(plan, model.StudyWeek{
				Week:         week,
				Focus:        "advancement",
				TargetAreas:  advancement,
				LessonCount:  2,
				StudyMinutes: 120,
				Goal:         "Push your strong areas to the next level",
			})
		}
	}
	return plan
}

func (s *RemediationService) difficultyAdjustments(report *model.WeaknessReport) []model.DifficultyAdjustment {
	var adjustments []model.DifficultyAdjustment

	global := model.DifficultyAdjustment{Scope: model.AdjustGlobal}
	switch {
	case report.OverallScore < s.Cfg.DecreaseDifficultyBelow:
		global.Recommendation = "decrease"
		global.Reason = fmt.Sprintf("overall score %.2f is below %.0f", report.OverallScore, s.Cfg.DecreaseDifficultyBelow)
	case report.OverallScore > s.Cfg.IncreaseDifficultyAbove:
		global.Recommendation = "increase"
		global.Reason = fmt.Sprintf("overall score %.2f is above %.0f", report.OverallScore, s.Cfg.IncreaseDifficultyAbove)
	default:
		global.Recommendation = "maintain"
		global.Reason = fmt.Sprintf("overall score %.2f is within the target band", report.OverallScore)
	}
	adjustments = append(adjustments, global)

	for _, key := range sortedKeys(report.ContentTypeWeaknesses) {
		stat := report.ContentTypeWeaknesses[key]
		adj := model.DifficultyAdjustment{Scope: model.AdjustContentType, Area: key}
		switch {
		case stat.Accuracy < s.Cfg.TypeDecreaseBelow:
			adj.Recommendation = "decrease"
			adj.Reason = fmt.Sprintf("%.1f%% accuracy in %s", stat.Accuracy, key)
		case stat.Accuracy > s.Cfg.TypeIncreaseAbove:
			adj.Recommendation = "increase"
			adj.Reason = fmt.Sprintf("%.1f%% accuracy in %s", stat.Accuracy, key)
		default:
			adj.Recommendation = "maintain"
			adj.Reason = fmt.Sprintf("%.1f%% accuracy in %s is within the target band", stat.Accuracy, key)
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments
}

func sortedKeys(m map[string]model.DimensionStat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(m map[int]model.DimensionStat) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func firstN(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
