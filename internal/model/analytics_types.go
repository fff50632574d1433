package model

// Derived analytics types. None of these are persisted; they are recomputed
// on demand from the stored Answer and LessonProgress history.

// DimensionStat is one group's aggregate in a weakness dimension.
type DimensionStat struct {
	Accuracy        float64 `json:"accuracy"` // percent, 0-100
	CorrectAnswers  int     `json:"correctAnswers"`
	TotalAnswers    int     `json:"totalAnswers"`
	AverageAttempts float64 `json:"averageAttempts"`
	IsWeakness      bool    `json:"isWeakness"`
}

// TopicStat combines lesson completion with quiz accuracy for one lesson.
type TopicStat struct {
	LessonID       string  `json:"lessonId"`
	LessonTitle    string  `json:"lessonTitle"`
	CompletionRate float64 `json:"completionRate"` // percent, 0-100
	QuizAccuracy   float64 `json:"quizAccuracy"`   // percent, 0-100
	TotalAnswers   int     `json:"totalAnswers"`
	IsWeakness     bool    `json:"isWeakness"`
}

type QuizStats struct {
	Accuracy        float64            `json:"accuracy"`
	TotalAnswers    int                `json:"totalAnswers"`
	CorrectAnswers  int                `json:"correctAnswers"`
	AverageAttempts float64            `json:"averageAttempts"`
	AccuracyByKind  map[string]float64 `json:"accuracyByKind"`
}

type TimePatterns struct {
	TotalTimeSpent    int     `json:"totalTimeSpent"` // seconds
	CompletionRate    float64 `json:"completionRate"` // percent across lessons started
	LessonsLast7Days  int     `json:"lessonsLast7Days"`
	LessonsLast30Days int     `json:"lessonsLast30Days"`
	IsActiveLearner   bool    `json:"isActiveLearner"`
}

// swagger:model WeaknessReport
type WeaknessReport struct {
	ContentTypeWeaknesses map[string]DimensionStat `json:"contentTypeWeaknesses"`
	DifficultyWeaknesses  map[int]DimensionStat    `json:"difficultyWeaknesses"`
	TopicWeaknesses       []TopicStat              `json:"topicWeaknesses"`
	QuizWeaknesses        QuizStats                `json:"quizWeaknesses"`
	TimePatterns          TimePatterns             `json:"timePatterns"`
	OverallScore          float64                  `json:"overallScore"` // 0-100, two decimals
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

type PriorityAreaType string

const (
	AreaContentType PriorityAreaType = "content_type"
	AreaTopic       PriorityAreaType = "topic"
	AreaDifficulty  PriorityAreaType = "difficulty"
)

// swagger:model PriorityArea
type PriorityArea struct {
	Type     PriorityAreaType `json:"type"`
	Area     string           `json:"area"`
	Severity Severity         `json:"severity"`
	Details  string           `json:"details"`
}

type ContentSuggestion struct {
	Area        string     `json:"area"`
	LessonType  LessonType `json:"lessonType"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

type StudyWeek struct {
	Week         int      `json:"week"`
	Focus        string   `json:"focus"` // remediation | reinforcement | advancement
	TargetAreas  []string `json:"targetAreas"`
	LessonCount  int      `json:"lessonCount"`
	StudyMinutes int      `json:"studyMinutes"`
	Goal         string   `json:"goal"`
}

type AdjustmentScope string

const (
	AdjustGlobal      AdjustmentScope = "global"
	AdjustContentType AdjustmentScope = "content_type"
)

type DifficultyAdjustment struct {
	Scope          AdjustmentScope `json:"scope"`
	Area           string          `json:"area,omitempty"`
	Recommendation string          `json:"recommendation"` // increase | decrease | maintain
	Reason         string          `json:"reason"`
}

// swagger:model RemediationPlan
type RemediationPlan struct {
	PriorityAreas         []PriorityArea         `json:"priorityAreas"` // at most 5, high severity first
	ContentSuggestions    []ContentSuggestion    `json:"contentSuggestions"`
	StudyPlan             []StudyWeek            `json:"studyPlan"`
	DifficultyAdjustments []DifficultyAdjustment `json:"difficultyAdjustments"`
	StrongAreas           []string               `json:"strongAreas"`
}

// LessonBlueprint is the assembled shape of a personalized lesson before it
// is persisted.
type LessonBlueprint struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Type            LessonType      `json:"type"`
	CategoryName    string          `json:"categoryName"`
	JLPTLevel       int             `json:"jlptLevel"`
	DifficultyLevel int             `json:"difficultyLevel"`
	Items           []BlueprintItem `json:"items"`
}

type BlueprintItem struct {
	Type          ContentType         `json:"type"`
	Title         string              `json:"title"`
	Body          string              `json:"body,omitempty"`
	CatalogRef    *uint               `json:"catalogRef,omitempty"`
	IsInteractive bool                `json:"isInteractive"`
	MaxAttempts   int                 `json:"maxAttempts"`
	Questions     []GeneratedQuestion `json:"questions,omitempty"`
}

// GeneratedQuestion is the opaque structured payload returned by the content
// generation service for one quiz question.
type GeneratedQuestion struct {
	Kind            QuestionKind      `json:"kind"`
	Prompt          string            `json:"prompt"`
	Options         []GeneratedOption `json:"options,omitempty"`
	AcceptedAnswers []string          `json:"acceptedAnswers,omitempty"`
	Pairs           []MatchingPair    `json:"pairs,omitempty"`
	Hint            string            `json:"hint,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
	DifficultyLevel int               `json:"difficultyLevel"`
	Points          int               `json:"points"`
}

type GeneratedOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback,omitempty"`
}
