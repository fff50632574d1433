package model

type LessonType string

const (
	LessonRegular     LessonType = "regular"
	LessonRemedial    LessonType = "remedial"
	LessonAdvancement LessonType = "advancement"
	LessonReview      LessonType = "review"
)

// swagger:model Category
type Category struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}

/// swagger:model Lesson
type Lesson struct {
	UUIDBase
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CategoryID  uint       `gorm:"index" json:"categoryId"`
	JLPTLevel   int        `gorm:"default:5" json:"jlptLevel"`
	// 1 (easy) .. 5 (hard), independent of the JLPT tier
	DifficultyLevel int        `gorm:"default:1" json:"difficultyLevel"`
	Type            LessonType `gorm:"size:20;default:'regular'" json:"type"`
	IsPublished     bool       `gorm:"default:false" json:"isPublished"`
	IsGenerated     bool       `gorm:"default:false" json:"isGenerated"`
	CreatorID       uint       `gorm:"index" json:"creatorId"`

	Contents []LessonContent `gorm:"foreignKey:LessonID" json:"contents,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type ContentType string

const (
	ContentKanji      ContentType = "kanji"
	ContentVocabulary ContentType = "vocabulary"
	ContentGrammar    ContentType = "grammar"
	ContentText       ContentType = "text"
	ContentQuiz       ContentType = "quiz"
)

// LessonContent is one ordered item inside a lesson. Catalog-backed items
// reference a kanji/vocabulary/grammar row; text and quiz items carry their
// own body/questions. MaxAttempts gates quiz submissions, 0 means unlimited.
type LessonContent struct {
	UUIDBase
	LessonID      string      `gorm:"index;type:varchar(36);not null" json:"lessonId"`
	Type          ContentType `gorm:"size:20;not null" json:"type"`
	Title         string      `gorm:"size:255" json:"title"`
	Body          string      `gorm:"type:text" json:"body"`
	CatalogRef    *uint       `json:"catalogRef,omitempty"`
	IsInteractive bool        `gorm:"default:false" json:"isInteractive"`
	MaxAttempts   int         `gorm:"default:0" json:"maxAttempts"`
	Order         int         `gorm:"default:0" json:"order"`

	Questions []Question `gorm:"foreignKey:ContentID" json:"questions,omitempty"`
}

func (LessonContent) TableName() string {
	return "lesson_contents"
}
