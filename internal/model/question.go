package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple_choice"
	TrueFalse      QuestionKind = "true_false"
	FillBlank      QuestionKind = "fill_blank"
	Matching       QuestionKind = "matching"
)

// swagger:model Question
type Question struct {
	UUIDBase
	ContentID       string       `gorm:"index;type:varchar(36);not null" json:"contentId"`
	Kind            QuestionKind `gorm:"size:20;not null" json:"kind"`
	Prompt          string       `gorm:"type:text;not null" json:"prompt"`
	DifficultyLevel int          `gorm:"default:1" json:"difficultyLevel"`
	Points          int          `gorm:"default:1" json:"points"`
	Hint            string       `gorm:"type:text" json:"hint"`
	Explanation     string       `gorm:"type:text" json:"explanation"`
	// Payload is the evaluation source of truth for fill_blank and matching
	// kinds; choice kinds are scored off the option rows.
	Payload datatypes.JSON `gorm:"type:json" json:"payload,omitempty"`

	Options []Option       `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	Content *LessonContent `gorm:"foreignKey:ContentID" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Option
type Option struct {
	BaseModel
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
	Feedback   string `gorm:"type:text" json:"feedback"`
	Order      int    `gorm:"default:0" json:"order"`
}

func (Option) TableName() string {
	return "options"
}

type MatchingPair struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// QuestionPayload is the tagged per-kind variant stored in Question.Payload.
// Exactly one of the kind-specific fields is populated.
type QuestionPayload struct {
	Kind            QuestionKind   `json:"kind"`
	AcceptedAnswers []string       `json:"acceptedAnswers,omitempty"` // fill_blank
	Pairs           []MatchingPair `json:"pairs,omitempty"`           // matching
}

func (q *Question) DecodePayload() (*QuestionPayload, error) {
	if len(q.Payload) == 0 {
		return &QuestionPayload{Kind: q.Kind}, nil
	}
	var p QuestionPayload
	if err := json.Unmarshal(q.Payload, &p); err != nil {
		return nil, fmt.Errorf("question %s has malformed payload: %w", q.ID, err)
	}
	if p.Kind != "" && p.Kind != q.Kind {
		return nil, fmt.Errorf("question %s payload kind %q does not match %q", q.ID, p.Kind, q.Kind)
	}
	return &p, nil
}

func (p *QuestionPayload) Encode() (datatypes.JSON, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
