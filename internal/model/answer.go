package model

import (
	"time"

	"gorm.io/datatypes"
)

// Answer is the single scored submission row per (user, question). A
// re-submission overwrites the row and bumps Attempts, it never appends.
type Answer struct {
	BaseModel
	UserID           uint           `gorm:"uniqueIndex:idx_answers_user_question;not null" json:"userId"`
	QuestionID       string         `gorm:"uniqueIndex:idx_answers_user_question;type:varchar(36);not null" json:"questionId"`
	SelectedOptionID *uint          `json:"selectedOptionId,omitempty"`
	TextAnswer       string         `gorm:"type:text" json:"textAnswer,omitempty"`
	SubmittedPairs   datatypes.JSON `gorm:"type:json" json:"submittedPairs,omitempty"`
	IsCorrect        bool           `gorm:"default:false" json:"isCorrect"`
	Attempts         int            `gorm:"default:0" json:"attempts"`
	AnsweredAt       time.Time      `json:"answeredAt"`

	Question *Question `gorm:"foreignKey:QuestionID" json:"-"`
}

func (Answer) TableName() string {
	return "answers"
}
