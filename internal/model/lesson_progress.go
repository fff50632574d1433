package model

import (
	"time"

	"gorm.io/datatypes"
)

// LessonProgress tracks per-user completion of a lesson's content items.
// Invariant: IsCompleted iff ProgressPercentage == 100; CompletedAt is
// stamped once, on the first transition to 100.
type LessonProgress struct {
	BaseModel
	UserID             uint              `gorm:"uniqueIndex:idx_progress_user_lesson;not null" json:"userId"`
	LessonID           string            `gorm:"uniqueIndex:idx_progress_user_lesson;type:varchar(36);not null" json:"lessonId"`
	ContentProgress    datatypes.JSONMap `gorm:"type:json" json:"contentProgress"`
	ProgressPercentage int               `gorm:"default:0" json:"progressPercentage"`
	IsCompleted        bool              `gorm:"default:false" json:"isCompleted"`
	CompletedAt        *time.Time        `json:"completedAt,omitempty"`
	// seconds, monotonic accumulator
	TimeSpent int `gorm:"default:0" json:"timeSpent"`

	Lesson *Lesson `gorm:"foreignKey:LessonID" json:"-"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// CompletedCount counts content items marked done.
func (p *LessonProgress) CompletedCount() int {
	n := 0
	for _, v := range p.ContentProgress {
		if done, ok := v.(bool); ok && done {
			n++
		}
	}
	return n
}
