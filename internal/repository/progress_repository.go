package repository

import (
	"nihongo_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserAndLesson(userID uint, lessonID string) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindByUserAndLessonLocked reads the row under FOR UPDATE so a
// read-modify-write of ContentProgress stays serialized per (user, lesson).
// Must run inside tx.
func (r *ProgressRepository) FindByUserAndLessonLocked(tx *gorm.DB, userID uint, lessonID string) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) Create(progress *model.LessonProgress) error {
	return r.DB.Create(progress).Error
}

func (r *ProgressRepository) Save(progress *model.LessonProgress) error {
	return r.DB.Save(progress).Error
}

func (r *ProgressRepository) ListByUser(userID uint) ([]model.LessonProgress, error) {
	var rows []model.LessonProgress
	err := r.DB.Preload("Lesson").
		Where("user_id = ?", userID).
		Find(&rows).Error
	return rows, err
}
