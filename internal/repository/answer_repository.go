package repository

import (
	"nihongo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) FindByUserAndQuestion(userID uint, questionID string) (*model.Answer, error) {
	var answer model.Answer
	err := r.DB.Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepository) Save(answer *model.Answer) error {
	return r.DB.Save(answer).Error
}

// ListByUser loads the user's full answer history with question and owning
// content item attached, the raw material of the performance analyzer.
func (r *AnswerRepository) ListByUser(userID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Preload("Question").Preload("Question.Content").
		Where("user_id = ?", userID).
		Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) DeleteForQuestions(tx *gorm.DB, userID uint, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return tx.Unscoped().
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Delete(&model.Answer{}).Error
}

func (r *AnswerRepository) CountForQuestions(userID uint, questionIDs []string) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB.Model(&model.Answer{}).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Count(&count).Error
	return count, err
}
