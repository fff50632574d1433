package repository

import (
	"nihongo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var question model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("options.`order` ASC")
	}).First(&question, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// FindWithContent loads a question together with its owning content item,
// which carries the attempt cap and the lesson reference.
func (r *QuestionRepository) FindWithContent(id string) (*model.Question, error) {
	var question model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("options.`order` ASC")
	}).Preload("Content").First(&question, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) FindOption(questionID string, optionID uint) (*model.Option, error) {
	var option model.Option
	err := r.DB.Where("id = ? AND question_id = ?", optionID, questionID).
		First(&option).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}
