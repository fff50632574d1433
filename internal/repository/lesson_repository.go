package repository

import (
	"nihongo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) Create(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *LessonRepository) Update(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *LessonRepository) FindByID(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Preload("Contents", func(db *gorm.DB) *gorm.DB {
		return db.Order("lesson_contents.`order` ASC")
	}).First(&lesson, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) FindByIDWithQuestions(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Preload("Contents", func(db *gorm.DB) *gorm.DB {
		return db.Order("lesson_contents.`order` ASC")
	}).Preload("Contents.Questions").Preload("Contents.Questions.Options").
		First(&lesson, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) List(publishedOnly bool, page, limit int) ([]model.Lesson, int64, error) {
	var lessons []model.Lesson
	var total int64

	query := r.DB.Model(&model.Lesson{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&lessons).Error
	return lessons, total, err
}

func (r *LessonRepository) CountContents(lessonID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonContent{}).
		Where("lesson_id = ?", lessonID).
		Count(&count).Error
	return count, err
}

func (r *LessonRepository) FindContent(lessonID, contentID string) (*model.LessonContent, error) {
	var content model.LessonContent
	err := r.DB.Where("id = ? AND lesson_id = ?", contentID, lessonID).
		First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *LessonRepository) CreateContent(content *model.LessonContent) error {
	return r.DB.Create(content).Error
}

// QuestionIDs returns all question ids attached to a lesson's content items,
// used by the progress reset cascade.
func (r *LessonRepository) QuestionIDs(lessonID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.Question{}).
		Joins("JOIN lesson_contents ON lesson_contents.id = questions.content_id").
		Where("lesson_contents.lesson_id = ?", lessonID).
		Pluck("questions.id", &ids).Error
	return ids, err
}

// TitleMap resolves lesson ids to titles for the topic weakness report.
func (r *LessonRepository) TitleMap(ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var lessons []model.Lesson
	if err := r.DB.Select("id, title").Where("id IN ?", ids).Find(&lessons).Error; err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(lessons))
	for _, l := range lessons {
		titles[l.ID] = l.Title
	}
	return titles, nil
}
