package repository

import (
	"nihongo_edu_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository is read-only access to the approved kanji, vocabulary
// and grammar catalog.
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) ListKanji(jlptLevel, limit int) ([]model.Kanji, error) {
	var items []model.Kanji
	query := r.DB.Where("status = ?", model.CatalogApproved)
	if jlptLevel > 0 {
		query = query.Where("jlpt_level = ?", jlptLevel)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *CatalogRepository) ListVocabulary(jlptLevel, limit int) ([]model.Vocabulary, error) {
	var items []model.Vocabulary
	query := r.DB.Where("status = ?", model.CatalogApproved)
	if jlptLevel > 0 {
		query = query.Where("jlpt_level = ?", jlptLevel)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *CatalogRepository) ListGrammar(jlptLevel, limit int) ([]model.GrammarPoint, error) {
	var items []model.GrammarPoint
	query := r.DB.Where("status = ?", model.CatalogApproved)
	if jlptLevel > 0 {
		query = query.Where("jlpt_level = ?", jlptLevel)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}
