package database

import (
	"fmt"
	"log"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedCatalog(db)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Lesson{},
		&model.LessonContent{},
		&model.Question{},
		&model.Option{},
		&model.Answer{},
		&model.LessonProgress{},
		&model.Kanji{},
		&model.Vocabulary{},
		&model.GrammarPoint{},
	)
}

// seedCatalog inserts a small approved starter catalog so a fresh install
// has content to build lessons from.
func seedCatalog(db *gorm.DB) {
	var count int64
	db.Model(&model.Category{}).Count(&count)
	if count == 0 {
		defaultCategories := []model.Category{
			{Name: "Kanji", Description: "Character recognition and readings"},
			{Name: "Vocabulary", Description: "Words and expressions"},
			{Name: "Grammar", Description: "Sentence patterns and usage"},
			{Name: "Personalized", Description: "Generated remedial and review lessons"},
		}
		for _, c := range defaultCategories {
			db.Create(&c)
		}
	}

	var kanjiCount int64
	db.Model(&model.Kanji{}).Count(&kanjiCount)
	if kanjiCount == 0 {
		defaultKanji := []model.Kanji{
			{Character: "日", Meaning: "day, sun", Onyomi: "ニチ", Kunyomi: "ひ", StrokeCount: 4, JLPTLevel: 5, Status: model.CatalogApproved},
			{Character: "本", Meaning: "book, origin", Onyomi: "ホン", Kunyomi: "もと", StrokeCount: 5, JLPTLevel: 5, Status: model.CatalogApproved},
			{Character: "語", Meaning: "language, word", Onyomi: "ゴ", Kunyomi: "かた.る", StrokeCount: 14, JLPTLevel: 5, Status: model.CatalogApproved},
			{Character: "学", Meaning: "study, learning", Onyomi: "ガク", Kunyomi: "まな.ぶ", StrokeCount: 8, JLPTLevel: 5, Status: model.CatalogApproved},
			{Character: "時", Meaning: "time, hour", Onyomi: "ジ", Kunyomi: "とき", StrokeCount: 10, JLPTLevel: 5, Status: model.CatalogApproved},
		}
		for _, k := range defaultKanji {
			db.Create(&k)
		}
	}

	var vocabCount int64
	db.Model(&model.Vocabulary{}).Count(&vocabCount)
	if vocabCount == 0 {
		defaultVocab := []model.Vocabulary{
			{Word: "勉強", Reading: "べんきょう", Meaning: "study", PartOfSpeech: "noun", JLPTLevel: 5, Status: model.CatalogApproved},
			{Word: "先生", Reading: "せんせい", Meaning: "teacher", PartOfSpeech: "noun", JLPTLevel: 5, Status: model.CatalogApproved},
			{Word: "食べる", Reading: "たべる", Meaning: "to eat", PartOfSpeech: "verb", JLPTLevel: 5, Status: model.CatalogApproved},
			{Word: "新しい", Reading: "あたらしい", Meaning: "new", PartOfSpeech: "adjective", JLPTLevel: 5, Status: model.CatalogApproved},
		}
		for _, v := range defaultVocab {
			db.Create(&v)
		}
	}

	var grammarCount int64
	db.Model(&model.GrammarPoint{}).Count(&grammarCount)
	if grammarCount == 0 {
		defaultGrammar := []model.GrammarPoint{
			{Pattern: "〜です", Meaning: "polite copula", Structure: "N + です", Example: "学生です。", JLPTLevel: 5, Status: model.CatalogApproved},
			{Pattern: "〜があります", Meaning: "there is (inanimate)", Structure: "N + があります", Example: "時間があります。", JLPTLevel: 5, Status: model.CatalogApproved},
			{Pattern: "〜たい", Meaning: "want to do", Structure: "V(stem) + たい", Example: "日本へ行きたい。", JLPTLevel: 5, Status: model.CatalogApproved},
		}
		for _, g := range defaultGrammar {
			db.Create(&g)
		}
	}
}
