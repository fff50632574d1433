package model

type CatalogStatus string

const (
	CatalogApproved CatalogStatus = "approved"
	CatalogPending  CatalogStatus = "pending"
)

// swagger:model Kanji
type Kanji struct {
	BaseModel
	Character   string        `gorm:"size:8;uniqueIndex;not null" json:"character"`
	Meaning     string        `gorm:"size:255;not null" json:"meaning"`
	Onyomi      string        `gorm:"size:100" json:"onyomi"`
	Kunyomi     string        `gorm:"size:100" json:"kunyomi"`
	StrokeCount int           `gorm:"default:0" json:"strokeCount"`
	JLPTLevel   int           `gorm:"index;default:5" json:"jlptLevel"`
	Status      CatalogStatus `gorm:"size:20;default:'pending'" json:"status"`
}

func (Kanji) TableName() string {
	return "kanji"
}

// swagger:model Vocabulary
type Vocabulary struct {
	BaseModel
	Word         string        `gorm:"size:100;not null" json:"word"`
	Reading      string        `gorm:"size:100" json:"reading"`
	Meaning      string        `gorm:"size:255;not null" json:"meaning"`
	PartOfSpeech string        `gorm:"size:50" json:"partOfSpeech"`
	JLPTLevel    int           `gorm:"index;default:5" json:"jlptLevel"`
	Status       CatalogStatus `gorm:"size:20;default:'pending'" json:"status"`
}

func (Vocabulary) TableName() string {
	return "vocabulary"
}

// swagger:model GrammarPoint
type GrammarPoint struct {
	BaseModel
	Pattern   string        `gorm:"size:100;not null" json:"pattern"`
	Meaning   string        `gorm:"size:255;not null" json:"meaning"`
	Structure string        `gorm:"size:255" json:"structure"`
	Example   string        `gorm:"type:text" json:"example"`
	JLPTLevel int           `gorm:"index;default:5" json:"jlptLevel"`
	Status    CatalogStatus `gorm:"size:20;default:'pending'" json:"status"`
}

func (GrammarPoint) TableName() string {
	return "grammar_points"
}
