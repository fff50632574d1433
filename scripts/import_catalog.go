// Manual catalog import script.
//
// Bulk-loads kanji, vocabulary and grammar points from a YAML file into the
// catalog tables. Meant for first deployment or after curating a new JLPT
// word list; imported rows arrive as "pending" until a reviewer approves
// them, unless the file says otherwise.
//
// Usage: go run scripts/import_catalog.go -file data/n5_catalog.yaml

package main

import (
	"flag"
	"log"
	"os"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/pkg/database"
	"nihongo_edu_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Kanji []struct {
		Character   string `yaml:"character"`
		Meaning     string `yaml:"meaning"`
		Onyomi      string `yaml:"onyomi"`
		Kunyomi     string `yaml:"kunyomi"`
		StrokeCount int    `yaml:"stroke_count"`
		JLPTLevel   int    `yaml:"jlpt_level"`
	} `yaml:"kanji"`
	Vocabulary []struct {
		Word         string `yaml:"word"`
		Reading      string `yaml:"reading"`
		Meaning      string `yaml:"meaning"`
		PartOfSpeech string `yaml:"part_of_speech"`
		JLPTLevel    int    `yaml:"jlpt_level"`
	} `yaml:"vocabulary"`
	Grammar []struct {
		Pattern   string `yaml:"pattern"`
		Meaning   string `yaml:"meaning"`
		Structure string `yaml:"structure"`
		Example   string `yaml:"example"`
		JLPTLevel int    `yaml:"jlpt_level"`
	} `yaml:"grammar"`
	Approved bool `yaml:"approved"`
}

func main() {
	file := flag.String("file", "", "YAML file with catalog entries")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	var entries catalogFile
	if err := yaml.Unmarshal(data, &entries); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	status := model.CatalogPending
	if entries.Approved {
		status = model.CatalogApproved
	}

	imported := 0
	for _, k := range entries.Kanji {
		row := model.Kanji{
			Character:   k.Character,
			Meaning:     k.Meaning,
			Onyomi:      k.Onyomi,
			Kunyomi:     k.Kunyomi,
			StrokeCount: k.StrokeCount,
			JLPTLevel:   k.JLPTLevel,
			Status:      status,
		}
		if err := db.Where("`character` = ?", k.Character).FirstOrCreate(&row).Error; err != nil {
			log.Printf("kanji %s: %v", k.Character, err)
			continue
		}
		imported++
	}
	for _, v := range entries.Vocabulary {
		row := model.Vocabulary{
			Word:         v.Word,
			Reading:      v.Reading,
			Meaning:      v.Meaning,
			PartOfSpeech: v.PartOfSpeech,
			JLPTLevel:    v.JLPTLevel,
			Status:       status,
		}
		if err := db.Where("word = ? AND reading = ?", v.Word, v.Reading).FirstOrCreate(&row).Error; err != nil {
			log.Printf("vocabulary %s: %v", v.Word, err)
			continue
		}
		imported++
	}
	for _, g := range entries.Grammar {
		row := model.GrammarPoint{
			Pattern:   g.Pattern,
			Meaning:   g.Meaning,
			Structure: g.Structure,
			Example:   g.Example,
			JLPTLevel: g.JLPTLevel,
			Status:    status,
		}
		if err := db.Where("pattern = ?", g.Pattern).FirstOrCreate(&row).Error; err != nil {
			log.Printf("grammar %s: %v", g.Pattern, err)
			continue
		}
		imported++
	}

	log.Printf("Imported %d catalog entries", imported)
}
