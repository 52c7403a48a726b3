package config

import (
	"fmt"
	"log"

	"github.com/driftline/revmine/pkg/revmine/classify"
	"github.com/driftline/revmine/pkg/revmine/clean"
	"github.com/driftline/revmine/pkg/revmine/dedup"
)

// Loader loads the configuration file and constructs the pipeline
// components from it.
type Loader struct {
	Path   string
	Logger *log.Logger
}

// Components holds the initialized pipeline stages plus the resolved
// configuration they were built from.
type Components struct {
	Cleaner    *clean.Cleaner
	Dedup      *dedup.Engine
	Classifier *classify.Classifier
	Cfg        File
}

// Load reads the configuration (or uses the defaults when Path is
// empty) and returns the wired components.
func (l *Loader) Load() (*Components, error) {
	cfg := Default()
	if l.Path != "" {
		loaded, err := Load(l.Path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	validator := clean.NewValidator(cfg.Processing.MinReviewLength, cfg.Processing.MaxReviewLength)
	cleaner := clean.NewCleaner(validator, l.Logger)

	engine := dedup.NewEngine(cfg.Processing.DedupThreshold, nil, l.Logger)

	var categories map[string]classify.Category
	if len(cfg.Categories) > 0 {
		categories = make(map[string]classify.Category, len(cfg.Categories))
		for id, cat := range cfg.Categories {
			categories[id] = classify.Category{Name: cat.Name, Keywords: cat.Keywords}
		}
	}
	var sentiment *classify.SentimentAnalyzer
	if len(cfg.Lexicon.Positive) > 0 || len(cfg.Lexicon.Negative) > 0 {
		sentiment = classify.NewSentimentAnalyzer(cfg.Lexicon.Positive, cfg.Lexicon.Negative)
	}
	classifier := classify.NewClassifier(categories, cfg.Processing.ConfidenceThreshold, sentiment, l.Logger)

	return &Components{
		Cleaner:    cleaner,
		Dedup:      engine,
		Classifier: classifier,
		Cfg:        cfg,
	}, nil
}
