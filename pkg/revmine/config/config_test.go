package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
)

func TestDefaultThresholds(t *testing.T) {
	cfg := Default()
	p := cfg.Processing
	if p.MinReviewLength != 5 || p.MaxReviewLength != 5000 {
		t.Errorf("length bounds = %d..%d", p.MinReviewLength, p.MaxReviewLength)
	}
	if p.DedupThreshold != 0.90 {
		t.Errorf("DedupThreshold = %v", p.DedupThreshold)
	}
	if p.ConfidenceThreshold != 0.3 {
		t.Errorf("ConfidenceThreshold = %v", p.ConfidenceThreshold)
	}
	if p.MinQualityScore != 0.5 {
		t.Errorf("MinQualityScore = %v", p.MinQualityScore)
	}
	if len(cfg.Apps) == 0 {
		t.Error("default config should ship with apps")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
processing:
  deduplication_threshold: 0.85
apps:
  notion:
    name: Notion
    platforms: [reddit]
    keywords: [notion]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Processing.DedupThreshold != 0.85 {
		t.Errorf("DedupThreshold = %v, want 0.85", cfg.Processing.DedupThreshold)
	}
	// Untouched sections keep their defaults.
	if cfg.Processing.MaxReviewLength != 5000 {
		t.Errorf("MaxReviewLength = %v, want default", cfg.Processing.MaxReviewLength)
	}
	if _, ok := cfg.Apps["notion"]; !ok {
		t.Error("loaded app missing")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("processing: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cases := []func(*File){
		func(f *File) { f.Processing.DedupThreshold = 1.5 },
		func(f *File) { f.Processing.ConfidenceThreshold = -0.1 },
		func(f *File) { f.Processing.MaxReviewLength = 1; f.Processing.MinReviewLength = 10 },
		func(f *File) { f.Apps["broken"] = App{} },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("case %d: err = %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestLoaderBuildsComponents(t *testing.T) {
	loader := Loader{}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Cleaner == nil || comp.Dedup == nil || comp.Classifier == nil {
		t.Fatalf("components missing: %+v", comp)
	}
	if comp.Cfg.Processing.DedupThreshold != 0.90 {
		t.Errorf("Cfg not populated: %+v", comp.Cfg.Processing)
	}
}

func TestLoaderCustomCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
categories:
  onboarding:
    name: Onboarding
    keywords: [signup, tutorial, onboarding]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	loader := Loader{Path: path}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	scores := comp.Classifier.CategoryScores("the signup tutorial was painless")
	if _, ok := scores["onboarding"]; !ok {
		t.Errorf("custom category not wired: %v", scores)
	}
}
