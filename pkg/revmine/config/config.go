package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
)

// File is the top-level YAML configuration.
type File struct {
	Processing Processing          `yaml:"processing"`
	Categories map[string]Category `yaml:"categories"`
	Lexicon    Lexicon             `yaml:"sentiment_lexicon"`
	Apps       map[string]App      `yaml:"apps"`
	Subreddits map[string][]string `yaml:"subreddits"`
	Scrape     Scrape              `yaml:"scrape"`
}

// Processing holds the pipeline thresholds.
type Processing struct {
	MinReviewLength     int     `yaml:"min_review_length"`
	MaxReviewLength     int     `yaml:"max_review_length"`
	DedupThreshold      float64 `yaml:"deduplication_threshold"`
	ConfidenceThreshold float64 `yaml:"classification_confidence_threshold"`
	MinQualityScore     float64 `yaml:"min_quality_score"`
}

// Category is a topical category definition.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Lexicon holds the weighted sentiment word lists.
type Lexicon struct {
	Positive map[string]int `yaml:"positive"`
	Negative map[string]int `yaml:"negative"`
}

// App describes one tracked application across platforms.
type App struct {
	Name        string   `yaml:"name"`
	PackageID   string   `yaml:"package_id"`
	Category    string   `yaml:"category"`
	Platforms   []string `yaml:"platforms"`
	Keywords    []string `yaml:"keywords"`
	Competitors []string `yaml:"competitors"`
}

// Scrape controls request pacing and retries for the scrapers.
type Scrape struct {
	RequestDelay   time.Duration `yaml:"request_delay"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UserAgent      string        `yaml:"user_agent"`
	MaxPerApp      int           `yaml:"max_reviews_per_app"`
}

// UnmarshalYAML decodes duration fields from strings like "2s" and
// leaves fields absent from the document at their prior values, so the
// defaults overlay works per field.
func (s *Scrape) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RequestDelay   string `yaml:"request_delay"`
		MaxRetries     *int   `yaml:"max_retries"`
		RetryBackoff   string `yaml:"retry_backoff"`
		RequestTimeout string `yaml:"request_timeout"`
		UserAgent      string `yaml:"user_agent"`
		MaxPerApp      *int   `yaml:"max_reviews_per_app"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	setDuration := func(dst *time.Duration, src string) error {
		if src == "" {
			return nil
		}
		d, err := time.ParseDuration(src)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", src, err)
		}
		*dst = d
		return nil
	}
	if err := setDuration(&s.RequestDelay, raw.RequestDelay); err != nil {
		return err
	}
	if err := setDuration(&s.RetryBackoff, raw.RetryBackoff); err != nil {
		return err
	}
	if err := setDuration(&s.RequestTimeout, raw.RequestTimeout); err != nil {
		return err
	}
	if raw.MaxRetries != nil {
		s.MaxRetries = *raw.MaxRetries
	}
	if raw.MaxPerApp != nil {
		s.MaxPerApp = *raw.MaxPerApp
	}
	if raw.UserAgent != "" {
		s.UserAgent = raw.UserAgent
	}
	return nil
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		Processing: Processing{
			MinReviewLength:     5,
			MaxReviewLength:     5000,
			DedupThreshold:      0.90,
			ConfidenceThreshold: 0.3,
			MinQualityScore:     0.5,
		},
		Apps: map[string]App{
			"duolingo": {
				Name:        "Duolingo",
				PackageID:   "com.duolingo",
				Category:    "language_learning",
				Platforms:   []string{"reddit", "play_store"},
				Keywords:    []string{"duolingo", "duo"},
				Competitors: []string{"babbel", "busuu", "memrise"},
			},
			"babbel": {
				Name:        "Babbel",
				PackageID:   "com.babbel.mobile.android.en",
				Category:    "language_learning",
				Platforms:   []string{"reddit", "play_store"},
				Keywords:    []string{"babbel"},
				Competitors: []string{"duolingo", "busuu"},
			},
			"headspace": {
				Name:        "Headspace",
				PackageID:   "com.getsomeheadspace.android",
				Category:    "meditation",
				Platforms:   []string{"reddit", "play_store"},
				Keywords:    []string{"headspace"},
				Competitors: []string{"calm", "insight timer"},
			},
			"calm": {
				Name:        "Calm",
				PackageID:   "com.calm.android",
				Category:    "meditation",
				Platforms:   []string{"reddit", "play_store"},
				Keywords:    []string{"calm app", "calm meditation"},
				Competitors: []string{"headspace", "insight timer"},
			},
		},
		Subreddits: map[string][]string{
			"duolingo":  {"duolingo", "languagelearning"},
			"babbel":    {"languagelearning"},
			"headspace": {"meditation", "mindfulness"},
			"calm":      {"meditation", "mindfulness"},
		},
		Scrape: Scrape{
			RequestDelay:   2 * time.Second,
			MaxRetries:     3,
			RetryBackoff:   time.Second,
			RequestTimeout: 30 * time.Second,
			UserAgent:      "revmine/1.0 (review research)",
			MaxPerApp:      200,
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
// Missing sections keep their default values.
func Load(path string) (File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects thresholds outside their meaningful ranges.
func (f File) Validate() error {
	p := f.Processing
	if p.MinReviewLength < 0 || p.MaxReviewLength < p.MinReviewLength {
		return fmt.Errorf("%w: review length bounds %d..%d", internalerr.ErrInvalidConfig, p.MinReviewLength, p.MaxReviewLength)
	}
	if p.DedupThreshold < 0 || p.DedupThreshold > 1 {
		return fmt.Errorf("%w: deduplication threshold %v outside [0,1]", internalerr.ErrInvalidConfig, p.DedupThreshold)
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold %v outside [0,1]", internalerr.ErrInvalidConfig, p.ConfidenceThreshold)
	}
	for id, app := range f.Apps {
		if app.Name == "" {
			return fmt.Errorf("%w: app %q has no name", internalerr.ErrInvalidConfig, id)
		}
	}
	return nil
}
