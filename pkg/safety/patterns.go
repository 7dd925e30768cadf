package safety

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PatternScreen is a regex pre-screen for personal data. It runs alongside the
// PII judge so an obvious SSN or email is caught even when the model misses it.
type PatternRule struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Mask    string `yaml:"mask" json:"mask"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

type PatternConfig struct {
	Rules []PatternRule `yaml:"rules" json:"rules"`
}

type compiledPattern struct {
	rule PatternRule
	re   *regexp.Regexp
}

type PatternScreen struct {
	patterns []compiledPattern
}

func NewPatternScreen(cfg PatternConfig) (*PatternScreen, error) {
	var compiled []compiledPattern
	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{rule: rule, re: re})
	}
	return &PatternScreen{patterns: compiled}, nil
}

func LoadPatternConfig(path string) (PatternConfig, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultPatterns(), err
	}

	var cfg PatternConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return PatternConfig{}, err
	}

	if len(cfg.Rules) == 0 {
		return PatternConfig{}, errors.New("no PII patterns configured")
	}

	return cfg, nil
}

func (s *PatternScreen) Detect(text string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Redact masks every matched pattern. Used when an excerpt of flagged content
// is forwarded to moderators by email.
func (s *PatternScreen) Redact(text string) string {
	if s == nil {
		return text
	}
	for _, p := range s.patterns {
		text = p.re.ReplaceAllString(text, p.rule.Mask)
	}
	return text
}

func DefaultPatterns() PatternConfig {
	return PatternConfig{Rules: []PatternRule{
		{Name: "SSN", Pattern: `\b\d{3}-\d{2}-\d{4}\b`, Mask: "***-**-****", Enabled: true},
		{Name: "Email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`, Mask: "***@***", Enabled: true},
		{Name: "Phone", Pattern: `\b\d{3}-\d{3}-\d{4}\b|\b\(\d{3}\)\s?\d{3}-\d{4}\b`, Mask: "(***) ***-****", Enabled: true},
		{Name: "CreditCard", Pattern: `\b(?:\d[ -]?){13,16}\b`, Mask: "****-****-****-****", Enabled: true},
	}}
}
