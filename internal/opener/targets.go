package opener

import (
	_ "embed"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed targets.toml
var targetsTOML []byte

// Target is what a URL points at.
type Target int

const (
	TargetUnknown Target = iota
	TargetPage
	TargetImage
)

func (t Target) String() string {
	switch t {
	case TargetPage:
		return "page"
	case TargetImage:
		return "image"
	}
	return "unknown"
}

type TargetConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TargetsConfig struct {
	Image     TargetConfig              `toml:"image"`
	Page      TargetConfig              `toml:"page"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type Detector struct {
	config *TargetsConfig
}

func NewDetector() (*Detector, error) {
	var config TargetsConfig
	if _, err := toml.Decode(string(targetsTOML), &config); err != nil {
		return nil, err
	}
	return &Detector{config: &config}, nil
}

// Detect classifies raw by extension first and URL pattern second.
func (d *Detector) Detect(raw string) Target {
	lower := strings.ToLower(raw)

	if u, err := url.Parse(lower); err == nil {
		if ext := strings.TrimPrefix(path.Ext(u.Path), "."); ext != "" {
			switch {
			case slices.Contains(d.config.Image.Extensions, ext):
				return TargetImage
			case slices.Contains(d.config.Page.Extensions, ext):
				return TargetPage
			}
		}
	}

	switch {
	case matchesPattern(lower, d.config.Image.URLPatterns):
		return TargetImage
	case matchesPattern(lower, d.config.Page.URLPatterns):
		return TargetPage
	}
	return TargetUnknown
}

// DefaultOpener returns the platform's default handler command.
func (d *Detector) DefaultOpener(goos string) string {
	if p, ok := d.config.Platforms[goos]; ok {
		return p.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "xdg-open"
}

func matchesPattern(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
