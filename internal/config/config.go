package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/kiroku/internal/validation"
)

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Search     SearchConfig     `mapstructure:"search"`
	News       NewsConfig       `mapstructure:"news"`
	Log        LogConfig        `mapstructure:"log"`
	Opener     OpenerConfig     `mapstructure:"opener"`
	UI         UIConfig         `mapstructure:"ui"`
	Keys       KeyConfig        `mapstructure:"keys"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	AuthURL       string        `mapstructure:"auth_url"`
	TokenURL      string        `mapstructure:"token_url"`
	ClientID      string        `mapstructure:"client_id"`
	RedirectPort  int           `mapstructure:"redirect_port"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	NSFW          bool          `mapstructure:"nsfw"`
	SearchLimit   int           `mapstructure:"search_limit"`
	ListLimit     int           `mapstructure:"list_limit"`
	TitleLanguage string        `mapstructure:"title_language"`
}

// EnglishTitles reports whether English alternative titles are preferred.
func (a APIConfig) EnglishTitles() bool {
	return strings.EqualFold(a.TitleLanguage, TitleEnglish)
}

const (
	TitleJapanese = "japanese"
	TitleEnglish  = "english"
)

type NavigationConfig struct {
	// StackLimit caps the back history, not counting the home entry.
	StackLimit int `mapstructure:"stack_limit"`
	Workers    int `mapstructure:"workers"`
	QueueSize  int `mapstructure:"queue_size"`
}

type SearchConfig struct {
	// IndexPath is the bleve index directory. Empty keeps the index in memory.
	IndexPath string `mapstructure:"index_path"`
	Enabled   bool   `mapstructure:"enabled"`
}

type NewsConfig struct {
	URL             string        `mapstructure:"url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Enabled         bool          `mapstructure:"enabled"`
	Limit           int           `mapstructure:"limit"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type OpenerConfig struct {
	// Command overrides platform detection when set.
	Command string `mapstructure:"command"`
	// Overrides points at a TOML file with extra opener definitions.
	Overrides string `mapstructure:"overrides"`
}

type UIConfig struct {
	Colors           UIColors `mapstructure:"colors"`
	WordWrapMaxWidth int      `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int      `mapstructure:"word_wrap_min_width"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	Back        string `mapstructure:"back"`
	Forward     string `mapstructure:"forward"`
	Help        string `mapstructure:"help"`
	Open        string `mapstructure:"open"`
	AddToList   string `mapstructure:"add_to_list"`
	Rate        string `mapstructure:"rate"`
	Progress    string `mapstructure:"progress"`
	Season      string `mapstructure:"season"`
	NextStatus  string `mapstructure:"next_status"`
	PrevStatus  string `mapstructure:"prev_status"`
	NextRanking string `mapstructure:"next_ranking"`
	Find        string `mapstructure:"find"`
	Delete      string `mapstructure:"delete"`
}

// DefaultColors is the MyAnimeList-blue palette.
func DefaultColors() UIColors {
	return UIColors{
		Primary:   "#2E51A2",
		Secondary: "#4ECDC4",
		Accent:    "#F4B942",
		Text:      "#EAEAEA",
		Muted:     "#94A3B8",
		Error:     "#F87171",
		Success:   "#4ADE80",
	}
}

func defaultConfig() *Config {
	dbPath, _ := validation.DefaultDBPath()
	indexPath, _ := validation.DefaultIndexPath()

	return &Config{
		Database: DatabaseConfig{
			Path:    dbPath,
			Timeout: 1 * time.Second,
		},
		API: APIConfig{
			BaseURL:       "https://api.myanimelist.net/v2",
			AuthURL:       "https://myanimelist.net/v1/oauth2/authorize",
			TokenURL:      "https://myanimelist.net/v1/oauth2/token",
			RedirectPort:  2006,
			HTTPTimeout:   20 * time.Second,
			UserAgent:     "kiroku/1.0 (https://github.com/pders01/kiroku)",
			SearchLimit:   30,
			ListLimit:     100,
			TitleLanguage: TitleJapanese,
		},
		Navigation: NavigationConfig{
			StackLimit: 15,
			Workers:    2,
			QueueSize:  16,
		},
		Search: SearchConfig{
			IndexPath: indexPath,
			Enabled:   true,
		},
		News: NewsConfig{
			URL:             "https://myanimelist.net/rss/news.xml",
			RefreshInterval: 30 * time.Minute,
			Enabled:         true,
			Limit:           8,
		},
		Log: LogConfig{
			Level: "off",
		},
		UI: UIConfig{
			Colors:           DefaultColors(),
			WordWrapMaxWidth: 120,
			WordWrapMinWidth: 40,
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "/",
				Back:        "esc",
				Forward:     "f",
				Help:        "?",
				Open:        "o",
				AddToList:   "a",
				Rate:        "r",
				Progress:    "e",
				Season:      "s",
				NextStatus:  "]",
				PrevStatus:  "[",
				NextRanking: "tab",
				Find:        "ctrl+f",
				Delete:      "x",
			},
		},
	}
}

// sections flattens cfg into the nested maps viper reads and writes.
// Durations are written as strings so the TOML stays readable.
func sections(cfg *Config) map[string]map[string]any {
	b := cfg.Keys.Bindings
	c := cfg.UI.Colors
	return map[string]map[string]any{
		"database": {
			"path":    cfg.Database.Path,
			"timeout": cfg.Database.Timeout.String(),
		},
		"api": {
			"base_url":       cfg.API.BaseURL,
			"auth_url":       cfg.API.AuthURL,
			"token_url":      cfg.API.TokenURL,
			"client_id":      cfg.API.ClientID,
			"redirect_port":  cfg.API.RedirectPort,
			"http_timeout":   cfg.API.HTTPTimeout.String(),
			"user_agent":     cfg.API.UserAgent,
			"nsfw":           cfg.API.NSFW,
			"search_limit":   cfg.API.SearchLimit,
			"list_limit":     cfg.API.ListLimit,
			"title_language": cfg.API.TitleLanguage,
		},
		"navigation": {
			"stack_limit": cfg.Navigation.StackLimit,
			"workers":     cfg.Navigation.Workers,
			"queue_size":  cfg.Navigation.QueueSize,
		},
		"search": {
			"index_path": cfg.Search.IndexPath,
			"enabled":    cfg.Search.Enabled,
		},
		"news": {
			"url":              cfg.News.URL,
			"refresh_interval": cfg.News.RefreshInterval.String(),
			"enabled":          cfg.News.Enabled,
			"limit":            cfg.News.Limit,
		},
		"log": {
			"level": cfg.Log.Level,
			"path":  cfg.Log.Path,
		},
		"opener": {
			"command":   cfg.Opener.Command,
			"overrides": cfg.Opener.Overrides,
		},
		"ui": {
			"word_wrap_max_width": cfg.UI.WordWrapMaxWidth,
			"word_wrap_min_width": cfg.UI.WordWrapMinWidth,
			"colors": map[string]any{
				"primary":   c.Primary,
				"secondary": c.Secondary,
				"accent":    c.Accent,
				"text":      c.Text,
				"muted":     c.Muted,
				"error":     c.Error,
				"success":   c.Success,
			},
		},
		"keys": {
			"modifier": cfg.Keys.Modifier,
			"bindings": map[string]any{
				"quit":         b.Quit,
				"search":       b.Search,
				"back":         b.Back,
				"forward":      b.Forward,
				"help":         b.Help,
				"open":         b.Open,
				"add_to_list":  b.AddToList,
				"rate":         b.Rate,
				"progress":     b.Progress,
				"season":       b.Season,
				"next_status":  b.NextStatus,
				"prev_status":  b.PrevStatus,
				"next_ranking": b.NextRanking,
				"find":         b.Find,
				"delete":       b.Delete,
			},
		},
	}
}

// setDefaults registers every leaf key so that partial config files and
// KIROKU_* environment variables merge over the defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	for section, values := range sections(cfg) {
		for key, value := range values {
			if nested, ok := value.(map[string]any); ok {
				for k, nv := range nested {
					v.SetDefault(section+"."+key+"."+k, nv)
				}
				continue
			}
			v.SetDefault(section+"."+key, value)
		}
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if p, err := validation.ConfigPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("KIROKU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	return &config, nil
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = absPath(cfg.Database.Path)
	cfg.Search.IndexPath = absPath(cfg.Search.IndexPath)
	cfg.Log.Path = absPath(cfg.Log.Path)
	cfg.Opener.Overrides = absPath(cfg.Opener.Overrides)
}

func absPath(path string) string {
	path = validation.ExpandPath(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Validate reports the first setting that would make the client unusable.
func (c *Config) Validate() error {
	endpoints := validation.NewPermissiveEndpointURLValidator()
	for name, raw := range map[string]string{
		"api.base_url":  c.API.BaseURL,
		"api.auth_url":  c.API.AuthURL,
		"api.token_url": c.API.TokenURL,
	} {
		if _, err := endpoints.ValidateAndNormalize(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.News.Enabled {
		if _, err := endpoints.ValidateAndNormalize(c.News.URL); err != nil {
			return fmt.Errorf("news.url: %w", err)
		}
	}
	if _, err := validation.RedirectURL(c.API.RedirectPort); err != nil {
		return fmt.Errorf("api.redirect_port: %w", err)
	}
	switch strings.ToLower(c.API.TitleLanguage) {
	case TitleJapanese, TitleEnglish:
	default:
		return fmt.Errorf("api.title_language: unknown language %q", c.API.TitleLanguage)
	}
	if c.Navigation.StackLimit < 1 {
		return fmt.Errorf("navigation.stack_limit must be at least 1, got %d", c.Navigation.StackLimit)
	}
	if c.Navigation.Workers < 1 {
		return fmt.Errorf("navigation.workers must be at least 1, got %d", c.Navigation.Workers)
	}
	if c.Navigation.QueueSize < 1 {
		return fmt.Errorf("navigation.queue_size must be at least 1, got %d", c.Navigation.QueueSize)
	}
	return nil
}

func Save(config *Config, path string) error {
	v := viper.New()
	for section, values := range sections(config) {
		v.Set(section, values)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
