package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/odshub/internal/index"
	"github.com/starford/odshub/internal/landing"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/search"
	"github.com/starford/odshub/internal/storage"
)

// Content sources.
const (
	SourceGitHub = "github"
	SourceFS     = "fs"
)

// Revisions selected when no branch is configured.
const (
	RevisionDev  = "dev"
	RevisionMain = "main"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	GitHub  GitHubConfig      `yaml:"github"`
	Search  SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if c.Content.Source == SourceGitHub {
		if err := c.GitHub.Validate(); err != nil {
			return err
		}
	}
	return c.Search.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
	)
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ContentConfig selects where pages and the landing config come from.
type ContentConfig struct {
	Source      string `yaml:"source"`
	PagesRoot   string `yaml:"pages_root"`
	LandingPath string `yaml:"landing_path"`
	AssetsRoot  string `yaml:"assets_root"`
	// FSPath is the local checkout read when Source is "fs".
	FSPath string `yaml:"fs_path"`
	// Watch publishes change events for the local checkout over SSE.
	Watch bool `yaml:"watch"`
	// HighlightStyle is the chroma style served at /api/assets/highlight.css.
	HighlightStyle string `yaml:"highlight_style"`
	// IframeDomains replaces the default iframe allow-list when non-empty.
	IframeDomains []string `yaml:"iframe_domains"`
	// LanguageDetection guesses the lexer of fenced blocks without a language.
	LanguageDetection bool `yaml:"language_detection"`
	// SectionColors maps a collection name to the hex accent color of its pages.
	SectionColors map[string]string `yaml:"section_colors"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required, validation.In(SourceGitHub, SourceFS)),
		validation.Field(&c.PagesRoot, validation.Required),
		validation.Field(&c.LandingPath, validation.Required),
		validation.Field(&c.FSPath, validation.When(c.Source == SourceFS, validation.Required)),
		validation.Field(&c.Watch, validation.When(c.Source != SourceFS, validation.Empty.Error("watch requires the fs source"))),
		validation.Field(&c.SectionColors, validation.Each(validation.Match(hexColor).Error("must be a hex color like #345D85"))),
	)
}

// GitHubConfig addresses the content repository on GitHub.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	// Branch overrides revision selection when set.
	Branch string `yaml:"branch"`
	// Host is the public host name the site is served from; it decides the
	// revision when Branch is empty.
	Host    string        `yaml:"host"`
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Rate    float64       `yaml:"rate"`
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Rate, validation.Min(0.0)),
	)
}

// SearchConfig tunes the search engine and session registry.
type SearchConfig struct {
	Threshold        float64       `yaml:"threshold"`
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Threshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.FetchConcurrency, validation.Min(0)),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Second)),
	)
}

// ResolveRevision returns the branch to read content from: the configured
// branch if any, "dev" when host is a development or staging host,
// otherwise "main".
func ResolveRevision(cfg GitHubConfig, host string) string {
	if cfg.Branch != "" {
		return cfg.Branch
	}
	host = strings.ToLower(host)
	for _, marker := range []string{"dev", "qa", "stage", "localhost"} {
		if strings.Contains(host, marker) {
			return RevisionDev
		}
	}
	return RevisionMain
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:        8080,
				ReadTimeout: 15 * time.Second,
			},
		},
		Content: ContentConfig{
			Source:            SourceGitHub,
			PagesRoot:         pageservice.DefaultPagesRoot,
			LandingPath:       landing.DefaultPath,
			HighlightStyle:    "github",
			LanguageDetection: true,
		},
		GitHub: GitHubConfig{
			Timeout: storage.DefaultTimeout,
			Rate:    storage.DefaultRate,
		},
		Search: SearchConfig{
			Threshold:        search.DefaultThreshold,
			FetchConcurrency: index.DefaultConcurrency,
			SessionTTL:       10 * time.Minute,
		},
	}
}
