// Package landing loads the landing page configuration from the content
// store, falling back to a bundled default.
package landing

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/odshub/internal/storage"
)

// DefaultPath is the store path of the landing configuration.
const DefaultPath = "config/home.json"

// Sources of a loaded configuration.
const (
	SourceStore   = "store"
	SourceDefault = "default"
)

//go:embed default.json
var defaultConfig []byte

// HomePageConfig describes every section of the landing page.
type HomePageConfig struct {
	Hero        Hero        `json:"hero"`
	Gallery     Gallery     `json:"gallery"`
	Guidance    Guidance    `json:"guidance"`
	DataSharing DataSharing `json:"dataSharing"`
}

type Hero struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Mission  Mission `json:"mission"`
	Image    Image   `json:"image"`
}

type Mission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Gallery struct {
	Title   string   `json:"title"`
	Updates []Update `json:"updates"`
}

// Update is one card of the gallery.
type Update struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	ReadMoreColor string `json:"readMoreColor"`
	Link          string `json:"link"`
}

type Guidance struct {
	Title            string `json:"title"`
	LeftColumnLinks  []Link `json:"leftColumnLinks"`
	RightColumnLinks []Link `json:"rightColumnLinks"`
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

type DataSharing struct {
	Title       string   `json:"title"`
	ProcessList []string `json:"processList"`
}

// Validate checks the fields the landing page cannot render without.
func (c HomePageConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Hero),
		validation.Field(&c.Gallery),
		validation.Field(&c.Guidance),
	)
}

func (h Hero) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Title, validation.Required),
	)
}

func (g Gallery) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Updates),
	)
}

func (u Update) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Title, validation.Required),
		validation.Field(&u.Link, validation.Required),
	)
}

func (g Guidance) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.LeftColumnLinks),
		validation.Field(&g.RightColumnLinks),
	)
}

func (l Link) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Href, validation.Required),
	)
}

// Default returns the bundled configuration.
func Default() *HomePageConfig {
	var c HomePageConfig
	if err := json.Unmarshal(defaultConfig, &c); err != nil {
		panic(fmt.Sprintf("landing: bundled default is invalid: %v", err))
	}
	return &c
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*HomePageConfig, error) {
	var c HomePageConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("landing: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("landing: validate: %w", err)
	}
	return &c, nil
}

// Loader reads the landing configuration from a store.
type Loader struct {
	store  storage.Store
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for path. An empty path means DefaultPath.
func NewLoader(store storage.Store, path string, logger *slog.Logger) *Loader {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, path: path, logger: logger}
}

// Load returns the stored configuration, or the bundled default when it
// cannot be fetched or parsed. The second value names the source used.
func (l *Loader) Load(ctx context.Context) (*HomePageConfig, string) {
	data, err := l.store.Read(ctx, l.path)
	if err != nil {
		l.logger.Warn("landing: fetch failed, using default",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		return Default(), SourceDefault
	}
	c, err := Parse(data)
	if err != nil {
		l.logger.Warn("landing: invalid config, using default",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		return Default(), SourceDefault
	}
	return c, SourceStore
}
