package internal

import "github.com/starford/odshub/internal/storage"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  storage.Store
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore replaces the content store the configuration would build.
func WithStore(store storage.Store) Option {
	return func(a *application) {
		a.store = store
	}
}
