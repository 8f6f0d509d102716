package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/odshub/pkg/config"
)

func validGitHubConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.GitHub.Owner = "org"
	cfg.GitHub.Repo = "content"
	return cfg
}

func TestDefaultConfig_RequiresRepository(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("github source without owner/repo should fail")
	}
	if err := validGitHubConfig().Validate(); err != nil {
		t.Fatalf("github config with owner/repo should pass: %v", err)
	}
}

func TestContentConfig_FSSource(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Content.Source = SourceFS
	if err := cfg.Validate(); err == nil {
		t.Fatal("fs source without fs_path should fail")
	}

	cfg.Content.FSPath = "./content"
	cfg.Content.Watch = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fs source with path should pass without github settings: %v", err)
	}
}

func TestContentConfig_WatchRequiresFS(t *testing.T) {
	cfg := validGitHubConfig()
	cfg.Content.Watch = true
	err := cfg.Validate()
	if err == nil {
		t.Fatal("watch with github source should fail")
	}
	if !strings.Contains(err.Error(), "watch requires the fs source") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestContentConfig_UnknownSource(t *testing.T) {
	cfg := validGitHubConfig()
	cfg.Content.Source = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown source should fail")
	}
}

func TestContentConfig_SectionColors(t *testing.T) {
	cfg := validGitHubConfig()
	cfg.Content.SectionColors = map[string]string{"about": "#AA0000", "guidance": "#abc"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("hex colors should pass: %v", err)
	}

	cfg.Content.SectionColors["examples"] = "red; background: url(x)"
	if err := cfg.Validate(); err == nil {
		t.Fatal("non-hex color should fail")
	}
}

func TestDefaultConfig_LanguageDetection(t *testing.T) {
	if !NewDefaultConfig().Content.LanguageDetection {
		t.Error("language detection should default to on")
	}
}

func TestSearchConfig_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SearchConfig)
	}{
		{"threshold above one", func(c *SearchConfig) { c.Threshold = 1.5 }},
		{"negative threshold", func(c *SearchConfig) { c.Threshold = -0.1 }},
		{"negative concurrency", func(c *SearchConfig) { c.FetchConcurrency = -1 }},
		{"ttl too short", func(c *SearchConfig) { c.SessionTTL = time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validGitHubConfig()
			tt.mutate(&cfg.Search)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolveRevision(t *testing.T) {
	tests := []struct {
		branch, host, want string
	}{
		{"", "ods-dev.example.gov", RevisionDev},
		{"", "ods-qa.example.gov", RevisionDev},
		{"", "ods-stage.example.gov", RevisionDev},
		{"", "localhost", RevisionDev},
		{"", "ods.example.gov", RevisionMain},
		{"", "", RevisionMain},
		{"feature-x", "ods.example.gov", "feature-x"},
		{"release", "localhost", "release"},
	}
	for _, tt := range tests {
		got := ResolveRevision(GitHubConfig{Branch: tt.branch}, tt.host)
		if got != tt.want {
			t.Errorf("ResolveRevision(%q, %q) = %q, want %q", tt.branch, tt.host, got, tt.want)
		}
	}
}

func TestLoadYAML_ExpandsEnvAndDurations(t *testing.T) {
	t.Setenv("ODSHUB_TEST_TOKEN", "ghp_secret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
  http:
    port: 9090
content:
  source: github
  pages_root: pages
  landing_path: config/home.json
github:
  owner: org
  repo: content
  token: ${ODSHUB_TEST_TOKEN}
  timeout: 5s
search:
  threshold: 0.3
  session_ttl: 2m
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GitHub.Token != "ghp_secret" {
		t.Errorf("token = %q", cfg.GitHub.Token)
	}
	if cfg.GitHub.Timeout != 5*time.Second || cfg.Search.SessionTTL != 2*time.Minute {
		t.Errorf("durations = %v, %v", cfg.GitHub.Timeout, cfg.Search.SessionTTL)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Search.FetchConcurrency == 0 {
		t.Error("unset fields should keep their defaults")
	}
}
