package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/models"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// GitHubConfig configures a GitHub store.
type GitHubConfig struct {
	Owner string
	Repo  string
	// Ref is the branch, tag or commit every read is pinned to.
	Ref   string
	Token string
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string
	Timeout time.Duration
	// Rate is the proactive request rate in requests per second.
	Rate float64
}

// GitHub implements Store over the GitHub repository contents API.
type GitHub struct {
	gh      *gh.Client
	owner   string
	repo    string
	ref     string
	limiter *RateLimiter
}

// NewGitHub creates a GitHub store. ctx is used only for the token source.
func NewGitHub(ctx context.Context, cfg GitHubConfig) (*GitHub, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("storage: github owner and repo are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = timeout
	}

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("storage: parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHub{
		gh:      client,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		ref:     cfg.Ref,
		limiter: NewRateLimiter(cfg.Rate),
	}, nil
}

// Ref returns the revision reads are pinned to.
func (g *GitHub) Ref() string { return g.ref }

// RateRemaining returns the last API quota reported by GitHub, or -1 before
// the first response.
func (g *GitHub) RateRemaining() int { return g.limiter.Remaining() }

func (g *GitHub) contents(ctx context.Context, p string) (*gh.RepositoryContent, []*gh.RepositoryContent, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("storage: rate limit wait: %w", err)
	}
	opts := &gh.RepositoryContentGetOptions{Ref: g.ref}
	file, dir, resp, err := g.gh.Repositories.GetContents(ctx, g.owner, g.repo, p, opts)
	if resp != nil {
		g.limiter.Update(resp.Response)
	}
	if err != nil {
		return nil, nil, wrapGitHubError(err, p)
	}
	return file, dir, nil
}

// Read fetches a file's content at the configured revision.
func (g *GitHub) Read(ctx context.Context, p string) ([]byte, error) {
	file, _, err := g.contents(ctx, p)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("storage: read %s: path is a directory", p)
	}

	// Files over 1MB come back without inline content.
	if file.GetEncoding() == "none" {
		return g.download(ctx, p)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", p, err)
	}
	return []byte(content), nil
}

func (g *GitHub) download(ctx context.Context, p string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("storage: rate limit wait: %w", err)
	}
	opts := &gh.RepositoryContentGetOptions{Ref: g.ref}
	rc, resp, err := g.gh.Repositories.DownloadContents(ctx, g.owner, g.repo, p, opts)
	if resp != nil {
		g.limiter.Update(resp.Response)
	}
	if err != nil {
		return nil, wrapGitHubError(err, p)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: download %s: %w", p, err)
	}
	return data, nil
}

// List returns the entries of dir at the configured revision. Symlinks and
// submodules are reported as files.
func (g *GitHub) List(ctx context.Context, dir string) ([]models.Entry, error) {
	file, items, err := g.contents(ctx, dir)
	if err != nil {
		return nil, err
	}
	if file != nil {
		return nil, fmt.Errorf("storage: list %s: path is a file", dir)
	}

	out := make([]models.Entry, 0, len(items))
	for _, it := range items {
		e := models.Entry{
			Name: it.GetName(),
			Path: it.GetPath(),
			Type: models.EntryFile,
			SHA:  it.GetSHA(),
		}
		if it.GetType() == "dir" {
			e.Type = models.EntryDir
		}
		out = append(out, e)
	}
	return out, nil
}

// wrapGitHubError maps go-github errors onto the apperr taxonomy.
func wrapGitHubError(err error, p string) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return apperr.FromStatus(ghErr.Response.StatusCode, p)
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return apperr.FromStatus(rateErr.Response.StatusCode, p)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return apperr.FromStatus(abuseErr.Response.StatusCode, p)
	}
	return fmt.Errorf("storage: fetch %s: %w", p, err)
}
