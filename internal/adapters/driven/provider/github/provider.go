package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Ensure Provider implements the interface.
var _ driven.RemoteProvider = (*Provider)(nil)

// Provider lists and creates repositories for a single GitHub account.
type Provider struct {
	account     string
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewProvider creates a provider for the given account, authenticated with
// a static access token. Works for both PAT and OAuth access tokens.
func NewProvider(ctx context.Context, account, token string) *Provider {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Provider{
		account:     account,
		gh:          gh.NewClient(tc),
		rateLimiter: NewRateLimiter(),
	}
}

// Account returns the account whose repositories are listed.
func (p *Provider) Account() string {
	return p.account
}

// ListRepositories returns all repositories owned by the account, in
// provider order, deduplicated by full name.
func (p *Provider) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []domain.Repository
	seen := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		repos, resp, err := p.gh.Repositories.ListByUser(ctx, p.account, opts)
		if err != nil {
			return nil, p.wrapError(err, "list repositories")
		}
		p.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			mapped := repoFromGitHub(repo)
			if mapped.FullName == "" || seen[mapped.FullName] {
				continue
			}
			seen[mapped.FullName] = true
			all = append(all, mapped)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateRepository creates a repository on GitHub under the authenticated
// account.
func (p *Provider) CreateRepository(ctx context.Context, name, description string, private bool) (*domain.Repository, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	created, resp, err := p.gh.Repositories.Create(ctx, "", &gh.Repository{
		Name:        gh.Ptr(name),
		Description: gh.Ptr(description),
		Private:     gh.Ptr(private),
		AutoInit:    gh.Ptr(true),
	})
	if err != nil {
		return nil, p.wrapError(err, "create repository")
	}
	p.updateRateLimitFromResponse(resp)

	repo := repoFromGitHub(created)
	return &repo, nil
}

// ValidateCredentials checks that the token is valid by fetching the
// authenticated user.
func (p *Provider) ValidateCredentials(ctx context.Context) error {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := p.gh.Users.Get(ctx, "")
	if err != nil {
		return p.wrapError(err, "validate credentials")
	}
	p.updateRateLimitFromResponse(resp)
	return nil
}

// RateLimiter returns the rate limiter for external access.
func (p *Provider) RateLimiter() *RateLimiter {
	return p.rateLimiter
}

func (p *Provider) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	p.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (p *Provider) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, &RateLimitError{
			ResetAt:   p.rateLimiter.ResetTime(),
			Remaining: p.rateLimiter.Remaining(),
			Limit:     p.rateLimiter.Limit(),
		})
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}

func repoFromGitHub(repo *gh.Repository) domain.Repository {
	if repo == nil {
		return domain.Repository{}
	}

	out := domain.Repository{
		FullName:    repo.GetFullName(),
		Name:        repo.GetName(),
		Description: repo.GetDescription(),
		URL:         repo.GetHTMLURL(),
	}
	if created := repo.GetCreatedAt(); !created.IsZero() {
		out.CreatedAt = created.Time
	}
	return out
}
