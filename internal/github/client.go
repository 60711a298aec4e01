package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

const perPage = 100

// Options configures a Client
type Options struct {
	Token      string
	RateLimit  int // Requests per second
	MaxWorkers int // Concurrent commit detail calls
	// BaseURL points the client at GitHub Enterprise or a test server
	BaseURL string
	Cache   *StatsCache
	Logger  *logrus.Logger
}

// Client wraps the GitHub API client with rate limiting and concurrency
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	maxWorkers  int
	cache       *StatsCache
	logger      *logrus.Entry
}

// NewClient creates a new GitHub client with rate limiting
func NewClient(opts Options) (*Client, error) {
	client := github.NewClient(nil)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.WrapConfig(err, "invalid GitHub base URL %q", opts.BaseURL)
		}
		client.BaseURL = u
	}

	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		maxWorkers:  opts.MaxWorkers,
		cache:       opts.Cache,
		logger:      logger.WithField("component", "github"),
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// ListOrgRepos lists the organization's repositories. With includePrivate
// the authenticated user's organization repositories are merged in, which
// surfaces private repositories the org listing hides from some tokens.
func (c *Client) ListOrgRepos(ctx context.Context, org string, includePrivate, excludeArchived bool) ([]models.Repository, error) {
	byName := make(map[string]*github.Repository)

	orgOpts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, orgOpts)
		if err != nil {
			return nil, apiError(err, "list repositories for %s", org)
		}
		for _, r := range repos {
			byName[r.GetFullName()] = r
		}
		if resp.NextPage == 0 {
			break
		}
		orgOpts.Page = resp.NextPage
	}

	if includePrivate {
		userOpts := &github.RepositoryListByAuthenticatedUserOptions{
			Visibility:  "all",
			Affiliation: "organization_member,owner",
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		for {
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
			repos, resp, err := c.client.Repositories.ListByAuthenticatedUser(ctx, userOpts)
			if err != nil {
				// anonymous clients have no user listing; the org listing stands
				c.logger.WithError(err).Debug("skipping authenticated user repository listing")
				break
			}
			for _, r := range repos {
				if strings.EqualFold(r.GetOwner().GetLogin(), org) {
					byName[r.GetFullName()] = r
				}
			}
			if resp.NextPage == 0 {
				break
			}
			userOpts.Page = resp.NextPage
		}
	}

	out := make([]models.Repository, 0, len(byName))
	for _, r := range byName {
		if excludeArchived && r.GetArchived() {
			continue
		}
		out = append(out, mapRepository(org, r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })

	c.logger.WithFields(logrus.Fields{
		"org":          org,
		"repositories": len(out),
	}).Info("listed organization repositories")
	return out, nil
}

func mapRepository(org string, r *github.Repository) models.Repository {
	owner := r.GetOwner().GetLogin()
	if owner == "" {
		owner = org
	}
	return models.Repository{
		ID:            r.GetFullName(),
		URL:           r.GetHTMLURL(),
		Owner:         owner,
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		Archived:      r.GetArchived(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      r.GetLanguage(),
		PushedAt:      r.GetPushedAt().Time,
	}
}

// FetchCommits retrieves commits since the given time. With includeStats
// each commit's line counts are read from the stats cache or fetched
// through a bounded worker pool.
func (c *Client) FetchCommits(ctx context.Context, owner, repo string, since time.Time, includeStats bool) ([]models.RawCommit, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	fullName := owner + "/" + repo

	var commits []models.RawCommit
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		page, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, apiError(err, "list commits for %s", fullName)
		}
		for _, rc := range page {
			commits = append(commits, mapCommit(fullName, rc))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if includeStats && len(commits) > 0 {
		if err := c.fillStats(ctx, owner, repo, commits); err != nil {
			return nil, err
		}
	}

	c.logger.WithFields(logrus.Fields{
		"repository": fullName,
		"commits":    len(commits),
		"stats":      includeStats,
	}).Debug("fetched commits")
	return commits, nil
}

// mapCommit converts a listed commit. The author is the git author name,
// which is what identity aliases are written against.
func mapCommit(repository string, rc *github.RepositoryCommit) models.RawCommit {
	author := rc.GetCommit().GetAuthor()
	return models.RawCommit{
		SHA:         rc.GetSHA(),
		Author:      author.GetName(),
		AuthorEmail: author.GetEmail(),
		Repository:  repository,
		Timestamp:   author.GetDate().Time.UTC(),
		Message:     rc.GetCommit().GetMessage(),
	}
}

func (c *Client) fillStats(ctx context.Context, owner, repo string, commits []models.RawCommit) error {
	fullName := owner + "/" + repo

	var missing []int
	for i := range commits {
		if stats, ok := c.cachedStats(fullName, commits[i].SHA); ok {
			stats.apply(&commits[i])
			continue
		}
		missing = append(missing, i)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxWorkers)

	var mu sync.Mutex
	var failed int
	for _, idx := range missing {
		g.Go(func() error {
			sha := commits[idx].SHA
			if err := c.wait(ctx); err != nil {
				return err
			}
			detail, _, err := c.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
			if err != nil {
				var rle *github.RateLimitError
				if stderrors.As(err, &rle) {
					return apiError(err, "commit detail for %s@%s", fullName, sha)
				}
				// a single unreadable commit keeps zero line counts
				c.logger.WithError(err).WithField("sha", sha).Warn("failed to fetch commit stats")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			stats := CommitStats{
				Additions: detail.GetStats().GetAdditions(),
				Deletions: detail.GetStats().GetDeletions(),
			}
			stats.Total = stats.Additions + stats.Deletions
			stats.apply(&commits[idx])

			if c.cache != nil {
				if err := c.cache.Put(fullName, sha, stats); err != nil {
					c.logger.WithError(err).Warn("failed to cache commit stats")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"repository": fullName,
		"cached":     len(commits) - len(missing),
		"fetched":    len(missing) - failed,
		"failed":     failed,
	}).Debug("filled commit stats")
	return nil
}

func (c *Client) cachedStats(repository, sha string) (CommitStats, bool) {
	if c.cache == nil {
		return CommitStats{}, false
	}
	stats, ok, err := c.cache.Get(repository, sha)
	if err != nil {
		c.logger.WithError(err).Warn("stats cache read failed")
		return CommitStats{}, false
	}
	return stats, ok
}

// FetchOptions selects what FetchOrg extracts
type FetchOptions struct {
	Org             string
	Since           time.Time
	IncludePrivate  bool
	ExcludeArchived bool
	IncludeStats    bool
	// Repositories limits extraction to these names; empty means all
	Repositories []string
}

// FetchResult is everything one organization extract produced
type FetchResult struct {
	Repositories []models.Repository
	Commits      []models.RawCommit
	// Failed maps repository full names to the error that stopped them
	Failed map[string]error
}

// FetchOrg extracts commits from every selected repository of an
// organization. A repository that fails is recorded and skipped; the
// extract fails only when the repository listing itself fails or ctx ends.
func (c *Client) FetchOrg(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	repos, err := c.ListOrgRepos(ctx, opts.Org, opts.IncludePrivate, opts.ExcludeArchived)
	if err != nil {
		return nil, err
	}
	repos = filterRepositories(repos, opts.Repositories)

	result := &FetchResult{
		Repositories: repos,
		Failed:       make(map[string]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	// repositories share the rate limiter, a few at a time keeps pages flowing
	g.SetLimit(4)
	for _, repo := range repos {
		g.Go(func() error {
			commits, err := c.FetchCommits(gctx, repo.Owner, repo.Name, opts.Since, opts.IncludeStats)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.WithError(err).WithField("repository", repo.FullName).Warn("skipping repository")
				result.Failed[repo.FullName] = err
				return nil
			}
			result.Commits = append(result.Commits, commits...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(result.Commits, func(i, j int) bool {
		return result.Commits[i].Timestamp.Before(result.Commits[j].Timestamp)
	})

	c.logger.WithFields(logrus.Fields{
		"org":          opts.Org,
		"repositories": len(repos),
		"commits":      len(result.Commits),
		"failed":       len(result.Failed),
	}).Info("organization extract complete")
	return result, nil
}

func filterRepositories(repos []models.Repository, names []string) []models.Repository {
	if len(names) == 0 {
		return repos
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	var out []models.Repository
	for _, r := range repos {
		if want[strings.ToLower(r.Name)] || want[strings.ToLower(r.FullName)] {
			out = append(out, r)
		}
	}
	return out
}

func apiError(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	var rle *github.RateLimitError
	if stderrors.As(err, &rle) {
		return errors.NetworkErrorf(err, "%s: rate limit exceeded, resets at %s", msg, rle.Rate.Reset.Time.Format(time.RFC3339))
	}
	var aerr *github.AbuseRateLimitError
	if stderrors.As(err, &aerr) {
		return errors.NetworkErrorf(err, "%s: secondary rate limit hit", msg)
	}
	return errors.ExternalError(err, msg)
}
