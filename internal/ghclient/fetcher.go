package ghclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/model"
)

// Stage identifies which request a Progress update refers to.
type Stage int

const (
	StageProfile      Stage = iota // profile fetched
	StageRepositories              // a repository page fetched
)

// Progress describes how far a fetch has come.
type Progress struct {
	Stage    Stage
	Page     int // last repository page fetched, 0 for StageProfile
	Fetched  int // repositories collected so far
	Expected int // public repositories declared by the profile
}

// ProgressFunc receives progress updates during Fetch.
type ProgressFunc func(Progress)

// Fetch retrieves the profile for username and then every page of its
// public repositories. Failures never escape as errors: a blank username or
// an unsuccessful profile request yields an *model.ErrorResult, and a
// failing repository page ends pagination with a partial *model.SuccessResult.
func (c *Client) Fetch(ctx context.Context, username string) model.Result {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.EmptyInput()
	}

	user, _, err := c.client.Users.Get(ctx, username)
	if err != nil {
		log.Debug("profile request failed", "user", username, "error", err)
		return model.ProfileUnavailable()
	}

	profile := profileFromUser(username, user)
	c.report(Progress{Stage: StageProfile, Expected: profile.PublicRepos})

	repos, partialReason := c.listRepositories(ctx, username, profile.PublicRepos)

	result := &model.SuccessResult{
		Profile:       profile,
		Repositories:  repos,
		FetchedAt:     time.Now().UTC(),
		Partial:       partialReason != "",
		PartialReason: partialReason,
	}

	if result.Partial {
		log.Warn("repository list is incomplete", "user", username, "fetched", len(repos), "reason", partialReason)
	}
	if result.ExceedsDeclared(constants.PageSize) {
		log.Debug("more repositories listed than declared", "user", username,
			"listed", len(repos), "declared", profile.PublicRepos)
	}

	return result
}

// listRepositories pages through the user's repositories until an empty
// page. It returns a non-empty reason when it had to stop early.
func (c *Client) listRepositories(ctx context.Context, username string, expected int) ([]model.Repository, string) {
	repos := []model.Repository{}

	opts := &gh.RepositoryListOptions{
		ListOptions: gh.ListOptions{PerPage: constants.PageSize},
	}

	for page := 1; page <= c.maxPages; page++ {
		opts.Page = page

		batch, _, err := c.client.Repositories.List(ctx, username, opts)
		if err != nil {
			log.Debug("repository page request failed", "user", username, "page", page, "error", err)
			return repos, fmt.Sprintf("page %d request failed", page)
		}
		if len(batch) == 0 {
			return repos, ""
		}

		for _, r := range batch {
			repos = append(repos, repositoryFromAPI(r))
		}

		log.Trace("repository page fetched", "user", username, "page", page, "count", len(batch))
		c.report(Progress{Stage: StageRepositories, Page: page, Fetched: len(repos), Expected: expected})
	}

	return repos, fmt.Sprintf("page limit of %d reached", c.maxPages)
}

func (c *Client) report(p Progress) {
	if c.progress != nil {
		c.progress(p)
	}
}

func profileFromUser(login string, u *gh.User) model.Profile {
	if l := u.GetLogin(); l != "" {
		login = l
	}
	return model.Profile{
		Login:       login,
		Name:        model.StringPtr(u.GetName()),
		Bio:         model.StringPtr(u.GetBio()),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		PublicRepos: u.GetPublicRepos(),
		AvatarURL:   u.GetAvatarURL(),
		HTMLURL:     u.GetHTMLURL(),
	}
}

func repositoryFromAPI(r *gh.Repository) model.Repository {
	return model.Repository{
		Name:      r.GetName(),
		Language:  model.StringPtr(r.GetLanguage()),
		Stars:     max(r.GetStargazersCount(), 0),
		Forks:     max(r.GetForksCount(), 0),
		CreatedAt: r.GetCreatedAt().Time.UTC(),
	}
}
