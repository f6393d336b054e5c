package cli

import (
	"net/http"

	"github.com/sprite-ai/wizmerge/internal/config"
	"github.com/sprite-ai/wizmerge/internal/gitcli"
	"github.com/sprite-ai/wizmerge/internal/platform"
	"github.com/sprite-ai/wizmerge/internal/prresolve"
)

func platformOptions(c *config.Config) platform.Options {
	retry := platform.DefaultRetryConfig()
	retry.MaxRetries = c.Retry.MaxRetries
	retry.BaseDelay = c.Retry.BaseDelay
	retry.MaxDelay = c.Retry.MaxDelay

	return platform.Options{
		GitHubToken:       c.GitHub.Token,
		GitHubAPIURL:      c.GitHub.APIURL,
		GitLabToken:       c.GitLab.Token,
		GitLabURL:         c.GitLab.URL,
		HTTPClient:        &http.Client{Timeout: c.Client.Timeout},
		Retry:             retry,
		RequestsPerSecond: c.RateLimit.RequestsPerSecond,
		Burst:             c.RateLimit.Burst,
	}
}

// newResolver builds the pull request resolver from configuration.
func newResolver(c *config.Config) *prresolve.Service {
	opts := platformOptions(c)
	return &prresolve.Service{
		NewRemote: func(token string) (prresolve.Remote, error) {
			client, err := platform.New(opts.WithToken(token))
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Git: gitcli.New(c.Git.Path),
		Identity: gitcli.Identity{
			Name:  c.Git.UserName,
			Email: c.Git.UserEmail,
		},
		Concurrency: c.Resolve.Concurrency,
	}
}
