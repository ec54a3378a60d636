package entries

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/github"
	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/server/tenant"
)

// GitHubEntryFetcher loads an entry's markdown file and commit history from
// the tenant's GitHub repository. The created author comes from the oldest
// commit touching the file, the updated author from the newest; a file with
// no history gets the unknown-author sentinel for both.
type GitHubEntryFetcher struct {
	registry *tenant.Registry
	log      logging.Logger
}

// NewGitHubEntryFetcher builds a fetcher over the tenant registry.
func NewGitHubEntryFetcher(registry *tenant.Registry, log logging.Logger) *GitHubEntryFetcher {
	return &GitHubEntryFetcher{registry: registry, log: log}
}

var _ EntryFetcher = (*GitHubEntryFetcher)(nil)

// Fetch implements EntryFetcher.
func (f *GitHubEntryFetcher) Fetch(ctx context.Context, tenantID, contentPath string) (entry.Entry, error) {
	src, err := f.registry.Resolve(tenantID)
	if err != nil {
		return entry.Entry{}, err
	}
	file, err := src.Client.GetFile(ctx, src.Owner, src.Repo, contentPath)
	if err != nil {
		if errors.Is(err, github.ErrFileNotFound) {
			return entry.Entry{}, ErrEntryNotFound
		}
		return entry.Entry{}, fmt.Errorf("fetch %s: %w", contentPath, err)
	}
	markdown, err := file.Decode()
	if err != nil {
		return entry.Entry{}, err
	}
	commits, err := src.Client.ListCommits(ctx, src.Owner, src.Repo, contentPath)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("fetch history of %s: %w", contentPath, err)
	}
	created, updated := entry.UnknownAuthor, entry.UnknownAuthor
	if len(commits) > 0 {
		// the commits API lists newest first
		updated = toAuthor(commits[0])
		created = toAuthor(commits[len(commits)-1])
	}
	entryID, err := entry.ParseID(path.Base(contentPath))
	if err != nil {
		return entry.Entry{}, err
	}
	key := entry.NewEntryKey(entryID, tenantID)
	parsed, err := entry.ParseMarkdown(key, markdown, created, updated)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("parse %s: %w", contentPath, err)
	}
	f.log.Debug(ctx, "fetched entry", "tenantId", key.TenantID, "path", contentPath)
	return parsed, nil
}

func toAuthor(c github.Commit) entry.Author {
	return entry.Author{Name: c.Commit.Author.Name, Date: c.Commit.Author.Date}
}
