// Package services holds the application services between the HTTP layer and
// the repositories: entry reads/writes with optional GitHub write-through,
// webhook synchronization, AI summarization/editing and S3 upload presigning.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/github"
	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/pagination"
	"github.com/categolj/entry-api-gemfire/internal/server/repositories/entries"
	"github.com/categolj/entry-api-gemfire/internal/server/tenant"
)

// EntryService exposes the entry operations. With direct update enabled,
// mutations are written to the tenant's GitHub repository first and then
// mirrored into the region, so the authoritative source never lags behind.
type EntryService struct {
	repository   entries.EntryRepository
	registry     *tenant.Registry
	directUpdate bool
	log          logging.Logger
}

// NewEntryService wires the entry service.
func NewEntryService(repository entries.EntryRepository, registry *tenant.Registry,
	directUpdate bool, log logging.Logger,
) *EntryService {
	return &EntryService{repository: repository, registry: registry, directUpdate: directUpdate, log: log}
}

func (s *EntryService) FindByID(ctx context.Context, key entry.EntryKey) (entry.Entry, error) {
	return s.repository.FindByID(ctx, key)
}

func (s *EntryService) FindAll(ctx context.Context, keys []entry.EntryKey) ([]entry.Entry, error) {
	return s.repository.FindAll(ctx, keys)
}

func (s *EntryService) FindOrderByUpdated(ctx context.Context, tenantID string,
	criteria entry.SearchCriteria, pageRequest pagination.CursorPageRequest[time.Time],
) (pagination.CursorPage[entry.Entry], error) {
	return s.repository.FindOrderByUpdated(ctx, tenantID, criteria, pageRequest)
}

// FindLatest returns the newest entries with the default page size.
func (s *EntryService) FindLatest(ctx context.Context, tenantID string) (pagination.CursorPage[entry.Entry], error) {
	return s.repository.FindOrderByUpdated(ctx, tenantID, entry.SearchCriteria{},
		pagination.NewCursorPageRequest[time.Time](nil, pagination.DefaultPageSize))
}

func (s *EntryService) FindAllCategories(ctx context.Context, tenantID string) ([][]entry.Category, error) {
	return s.repository.FindAllCategories(ctx, tenantID)
}

func (s *EntryService) FindAllTags(ctx context.Context, tenantID string) ([]entry.TagAndCount, error) {
	return s.repository.FindAllTags(ctx, tenantID)
}

func (s *EntryService) NextID(ctx context.Context, tenantID string) (int64, error) {
	return s.repository.NextID(ctx, tenantID)
}

func (s *EntryService) SaveAll(ctx context.Context, es []entry.Entry) error {
	return s.repository.SaveAll(ctx, es)
}

// Save stores an entry, through GitHub first when direct update is on.
func (s *EntryService) Save(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if s.directUpdate {
		return s.saveToGitHub(ctx, e)
	}
	return s.repository.Save(ctx, e)
}

// DeleteByID removes an entry, from GitHub as well when direct update is on.
func (s *EntryService) DeleteByID(ctx context.Context, key entry.EntryKey) error {
	if s.directUpdate {
		return s.deleteFromGitHub(ctx, key)
	}
	return s.repository.DeleteByID(ctx, key)
}

// UpdateSummary replaces an entry's summary. With direct update the entry is
// re-read from GitHub so the rewrite does not clobber unfetched changes.
func (s *EntryService) UpdateSummary(ctx context.Context, key entry.EntryKey, summary string) error {
	if !s.directUpdate {
		return s.repository.UpdateSummary(ctx, key, summary)
	}
	current, err := s.fetchFromGitHub(ctx, key)
	if err != nil {
		return err
	}
	_, err = s.saveToGitHub(ctx, current.WithFrontMatter(current.FrontMatter.WithSummary(summary)))
	return err
}

func (s *EntryService) saveToGitHub(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	key := e.EntryKey
	src, err := s.registry.Resolve(key.TenantID)
	if err != nil {
		return entry.Entry{}, err
	}
	path := entries.ContentPath(key.EntryID)
	markdown := e.ToMarkdown()
	formattedID := entry.FormatID(key.EntryID)
	existing, err := src.Client.GetFile(ctx, src.Owner, src.Repo, path)
	switch {
	case errors.Is(err, github.ErrFileNotFound):
		s.log.Info(ctx, "action=create_file", "tenantId", key.TenantID, "owner", src.Owner, "repo", src.Repo, "path", path)
		if _, err := src.Client.CreateFile(ctx, src.Owner, src.Repo, path,
			"Create entry "+formattedID, markdown, nil); err != nil {
			return entry.Entry{}, fmt.Errorf("create file on github: %w", err)
		}
	case err != nil:
		return entry.Entry{}, err
	default:
		s.log.Info(ctx, "action=update_file", "tenantId", key.TenantID, "owner", src.Owner, "repo", src.Repo, "path", path, "sha", existing.SHA)
		if _, err := src.Client.UpdateFile(ctx, src.Owner, src.Repo, path,
			"Update entry "+formattedID, markdown, existing.SHA, nil); err != nil {
			return entry.Entry{}, fmt.Errorf("update file on github: %w", err)
		}
	}
	return s.repository.Save(ctx, e)
}

func (s *EntryService) deleteFromGitHub(ctx context.Context, key entry.EntryKey) error {
	src, err := s.registry.Resolve(key.TenantID)
	if err != nil {
		return err
	}
	path := entries.ContentPath(key.EntryID)
	existing, err := src.Client.GetFile(ctx, src.Owner, src.Repo, path)
	switch {
	case errors.Is(err, github.ErrFileNotFound):
		s.log.Info(ctx, "action=skip_delete", "tenantId", key.TenantID, "reason", "not_found", "owner", src.Owner, "repo", src.Repo, "path", path)
	case err != nil:
		return err
	default:
		s.log.Info(ctx, "action=delete_file", "tenantId", key.TenantID, "owner", src.Owner, "repo", src.Repo, "path", path, "sha", existing.SHA)
		if err := src.Client.DeleteFile(ctx, src.Owner, src.Repo, path,
			"Delete entry "+entry.FormatID(key.EntryID), existing.SHA, nil); err != nil {
			return fmt.Errorf("delete file on github: %w", err)
		}
	}
	return s.repository.DeleteByID(ctx, key)
}

// fetchFromGitHub reads the current file content without commit history;
// the authors are unknown since only the front matter is rewritten.
func (s *EntryService) fetchFromGitHub(ctx context.Context, key entry.EntryKey) (entry.Entry, error) {
	src, err := s.registry.Resolve(key.TenantID)
	if err != nil {
		return entry.Entry{}, err
	}
	path := entries.ContentPath(key.EntryID)
	s.log.Info(ctx, "action=fetch_file", "tenantId", key.TenantID, "owner", src.Owner, "repo", src.Repo, "path", path)
	file, err := src.Client.GetFile(ctx, src.Owner, src.Repo, path)
	if err != nil {
		if errors.Is(err, github.ErrFileNotFound) {
			return entry.Entry{}, entries.ErrEntryNotFound
		}
		return entry.Entry{}, err
	}
	markdown, err := file.Decode()
	if err != nil {
		return entry.Entry{}, err
	}
	return entry.ParseMarkdown(key, markdown, entry.UnknownAuthor, entry.UnknownAuthor)
}
