package services

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/server/repositories/entries"
)

// WebhookPayload is the push-event body GitHub delivers.
type WebhookPayload struct {
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []WebhookCommit `json:"commits"`
}

// WebhookCommit lists the content paths one commit touched.
type WebhookCommit struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// WebhookResult reports one applied change, keyed by its kind:
// {"added": {"entryId": 100, "tenantId": "_"}}.
type WebhookResult map[string]WebhookEntryRef

// WebhookEntryRef identifies the entry a change applied to.
type WebhookEntryRef struct {
	EntryID  int64  `json:"entryId"`
	TenantID string `json:"tenantId"`
}

// WebhookService applies push notifications to the region: added and
// modified paths are re-fetched from the authoritative source, removed paths
// are deleted.
type WebhookService struct {
	repository entries.EntryRepository
	fetcher    entries.EntryFetcher
	log        logging.Logger
}

// NewWebhookService wires the webhook service.
func NewWebhookService(repository entries.EntryRepository, fetcher entries.EntryFetcher, log logging.Logger) *WebhookService {
	return &WebhookService{repository: repository, fetcher: fetcher, log: log}
}

// Process applies every path of the payload sequentially, in commit order,
// added before modified before removed within each commit. Changes already
// applied are not rolled back when a later path fails; the error names the
// failed path so the delivery can be retried.
func (s *WebhookService) Process(ctx context.Context, tenantID string, payload WebhookPayload) ([]WebhookResult, error) {
	tenantID = entry.NormalizeTenantID(tenantID)
	results := make([]WebhookResult, 0)
	for _, commit := range payload.Commits {
		for _, contentPath := range commit.Added {
			if !isEntryPath(contentPath) {
				s.log.Warn(ctx, "skipping non-entry path", "path", contentPath)
				continue
			}
			ref, err := s.upsert(ctx, tenantID, contentPath)
			if err != nil {
				return results, err
			}
			results = append(results, WebhookResult{"added": ref})
		}
		for _, contentPath := range commit.Modified {
			if !isEntryPath(contentPath) {
				s.log.Warn(ctx, "skipping non-entry path", "path", contentPath)
				continue
			}
			ref, err := s.upsert(ctx, tenantID, contentPath)
			if err != nil {
				return results, err
			}
			results = append(results, WebhookResult{"modified": ref})
		}
		for _, contentPath := range commit.Removed {
			entryID, err := entry.ParseID(path.Base(contentPath))
			if err != nil {
				s.log.Warn(ctx, "skipping non-entry path", "path", contentPath)
				continue
			}
			key := entry.NewEntryKey(entryID, tenantID)
			if err := s.repository.DeleteByID(ctx, key); err != nil {
				return results, fmt.Errorf("remove %s: %w", contentPath, err)
			}
			results = append(results, WebhookResult{"removed": {EntryID: entryID, TenantID: tenantID}})
		}
	}
	return results, nil
}

func isEntryPath(contentPath string) bool {
	_, err := entry.ParseID(path.Base(contentPath))
	return err == nil
}

func (s *WebhookService) upsert(ctx context.Context, tenantID, contentPath string) (WebhookEntryRef, error) {
	fetched, err := s.fetcher.Fetch(ctx, tenantID, contentPath)
	if err != nil {
		if errors.Is(err, entries.ErrEntryNotFound) {
			s.log.Warn(ctx, "notified path vanished upstream", "tenantId", tenantID, "path", contentPath)
			return WebhookEntryRef{}, fmt.Errorf("sync %s: %w", contentPath, err)
		}
		return WebhookEntryRef{}, fmt.Errorf("sync %s: %w", contentPath, err)
	}
	if _, err := s.repository.Save(ctx, fetched); err != nil {
		return WebhookEntryRef{}, fmt.Errorf("sync %s: %w", contentPath, err)
	}
	return WebhookEntryRef{EntryID: fetched.EntryKey.EntryID, TenantID: fetched.EntryKey.TenantID}, nil
}
